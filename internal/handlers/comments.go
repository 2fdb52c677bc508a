package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/opencircle/backend/internal/middleware"
	"github.com/opencircle/backend/internal/models"
	"github.com/opencircle/backend/internal/services"
	"github.com/opencircle/backend/pkg/logger"
	"github.com/opencircle/backend/pkg/utils"
	"gorm.io/gorm"
)

type CommentsHandler struct {
	DB *gorm.DB
}

func NewCommentsHandler(db *gorm.DB) *CommentsHandler {
	return &CommentsHandler{DB: db}
}

func (h *CommentsHandler) List(c *fiber.Ctx) error {
	rawPostID := strings.TrimSpace(c.Query("postId"))
	if rawPostID == "" {
		return utils.Error(c, fiber.StatusBadRequest, "postId is required")
	}

	postID, err := parseUUID(rawPostID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "postId must be a valid id")
	}

	var comments []models.Comment
	if err := h.DB.Preload("User").
		Where("post_id = ?", postID).
		Order("created_at DESC, id DESC").
		Find(&comments).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching comments")
	}

	return utils.Success(c, fiber.StatusOK, comments)
}

type createCommentRequest struct {
	PostID  string `json:"postId"`
	Content string `json:"content"`
}

func (h *CommentsHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req createCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	postID, err := parseUUID(req.PostID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "postId must be a valid id")
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return utils.Error(c, fiber.StatusBadRequest, "content is required")
	}
	if len(content) > models.CommentContentMaxLength {
		return utils.Error(c, fiber.StatusBadRequest, "content exceeds maximum length")
	}

	var post models.Post
	if err := h.DB.First(&post, "id = ?", postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "post not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching post")
	}

	comment := models.Comment{
		Content: content,
		UserID:  currentUser.ID,
		PostID:  postID,
	}
	if err := h.DB.Create(&comment).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating comment")
	}

	comment.User = *currentUser

	logger.InfoWithUser(currentUser.ID.String(), "comment_created", map[string]interface{}{
		"comment_id": comment.ID.String(),
		"post_id":    postID.String(),
	})

	return utils.Success(c, fiber.StatusCreated, comment)
}

type updateCommentRequest struct {
	Content string `json:"content"`
}

func (h *CommentsHandler) Update(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	commentID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid comment id")
	}

	var req updateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return utils.Error(c, fiber.StatusBadRequest, "content is required")
	}
	if len(content) > models.CommentContentMaxLength {
		return utils.Error(c, fiber.StatusBadRequest, "content exceeds maximum length")
	}

	var comment models.Comment
	if err := h.DB.First(&comment, "id = ?", commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "comment not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching comment")
	}

	if decision := services.CanUpdateComment(currentUser, &comment); !decision.Allowed {
		return denied(c, decision)
	}

	if err := h.DB.Model(&comment).Update("content", content).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating comment")
	}
	comment.Content = content
	comment.User = *currentUser

	return utils.Success(c, fiber.StatusOK, comment)
}

func (h *CommentsHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	commentID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid comment id")
	}

	var comment models.Comment
	if err := h.DB.First(&comment, "id = ?", commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "comment not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching comment")
	}

	if decision := services.CanDeleteComment(currentUser, &comment); !decision.Allowed {
		return denied(c, decision)
	}

	if err := h.DB.Delete(&comment).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting comment")
	}

	logger.InfoWithUser(currentUser.ID.String(), "comment_deleted", map[string]interface{}{
		"comment_id": comment.ID.String(),
		"owner_id":   comment.UserID.String(),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "comment deleted"})
}
