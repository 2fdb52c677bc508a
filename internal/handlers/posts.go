package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/opencircle/backend/internal/middleware"
	"github.com/opencircle/backend/internal/models"
	"github.com/opencircle/backend/pkg/logger"
	"github.com/opencircle/backend/pkg/utils"
	"gorm.io/gorm"
)

const (
	defaultPostPageSize = 15
	maxPostPageSize     = 50
)

type PostsHandler struct {
	DB *gorm.DB
}

func NewPostsHandler(db *gorm.DB) *PostsHandler {
	return &PostsHandler{DB: db}
}

type createPostRequest struct {
	Content string `json:"content"`
}

func (h *PostsHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req createPostRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return utils.Error(c, fiber.StatusBadRequest, "content is required")
	}
	if len(content) > models.PostContentMaxLength {
		return utils.Error(c, fiber.StatusBadRequest, "content exceeds maximum length")
	}

	post := models.Post{
		Content: content,
		UserID:  currentUser.ID,
	}
	if err := h.DB.Create(&post).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating post")
	}

	post.User = *currentUser

	logger.InfoWithUser(currentUser.ID.String(), "post_created", map[string]interface{}{
		"post_id": post.ID.String(),
	})

	return utils.Success(c, fiber.StatusCreated, post)
}

// List walks the feed newest-first with a keyset cursor. The cursor is the id
// of the oldest post on the previous page; ordering is on the (created_at, id)
// pair so posts sharing a timestamp still page deterministically. Each page is
// returned oldest-first so clients can prepend older pages as they scroll.
func (h *PostsHandler) List(c *fiber.Ctx) error {
	limit := clampPageSize(c.Query("limit"), defaultPostPageSize, maxPostPageSize)

	query := h.DB.Model(&models.Post{}).
		Preload("User").
		Preload("Likes").
		Order("created_at DESC, id DESC").
		Limit(limit + 1)

	if cursor := strings.TrimSpace(c.Query("cursor")); cursor != "" {
		cursorID, err := parseUUID(cursor)
		if err != nil {
			return utils.Error(c, fiber.StatusBadRequest, "invalid cursor")
		}

		var pivot models.Post
		if err := h.DB.First(&pivot, "id = ?", cursorID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.Error(c, fiber.StatusBadRequest, "invalid cursor")
			}
			return utils.Error(c, fiber.StatusInternalServerError, "failed resolving cursor")
		}

		query = query.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			pivot.CreatedAt, pivot.CreatedAt, pivot.ID,
		)
	}

	var posts []models.Post
	if err := query.Find(&posts).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching posts")
	}

	hasMore := len(posts) > limit
	if hasMore {
		posts = posts[:limit]
	}

	var nextCursor *string
	if hasMore && len(posts) > 0 {
		id := posts[len(posts)-1].ID.String()
		nextCursor = &id
	}

	reverseInPlace(posts)

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"posts":      posts,
		"nextCursor": nextCursor,
		"hasMore":    hasMore,
	})
}

type toggleLikeRequest struct {
	PostID string `json:"postId"`
}

// ToggleLike flips the caller's like on a post. The unique (user, post) index
// is the arbiter under concurrency: losing an insert race surfaces as a
// duplicate-key error and answers 409 instead of double-counting.
func (h *PostsHandler) ToggleLike(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req toggleLikeRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	postID, err := parseUUID(req.PostID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "postId must be a valid id")
	}

	var post models.Post
	if err := h.DB.First(&post, "id = ?", postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "post not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching post")
	}

	var existing models.Like
	err = h.DB.First(&existing, "user_id = ? AND post_id = ?", currentUser.ID, postID).Error
	if err == nil {
		if err := h.DB.Delete(&existing).Error; err != nil {
			return utils.Error(c, fiber.StatusInternalServerError, "failed removing like")
		}
		return utils.Success(c, fiber.StatusOK, fiber.Map{"liked": false})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.Error(c, fiber.StatusInternalServerError, "failed checking like")
	}

	like := models.Like{UserID: currentUser.ID, PostID: postID}
	if err := h.DB.Create(&like).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.Error(c, fiber.StatusConflict, "like already recorded")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed recording like")
	}

	return utils.Success(c, fiber.StatusCreated, fiber.Map{"liked": true})
}

// LikeStatus answers whether the caller has liked a post. Anonymous callers
// get liked:false rather than a challenge so the feed can render logged out.
func (h *PostsHandler) LikeStatus(c *fiber.Ctx) error {
	rawPostID := strings.TrimSpace(c.Query("postId"))
	if rawPostID == "" {
		return utils.Error(c, fiber.StatusBadRequest, "postId is required")
	}

	postID, err := parseUUID(rawPostID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "postId must be a valid id")
	}

	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Success(c, fiber.StatusOK, fiber.Map{"liked": false})
	}

	var count int64
	if err := h.DB.Model(&models.Like{}).
		Where("user_id = ? AND post_id = ?", currentUser.ID, postID).
		Count(&count).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed checking like")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"liked": count > 0})
}

func clampPageSize(raw string, fallback, max int) int {
	limit := fallback
	if raw != "" {
		if parsed, err := parsePositiveInt(raw); err == nil {
			limit = parsed
		}
	}
	if limit < 1 {
		limit = fallback
	}
	if limit > max {
		limit = max
	}
	return limit
}

func reverseInPlace[T any](items []T) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
}
