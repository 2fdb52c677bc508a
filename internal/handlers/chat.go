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

const (
	defaultChatPageSize = 20
	maxChatPageSize     = 50
)

// ChatHandler serves the single shared chat room. Messages are append-only:
// there is no edit or delete surface, so history reads stay consistent.
type ChatHandler struct {
	DB        *gorm.DB
	Broadcast *services.BroadcastService
}

func NewChatHandler(db *gorm.DB, broadcast *services.BroadcastService) *ChatHandler {
	return &ChatHandler{DB: db, Broadcast: broadcast}
}

type createMessageRequest struct {
	Content string `json:"content"`
}

func (h *ChatHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req createMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return utils.Error(c, fiber.StatusBadRequest, "content is required")
	}
	if len(content) > models.MessageContentMaxLength {
		return utils.Error(c, fiber.StatusBadRequest, "content exceeds maximum length")
	}

	message := models.Message{
		Content: content,
		UserID:  currentUser.ID,
	}
	if err := h.DB.Create(&message).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating message")
	}

	message.User = *currentUser

	// The relay is best effort. The message is already persisted, so a
	// broadcast failure is logged and the request still succeeds.
	if err := h.Broadcast.NewChatMessage(&message); err != nil {
		logger.Warn("chat_broadcast_failed", map[string]interface{}{
			"message_id": message.ID.String(),
			"error":      err.Error(),
		})
	}

	return utils.Success(c, fiber.StatusCreated, message)
}

// List pages chat history newest-first with the same keyset cursor scheme as
// the feed, returning each page oldest-first for rendering.
func (h *ChatHandler) List(c *fiber.Ctx) error {
	limit := clampPageSize(c.Query("limit"), defaultChatPageSize, maxChatPageSize)

	query := h.DB.Model(&models.Message{}).
		Preload("User").
		Order("created_at DESC, id DESC").
		Limit(limit + 1)

	if cursor := strings.TrimSpace(c.Query("cursor")); cursor != "" {
		cursorID, err := parseUUID(cursor)
		if err != nil {
			return utils.Error(c, fiber.StatusBadRequest, "invalid cursor")
		}

		var pivot models.Message
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

	var messages []models.Message
	if err := query.Find(&messages).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching messages")
	}

	hasMore := len(messages) > limit
	if hasMore {
		messages = messages[:limit]
	}

	var nextCursor *string
	if hasMore && len(messages) > 0 {
		id := messages[len(messages)-1].ID.String()
		nextCursor = &id
	}

	reverseInPlace(messages)

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"messages":   messages,
		"nextCursor": nextCursor,
		"hasMore":    hasMore,
	})
}
