package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/opencircle/backend/internal/middleware"
	"github.com/opencircle/backend/internal/models"
	"github.com/opencircle/backend/internal/services"
	"github.com/opencircle/backend/pkg/logger"
	"github.com/opencircle/backend/pkg/utils"
	"gorm.io/gorm"
)

// ManageUsersHandler serves the user-management surface. Every route checks
// the policy service first; the handlers only do request plumbing.
type ManageUsersHandler struct {
	DB     *gorm.DB
	Policy *services.PolicyService
}

func NewManageUsersHandler(db *gorm.DB, policy *services.PolicyService) *ManageUsersHandler {
	return &ManageUsersHandler{DB: db, Policy: policy}
}

func (h *ManageUsersHandler) List(c *fiber.Ctx) error {
	actor := middleware.GetCurrentUser(c)

	if decision := h.Policy.CanListUsers(actor); !decision.Allowed {
		return denied(c, decision)
	}

	params := utils.ParsePagination(c)
	search := strings.TrimSpace(c.Query("search"))

	query := h.DB.Model(&models.User{})
	if search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed counting users")
	}

	var users []models.User
	if err := utils.ApplyPagination(query, params).Order("created_at DESC").Find(&users).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching users")
	}

	projected := make([]map[string]interface{}, 0, len(users))
	for i := range users {
		projected = append(projected, users[i].PublicProjection())
	}

	return utils.Paginated(c, projected, params.Page, params.Limit, total)
}

type changeRoleRequest struct {
	UserID  string `json:"userId"`
	NewRole string `json:"newRole"`
}

func (h *ManageUsersHandler) ChangeRole(c *fiber.Ctx) error {
	actor := middleware.GetCurrentUser(c)

	var req changeRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	targetID, err := parseUUID(req.UserID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "userId must be a valid id")
	}

	newRole := models.UserRole(strings.ToLower(strings.TrimSpace(req.NewRole)))
	if !newRole.Valid() {
		return utils.Error(c, fiber.StatusBadRequest, "newRole must be one of member, manager, admin")
	}

	decision, target := h.Policy.CanChangeRole(c.Context(), actor, targetID, newRole)
	if !decision.Allowed {
		return denied(c, decision)
	}

	if err := h.DB.Model(target).Update("role", newRole).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating role")
	}
	target.Role = newRole

	logger.InfoWithUser(actor.ID.String(), "user_role_changed", map[string]interface{}{
		"target_id": target.ID.String(),
		"new_role":  string(newRole),
	})

	return utils.Success(c, fiber.StatusOK, target.PublicProjection())
}

type deleteUserRequest struct {
	UserID string `json:"userId"`
}

func (h *ManageUsersHandler) Delete(c *fiber.Ctx) error {
	actor := middleware.GetCurrentUser(c)

	var req deleteUserRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	targetID, err := parseUUID(req.UserID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "userId must be a valid id")
	}

	decision, target := h.Policy.CanDeleteUser(c.Context(), actor, targetID)
	if !decision.Allowed {
		return denied(c, decision)
	}

	// Selecting the associations removes the user's content in the same
	// operation, so no orphaned posts or comments survive the account.
	if err := h.DB.Select("Posts", "Comments", "Likes", "Messages", "LinkedAccounts").Delete(target).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting user")
	}

	logger.InfoWithUser(actor.ID.String(), "user_deleted", map[string]interface{}{
		"target_id":    target.ID.String(),
		"target_email": target.Email,
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "user deleted"})
}
