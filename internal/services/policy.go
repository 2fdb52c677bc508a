package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/opencircle/backend/internal/models"
	"gorm.io/gorm"
)

// DenyReason is the closed set of denial outcomes. Handlers translate them
// 1:1 into HTTP statuses, so policy code never touches fiber.
type DenyReason string

const (
	DenyUnauthenticated DenyReason = "unauthenticated"
	DenyUnauthorized    DenyReason = "unauthorized"
	DenyForbidden       DenyReason = "forbidden"
	DenyNotFound        DenyReason = "not_found"
	DenyInternal        DenyReason = "internal"
)

type Decision struct {
	Allowed bool
	Reason  DenyReason
	Message string
}

func Allow() Decision {
	return Decision{Allowed: true}
}

func Deny(reason DenyReason, message string) Decision {
	return Decision{Reason: reason, Message: message}
}

// PolicyService is the single source of truth for the user-management role
// matrix. Every manage-users handler consults it instead of re-deriving the
// manager/admin gate inline.
type PolicyService struct {
	DB *gorm.DB
}

func NewPolicyService(db *gorm.DB) *PolicyService {
	return &PolicyService{DB: db}
}

// CanListUsers gates the user listing. Plain members have no
// user-management capability at all.
func (p *PolicyService) CanListUsers(actor *models.User) Decision {
	if actor == nil {
		return Deny(DenyUnauthenticated, "please sign in")
	}
	if !actor.Role.CanManageUsers() {
		return Deny(DenyUnauthorized, "unauthorized")
	}
	return Allow()
}

// CanChangeRole decides whether actor may move the target user to newRole.
// Managers can shuffle member and manager roles but can never touch admin
// in either direction; admins can do anything. The target is returned on
// Allow so the handler does not re-fetch it.
func (p *PolicyService) CanChangeRole(ctx context.Context, actor *models.User, targetID uuid.UUID, newRole models.UserRole) (Decision, *models.User) {
	if actor == nil {
		return Deny(DenyUnauthenticated, "please sign in"), nil
	}
	if !actor.Role.CanManageUsers() {
		return Deny(DenyUnauthorized, "unauthorized"), nil
	}

	target, decision := p.findTarget(ctx, targetID)
	if !decision.Allowed {
		return decision, nil
	}

	if actor.Role == models.UserRoleManager {
		if target.Role == models.UserRoleAdmin || newRole == models.UserRoleAdmin {
			return Deny(DenyForbidden, "managers cannot modify admin roles"), nil
		}
	}

	return Allow(), target
}

// CanDeleteUser decides whether actor may delete the target account.
// Managers may only delete plain members; admins may delete anyone.
func (p *PolicyService) CanDeleteUser(ctx context.Context, actor *models.User, targetID uuid.UUID) (Decision, *models.User) {
	if actor == nil {
		return Deny(DenyUnauthenticated, "please sign in"), nil
	}
	if !actor.Role.CanManageUsers() {
		return Deny(DenyUnauthorized, "unauthorized"), nil
	}

	target, decision := p.findTarget(ctx, targetID)
	if !decision.Allowed {
		return decision, nil
	}

	if actor.Role == models.UserRoleManager && target.Role != models.UserRoleMember {
		return Deny(DenyForbidden, "managers can only delete members"), nil
	}

	return Allow(), target
}

func (p *PolicyService) findTarget(ctx context.Context, targetID uuid.UUID) (*models.User, Decision) {
	var target models.User
	if err := p.DB.WithContext(ctx).First(&target, "id = ?", targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Deny(DenyNotFound, "user not found")
		}
		return nil, Deny(DenyInternal, "failed fetching user")
	}
	return &target, Allow()
}

// CanUpdateComment: only the comment's owner may edit it, admins included.
func CanUpdateComment(actor *models.User, comment *models.Comment) Decision {
	if actor == nil {
		return Deny(DenyUnauthenticated, "please sign in")
	}
	if comment.UserID != actor.ID {
		return Deny(DenyForbidden, "you are not allowed to update this comment")
	}
	return Allow()
}

// CanDeleteComment: the owner may delete, and so may any admin.
func CanDeleteComment(actor *models.User, comment *models.Comment) Decision {
	if actor == nil {
		return Deny(DenyUnauthenticated, "please sign in")
	}
	if comment.UserID != actor.ID && actor.Role != models.UserRoleAdmin {
		return Deny(DenyForbidden, "you are not allowed to delete this comment")
	}
	return Allow()
}
