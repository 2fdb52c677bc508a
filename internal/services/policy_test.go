package services

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/opencircle/backend/internal/models"
	"gorm.io/gorm"
)

func setupPolicyTest(t *testing.T) (*PolicyService, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(&models.User{}, &models.Comment{}, &models.Post{}); err != nil {
		t.Fatalf("failed automigrating models: %v", err)
	}

	return NewPolicyService(db), db
}

func policyUser(t *testing.T, db *gorm.DB, email string, role models.UserRole) *models.User {
	t.Helper()

	user := &models.User{Email: email, Name: "Policy User", Role: role}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed creating user: %v", err)
	}
	return user
}

func TestCanListUsers(t *testing.T) {
	policy, db := setupPolicyTest(t)

	member := policyUser(t, db, "member@example.com", models.UserRoleMember)
	manager := policyUser(t, db, "manager@example.com", models.UserRoleManager)
	admin := policyUser(t, db, "admin@example.com", models.UserRoleAdmin)

	if d := policy.CanListUsers(nil); d.Allowed || d.Reason != DenyUnauthenticated {
		t.Fatalf("expected unauthenticated denial, got %+v", d)
	}
	if d := policy.CanListUsers(member); d.Allowed || d.Reason != DenyUnauthorized {
		t.Fatalf("expected member denial, got %+v", d)
	}
	if d := policy.CanListUsers(manager); !d.Allowed {
		t.Fatalf("expected manager allowed, got %+v", d)
	}
	if d := policy.CanListUsers(admin); !d.Allowed {
		t.Fatalf("expected admin allowed, got %+v", d)
	}
}

func TestCanChangeRoleMatrix(t *testing.T) {
	policy, db := setupPolicyTest(t)
	ctx := context.Background()

	member := policyUser(t, db, "member@example.com", models.UserRoleMember)
	manager := policyUser(t, db, "manager@example.com", models.UserRoleManager)
	admin := policyUser(t, db, "admin@example.com", models.UserRoleAdmin)

	cases := []struct {
		name    string
		actor   *models.User
		target  *models.User
		newRole models.UserRole
		allowed bool
		reason  DenyReason
	}{
		{"member denied outright", member, member, models.UserRoleManager, false, DenyUnauthorized},
		{"manager promotes member", manager, member, models.UserRoleManager, true, ""},
		{"manager demotes manager", manager, manager, models.UserRoleMember, true, ""},
		{"manager cannot touch admin target", manager, admin, models.UserRoleMember, false, DenyForbidden},
		{"manager cannot grant admin", manager, member, models.UserRoleAdmin, false, DenyForbidden},
		{"admin grants admin", admin, member, models.UserRoleAdmin, true, ""},
		{"admin demotes admin", admin, admin, models.UserRoleMember, true, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision, target := policy.CanChangeRole(ctx, tc.actor, tc.target.ID, tc.newRole)
			if decision.Allowed != tc.allowed {
				t.Fatalf("expected allowed=%v, got %+v", tc.allowed, decision)
			}
			if !tc.allowed && decision.Reason != tc.reason {
				t.Fatalf("expected reason %q, got %+v", tc.reason, decision)
			}
			if tc.allowed && target == nil {
				t.Fatalf("expected target returned on allow")
			}
		})
	}
}

func TestCanChangeRoleUnknownTarget(t *testing.T) {
	policy, db := setupPolicyTest(t)
	admin := policyUser(t, db, "admin@example.com", models.UserRoleAdmin)

	decision, _ := policy.CanChangeRole(context.Background(), admin, uuid.New(), models.UserRoleManager)
	if decision.Allowed || decision.Reason != DenyNotFound {
		t.Fatalf("expected not-found denial, got %+v", decision)
	}
}

func TestCanDeleteUserMatrix(t *testing.T) {
	policy, db := setupPolicyTest(t)
	ctx := context.Background()

	member := policyUser(t, db, "member@example.com", models.UserRoleMember)
	manager := policyUser(t, db, "manager@example.com", models.UserRoleManager)
	otherManager := policyUser(t, db, "manager2@example.com", models.UserRoleManager)
	admin := policyUser(t, db, "admin@example.com", models.UserRoleAdmin)
	otherAdmin := policyUser(t, db, "admin2@example.com", models.UserRoleAdmin)

	cases := []struct {
		name    string
		actor   *models.User
		target  *models.User
		allowed bool
		reason  DenyReason
	}{
		{"member denied outright", member, member, false, DenyUnauthorized},
		{"manager deletes member", manager, member, true, ""},
		{"manager cannot delete manager", manager, otherManager, false, DenyForbidden},
		{"manager cannot delete admin", manager, admin, false, DenyForbidden},
		{"admin deletes manager", admin, manager, true, ""},
		{"admin deletes admin", admin, otherAdmin, true, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision, _ := policy.CanDeleteUser(ctx, tc.actor, tc.target.ID)
			if decision.Allowed != tc.allowed {
				t.Fatalf("expected allowed=%v, got %+v", tc.allowed, decision)
			}
			if !tc.allowed && decision.Reason != tc.reason {
				t.Fatalf("expected reason %q, got %+v", tc.reason, decision)
			}
		})
	}
}

func TestCommentPolicies(t *testing.T) {
	_, db := setupPolicyTest(t)

	owner := policyUser(t, db, "owner@example.com", models.UserRoleMember)
	stranger := policyUser(t, db, "stranger@example.com", models.UserRoleMember)
	manager := policyUser(t, db, "manager@example.com", models.UserRoleManager)
	admin := policyUser(t, db, "admin@example.com", models.UserRoleAdmin)

	comment := &models.Comment{UserID: owner.ID}

	if d := CanUpdateComment(owner, comment); !d.Allowed {
		t.Fatalf("expected owner update allowed, got %+v", d)
	}
	for _, actor := range []*models.User{stranger, manager, admin} {
		if d := CanUpdateComment(actor, comment); d.Allowed {
			t.Fatalf("expected update denied for %s, got %+v", actor.Email, d)
		}
	}

	if d := CanDeleteComment(owner, comment); !d.Allowed {
		t.Fatalf("expected owner delete allowed, got %+v", d)
	}
	if d := CanDeleteComment(admin, comment); !d.Allowed {
		t.Fatalf("expected admin delete allowed, got %+v", d)
	}
	for _, actor := range []*models.User{stranger, manager} {
		if d := CanDeleteComment(actor, comment); d.Allowed {
			t.Fatalf("expected delete denied for %s, got %+v", actor.Email, d)
		}
	}
}
