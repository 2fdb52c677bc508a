package services

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/opencircle/backend/internal/config"
	"github.com/opencircle/backend/internal/models"
	"gorm.io/gorm"
)

func setupSSOTest(t *testing.T) (*SSOService, *gorm.DB) {
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

	if err := db.AutoMigrate(&models.User{}, &models.LinkedAccount{}); err != nil {
		t.Fatalf("failed automigrating models: %v", err)
	}

	return NewSSOService(db), db
}

func githubProfile(email string) *OAuthProfile {
	return &OAuthProfile{
		Provider:       models.AuthProviderGitHub,
		ProviderUserID: "12345",
		Email:          email,
		Name:           "Octo Cat",
		RawProfile:     map[string]interface{}{"login": "octocat"},
	}
}

func TestFindOrCreateUserCreatesMember(t *testing.T) {
	sso, db := setupSSOTest(t)

	user, err := sso.FindOrCreateUser(context.Background(), githubProfile("octo@example.com"))
	if err != nil {
		t.Fatalf("failed resolving profile: %v", err)
	}

	if user.Role != models.UserRoleMember {
		t.Fatalf("expected new accounts to start as member, got %q", user.Role)
	}
	if user.PasswordHash != nil {
		t.Fatal("expected no password hash on an OAuth account")
	}

	var linked models.LinkedAccount
	if err := db.First(&linked, "user_id = ?", user.ID).Error; err != nil {
		t.Fatalf("expected a linked account row: %v", err)
	}
	if linked.ProviderUserID != "12345" {
		t.Fatalf("unexpected linked account: %+v", linked)
	}
}

func TestFindOrCreateUserLinksExistingAccount(t *testing.T) {
	sso, db := setupSSOTest(t)

	existing := &models.User{Email: "octo@example.com", Name: "Existing", Role: models.UserRoleManager}
	if err := db.Create(existing).Error; err != nil {
		t.Fatalf("failed creating user: %v", err)
	}

	user, err := sso.FindOrCreateUser(context.Background(), githubProfile("octo@example.com"))
	if err != nil {
		t.Fatalf("failed resolving profile: %v", err)
	}

	if user.ID != existing.ID {
		t.Fatalf("expected the existing account, got %s", user.ID)
	}
	if user.Role != models.UserRoleManager {
		t.Fatalf("linking must not touch the role, got %q", user.Role)
	}

	var count int64
	db.Model(&models.User{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected no duplicate account, got %d users", count)
	}
}

func TestFindOrCreateUserIdempotentLink(t *testing.T) {
	sso, db := setupSSOTest(t)
	ctx := context.Background()

	if _, err := sso.FindOrCreateUser(ctx, githubProfile("octo@example.com")); err != nil {
		t.Fatalf("first resolution failed: %v", err)
	}
	if _, err := sso.FindOrCreateUser(ctx, githubProfile("octo@example.com")); err != nil {
		t.Fatalf("second resolution failed: %v", err)
	}

	var count int64
	db.Model(&models.LinkedAccount{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected a single linked account row, got %d", count)
	}
}

func TestBroadcastServiceDisabledIsNoOp(t *testing.T) {
	broadcast := NewBroadcastService(config.PusherConfig{})

	if broadcast.Enabled() {
		t.Fatal("expected broadcast disabled without credentials")
	}
	if err := broadcast.NewChatMessage(&models.Message{Content: "hello"}); err != nil {
		t.Fatalf("disabled broadcast must not error: %v", err)
	}
}
