package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/opencircle/backend/internal/config"
	"github.com/opencircle/backend/internal/database"
	"github.com/opencircle/backend/internal/middleware"
	"github.com/opencircle/backend/internal/models"
	"github.com/opencircle/backend/internal/services"
	"github.com/opencircle/backend/pkg/logger"
	"github.com/opencircle/backend/pkg/utils"
	"gorm.io/gorm"
)

type testEnv struct {
	app *fiber.App
	db  *gorm.DB
}

var testSetupOnce sync.Once

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testSetupOnce.Do(func() {
		logger.Init()
		utils.ConfigureJWT("test-secret", 24)
	})

	// TranslateError matches the production connection, so duplicate-key
	// paths behave the same under sqlite as under postgres.
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed automigrating models: %v", err)
	}

	cfg := &config.Config{
		Server: config.ServerConfig{
			FrontendURL: "http://localhost:3000",
		},
	}

	policy := services.NewPolicyService(db)
	broadcast := services.NewBroadcastService(cfg.Pusher)
	oauthProviders := services.NewOAuthProviderService(cfg)
	sso := services.NewSSOService(db)

	authHandler := NewAuthHandler(db)
	manageUsersHandler := NewManageUsersHandler(db, policy)
	postsHandler := NewPostsHandler(db)
	commentsHandler := NewCommentsHandler(db)
	chatHandler := NewChatHandler(db, broadcast)
	ssoHandler := NewSSOHandler(cfg, oauthProviders, sso)
	authMiddleware := middleware.NewAuthMiddleware(db)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(recover.New())
	app.Use(middleware.CORS())
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", authHandler.Register)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Get("/me", authMiddleware.RequireAuth, authHandler.Me)
	authRoutes.Put("/me", authMiddleware.RequireAuth, authHandler.UpdateMe)
	authRoutes.Delete("/me", authMiddleware.RequireAuth, authHandler.DeleteMe)
	authRoutes.Put("/password", authMiddleware.RequireAuth, authHandler.ChangePassword)

	authRoutes.Get("/sso/providers", ssoHandler.ListProviders)
	authRoutes.Get("/sso/linked-accounts", authMiddleware.RequireAuth, ssoHandler.LinkedAccounts)
	authRoutes.Get("/sso/oauth/:provider", ssoHandler.Login)
	authRoutes.Get("/sso/oauth/:provider/callback", ssoHandler.Callback)

	manageUserRoutes := api.Group("/manage/users", authMiddleware.RequireAuth)
	manageUserRoutes.Get("/", manageUsersHandler.List)
	manageUserRoutes.Put("/", manageUsersHandler.ChangeRole)
	manageUserRoutes.Delete("/", manageUsersHandler.Delete)

	postRoutes := api.Group("/posts")
	postRoutes.Get("/", postsHandler.List)
	postRoutes.Post("/", authMiddleware.RequireAuth, postsHandler.Create)
	postRoutes.Post("/like", authMiddleware.RequireAuth, postsHandler.ToggleLike)
	postRoutes.Get("/like", authMiddleware.OptionalAuth, postsHandler.LikeStatus)

	commentRoutes := api.Group("/comments")
	commentRoutes.Get("/", commentsHandler.List)
	commentRoutes.Post("/", authMiddleware.RequireAuth, commentsHandler.Create)
	commentRoutes.Put("/:id", authMiddleware.RequireAuth, commentsHandler.Update)
	commentRoutes.Delete("/:id", authMiddleware.RequireAuth, commentsHandler.Delete)

	chatRoutes := api.Group("/chat")
	chatRoutes.Get("/", chatHandler.List)
	chatRoutes.Post("/", authMiddleware.RequireAuth, chatHandler.Create)

	return &testEnv{app: app, db: db}
}

func createTestUser(t *testing.T, db *gorm.DB, email, password string, role models.UserRole) (*models.User, string) {
	t.Helper()

	hash, err := utils.HashPassword(password)
	if err != nil {
		t.Fatalf("failed hashing password: %v", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: &hash,
		Name:         "Test User",
		Role:         role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed creating test user: %v", err)
	}

	token, err := utils.GenerateToken(user)
	if err != nil {
		t.Fatalf("failed generating auth token: %v", err)
	}

	return user, token
}

func createTestPost(t *testing.T, db *gorm.DB, user *models.User, content string, createdAt time.Time) *models.Post {
	t.Helper()

	post := &models.Post{Content: content, UserID: user.ID}
	if err := db.Create(post).Error; err != nil {
		t.Fatalf("failed creating test post: %v", err)
	}
	if !createdAt.IsZero() {
		if err := db.Model(post).Update("created_at", createdAt).Error; err != nil {
			t.Fatalf("failed backdating test post: %v", err)
		}
		post.CreatedAt = createdAt
	}
	return post
}

func createTestMessage(t *testing.T, db *gorm.DB, user *models.User, content string, createdAt time.Time) *models.Message {
	t.Helper()

	message := &models.Message{Content: content, UserID: user.ID}
	if err := db.Create(message).Error; err != nil {
		t.Fatalf("failed creating test message: %v", err)
	}
	if !createdAt.IsZero() {
		if err := db.Model(message).Update("created_at", createdAt).Error; err != nil {
			t.Fatalf("failed backdating test message: %v", err)
		}
		message.CreatedAt = createdAt
	}
	return message
}

func authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func performRequest(t *testing.T, app *fiber.App, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, int((10 * time.Second).Milliseconds()))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}

	return resp
}

func performJSONRequest(t *testing.T, app *fiber.App, method, path string, payload any, headers map[string]string) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	requestHeaders := map[string]string{}
	for key, value := range headers {
		requestHeaders[key] = value
	}
	if payload != nil {
		requestHeaders["Content-Type"] = "application/json"
	}

	return performRequest(t, app, method, path, body, requestHeaders)
}

func decodeJSONMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading response body: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed decoding JSON response: %v body=%q", err, string(raw))
	}

	return payload
}

func dataMap(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %+v", body)
	}
	return data
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

func assertEnvelopeError(t *testing.T, body map[string]any, expected string) {
	t.Helper()
	if success, _ := body["success"].(bool); success {
		t.Fatalf("expected success=false, got %+v", body)
	}
	if got, _ := body["error"].(string); got != expected {
		t.Fatalf("expected error %q, got %q", expected, got)
	}
}
