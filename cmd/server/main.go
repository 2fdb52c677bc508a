package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/opencircle/backend/internal/config"
	"github.com/opencircle/backend/internal/database"
	"github.com/opencircle/backend/internal/handlers"
	"github.com/opencircle/backend/internal/middleware"
	"github.com/opencircle/backend/internal/services"
	"github.com/opencircle/backend/pkg/logger"
	"github.com/opencircle/backend/pkg/utils"
)

func main() {
	logger.Init()

	cfg := config.Load()
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationHours)

	db, err := database.Connect(cfg.DB)
	if err != nil {
		logger.Error("database_connect_failed", err, nil)
		os.Exit(1)
	}

	policy := services.NewPolicyService(db)
	broadcast := services.NewBroadcastService(cfg.Pusher)
	oauthProviders := services.NewOAuthProviderService(cfg)
	sso := services.NewSSOService(db)

	authHandler := handlers.NewAuthHandler(db)
	manageUsersHandler := handlers.NewManageUsersHandler(db, policy)
	postsHandler := handlers.NewPostsHandler(db)
	commentsHandler := handlers.NewCommentsHandler(db)
	chatHandler := handlers.NewChatHandler(db, broadcast)
	ssoHandler := handlers.NewSSOHandler(cfg, oauthProviders, sso)

	auth := middleware.NewAuthMiddleware(db)
	authLimiter := middleware.NewRateLimiter(cfg.RateLimit)
	defer authLimiter.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "opencircle",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(middleware.CORS())
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", authLimiter.Handle, authHandler.Register)
	authGroup.Post("/login", authLimiter.Handle, authHandler.Login)
	authGroup.Get("/me", auth.RequireAuth, authHandler.Me)
	authGroup.Put("/me", auth.RequireAuth, authHandler.UpdateMe)
	authGroup.Delete("/me", auth.RequireAuth, authHandler.DeleteMe)
	authGroup.Put("/password", auth.RequireAuth, authHandler.ChangePassword)

	authGroup.Get("/sso/providers", ssoHandler.ListProviders)
	authGroup.Get("/sso/linked-accounts", auth.RequireAuth, ssoHandler.LinkedAccounts)
	authGroup.Get("/sso/oauth/:provider", ssoHandler.Login)
	authGroup.Get("/sso/oauth/:provider/callback", ssoHandler.Callback)

	manageUsers := api.Group("/manage/users", auth.RequireAuth)
	manageUsers.Get("/", manageUsersHandler.List)
	manageUsers.Put("/", manageUsersHandler.ChangeRole)
	manageUsers.Delete("/", manageUsersHandler.Delete)

	posts := api.Group("/posts")
	posts.Get("/", postsHandler.List)
	posts.Post("/", auth.RequireAuth, postsHandler.Create)
	posts.Post("/like", auth.RequireAuth, postsHandler.ToggleLike)
	posts.Get("/like", auth.OptionalAuth, postsHandler.LikeStatus)

	comments := api.Group("/comments")
	comments.Get("/", commentsHandler.List)
	comments.Post("/", auth.RequireAuth, commentsHandler.Create)
	comments.Put("/:id", auth.RequireAuth, commentsHandler.Update)
	comments.Delete("/:id", auth.RequireAuth, commentsHandler.Delete)

	chat := api.Group("/chat")
	chat.Get("/", chatHandler.List)
	chat.Post("/", auth.RequireAuth, chatHandler.Create)

	app.Get("/health", func(c *fiber.Ctx) error {
		return utils.Success(c, fiber.StatusOK, fiber.Map{"status": "ok"})
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit

		logger.Info("server_shutting_down", nil)
		if err := app.Shutdown(); err != nil {
			logger.Error("server_shutdown_failed", err, nil)
		}
	}()

	logger.Info("server_starting", map[string]interface{}{
		"port": cfg.Server.Port,
	})

	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		logger.Error("server_listen_failed", err, nil)
		os.Exit(1)
	}
}
