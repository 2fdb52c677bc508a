package handlers

import (
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/opencircle/backend/internal/config"
	"github.com/opencircle/backend/internal/middleware"
	"github.com/opencircle/backend/internal/services"
	"github.com/opencircle/backend/pkg/logger"
	"github.com/opencircle/backend/pkg/utils"
)

const oauthStateCookie = "oauth_state"

type SSOHandler struct {
	Cfg       *config.Config
	Providers *services.OAuthProviderService
	SSO       *services.SSOService
}

func NewSSOHandler(cfg *config.Config, providers *services.OAuthProviderService, sso *services.SSOService) *SSOHandler {
	return &SSOHandler{Cfg: cfg, Providers: providers, SSO: sso}
}

// ListProviders tells the frontend which sign-in buttons to render.
func (h *SSOHandler) ListProviders(c *fiber.Ctx) error {
	providers := []fiber.Map{}
	if h.Cfg.SSO.Google.Enabled {
		providers = append(providers, fiber.Map{"name": "google", "loginUrl": "/api/auth/sso/oauth/google"})
	}
	if h.Cfg.SSO.GitHub.Enabled {
		providers = append(providers, fiber.Map{"name": "github", "loginUrl": "/api/auth/sso/oauth/github"})
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"providers": providers})
}

// Login starts the authorization-code flow. The state nonce lives in a
// short-lived cookie and is checked again on the callback.
func (h *SSOHandler) Login(c *fiber.Ctx) error {
	provider := c.Params("provider")

	oauthCfg, _, err := h.Providers.GetOAuthConfig(provider)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	state := uuid.NewString()
	c.Cookie(&fiber.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Expires:  time.Now().Add(10 * time.Minute),
		HTTPOnly: true,
		SameSite: "Lax",
	})

	return c.Redirect(oauthCfg.AuthCodeURL(state), fiber.StatusTemporaryRedirect)
}

// Callback completes the flow: verify state, exchange the code, fetch the
// profile, resolve the local account and hand the frontend a session token.
func (h *SSOHandler) Callback(c *fiber.Ctx) error {
	provider := c.Params("provider")

	state := c.Query("state")
	if state == "" || state != c.Cookies(oauthStateCookie) {
		return utils.Error(c, fiber.StatusBadRequest, "invalid oauth state")
	}
	c.ClearCookie(oauthStateCookie)

	code := c.Query("code")
	if code == "" {
		return utils.Error(c, fiber.StatusBadRequest, "missing authorization code")
	}

	token, err := h.Providers.ExchangeCode(c.Context(), provider, code)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	profile, err := h.Providers.GetUserInfo(c.Context(), provider, token)
	if err != nil {
		logger.Warn("oauth_userinfo_failed", map[string]interface{}{
			"provider": provider,
			"error":    err.Error(),
		})
		return utils.Error(c, fiber.StatusBadGateway, "failed fetching user profile")
	}

	user, err := h.SSO.FindOrCreateUser(c.Context(), profile)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed resolving account")
	}

	sessionToken, err := utils.GenerateToken(user)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed generating token")
	}

	logger.InfoWithUser(user.ID.String(), "sso_login", map[string]interface{}{
		"provider": provider,
	})

	redirect := h.Cfg.Server.FrontendURL + "/auth/callback?token=" + url.QueryEscape(sessionToken)
	return c.Redirect(redirect, fiber.StatusTemporaryRedirect)
}

// LinkedAccounts lists the OAuth identities attached to the caller.
func (h *SSOHandler) LinkedAccounts(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	accounts, err := h.SSO.GetLinkedAccounts(c.Context(), currentUser)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching linked accounts")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"accounts": accounts})
}
