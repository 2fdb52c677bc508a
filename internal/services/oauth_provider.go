package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/opencircle/backend/internal/config"
	"github.com/opencircle/backend/internal/models"
	"github.com/opencircle/backend/pkg/logger"
	"golang.org/x/oauth2"
	github "golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

type OAuthProviderService struct {
	Cfg *config.Config
}

func NewOAuthProviderService(cfg *config.Config) *OAuthProviderService {
	return &OAuthProviderService{Cfg: cfg}
}

func (s *OAuthProviderService) GetOAuthConfig(provider string) (*oauth2.Config, models.AuthProvider, error) {
	switch strings.ToLower(provider) {
	case "google":
		if !s.Cfg.SSO.Google.Enabled {
			return nil, "", errors.New("google oauth is not enabled")
		}
		return &oauth2.Config{
			ClientID:     s.Cfg.SSO.Google.ClientID,
			ClientSecret: s.Cfg.SSO.Google.ClientSecret,
			RedirectURL:  s.Cfg.SSO.Google.RedirectURL,
			Scopes:       strings.Split(s.Cfg.SSO.Google.Scopes, ","),
			Endpoint:     google.Endpoint,
		}, models.AuthProviderGoogle, nil

	case "github":
		if !s.Cfg.SSO.GitHub.Enabled {
			return nil, "", errors.New("github oauth is not enabled")
		}
		return &oauth2.Config{
			ClientID:     s.Cfg.SSO.GitHub.ClientID,
			ClientSecret: s.Cfg.SSO.GitHub.ClientSecret,
			RedirectURL:  s.Cfg.SSO.GitHub.RedirectURL,
			Scopes:       strings.Split(s.Cfg.SSO.GitHub.Scopes, ","),
			Endpoint:     github.Endpoint,
		}, models.AuthProviderGitHub, nil

	default:
		return nil, "", errors.New("unknown oauth provider: " + provider)
	}
}

func (s *OAuthProviderService) ExchangeCode(ctx context.Context, provider string, code string) (*oauth2.Token, error) {
	oauthCfg, _, err := s.GetOAuthConfig(provider)
	if err != nil {
		return nil, err
	}

	token, err := oauthCfg.Exchange(ctx, code)
	if err != nil {
		logger.Warn("oauth_exchange_failed", map[string]interface{}{
			"provider": provider,
			"error":    err.Error(),
		})
		return nil, errors.New("failed to exchange code for token")
	}

	return token, nil
}

func (s *OAuthProviderService) GetUserInfo(ctx context.Context, provider string, token *oauth2.Token) (*OAuthProfile, error) {
	switch strings.ToLower(provider) {
	case "google":
		return s.getGoogleUserInfo(ctx, token)
	case "github":
		return s.getGitHubUserInfo(ctx, token)
	default:
		return nil, errors.New("unknown provider: " + provider)
	}
}

func (s *OAuthProviderService) getGoogleUserInfo(ctx context.Context, token *oauth2.Token) (*OAuthProfile, error) {
	oauthCfg, _, err := s.GetOAuthConfig("google")
	if err != nil {
		return nil, err
	}
	client := oauthCfg.Client(ctx, token)

	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("google api returned status %d: %s", resp.StatusCode, string(body))
	}

	var data struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}

	if data.Email == "" {
		return nil, errors.New("google email not available")
	}

	return &OAuthProfile{
		Provider:       models.AuthProviderGoogle,
		ProviderUserID: data.ID,
		Email:          data.Email,
		Name:           data.Name,
		Image:          optionalString(data.Picture),
		RawProfile: map[string]interface{}{
			"id":      data.ID,
			"email":   data.Email,
			"name":    data.Name,
			"picture": data.Picture,
		},
	}, nil
}

func (s *OAuthProviderService) getGitHubUserInfo(ctx context.Context, token *oauth2.Token) (*OAuthProfile, error) {
	oauthCfg, _, err := s.GetOAuthConfig("github")
	if err != nil {
		return nil, err
	}
	client := oauthCfg.Client(ctx, token)

	resp, err := client.Get("https://api.github.com/user")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("github api returned status %d: %s", resp.StatusCode, string(body))
	}

	var data struct {
		ID        int    `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}

	if data.Email == "" {
		emailResp, err := client.Get("https://api.github.com/user/emails")
		if err == nil {
			defer emailResp.Body.Close()
			var emails []struct {
				Email    string `json:"email"`
				Primary  bool   `json:"primary"`
				Verified bool   `json:"verified"`
			}
			if json.NewDecoder(emailResp.Body).Decode(&emails) == nil {
				for _, e := range emails {
					if e.Primary && e.Verified {
						data.Email = e.Email
						break
					}
				}
			}
		}
	}

	if data.Email == "" {
		return nil, errors.New("github email not available")
	}

	name := data.Name
	if name == "" {
		name = data.Login
	}

	return &OAuthProfile{
		Provider:       models.AuthProviderGitHub,
		ProviderUserID: fmt.Sprintf("%d", data.ID),
		Email:          data.Email,
		Name:           name,
		Image:          optionalString(data.AvatarURL),
		RawProfile: map[string]interface{}{
			"id":         data.ID,
			"login":      data.Login,
			"name":       data.Name,
			"email":      data.Email,
			"avatar_url": data.AvatarURL,
		},
	}, nil
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
