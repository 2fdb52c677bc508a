package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DB        DBConfig
	JWT       JWTConfig
	Server    ServerConfig
	SSO       SSOConfig
	Pusher    PusherConfig
	RateLimit RateLimitConfig
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

type ServerConfig struct {
	Port        string
	FrontendURL string
}

type OAuthProviderConfig struct {
	Enabled      bool
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       string
}

type SSOConfig struct {
	Google OAuthProviderConfig
	GitHub OAuthProviderConfig
}

type PusherConfig struct {
	AppID   string
	Key     string
	Secret  string
	Cluster string
}

func (p PusherConfig) Enabled() bool {
	return p.AppID != "" && p.Key != "" && p.Secret != ""
}

type RateLimitConfig struct {
	AuthPerMinute int
	AuthBurst     int
}

type AdminSeedConfig struct {
	Email    string
	Password string
}

func Load() *Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	return &Config{
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "opencircle"),
			Password: getEnv("DB_PASSWORD", "opencircle_secret"),
			Name:     getEnv("DB_NAME", "opencircle"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:          getEnv("JWT_SECRET", "change-me-in-production"),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
		},
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		},
		SSO: SSOConfig{
			Google: OAuthProviderConfig{
				Enabled:      getEnvAsBool("SSO_GOOGLE_ENABLED", false),
				ClientID:     getEnv("SSO_GOOGLE_CLIENT_ID", ""),
				ClientSecret: getEnv("SSO_GOOGLE_CLIENT_SECRET", ""),
				RedirectURL:  getEnv("SSO_GOOGLE_REDIRECT_URL", ""),
				Scopes:       getEnv("SSO_GOOGLE_SCOPES", "openid,email,profile"),
			},
			GitHub: OAuthProviderConfig{
				Enabled:      getEnvAsBool("SSO_GITHUB_ENABLED", false),
				ClientID:     getEnv("SSO_GITHUB_CLIENT_ID", ""),
				ClientSecret: getEnv("SSO_GITHUB_CLIENT_SECRET", ""),
				RedirectURL:  getEnv("SSO_GITHUB_REDIRECT_URL", ""),
				Scopes:       getEnv("SSO_GITHUB_SCOPES", "read:user,user:email"),
			},
		},
		Pusher: PusherConfig{
			AppID:   getEnv("PUSHER_APP_ID", ""),
			Key:     getEnv("PUSHER_APP_KEY", ""),
			Secret:  getEnv("PUSHER_APP_SECRET", ""),
			Cluster: getEnv("PUSHER_APP_CLUSTER", "ap1"),
		},
		RateLimit: RateLimitConfig{
			AuthPerMinute: getEnvAsInt("AUTH_RATE_PER_MINUTE", 10),
			AuthBurst:     getEnvAsInt("AUTH_RATE_BURST", 10),
		},
	}
}

func AdminSeed() AdminSeedConfig {
	return AdminSeedConfig{
		Email:    getEnv("ADMIN_EMAIL", "admin@opencircle.local"),
		Password: getEnv("ADMIN_PASSWORD", "admin123"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}
