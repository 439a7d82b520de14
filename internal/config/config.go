package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	OAuth     OAuthConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// OAuthConfig describes the OIDC client side of the login flow.
type OAuthConfig struct {
	// SuccessURL is where the browser lands after a completed login.
	// In dev this points at the Vite dev server; in production it is "/"
	// since the backend serves the SPA.
	SuccessURL string
	// StateSecret signs the oauth2 state parameter.
	StateSecret string
	// RedirectBase is the externally visible base URL for callback paths.
	RedirectBase string
	// DefaultProvider names the registration unauthenticated browser
	// navigation is redirected to.
	DefaultProvider string
	SessionTTL      time.Duration
	Providers       map[string]ProviderConfig
}

// ProviderConfig is one OIDC registration.
type ProviderConfig struct {
	Issuer       string
	ClientID     string
	ClientSecret string
}

type RateLimitConfig struct {
	Enabled       bool
	RPS           float64
	Burst         int
	UseRedis      bool
	WindowSeconds int
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "5001")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("OAUTH_SUCCESS_URL", "/")
	viper.SetDefault("OAUTH_DEFAULT_PROVIDER", "google")
	viper.SetDefault("SESSION_TTL_MINUTES", 10080)
	viper.SetDefault("GOOGLE_ISSUER", "https://accounts.google.com")
	viper.SetDefault("RATE_LIMIT_RPS", 10.0)
	viper.SetDefault("RATE_LIMIT_BURST", 20)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:      getEnvOrPanic("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
		},
		OAuth: OAuthConfig{
			SuccessURL:      viper.GetString("OAUTH_SUCCESS_URL"),
			StateSecret:     os.Getenv("OAUTH_STATE_SECRET"),
			RedirectBase:    viper.GetString("OAUTH_REDIRECT_BASE"),
			DefaultProvider: viper.GetString("OAUTH_DEFAULT_PROVIDER"),
			SessionTTL:      time.Duration(viper.GetInt("SESSION_TTL_MINUTES")) * time.Minute,
			Providers:       loadProviders(),
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
	}

	// Basic validation
	if cfg.OAuth.StateSecret == "" {
		log.Println("WARNING: OAUTH_STATE_SECRET is not set; set a secure value in production")
	}

	return cfg, nil
}

// loadProviders collects every registration whose client id is configured.
// Currently only Google is wired through env, matching the deployed setup,
// but the shape allows more registrations without touching the flow.
func loadProviders() map[string]ProviderConfig {
	providers := map[string]ProviderConfig{}
	if id := viper.GetString("GOOGLE_CLIENT_ID"); id != "" {
		providers["google"] = ProviderConfig{
			Issuer:       viper.GetString("GOOGLE_ISSUER"),
			ClientID:     id,
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		}
	}
	return providers
}

func getEnvOrPanic(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("environment variable %s is required", key)
	}
	return v
}
