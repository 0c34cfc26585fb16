package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	JWTIssuer       string        `env:"JWT_ISSUER,        default=gestasso"`
	SigningKeyPEM   string        `env:"JWT_SIGNING_KEY"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL,  default=15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL, default=8760h"`

	SecurityWorkers int `env:"SECURITY_WORKERS, default=4"`

	Mongo  MongoConfig
	Redis  RedisConfig
	Google GoogleConfig
	Apple  AppleConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=gestasso"`
}

type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB,       default=0"`
	StateTTL time.Duration `env:"OAUTH_STATE_TTL, default=10m"`
}

type GoogleConfig struct {
	ClientID     string `env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	RedirectURL  string `env:"GOOGLE_REDIRECT_URL"`
}

type AppleConfig struct {
	TeamID          string `env:"APPLE_TEAM_ID"`
	KeyID           string `env:"APPLE_KEY_ID"`
	ClientID        string `env:"APPLE_CLIENT_ID"`
	RedirectURL     string `env:"APPLE_REDIRECT_URL"`
	SigningKeyPEM   string `env:"APPLE_SIGNING_KEY"`
	VerifySignature bool   `env:"APPLE_VERIFY_SIGNATURE, default=true"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}

// Enabled reports whether the Google provider is configured.
func (c GoogleConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// Enabled reports whether the Apple provider is configured.
func (c AppleConfig) Enabled() bool {
	return c.TeamID != "" && c.KeyID != "" && c.ClientID != "" && c.SigningKeyPEM != ""
}
