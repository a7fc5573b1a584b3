package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const (
	TokenStoreFile     = "file"
	TokenStorePostgres = "postgres"
	TokenStoreMemory   = "memory"
)

type Config struct {
	APIBaseURL    string        `mapstructure:"API_BASE_URL"`
	APITimeout    time.Duration `mapstructure:"API_TIMEOUT"`
	TokenStore    string        `mapstructure:"TOKEN_STORE"`
	TokenFile     string        `mapstructure:"TOKEN_FILE"`
	TokenKey      string        `mapstructure:"TOKEN_KEY"`
	DatabaseURL   string        `mapstructure:"DATABASE_URL"`
	Profile       string        `mapstructure:"PROFILE"`
	LogLevel      string        `mapstructure:"LOG_LEVEL"`
	Env           string        `mapstructure:"ENV"`
	AuthRateRPS   float64       `mapstructure:"AUTH_RATE_RPS"`
	AuthRateBurst int           `mapstructure:"AUTH_RATE_BURST"`
	DevPort       string        `mapstructure:"DEV_PORT"`
	JWTSecret     string        `mapstructure:"JWT_SECRET"`
}

var keys = []string{
	"API_BASE_URL", "API_TIMEOUT", "TOKEN_STORE", "TOKEN_FILE", "TOKEN_KEY",
	"DATABASE_URL", "PROFILE", "LOG_LEVEL", "ENV", "AUTH_RATE_RPS",
	"AUTH_RATE_BURST", "DEV_PORT", "JWT_SECRET",
}

// Load reads configuration from the environment. Callers load .env into the
// environment beforehand.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("API_BASE_URL", "http://localhost:8080")
	v.SetDefault("API_TIMEOUT", "10s")
	v.SetDefault("TOKEN_STORE", TokenStoreFile)
	v.SetDefault("TOKEN_FILE", defaultTokenFile())
	v.SetDefault("PROFILE", "default")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ENV", "development")
	v.SetDefault("AUTH_RATE_RPS", 1)
	v.SetDefault("AUTH_RATE_BURST", 5)
	v.SetDefault("DEV_PORT", "8080")
	v.SetDefault("JWT_SECRET", "dev-secret-change-me")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("bind %s: %w", k, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".clinic-token"
	}
	return filepath.Join(home, ".clinic", "token")
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// TokenKeyBytes decodes TOKEN_KEY. A nil slice means the token file is
// stored unsealed.
func (c *Config) TokenKeyBytes() ([]byte, error) {
	if c.TokenKey == "" {
		return nil, nil
	}
	b, err := hex.DecodeString(c.TokenKey)
	if err != nil {
		return nil, fmt.Errorf("TOKEN_KEY is not valid hex: %w", err)
	}
	if len(b) != 32 {
		return nil, fmt.Errorf("TOKEN_KEY must be 32 bytes (64 hex chars), got %d bytes", len(b))
	}
	return b, nil
}

func (c *Config) Validate() error {
	switch c.TokenStore {
	case TokenStoreFile, TokenStoreMemory:
	case TokenStorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when TOKEN_STORE is %q", TokenStorePostgres)
		}
	default:
		return fmt.Errorf("TOKEN_STORE must be %q, %q or %q, got %q",
			TokenStoreFile, TokenStorePostgres, TokenStoreMemory, c.TokenStore)
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("API_TIMEOUT must be positive, got %s", c.APITimeout)
	}
	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	if _, err := c.TokenKeyBytes(); err != nil {
		return err
	}
	return nil
}
