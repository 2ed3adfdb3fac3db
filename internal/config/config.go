package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port         int      `env:"PORT"`
	DataDir      string   `env:"DATA_DIR" envDefault:"./data"`
	SessionsDir  string   `env:"SESSIONS_DIR" envDefault:"./sessions"`
	ForwardAPIs  []string `env:"FORWARD_APIS" envSeparator:","`
	EnableAI     bool     `env:"ENABLE_AI" envDefault:"false"`
	StorageDays  int      `env:"STORAGE_DAYS" envDefault:"7"`
	MaxUploadMB  int64    `env:"MAX_UPLOAD_MB" envDefault:"100"`
	LogLevel     string   `env:"LOG_LEVEL" envDefault:"info"`
	RedisURL     string   `env:"REDIS_URL"`
}

// Addr returns the listen address, falling back to defaultPort when PORT is unset.
func (c *Config) Addr(defaultPort int) string {
	port := c.Port
	if port == 0 {
		port = defaultPort
	}
	return fmt.Sprintf(":%d", port)
}

// Retention is the session directory retention window for the cleanup sweep.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.StorageDays) * 24 * time.Hour
}

// MaxUploadBytes is the request body limit for upload endpoints.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
