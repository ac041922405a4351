package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	DatabaseURL string        `env:"DATABASE_URL,required"`
	JWTSecret   string        `env:"JWT_SECRET,required"`
	TokenTTL    time.Duration `env:"TOKEN_TTL,default=24h"`
	Port        int           `env:"PORT,default=8080"`
	LogLevel    string        `env:"LOG_LEVEL,default=info"`
	CORSOrigins []string      `env:"CORS_ORIGINS"`

	// Generation backend (batch processor)
	GenerationURL     string        `env:"GENERATION_URL,default=http://127.0.0.1:11434"`
	GenerationModel   string        `env:"GENERATION_MODEL,default=qwq:32b"`
	GenerationTimeout time.Duration `env:"GENERATION_TIMEOUT,default=120s"`

	// HTTP server timeouts
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT,default=15s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT,default=30s"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT,default=60s"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// BatchConfig is the environment surface of the batch processor. It
// deliberately omits the HTTP-serving settings.
type BatchConfig struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`

	GenerationURL     string        `env:"GENERATION_URL,default=http://127.0.0.1:11434"`
	GenerationModel   string        `env:"GENERATION_MODEL,default=qwq:32b"`
	GenerationTimeout time.Duration `env:"GENERATION_TIMEOUT,default=120s"`
}

func LoadBatch() (*BatchConfig, error) {
	var cfg BatchConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes, got %d", len(c.JWTSecret))
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.TokenTTL < time.Minute {
		return fmt.Errorf("TOKEN_TTL must be at least 1m, got %s", c.TokenTTL)
	}
	return nil
}
