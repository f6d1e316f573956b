package config

import (
	"fmt"
	"log/slog"
	"time"

	"house-price-backend/internal/auth"
	"house-price-backend/internal/storage"

	"github.com/caarlos0/env/v11"
)

const (
	PersistSync  = "sync"
	PersistQueue = "queue"
)

type ArtifactConfig struct {
	// When Bucket is empty the artifacts are read from Dir as is.
	Bucket           string `env:"ARTIFACT_BUCKET"`
	Prefix           string `env:"ARTIFACT_PREFIX" envDefault:"house-price"`
	Dir              string `env:"ARTIFACT_DIR" envDefault:"./artifacts"`
	OnnxRuntimeDylib string `env:"ONNX_RUNTIME_DYLIB"`
}

type APIConfig struct {
	Port          string        `env:"PORT" envDefault:"5000"`
	DatabaseURL   string        `env:"DATABASE_URL" envDefault:"house_prices.db"`
	SecretKey     string        `env:"SECRET_KEY"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	SecureCookies bool          `env:"SECURE_COOKIES" envDefault:"false"`
	CorsOrigins   []string      `env:"CORS_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`

	// PersistMode is sync or queue. In queue mode records go to RabbitMQ when
	// RabbitMQURL is set and to an in-process queue otherwise.
	PersistMode string `env:"PERSIST_MODE" envDefault:"sync"`
	RabbitMQURL string `env:"RABBITMQ_URL"`

	Artifacts ArtifactConfig
	Storage   storage.Config
}

type WorkerConfig struct {
	DatabaseURL string `env:"DATABASE_URL,notEmpty,required"`
	RabbitMQURL string `env:"RABBITMQ_URL,notEmpty,required"`
}

func LoadAPIConfig() (APIConfig, error) {
	var cfg APIConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("error parsing config: %w", err)
	}

	if cfg.PersistMode != PersistSync && cfg.PersistMode != PersistQueue {
		return cfg, fmt.Errorf("invalid PERSIST_MODE '%s', expected '%s' or '%s'", cfg.PersistMode, PersistSync, PersistQueue)
	}

	if cfg.SecretKey == "" {
		secret, err := auth.GenerateSecret()
		if err != nil {
			return cfg, err
		}
		slog.Warn("SECRET_KEY not set, generated a random secret; sessions will not survive a restart")
		cfg.SecretKey = secret
	}

	return cfg, nil
}

func LoadWorkerConfig() (WorkerConfig, error) {
	var cfg WorkerConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("error parsing config: %w", err)
	}
	return cfg, nil
}
