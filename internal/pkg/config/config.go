package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,     default=3000"`
	Env      string `env:"ENV,      default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// BackendURL is the exam-platform API root, including the version
	// prefix.
	BackendURL string `env:"BACKEND_URL, default=http://localhost:8080/api/v1"`

	// TenantID is sent with every backend request.
	TenantID string `env:"TENANT_ID, default=100"`

	// CookieSecret signs the browser-session cookie.
	CookieSecret string `env:"COOKIE_SECRET"`

	// SessionTTL bounds how long a persisted browser session survives
	// without activity.
	SessionTTL time.Duration `env:"SESSION_TTL, default=72h"`

	Redis RedisConfig
	Mongo MongoConfig
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type MongoConfig struct {
	// Enabled switches the mongo-backed session audit trail on.
	Enabled  bool   `env:"MONGO_ENABLED, default=false"`
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=examgate"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
