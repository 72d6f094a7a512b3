package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "3000" {
		t.Errorf("Port = %q, want 3000", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want development", cfg.Env)
	}
	if cfg.BackendURL != "http://localhost:8080/api/v1" {
		t.Errorf("BackendURL = %q", cfg.BackendURL)
	}
	if cfg.TenantID != "100" {
		t.Errorf("TenantID = %q, want 100", cfg.TenantID)
	}
	if cfg.SessionTTL != 72*time.Hour {
		t.Errorf("SessionTTL = %v, want 72h", cfg.SessionTTL)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("Redis.Addr = %q", cfg.Redis.Addr)
	}
	if cfg.Mongo.Enabled {
		t.Error("Mongo.Enabled must default to false")
	}
	if cfg.Mongo.Database != "examgate" {
		t.Errorf("Mongo.Database = %q, want examgate", cfg.Mongo.Database)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("BACKEND_URL", "https://exam.internal/api/v1")
	t.Setenv("TENANT_ID", "200")
	t.Setenv("SESSION_TTL", "24h")
	t.Setenv("MONGO_ENABLED", "true")

	cfg := Load()

	if cfg.Port != "8081" {
		t.Errorf("Port = %q, want 8081", cfg.Port)
	}
	if cfg.BackendURL != "https://exam.internal/api/v1" {
		t.Errorf("BackendURL = %q", cfg.BackendURL)
	}
	if cfg.TenantID != "200" {
		t.Errorf("TenantID = %q, want 200", cfg.TenantID)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("SessionTTL = %v, want 24h", cfg.SessionTTL)
	}
	if !cfg.Mongo.Enabled {
		t.Error("Mongo.Enabled = false, want true")
	}
}
