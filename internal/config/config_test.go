package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Auth.TokenTTL != 30*time.Minute {
		t.Errorf("default token TTL = %v, want 30m", cfg.Auth.TokenTTL)
	}
	if cfg.Auth.APIKeyHeader != "X-API-Key" {
		t.Errorf("default key header = %q", cfg.Auth.APIKeyHeader)
	}
	if cfg.Ollama.BaseURL != "http://localhost:11434" {
		t.Errorf("default ollama URL = %q", cfg.Ollama.BaseURL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "5")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Auth.TokenTTL != 5*time.Minute {
		t.Errorf("token TTL = %v, want 5m", cfg.Auth.TokenTTL)
	}
	if cfg.RateLimit.Enabled {
		t.Error("rate limit should be disabled")
	}
}

func TestLoadRejectsBadInt(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")
	if _, err := Load(); err == nil {
		t.Error("Load should fail on a non-numeric port")
	}
}

func TestValidateRequiresSecrets(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate should fail without DATABASE_URL and SECRET_KEY")
	}

	cfg.Database.URL = "postgres://localhost/x"
	cfg.Auth.JWTSecret = "s"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate = %v, want nil", err)
	}
}
