package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Ollama    OllamaConfig
	Bootstrap BootstrapConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Host        string
	Port        int
	CORSOrigins []string
}

type DatabaseConfig struct {
	URL            string
	MaxConns       int
	MinConns       int
	MigrationsPath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret            string
	TokenTTL             time.Duration
	APIKeyHeader         string
	KeyDefaultExpireDays int
}

type OllamaConfig struct {
	BaseURL      string
	Timeout      time.Duration
	DefaultModel string
}

type BootstrapConfig struct {
	CreateAdmin   bool
	AdminUsername string
	AdminEmail    string
	AdminPassword string
}

type RateLimitConfig struct {
	Enabled        bool
	RequestsPerMin int
}

func Load() (*Config, error) {
	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	maxConns, err := getEnvInt("DB_MAX_CONNS", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	minConns, err := getEnvInt("DB_MIN_CONNS", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	tokenTTLMin, err := getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30)
	if err != nil {
		return nil, fmt.Errorf("invalid ACCESS_TOKEN_EXPIRE_MINUTES: %w", err)
	}

	keyExpireDays, err := getEnvInt("API_KEY_DEFAULT_EXPIRE_DAYS", 365)
	if err != nil {
		return nil, fmt.Errorf("invalid API_KEY_DEFAULT_EXPIRE_DAYS: %w", err)
	}

	ollamaTimeoutSec, err := getEnvInt("OLLAMA_TIMEOUT_SECONDS", 300)
	if err != nil {
		return nil, fmt.Errorf("invalid OLLAMA_TIMEOUT_SECONDS: %w", err)
	}

	rateLimitPerMin, err := getEnvInt("RATE_LIMIT_PER_MINUTE", 60)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			Port:        port,
			CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "*"), ","),
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConns:       maxConns,
			MinConns:       minConns,
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			JWTSecret:            getEnv("SECRET_KEY", ""),
			TokenTTL:             time.Duration(tokenTTLMin) * time.Minute,
			APIKeyHeader:         getEnv("API_KEY_HEADER", "X-API-Key"),
			KeyDefaultExpireDays: keyExpireDays,
		},
		Ollama: OllamaConfig{
			BaseURL:      getEnv("OLLAMA_API_BASE_URL", "http://localhost:11434"),
			Timeout:      time.Duration(ollamaTimeoutSec) * time.Second,
			DefaultModel: getEnv("DEFAULT_MODEL", "llama3:8b"),
		},
		Bootstrap: BootstrapConfig{
			CreateAdmin:   getEnvBool("CREATE_DEFAULT_ADMIN", true),
			AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
			AdminEmail:    getEnv("ADMIN_EMAIL", "admin@example.com"),
			AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		},
		RateLimit: RateLimitConfig{
			Enabled:        getEnvBool("RATE_LIMIT_ENABLED", true),
			RequestsPerMin: rateLimitPerMin,
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) Validate() error {
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "SECRET_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
