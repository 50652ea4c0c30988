package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Environment selects how configuration is sourced: env vars with
// defaults everywhere except production, which reads Docker secrets
type Environment string

const (
	Development Environment = "development"
	Test        Environment = "test"
	CI          Environment = "ci"
	Production  Environment = "production"
)

// GetEnvironment resolves the runtime environment. CI is detected from
// the CI variable; everything else comes from ENV, defaulting to
// development.
func GetEnvironment() Environment {
	if os.Getenv("CI") == "true" {
		return CI
	}

	switch os.Getenv("ENV") {
	case "production":
		return Production
	case "test":
		return Test
	default:
		return Development
	}
}

// IsProduction reports whether secrets validation must be strict
func IsProduction() bool {
	return GetEnvironment() == Production
}

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort string
	ServerHost string

	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// JWT configuration
	JWTSecret string

	// AI provider configuration
	AIAPIKey string
	AIAPIURL string
	AIModel  string

	// Result cache configuration
	CacheDir      string
	UseRedisCache bool

	// Remote call retry configuration
	RetryMaxAttempts int
	RetryDelay       time.Duration

	// S3 configuration
	S3BucketName string
}

// LoadConfig creates a new Config instance with values from environment
// variables or Docker secrets depending on the environment
func LoadConfig() (*Config, error) {
	env := GetEnvironment()
	cfg := &Config{}

	switch env {
	case CI, Development, Test:
		loadEnvConfig(cfg)
	case Production:
		if err := loadProdConfig(cfg); err != nil {
			return nil, fmt.Errorf("failed to load production configuration: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadEnvConfig loads configuration from environment variables with
// development defaults
func loadEnvConfig(cfg *Config) {
	cfg.ServerPort = envOr("SERVER_PORT", "8080")
	cfg.ServerHost = envOr("SERVER_HOST", "0.0.0.0")
	cfg.DBHost = envOr("DB_HOST", "localhost")
	cfg.DBPort = envOr("DB_PORT", "5432")
	cfg.DBUser = envOr("DB_USER", "postgres")
	cfg.DBPassword = envOr("DB_PASSWORD", "postgres")
	cfg.DBName = envOr("DB_NAME", "snapdish")
	cfg.DBSSLMode = envOr("DB_SSL_MODE", "disable")
	cfg.RedisHost = envOr("REDIS_HOST", "localhost")
	cfg.RedisPort = envOr("REDIS_PORT", "6379")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisDB = 0
	cfg.RedisURL = envOr("REDIS_URL", "redis://localhost:6379")
	cfg.JWTSecret = envOr("JWT_SECRET", "your-secret-key")
	cfg.AIAPIKey = os.Getenv("AI_API_KEY")
	cfg.AIAPIURL = envOr("AI_API_URL", "https://api.deepseek.com/v1/chat/completions")
	cfg.AIModel = envOr("AI_MODEL", "deepseek-chat")
	cfg.CacheDir = envOr("CACHE_DIR", filepath.Join(os.TempDir(), "snapdish-cache"))
	cfg.UseRedisCache = os.Getenv("USE_REDIS_CACHE") == "true"
	cfg.RetryMaxAttempts = envIntOr("RETRY_MAX_ATTEMPTS", 3)
	cfg.RetryDelay = envDurationOr("RETRY_DELAY", 2*time.Second)
	cfg.S3BucketName = envOr("S3_BUCKET_NAME", "snapdish-dish-photos")
}

// loadProdConfig loads configuration using ONLY Docker secrets
func loadProdConfig(cfg *Config) error {
	cfg.ServerPort = readSecret("server_port")
	cfg.ServerHost = readSecret("server_host")
	cfg.DBHost = readSecret("db_host")
	cfg.DBPort = readSecret("db_port")
	cfg.DBUser = readSecret("db_user")
	cfg.DBPassword = readSecret("db_password")
	cfg.DBName = readSecret("db_name")
	cfg.DBSSLMode = readSecret("db_ssl_mode")
	cfg.RedisHost = readSecret("redis_host")
	cfg.RedisPort = readSecret("redis_port")
	cfg.RedisPassword = readSecret("redis_password")
	cfg.RedisDB = 0
	cfg.RedisURL = readSecret("redis_url")
	cfg.JWTSecret = readSecret("jwt_secret")
	cfg.AIAPIKey = readSecret("ai_api_key")
	cfg.AIAPIURL = readSecret("ai_api_url")
	cfg.AIModel = readSecret("ai_model")
	cfg.CacheDir = readSecret("cache_dir")
	cfg.UseRedisCache = readSecret("use_redis_cache") == "true"
	cfg.RetryMaxAttempts = 3
	cfg.RetryDelay = 2 * time.Second
	cfg.S3BucketName = readSecret("s3_bucket_name")

	if cfg.AIModel == "" {
		cfg.AIModel = "deepseek-chat"
	}
	if cfg.AIAPIURL == "" {
		cfg.AIAPIURL = "https://api.deepseek.com/v1/chat/completions"
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = "/var/lib/snapdish/cache"
	}

	return nil
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
