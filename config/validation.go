package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks that the loaded configuration is usable in the
// current environment. Production requires every secret to be present;
// other environments run on defaults.
func ValidateConfig(cfg *Config) error {
	var errors []string

	if cfg.RetryMaxAttempts < 1 {
		errors = append(errors, "retry max attempts must be at least 1")
	}
	if cfg.RetryDelay < 0 {
		errors = append(errors, "retry delay must not be negative")
	}

	if IsProduction() {
		required := map[string]string{
			"server_port":    cfg.ServerPort,
			"db_host":        cfg.DBHost,
			"db_port":        cfg.DBPort,
			"db_user":        cfg.DBUser,
			"db_password":    cfg.DBPassword,
			"db_name":        cfg.DBName,
			"redis_host":     cfg.RedisHost,
			"redis_port":     cfg.RedisPort,
			"jwt_secret":     cfg.JWTSecret,
			"ai_api_key":     cfg.AIAPIKey,
			"s3_bucket_name": cfg.S3BucketName,
		}
		for name, value := range required {
			if value == "" {
				errors = append(errors, fmt.Sprintf("required secret %s is not set", name))
			}
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errors, "\n"))
	}

	return nil
}
