package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Load reads the first environment file found among envFilePath (searched
// upward from the working directory), falling back to ./.env, then processes
// the environment into an App.
func Load(envFilePath ...string) (*App, error) {
	logger := slog.Default()
	logger.Info("Loading environment variables")

	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}
	for _, path := range envFilePath {
		logger.Debug("Looking for environment file", "path", path)
		foundPath, err := findEnvFile(wd, path)
		if err != nil {
			logger.Debug("Environment file not found", "path", path, "error", err)
			continue
		}

		logger.Info("Loading environment from file", "path", foundPath)
		if err := godotenv.Load(foundPath); err != nil {
			logger.Error("Failed to load environment file", "path", foundPath, "error", err)
			continue
		}
		return loadFromEnv()
	}

	if err := godotenv.Load(); err != nil {
		logger.Warn("No .env file found in current directory")
	}
	return loadFromEnv()
}

func loadFromEnv() (*App, error) {
	var cfg App
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	slog.Default().Info("App config loaded",
		"env", cfg.Env,
		"db", maskValue(cfg.DB.Url),
		"auth_jwt_expiry", cfg.Auth.Jwt.Expiry,
		"max_failed_attempts", cfg.Security.MaxFailedAttempts,
		"lockout_duration", cfg.Security.LockoutDuration,
		"cache_backend", cfg.Cache.Backend,
		"audit_sink", cfg.Audit.Sink,
		"rate_limit_max_requests", cfg.RateLimit.MaxRequests,
		"rate_limit_window", cfg.RateLimit.Window,
	)
	return &cfg, nil
}

func maskValue(key string) string {
	if len(key) <= 6 {
		return "****"
	}
	return key[:2] + "****" + key[len(key)-4:]
}
