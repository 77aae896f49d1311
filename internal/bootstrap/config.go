package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/orderdesk/orderdesk/config"
)

// InitLogger installs a JSON slog logger as the process default.
func InitLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	return logger
}

// LoadConfig reads configuration from the environment, layering in a
// .env file when one is present. A missing .env is not an error.
func LoadConfig() (config.AppConfig, error) {
	err := godotenv.Load()
	var pathErr *os.PathError
	if err != nil && !errors.As(err, &pathErr) {
		return config.AppConfig{}, fmt.Errorf("reading .env: %w", err)
	}

	var cfg config.AppConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing environment: %w", err)
	}
	cfg.Sanitize()
	return cfg, nil
}
