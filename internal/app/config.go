package app

import (
	"github.com/selgeapp/selge-backend/internal/pkg/logger"
	"github.com/selgeapp/selge-backend/internal/utils"
)

type Config struct {
	HTTPAddr    string
	Environment string
	Version     string
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		HTTPAddr:    utils.GetEnv("HTTP_ADDR", ":8080", log),
		Environment: utils.GetEnv("APP_ENV", "development", log),
		Version:     utils.GetEnv("APP_VERSION", "dev", log),
	}
}
