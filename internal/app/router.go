package app

import (
	httpserver "github.com/selgeapp/selge-backend/internal/http"
	"github.com/selgeapp/selge-backend/internal/pkg/logger"
)

func wireServer(log *logger.Logger, handlerset Handlers) *httpserver.Server {
	log.Info("Wiring router...")
	return httpserver.NewServer(httpserver.RouterConfig{
		Log:             log,
		DocumentHandler: handlerset.Document,
		HealthHandler:   handlerset.Health,
	})
}
