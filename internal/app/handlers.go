package app

import (
	httpH "github.com/selgeapp/selge-backend/internal/http/handlers"
	"github.com/selgeapp/selge-backend/internal/pkg/logger"
)

type Handlers struct {
	Document *httpH.DocumentHandler
	Health   *httpH.HealthHandler
}

func wireHandlers(log *logger.Logger, serviceset Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Document: httpH.NewDocumentHandler(log, serviceset.Generation, serviceset.Document),
		Health:   httpH.NewHealthHandler(),
	}
}
