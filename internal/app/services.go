package app

import (
	"gorm.io/gorm"

	"github.com/selgeapp/selge-backend/internal/docgen"
	"github.com/selgeapp/selge-backend/internal/pkg/logger"
	"github.com/selgeapp/selge-backend/internal/services"
)

type Services struct {
	Generation services.GenerationService
	Document   services.DocumentService
}

func wireServices(db *gorm.DB, log *logger.Logger, clients Clients, reposet Repos) (Services, error) {
	log.Info("Wiring services...")

	rules, err := docgen.DefaultRules()
	if err != nil {
		return Services{}, err
	}
	generator := docgen.NewGenerator(log, clients.OpenAI, rules)

	return Services{
		Generation: services.NewGenerationService(
			db,
			log,
			generator,
			rules,
			clients.OpenAI.Model(),
			reposet.Document,
			reposet.GenerationRun,
			clients.Cache,
		),
		Document: services.NewDocumentService(
			db,
			log,
			rules,
			reposet.Document,
			reposet.GenerationRun,
		),
	}, nil
}
