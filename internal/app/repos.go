package app

import (
	"gorm.io/gorm"

	"github.com/selgeapp/selge-backend/internal/data/repos"
	"github.com/selgeapp/selge-backend/internal/pkg/logger"
)

type Repos struct {
	Document      repos.DocumentRepo
	GenerationRun repos.GenerationRunRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Document:      repos.NewDocumentRepo(db, log),
		GenerationRun: repos.NewGenerationRunRepo(db, log),
	}
}
