package app

import (
	"os"
	"strings"

	"github.com/selgeapp/selge-backend/internal/clients/openai"
	redisclient "github.com/selgeapp/selge-backend/internal/clients/redis"
	"github.com/selgeapp/selge-backend/internal/pkg/logger"
)

type Clients struct {
	OpenAI openai.Client

	// Cache is nil when REDIS_ADDR is unset; the pipeline runs uncached.
	Cache redisclient.DocumentCache
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	ai, err := openai.NewClient(log)
	if err != nil {
		return Clients{}, err
	}

	var cache redisclient.DocumentCache
	if strings.TrimSpace(os.Getenv("REDIS_ADDR")) != "" {
		cache, err = redisclient.NewDocumentCache(log)
		if err != nil {
			// Cache is best-effort infrastructure.
			log.Warn("document cache unavailable, continuing without it", "error", err.Error())
			cache = nil
		}
	}

	return Clients{OpenAI: ai, Cache: cache}, nil
}
