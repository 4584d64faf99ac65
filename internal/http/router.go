package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/selgeapp/selge-backend/internal/http/handlers"
	httpMW "github.com/selgeapp/selge-backend/internal/http/middleware"
	"github.com/selgeapp/selge-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	DocumentHandler *httpH.DocumentHandler
	HealthHandler   *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("selge-backend"))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		if cfg.DocumentHandler != nil {
			api.POST("/documents/generate", cfg.DocumentHandler.Generate)
			api.GET("/documents", cfg.DocumentHandler.List)
			api.GET("/documents/:id", cfg.DocumentHandler.Get)
			api.GET("/documents/:id/sections", cfg.DocumentHandler.Sections)
			api.PUT("/documents/:id/sections", cfg.DocumentHandler.UpdateSections)
			api.POST("/documents/:id/approve", cfg.DocumentHandler.Approve)
			api.POST("/documents/:id/reject", cfg.DocumentHandler.Reject)
			api.GET("/documents/:id/text", cfg.DocumentHandler.FlatText)
			api.GET("/generation-runs", cfg.DocumentHandler.Runs)
		}
	}

	return r
}
