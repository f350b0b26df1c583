package server

import (
	"context"
	"time"

	"github.com/abduss/filestore/internal/auth"
	"github.com/abduss/filestore/internal/config"
	"github.com/abduss/filestore/internal/file"
	"github.com/abduss/filestore/internal/logger"
	"github.com/abduss/filestore/internal/metrics"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger is anything that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies groups the services required by the HTTP router.
type Dependencies struct {
	Config      config.Config
	Logger      *zap.Logger
	DB          Pinger
	Cache       Pinger
	ObjectStore Pinger
	AuthService *auth.Service
	FileService *file.Service
}

// NewRouter builds a Gin engine with foundational middleware and routes.
func NewRouter(deps Dependencies) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.Middleware())
	router.Use(metrics.Middleware())
	if origins := deps.Config.Server.CORSOrigins; len(origins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:  origins,
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Authorization", "Content-Type", logger.CorrelationIDHeader},
			ExposeHeaders: []string{"Content-Disposition", logger.CorrelationIDHeader},
			MaxAge:        12 * time.Hour,
		}))
	}

	registerHealthRoutes(router, deps)
	metrics.Register(router, deps.Config.Metrics.PrometheusPath)

	api := router.Group("/")
	if deps.AuthService != nil {
		auth.RegisterRoutes(api, deps.AuthService)

		protected := api.Group("/")
		protected.Use(auth.AuthMiddleware(deps.AuthService, deps.AuthService.Lookup))

		if deps.FileService != nil {
			file.RegisterRoutes(protected, deps.FileService, deps.Config.Files.DownloadDir)
		}
	}

	return router
}
