package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	readinessTimeout = 5 * time.Second
	disconnected     = "Disconnected"
)

// pingTimeout applies to each dependency separately.
var pingTimeout = 2 * time.Second

// PingResponse reports round-trip seconds per dependency, or "Disconnected".
type PingResponse struct {
	DB    any `json:"db"`
	Cache any `json:"cache"`
}

func registerHealthRoutes(router *gin.Engine, deps Dependencies) {
	router.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/health/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		defer cancel()

		if err := check(ctx, deps.DB); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "degraded",
				"component": "postgres",
				"error":     err.Error(),
			})
			return
		}

		if err := check(ctx, deps.ObjectStore); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "degraded",
				"component": "object_store",
				"error":     err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/ping", func(c *gin.Context) {
		ctx := c.Request.Context()
		c.JSON(http.StatusOK, PingResponse{
			DB:    measure(ctx, deps.Logger, "db", deps.DB),
			Cache: measure(ctx, deps.Logger, "cache", deps.Cache),
		})
	})
}

func check(ctx context.Context, p Pinger) error {
	if p == nil {
		return errNotConfigured
	}
	return p.Ping(ctx)
}

// measure returns the ping latency in seconds or the disconnected marker.
func measure(ctx context.Context, log *zap.Logger, name string, p Pinger) any {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	start := time.Now()
	if err := check(ctx, p); err != nil {
		log.Warn("dependency disconnected", zap.String("component", name), zap.Error(err))
		return disconnected
	}
	elapsed := time.Since(start).Seconds()
	log.Info("dependency ping", zap.String("component", name), zap.Float64("seconds", elapsed))
	return elapsed
}
