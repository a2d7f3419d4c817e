package http

import (
	"github.com/gin-gonic/gin"

	"github.com/dotflow/refill-backend/internal/handler"
	"github.com/dotflow/refill-backend/internal/utils/config"
	"github.com/dotflow/refill-backend/internal/utils/logger"
)

func loadV1Routes(r *gin.Engine, h *handler.Handler, appConfig *config.AppConfig, logger *logger.Logger) {
	v1 := r.Group("/api/v1")

	refill := v1.Group("/refill")
	{
		refill.POST("", h.RefillHandler.Refill)
		refill.POST("/:uuid/confirm", h.RefillHandler.Confirm)
		refill.POST("/:uuid/cancel", h.RefillHandler.Cancel)
	}

	transactions := v1.Group("/transactions")
	{
		transactions.GET("", h.TransactionHandler.List)
	}

	healthGroup := v1.Group("/health")
	{
		healthGroup.GET("/db", h.HealthHandler.Database)
		healthGroup.GET("/external", h.HealthHandler.External)
		healthGroup.GET("/jobs", h.HealthHandler.Jobs)
	}

	// health check
	r.GET("/healthz", h.HealthHandler.Basic)

	// prometheus scrape endpoint
	r.GET("/metrics", h.MetricsHandler.Handler())
}
