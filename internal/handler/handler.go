package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/dotflow/refill-backend/internal/controller"
	"github.com/dotflow/refill-backend/internal/handler/health"
	"github.com/dotflow/refill-backend/internal/handler/metrics"
	"github.com/dotflow/refill-backend/internal/handler/refill"
	"github.com/dotflow/refill-backend/internal/handler/transaction"
	"github.com/dotflow/refill-backend/internal/indexer"
	"github.com/dotflow/refill-backend/internal/monitoring"
	"github.com/dotflow/refill-backend/internal/subrpc"
	"github.com/dotflow/refill-backend/internal/utils/config"
	"github.com/dotflow/refill-backend/internal/utils/logger"
)

type Handler struct {
	RefillHandler      refill.IHandler
	TransactionHandler transaction.IHandler
	HealthHandler      health.IHealthHandler
	MetricsHandler     *metrics.MetricsHandler
}

func New(appConfig *config.AppConfig, logger *logger.Logger,
	ctrl controller.IController,
	db *gorm.DB,
	pool *subrpc.Pool,
	registry *indexer.Registry,
	metricsRegistry *prometheus.Registry,
	jobStatusManager *monitoring.JobStatusManager) *Handler {
	return &Handler{
		RefillHandler:      refill.New(ctrl, logger, appConfig),
		TransactionHandler: transaction.New(ctrl, logger),
		HealthHandler:      health.New(appConfig, logger, db, pool, registry, jobStatusManager),
		MetricsHandler:     metrics.NewMetricsHandler(metricsRegistry),
	}
}
