package health

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dotflow/refill-backend/internal/indexer"
	"github.com/dotflow/refill-backend/internal/monitoring"
	"github.com/dotflow/refill-backend/internal/subrpc"
	"github.com/dotflow/refill-backend/internal/utils/config"
	"github.com/dotflow/refill-backend/internal/utils/logger"
)

// HealthHandler implements IHealthHandler interface
type HealthHandler struct {
	config           *config.AppConfig
	logger           *logger.Logger
	db               *gorm.DB
	pool             *subrpc.Pool
	registry         *indexer.Registry
	jobStatusManager *monitoring.JobStatusManager
}

// New creates a new health handler instance
func New(config *config.AppConfig, logger *logger.Logger, db *gorm.DB, pool *subrpc.Pool, registry *indexer.Registry, jobStatusManager *monitoring.JobStatusManager) IHealthHandler {
	return &HealthHandler{
		config:           config,
		logger:           logger,
		db:               db,
		pool:             pool,
		registry:         registry,
		jobStatusManager: jobStatusManager,
	}
}

// Basic handles the basic health check endpoint (/healthz)
// @Summary Basic health check
// @Description Returns basic system availability status
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} BasicHealthResponse
// @Router /healthz [get]
func (h *HealthHandler) Basic(c *gin.Context) {
	response := BasicHealthResponse{
		Message: "ok",
	}
	c.JSON(http.StatusOK, response)
}

// Database handles the database health check endpoint
// @Summary Database health check
// @Description Validates database connectivity and performance
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /api/v1/health/db [get]
func (h *HealthHandler) Database(c *gin.Context) {
	start := time.Now()

	response := HealthResponse{
		Timestamp: start,
		Checks:    make(map[string]HealthCheck),
	}

	ctx := context.Background()
	if c.Request != nil {
		ctx = c.Request.Context()
	}

	dbCheck := h.checkDatabase(ctx)
	response.Checks["database"] = dbCheck
	response.DurationMs = time.Since(start).Milliseconds()

	if dbCheck.Status == "healthy" {
		response.Status = "healthy"
		c.JSON(http.StatusOK, response)
	} else {
		response.Status = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, response)
	}
}

// External handles the external dependencies health check endpoint
// @Summary External dependencies health check
// @Description Validates source chain RPC and per-chain indexer connectivity
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /api/v1/health/external [get]
func (h *HealthHandler) External(c *gin.Context) {
	start := time.Now()

	response := HealthResponse{
		Timestamp: start,
		Checks:    make(map[string]HealthCheck),
	}

	baseCtx := context.Background()
	if c.Request != nil {
		baseCtx = c.Request.Context()
	}
	ctx, cancel := context.WithTimeout(baseCtx, 10*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	var mu sync.Mutex

	wg.Add(1)
	go func() {
		defer wg.Done()
		rpcCheck := h.checkHydrationRPC(ctx)
		mu.Lock()
		response.Checks["hydration_rpc"] = rpcCheck
		mu.Unlock()
	}()

	for _, chain := range h.registry.Chains() {
		wg.Add(1)
		go func(chain string) {
			defer wg.Done()
			indexerCheck := h.checkIndexer(ctx, chain)
			mu.Lock()
			response.Checks[fmt.Sprintf("indexer_%s", chain)] = indexerCheck
			mu.Unlock()
		}(chain)
	}

	wg.Wait()
	response.DurationMs = time.Since(start).Milliseconds()

	allHealthy := true
	for _, check := range response.Checks {
		if check.Status != "healthy" {
			allHealthy = false
			break
		}
	}

	if allHealthy {
		response.Status = "healthy"
		c.JSON(http.StatusOK, response)
	} else {
		response.Status = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, response)
	}
}

// checkDatabase performs database health validation
func (h *HealthHandler) checkDatabase(ctx context.Context) HealthCheck {
	start := time.Now()

	check := HealthCheck{
		Metadata: make(map[string]interface{}),
	}

	if h.db == nil {
		check.Status = "unhealthy"
		check.Error = "database connection not available"
		check.Latency = time.Since(start).Milliseconds()
		return check
	}

	sqlDB, err := h.db.DB()
	if err != nil {
		check.Status = "unhealthy"
		check.Error = fmt.Sprintf("failed to get underlying database: %v", err)
		check.Latency = time.Since(start).Milliseconds()
		return check
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		check.Status = "unhealthy"
		if pingCtx.Err() == context.DeadlineExceeded {
			check.Error = "timeout"
		} else {
			check.Error = err.Error()
		}
		check.Latency = time.Since(start).Milliseconds()
		return check
	}

	stats := sqlDB.Stats()

	check.Status = "healthy"
	check.Latency = time.Since(start).Milliseconds()
	check.Metadata["driver"] = "postgres"
	check.Metadata["connection_pool"] = map[string]interface{}{
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
		"idle":             stats.Idle,
		"max_open":         stats.MaxOpenConnections,
	}

	return check
}

// checkHydrationRPC validates the source chain RPC connection
func (h *HealthHandler) checkHydrationRPC(ctx context.Context) HealthCheck {
	start := time.Now()

	check := HealthCheck{
		Metadata: make(map[string]interface{}),
	}

	if h.pool == nil {
		check.Status = "unhealthy"
		check.Error = "substrate rpc pool not available"
		check.Latency = time.Since(start).Milliseconds()
		return check
	}

	rpc, err := h.pool.Get("hydration")
	if err != nil {
		check.Status = "unhealthy"
		check.Error = err.Error()
		check.Latency = time.Since(start).Milliseconds()
		return check
	}

	checkCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	// Nonce lookup for the signer is the cheapest authenticated read.
	if _, err := rpc.AccountNextIndex(checkCtx, h.config.Blockchain.SignerAddress); err != nil {
		check.Status = "unhealthy"
		if checkCtx.Err() == context.DeadlineExceeded {
			check.Error = "timeout"
		} else {
			check.Error = err.Error()
		}
		check.Latency = time.Since(start).Milliseconds()
		return check
	}

	check.Status = "healthy"
	check.Latency = time.Since(start).Milliseconds()
	check.Metadata["endpoint"] = h.config.Blockchain.HydrationRPCEndpoint
	return check
}

// checkIndexer validates one chain family's indexer endpoint
func (h *HealthHandler) checkIndexer(ctx context.Context, chain string) HealthCheck {
	start := time.Now()

	check := HealthCheck{
		Metadata: make(map[string]interface{}),
	}

	client, err := h.registry.ForChain(chain)
	if err != nil {
		check.Status = "unhealthy"
		check.Error = err.Error()
		check.Latency = time.Since(start).Milliseconds()
		return check
	}

	checkCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	height, err := client.GetBlockHeight(checkCtx)
	if err != nil {
		check.Status = "unhealthy"
		if checkCtx.Err() == context.DeadlineExceeded {
			check.Error = "timeout"
		} else {
			check.Error = err.Error()
		}
		check.Latency = time.Since(start).Milliseconds()
		return check
	}

	check.Status = "healthy"
	check.Latency = time.Since(start).Milliseconds()
	check.Metadata["chain"] = chain
	check.Metadata["block_height"] = height
	return check
}
