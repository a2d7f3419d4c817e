package server

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/dotflow/refill-backend/internal/consts"
	"github.com/dotflow/refill-backend/internal/controller"
	"github.com/dotflow/refill-backend/internal/ethrpc"
	"github.com/dotflow/refill-backend/internal/indexer"
	"github.com/dotflow/refill-backend/internal/monitoring"
	"github.com/dotflow/refill-backend/internal/multisig"
	"github.com/dotflow/refill-backend/internal/route"
	"github.com/dotflow/refill-backend/internal/store"
	pgstore "github.com/dotflow/refill-backend/internal/store/postgres"
	"github.com/dotflow/refill-backend/internal/submitter"
	"github.com/dotflow/refill-backend/internal/subrpc"
	"github.com/dotflow/refill-backend/internal/telemetry"
	"github.com/dotflow/refill-backend/internal/transport/http"
	"github.com/dotflow/refill-backend/internal/utils/config"
	"github.com/dotflow/refill-backend/internal/utils/logger"
	"github.com/dotflow/refill-backend/internal/webhook"
)

const defaultWorkerInterval = 2 * time.Minute

func Init() {
	appConfig := config.New()
	logger := logger.New(appConfig.Environment)

	db := pgstore.New(appConfig, logger)
	s := store.New()

	pool := dialSubstratePool(appConfig, logger)
	defer pool.Close()

	hydrationRPC, err := pool.Get(consts.ChainHydration)
	if err != nil {
		logger.Fatal("hydration rpc handle missing from pool")
		return
	}

	ethRPC, err := ethrpc.New(appConfig.Blockchain.EthereumRPCEndpoint, appConfig.Blockchain.WETHContractAddress, logger)
	if err != nil {
		logger.Fatal("failed to init ethereum rpc", map[string]string{
			"error": err.Error(),
		})
		return
	}
	defer ethRPC.Close()

	registry := indexer.NewRegistry(appConfig, logger)

	resolver := route.New(pool, ethRPC, logger)
	coordinator := multisig.New(hydrationRPC, appConfig.Blockchain.SignerAddress, logger)
	chainSubmitter := submitter.New(appConfig, logger)
	dispatcher := webhook.New(appConfig, logger)

	ctrl := controller.New(db, s, resolver, coordinator, chainSubmitter, appConfig, logger)
	tel := telemetry.New(db, s, appConfig, logger, registry, pool, dispatcher)

	metricsRegistry := prometheus.NewRegistry()
	httpMetrics := monitoring.NewHTTPMetrics()
	httpMetrics.MustRegister(metricsRegistry)
	jobMetrics := monitoring.NewJobMetrics()
	jobMetrics.MustRegister(metricsRegistry)
	jobStatusManager := monitoring.NewJobStatusManager(logger, jobMetrics)

	interval := workerInterval(appConfig)
	c := cron.New()
	for _, chain := range registry.Chains() {
		job := monitoring.NewInstrumentedJob(
			chain+"_confirmation",
			func(ctx context.Context) error {
				return tel.ProcessChainFamily(ctx, chain)
			},
			jobStatusManager,
			logger,
			interval,
		)
		c.AddFunc("@every "+interval.String(), job.Execute)
	}
	c.Start()
	defer c.Stop()

	httpServer := http.NewHttpServer(
		appConfig, logger, ctrl, db, pool, registry,
		metricsRegistry, httpMetrics, jobStatusManager,
	)

	httpServer.Run()
}

// dialSubstratePool connects to Hydration and every configured destination
// parachain in parallel. Hydration is mandatory; a parachain that fails to
// dial is logged and skipped, so its balance reads degrade to an
// unconditional swap.
func dialSubstratePool(appConfig *config.AppConfig, logger *logger.Logger) *subrpc.Pool {
	pool := subrpc.NewPool()
	var mu sync.Mutex

	g := new(errgroup.Group)
	g.Go(func() error {
		handle, err := subrpc.New(
			consts.ChainHydration,
			appConfig.Blockchain.HydrationRPCEndpoint,
			consts.SS58AddressPrefix,
			logger,
		)
		if err != nil {
			return err
		}
		mu.Lock()
		pool.Add(handle)
		mu.Unlock()
		return nil
	})

	for chain, endpoint := range appConfig.Blockchain.ParachainRPCEndpoints {
		g.Go(func() error {
			handle, err := subrpc.New(chain, endpoint, consts.SS58AddressPrefix, logger)
			if err != nil {
				logger.Error("failed to dial parachain rpc", map[string]string{
					"chain": chain,
					"error": err.Error(),
				})
				return nil
			}
			mu.Lock()
			pool.Add(handle)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Fatal("failed to init hydration rpc", map[string]string{
			"error": err.Error(),
		})
	}
	return pool
}

func workerInterval(appConfig *config.AppConfig) time.Duration {
	if appConfig.WorkerInterval == "" {
		return defaultWorkerInterval
	}
	interval, err := time.ParseDuration(appConfig.WorkerInterval)
	if err != nil || interval <= 0 {
		return defaultWorkerInterval
	}
	return interval
}
