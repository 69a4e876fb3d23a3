package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	clientredis "github.com/ridgeline-retail/fedhui/internal/clients/redis"
	"github.com/ridgeline-retail/fedhui/internal/db"
	"github.com/ridgeline-retail/fedhui/internal/jobs/worker"
	"github.com/ridgeline-retail/fedhui/internal/logger"
	"github.com/ridgeline-retail/fedhui/internal/types"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services
	Liveness clientredis.LivenessCache

	miningWorker *worker.Worker
	cancel       context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	liveness, err := clientredis.NewLivenessCache(log)
	if err != nil {
		log.Warn("liveness cache unavailable, session registry will rely on Postgres only", "error", err)
		liveness = nil
	}

	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, cfg, reposet, liveness)
	handlerset := wireHandlers(log, serviceset)
	middlewareset := wireMiddleware(log, cfg)
	router := wireRouter(handlerset, middlewareset)

	miningWorker := worker.NewWorker(log, theDB, reposet.MiningJob, reposet.Transaction, reposet.LocalPattern, cfg.MiningWorkerPoolSize, time.Second, cfg.StaleJobTimeout, worker.CacheSizes{
		Bounds:      cfg.CacheSizeBounds,
		Patterns:    cfg.CacheSizePatterns,
		Projections: cfg.CacheSizeProjections,
	})

	return &App{
		Log:          log,
		DB:           theDB,
		Router:       router,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Liveness:     liveness,
		miningWorker: miningWorker,
	}, nil
}

// Start brings up the mining worker pool and the liveness sweep, and
// reaps any round left pending or running by a crashed previous process
// (spec.md §5 "on process crash it is reaped to failed by a startup
// sweep"). Mining jobs are not reaped here: a running job whose
// heartbeat has gone stale is claimed again by the worker pool.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if n, err := a.Repos.FederatedRound.ReapRunning(ctx, types.RoundFailureProcessRestart); err != nil {
		a.Log.Warn("startup round reap failed", "error", err)
	} else if n > 0 {
		a.Log.Info("Reaped abandoned federated rounds at startup", "count", n)
	}

	if err := a.Services.Budget.Reconcile(ctx); err != nil {
		a.Log.Warn("privacy budget reconciliation failed", "error", err)
	}

	a.miningWorker.Start(ctx)
	a.Services.Store.StartSweep(ctx, a.Cfg.LivenessSweepPeriod, a.Cfg.HeartbeatInactiveTimeout)

	if a.Cfg.FederatedAutoRounds {
		a.startAutoRounds(ctx)
	}
}

// startAutoRounds drives the round-ticker mode described in
// SPEC_FULL.md's CLI surface section: the coordinator opens a new
// round on its own cadence instead of waiting for
// /api/federated/start-round calls.
func (a *App) startAutoRounds(ctx context.Context) {
	a.Log.Info("Starting automatic federated round ticker", "interval", a.Cfg.FederatedAutoInterval)
	ticker := time.NewTicker(a.Cfg.FederatedAutoInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := a.Services.Federated.StartRound(ctx, 0, 0, 0); err != nil {
					a.Log.Debug("automatic round start skipped", "error", err)
				}
			}
		}
	}()
}

func (a *App) Run(addr string) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Router.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Liveness != nil {
		_ = a.Liveness.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
