package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ridgeline-retail/fedhui/internal/logger"
	"github.com/ridgeline-retail/fedhui/internal/mining"
	"github.com/ridgeline-retail/fedhui/internal/repos"
	"github.com/ridgeline-retail/fedhui/internal/types"
)

const (
	maxAttempts        = 5
	defaultStaleAfter  = 30 * time.Minute
	heartbeatInterval  = 10 * time.Second
	cancelPollInterval = 5 * time.Second
)

// Worker polls for pending MiningJob rows and drives the mining
// engine against each job's store, the same ticking-poll-loop shape as
// the teacher's generic job worker, specialized with per-store
// exclusivity (spec.md §4.2 "Concurrency").
type Worker struct {
	log         *logger.Logger
	db          *gorm.DB
	jobs        repos.MiningJobRepo
	txns        repos.TransactionRepo
	patterns    repos.LocalPatternRepo
	storeLocks  *StoreLockRegistry
	concurrency int
	pollEvery   time.Duration
	staleAfter  time.Duration

	boundCacheSize      int
	patternCacheSize    int
	projectionCacheSize int
}

// CacheSizes mirrors the CACHE_SIZE_PATTERNS/CACHE_SIZE_BOUNDS/
// CACHE_SIZE_PROJECTIONS config knobs (spec.md §6), threaded into every
// mining.Mine call the worker makes. A zero field falls back to
// mining's own default for that cache.
type CacheSizes struct {
	Bounds      int
	Patterns    int
	Projections int
}

func NewWorker(baseLog *logger.Logger, db *gorm.DB, jobs repos.MiningJobRepo, txns repos.TransactionRepo, patterns repos.LocalPatternRepo, concurrency int, pollEvery, staleJobTimeout time.Duration, caches CacheSizes) *Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	if pollEvery <= 0 {
		pollEvery = time.Second
	}
	if staleJobTimeout <= 0 {
		staleJobTimeout = defaultStaleAfter
	}
	return &Worker{
		log:                 baseLog.With("component", "MiningWorker"),
		db:                  db,
		jobs:                jobs,
		txns:                txns,
		patterns:            patterns,
		storeLocks:          NewStoreLockRegistry(),
		concurrency:         concurrency,
		pollEvery:           pollEvery,
		staleAfter:          staleJobTimeout,
		boundCacheSize:      caches.Bounds,
		patternCacheSize:    caches.Patterns,
		projectionCacheSize: caches.Projections,
	}
}

func (w *Worker) Start(ctx context.Context) {
	w.log.Info("Starting mining worker pool", "concurrency", w.concurrency)
	for i := 0; i < w.concurrency; i++ {
		go w.runLoop(ctx, i+1)
	}
}

func (w *Worker) runLoop(ctx context.Context, workerID int) {
	ticker := time.NewTicker(w.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Mining worker loop stopped", "worker_id", workerID)
			return
		case <-ticker.C:
			w.tick(ctx, workerID)
		}
	}
}

func (w *Worker) tick(ctx context.Context, workerID int) {
	job, err := w.jobs.ClaimNextPending(ctx, maxAttempts, w.staleAfter)
	if err != nil {
		w.log.Warn("ClaimNextPending failed", "worker_id", workerID, "error", err)
		return
	}
	if job == nil {
		return
	}

	release, acquired := w.storeLocks.TryAcquire(job.StoreID)
	if !acquired {
		if err := w.jobs.Requeue(ctx, job.ID); err != nil {
			w.log.Warn("failed to requeue job blocked on store lock", "job_id", job.ID, "error", err)
		}
		return
	}
	defer release()

	w.runJob(ctx, workerID, job)
}

func (w *Worker) runJob(ctx context.Context, workerID int, job *types.MiningJob) {
	jobLog := w.log.With("worker_id", workerID, "job_id", job.ID, "store_id", job.StoreID)
	jobLog.Info("Claimed mining job")

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stopHeartbeat := w.startHeartbeat(runCtx, job.ID)
	stopCancelWatch := w.startCancelWatch(runCtx, cancel, job.ID)
	defer stopHeartbeat()
	defer stopCancelWatch()

	defer func() {
		if r := recover(); r != nil {
			jobLog.Error("Mining job panicked", "panic", r)
			if err := w.jobs.MarkFailed(ctx, job.ID, "panic during mining"); err != nil {
				jobLog.Error("failed to mark panicked job failed", "error", err)
			}
		}
	}()

	start := time.Now()
	txns, err := w.loadTransactions(ctx, job.StoreID)
	if err != nil {
		jobLog.Error("failed to load transactions", "error", err)
		w.fail(ctx, job.ID, err.Error())
		return
	}

	results, _, err := mining.Mine(runCtx, txns, mining.Options{
		MinUtility:          job.MinUtility,
		MinSupport:          job.MinSupport,
		MaxLength:           job.MaxPatternLength,
		PruningOn:           job.UsePruning,
		BoundCacheSize:      w.boundCacheSize,
		PatternCacheSize:    w.patternCacheSize,
		ProjectionCacheSize: w.projectionCacheSize,
	})
	if err != nil {
		jobLog.Error("mining failed", "error", err)
		w.fail(ctx, job.ID, err.Error())
		return
	}

	patterns := make([]*types.LocalPattern, 0, len(results))
	for _, r := range results {
		patterns = append(patterns, types.NewLocalPattern(job.ID, job.StoreID, r.Items, r.Utility, r.Support, 0))
	}

	execSeconds := time.Since(start).Seconds()

	// The pattern writes and the terminal job update are one
	// transaction, so a crash between the two can never leave
	// LocalPattern rows belonging to a job that's still (or again)
	// pending (spec.md §4.2).
	err = w.db.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		if _, err := w.patterns.Create(ctx, txx, patterns); err != nil {
			return err
		}
		return w.jobs.MarkCompleted(ctx, txx, job.ID, len(results), execSeconds)
	})
	if err != nil {
		jobLog.Error("failed to persist local patterns and complete job", "error", err)
		w.fail(ctx, job.ID, err.Error())
		return
	}
	jobLog.Info("Mining job completed", "patterns_found", len(results), "execution_seconds", execSeconds)
}

func (w *Worker) fail(ctx context.Context, jobID uuid.UUID, reason string) {
	if err := w.jobs.MarkFailed(ctx, jobID, reason); err != nil {
		w.log.Error("failed to mark job failed", "job_id", jobID, "error", err)
	}
}

func (w *Worker) loadTransactions(ctx context.Context, storeID uuid.UUID) ([]mining.Transaction, error) {
	rows, err := w.txns.GetByStore(ctx, nil, storeID, nil, nil)
	if err != nil {
		return nil, err
	}
	out := make([]mining.Transaction, 0, len(rows))
	for _, row := range rows {
		ids, err := row.ItemsSlice()
		if err != nil {
			return nil, err
		}
		qtys, err := row.QuantitiesSlice()
		if err != nil {
			return nil, err
		}
		utils, err := row.UnitUtilitiesSlice()
		if err != nil {
			return nil, err
		}
		items := make([]mining.Item, len(ids))
		for i := range ids {
			items[i] = mining.Item{ID: ids[i], Quantity: int(qtys[i]), UnitUtility: utils[i]}
		}
		out = append(out, mining.Transaction{Items: items})
	}
	return out, nil
}

func (w *Worker) startHeartbeat(ctx context.Context, jobID uuid.UUID) func() {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				if err := w.jobs.Heartbeat(ctx, jobID); err != nil {
					w.log.Warn("heartbeat failed", "job_id", jobID, "error", err)
				}
			}
		}
	}()
	return func() { close(done) }
}

func (w *Worker) startCancelWatch(ctx context.Context, cancel context.CancelFunc, jobID uuid.UUID) func() {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(cancelPollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				cancelled, err := w.jobs.IsCancelled(ctx, jobID)
				if err != nil {
					continue
				}
				if cancelled {
					cancel()
					return
				}
			}
		}
	}()
	return func() { close(done) }
}
