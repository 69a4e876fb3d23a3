package worker

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ridgeline-retail/fedhui/internal/repos"
	"github.com/ridgeline-retail/fedhui/internal/repos/testutil"
	"github.com/ridgeline-retail/fedhui/internal/types"
)

// TestMain verifies the worker pool leaves no goroutines running once
// its context is cancelled.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestWorker_ClaimsAndCompletesPendingJob(t *testing.T) {
	gdb := testutil.DB(t)
	log := testutil.Logger(t)

	jobRepo := repos.NewMiningJobRepo(gdb, log)
	txnRepo := repos.NewTransactionRepo(gdb, log)
	patternRepo := repos.NewLocalPatternRepo(gdb, log)
	storeRepo := repos.NewStoreRepo(gdb, log)

	ctx := context.Background()
	storeID := uuid.New()
	_, err := storeRepo.Upsert(ctx, nil, storeID, "store", "1.1.1.1", time.Now())
	require.NoError(t, err)

	txn := types.NewTransaction(storeID, time.Now(), []int64{1, 2}, []int64{2, 1}, []float64{5.0, 3.0})
	_, err = txnRepo.Create(ctx, nil, []*types.Transaction{txn})
	require.NoError(t, err)

	job := &types.MiningJob{
		ID:         uuid.New(),
		StoreID:    storeID,
		MinUtility: 1,
		Status:     types.MiningJobStatusPending,
	}
	_, err = jobRepo.Create(ctx, nil, []*types.MiningJob{job})
	require.NoError(t, err)

	w := NewWorker(log, gdb, jobRepo, txnRepo, patternRepo, 2, 5*time.Millisecond, time.Minute, CacheSizes{})
	runCtx, cancel := context.WithCancel(ctx)
	w.Start(runCtx)

	require.Eventually(t, func() bool {
		got, err := jobRepo.GetByID(ctx, nil, job.ID)
		require.NoError(t, err)
		return got.Status == types.MiningJobStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	cancel()

	results, err := patternRepo.GetByJob(ctx, nil, job.ID)
	require.NoError(t, err)
	require.NotEmpty(t, results)
}

func TestNewWorker_ThreadsCacheSizesAndStaleTimeoutDefaults(t *testing.T) {
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	jobRepo := repos.NewMiningJobRepo(gdb, log)
	txnRepo := repos.NewTransactionRepo(gdb, log)
	patternRepo := repos.NewLocalPatternRepo(gdb, log)

	w := NewWorker(log, gdb, jobRepo, txnRepo, patternRepo, 1, time.Second, 0, CacheSizes{Bounds: 10, Patterns: 20, Projections: 30})
	require.Equal(t, defaultStaleAfter, w.staleAfter, "a zero staleJobTimeout must fall back to the package default")
	require.Equal(t, 10, w.boundCacheSize)
	require.Equal(t, 20, w.patternCacheSize)
	require.Equal(t, 30, w.projectionCacheSize)
}

func TestWorker_UsesConfiguredStaleJobTimeout(t *testing.T) {
	gdb := testutil.DB(t)
	log := testutil.Logger(t)

	jobRepo := repos.NewMiningJobRepo(gdb, log)
	txnRepo := repos.NewTransactionRepo(gdb, log)
	patternRepo := repos.NewLocalPatternRepo(gdb, log)
	storeRepo := repos.NewStoreRepo(gdb, log)

	ctx := context.Background()
	storeID := uuid.New()
	_, err := storeRepo.Upsert(ctx, nil, storeID, "store", "1.1.1.1", time.Now())
	require.NoError(t, err)

	job := &types.MiningJob{
		ID:         uuid.New(),
		StoreID:    storeID,
		MinUtility: 1,
		Status:     types.MiningJobStatusPending,
	}
	_, err = jobRepo.Create(ctx, nil, []*types.MiningJob{job})
	require.NoError(t, err)

	// Claim it directly and immediately go stale, so the worker can only
	// pick it back up if it actually honors a short staleJobTimeout
	// rather than falling back to the package's 30-minute default.
	claimed, err := jobRepo.ClaimNextPending(ctx, maxAttempts, time.Minute)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	require.NoError(t, gdb.Model(&types.MiningJob{}).
		Where("id = ?", job.ID).
		Update("heartbeat_at", time.Now().Add(-time.Hour)).Error)

	w := NewWorker(log, gdb, jobRepo, txnRepo, patternRepo, 1, 5*time.Millisecond, 10*time.Millisecond, CacheSizes{})
	require.Equal(t, 10*time.Millisecond, w.staleAfter)

	runCtx, cancel := context.WithCancel(ctx)
	w.Start(runCtx)
	defer cancel()

	require.Eventually(t, func() bool {
		got, err := jobRepo.GetByID(ctx, nil, job.ID)
		require.NoError(t, err)
		return got.Status == types.MiningJobStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWorker_RequeuesJobBlockedOnStoreLock(t *testing.T) {
	gdb := testutil.DB(t)
	log := testutil.Logger(t)

	jobRepo := repos.NewMiningJobRepo(gdb, log)
	txnRepo := repos.NewTransactionRepo(gdb, log)
	patternRepo := repos.NewLocalPatternRepo(gdb, log)
	storeRepo := repos.NewStoreRepo(gdb, log)

	ctx := context.Background()
	storeID := uuid.New()
	_, err := storeRepo.Upsert(ctx, nil, storeID, "store", "1.1.1.1", time.Now())
	require.NoError(t, err)

	w := NewWorker(log, gdb, jobRepo, txnRepo, patternRepo, 1, 5*time.Millisecond, time.Minute, CacheSizes{})

	release, acquired := w.storeLocks.TryAcquire(storeID)
	require.True(t, acquired)
	defer release()

	job := &types.MiningJob{
		ID:         uuid.New(),
		StoreID:    storeID,
		MinUtility: 1,
		Status:     types.MiningJobStatusPending,
	}
	_, err = jobRepo.Create(ctx, nil, []*types.MiningJob{job})
	require.NoError(t, err)

	w.tick(ctx, 1)

	got, err := jobRepo.GetByID(ctx, nil, job.ID)
	require.NoError(t, err)
	require.Equal(t, types.MiningJobStatusPending, got.Status)
}
