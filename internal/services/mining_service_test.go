package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/ridgeline-retail/fedhui/internal/pkg/errors"
	"github.com/ridgeline-retail/fedhui/internal/repos"
	"github.com/ridgeline-retail/fedhui/internal/repos/testutil"
	"github.com/ridgeline-retail/fedhui/internal/types"
)

func TestMiningService_StartJobRejectsUnknownStore(t *testing.T) {
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	svc := NewMiningService(log, repos.NewStoreRepo(gdb, log), repos.NewMiningJobRepo(gdb, log), repos.NewLocalPatternRepo(gdb, log))

	_, err := svc.StartJob(ctx, StartJobParams{StoreID: uuid.New(), MinUtility: 10})
	require.Error(t, err)
	var domainErr *domainerrors.Domain
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, domainerrors.CodeNotFound, domainErr.Code)
}

func TestMiningService_StartJobRejectsNonPositiveMinUtility(t *testing.T) {
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	storeRepo := repos.NewStoreRepo(gdb, log)
	svc := NewMiningService(log, storeRepo, repos.NewMiningJobRepo(gdb, log), repos.NewLocalPatternRepo(gdb, log))
	storeID := registerStore(t, storeRepo)

	_, err := svc.StartJob(ctx, StartJobParams{StoreID: storeID, MinUtility: 0})
	require.Error(t, err)
}

func TestMiningService_StartJobThenStatusAndResults(t *testing.T) {
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	storeRepo := repos.NewStoreRepo(gdb, log)
	jobRepo := repos.NewMiningJobRepo(gdb, log)
	patternRepo := repos.NewLocalPatternRepo(gdb, log)
	svc := NewMiningService(log, storeRepo, jobRepo, patternRepo)
	storeID := registerStore(t, storeRepo)

	job, err := svc.StartJob(ctx, StartJobParams{StoreID: storeID, MinUtility: 15})
	require.NoError(t, err)
	require.Equal(t, types.MiningJobStatusPending, job.Status)

	status, err := svc.GetStatus(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, job.ID, status.ID)

	_, err = patternRepo.Create(ctx, nil, []*types.LocalPattern{
		types.NewLocalPattern(job.ID, storeID, []int64{1, 2}, 20, 3, 0),
	})
	require.NoError(t, err)

	results, err := svc.GetResults(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestMiningService_CancelJobOnlyWhilePending(t *testing.T) {
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	storeRepo := repos.NewStoreRepo(gdb, log)
	jobRepo := repos.NewMiningJobRepo(gdb, log)
	svc := NewMiningService(log, storeRepo, jobRepo, repos.NewLocalPatternRepo(gdb, log))
	storeID := registerStore(t, storeRepo)

	job, err := svc.StartJob(ctx, StartJobParams{StoreID: storeID, MinUtility: 5})
	require.NoError(t, err)
	require.NoError(t, svc.CancelJob(ctx, job.ID))

	status, err := svc.GetStatus(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, types.MiningJobStatusFailed, status.Status)
	require.True(t, status.Cancelled)

	job2, err := svc.StartJob(ctx, StartJobParams{StoreID: storeID, MinUtility: 5})
	require.NoError(t, err)
	claimed, err := jobRepo.ClaimNextPending(ctx, 3, 1)
	require.NoError(t, err)
	require.Equal(t, job2.ID, claimed.ID)

	err = svc.CancelJob(ctx, job2.ID)
	require.Error(t, err)
	var domainErr *domainerrors.Domain
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, domainerrors.CodeJobNotRunnable, domainErr.Code)
}
