package repos

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/ridgeline-retail/fedhui/internal/pkg/errors"
	"github.com/ridgeline-retail/fedhui/internal/repos/testutil"
	"github.com/ridgeline-retail/fedhui/internal/types"
)

func TestFederatedRoundRepo_OpenNextAssignsDenseRoundNumbers(t *testing.T) {
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	repo := NewFederatedRoundRepo(gdb, log)

	first, err := repo.OpenNext(ctx, 2, 1, 1, 42)
	require.NoError(t, err)
	require.Equal(t, 1, first.RoundNumber)

	require.NoError(t, repo.MarkCompleted(ctx, nil, first.ID, 3))

	second, err := repo.OpenNext(ctx, 2, 1, 1, 43)
	require.NoError(t, err)
	require.Equal(t, 2, second.RoundNumber)
}

func TestFederatedRoundRepo_OpenNextRejectsWhileRunning(t *testing.T) {
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	repo := NewFederatedRoundRepo(gdb, log)

	round, err := repo.OpenNext(ctx, 2, 1, 1, 1)
	require.NoError(t, err)
	require.NoError(t, repo.MarkRunning(ctx, round.ID, []uuid.UUID{uuid.New()}))

	_, err = repo.OpenNext(ctx, 2, 1, 1, 2)
	require.Error(t, err)
	var domainErr *domainerrors.Domain
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, domainerrors.CodeRoundInProgress, domainErr.Code)
}

func TestFederatedRoundRepo_MarkFailed(t *testing.T) {
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	repo := NewFederatedRoundRepo(gdb, log)

	round, err := repo.OpenNext(ctx, 2, 1, 1, 1)
	require.NoError(t, err)
	require.NoError(t, repo.MarkFailed(ctx, round.ID, types.RoundFailureInsufficientClients))

	got, err := repo.GetByID(ctx, nil, round.ID)
	require.NoError(t, err)
	require.Equal(t, types.RoundStatusFailed, got.Status)
	require.Equal(t, types.RoundFailureInsufficientClients, got.FailureReason)
}

func TestFederatedRoundRepo_ReapRunningFailsOnlyPendingAndRunning(t *testing.T) {
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	repo := NewFederatedRoundRepo(gdb, log)

	pending, err := repo.OpenNext(ctx, 2, 1, 1, 1)
	require.NoError(t, err)

	completed, err := repo.OpenNext(ctx, 2, 1, 1, 2)
	require.Error(t, err) // pending round still open, serialization blocks this
	require.Nil(t, completed)

	require.NoError(t, repo.MarkRunning(ctx, pending.ID, nil))

	n, err := repo.ReapRunning(ctx, types.RoundFailureProcessRestart)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	got, err := repo.GetByID(ctx, nil, pending.ID)
	require.NoError(t, err)
	require.Equal(t, types.RoundStatusFailed, got.Status)
	require.Equal(t, types.RoundFailureProcessRestart, got.FailureReason)

	// a completed round must survive the reap untouched
	completedRound, err := repo.OpenNext(ctx, 2, 1, 1, 3)
	require.NoError(t, err)
	require.NoError(t, repo.MarkCompleted(ctx, nil, completedRound.ID, 1))

	n, err = repo.ReapRunning(ctx, types.RoundFailureProcessRestart)
	require.NoError(t, err)
	require.Equal(t, int64(0), n)

	got, err = repo.GetByID(ctx, nil, completedRound.ID)
	require.NoError(t, err)
	require.Equal(t, types.RoundStatusCompleted, got.Status)
}

func TestFederatedRoundRepo_GetLatestOnEmptyTableReturnsNil(t *testing.T) {
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	repo := NewFederatedRoundRepo(gdb, log)

	got, err := repo.GetLatest(ctx, nil)
	require.NoError(t, err)
	require.Nil(t, got)
}
