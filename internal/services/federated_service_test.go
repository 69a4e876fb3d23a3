package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ridgeline-retail/fedhui/internal/coordinator"
	"github.com/ridgeline-retail/fedhui/internal/repos"
	"github.com/ridgeline-retail/fedhui/internal/repos/testutil"
	"github.com/ridgeline-retail/fedhui/internal/types"
)

type noActiveStores struct{}

func (noActiveStores) ActiveStoreIDs(ctx context.Context) ([]uuid.UUID, error) {
	return nil, nil
}

func waitForRoundTerminal(t *testing.T, svc FederatedService, id uuid.UUID) *types.FederatedRound {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < 200; i++ {
		round, err := svc.GetRound(ctx, id)
		require.NoError(t, err)
		if round.Status != types.RoundStatusPending {
			return round
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("round never left pending status")
	return nil
}

func TestFederatedService_StartRoundAppliesDefaults(t *testing.T) {
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()

	roundRepo := repos.NewFederatedRoundRepo(gdb, log)
	globalRepo := repos.NewGlobalPatternRepo(gdb, log)
	ledger := coordinator.NewBudgetLedger(log, nil, roundRepo, 100)
	coord := coordinator.NewCoordinator(log, gdb, roundRepo, repos.NewLocalPatternRepo(gdb, log), globalRepo, repos.NewTransactionRepo(gdb, log), noActiveStores{}, ledger)
	svc := NewFederatedService(log, coord, roundRepo, globalRepo, 1, 0.5, 1.0)

	round, err := svc.StartRound(ctx, 0, 0, 0)
	require.NoError(t, err)
	require.Equal(t, 1, round.RoundNumber)
	require.InDelta(t, 0.5, round.PrivacyBudget, 1e-9)
	require.InDelta(t, 1.0, round.Sensitivity, 1e-9)

	final := waitForRoundTerminal(t, svc, round.ID)
	require.Equal(t, types.RoundStatusFailed, final.Status)
	require.Equal(t, types.RoundFailureInsufficientClients, final.FailureReason)
}

func TestFederatedService_ListRoundsDefaultsLimit(t *testing.T) {
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()

	roundRepo := repos.NewFederatedRoundRepo(gdb, log)
	globalRepo := repos.NewGlobalPatternRepo(gdb, log)
	ledger := coordinator.NewBudgetLedger(log, nil, roundRepo, 100)
	coord := coordinator.NewCoordinator(log, gdb, roundRepo, repos.NewLocalPatternRepo(gdb, log), globalRepo, repos.NewTransactionRepo(gdb, log), noActiveStores{}, ledger)
	svc := NewFederatedService(log, coord, roundRepo, globalRepo, 1, 0.5, 1.0)

	round, err := svc.StartRound(ctx, 1, 0.5, 1.0)
	require.NoError(t, err)
	waitForRoundTerminal(t, svc, round.ID)

	rounds, err := svc.ListRounds(ctx, 0)
	require.NoError(t, err)
	require.Len(t, rounds, 1)
}

func TestFederatedService_GetRoundPatternsEmptyWhenFailed(t *testing.T) {
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()

	roundRepo := repos.NewFederatedRoundRepo(gdb, log)
	globalRepo := repos.NewGlobalPatternRepo(gdb, log)
	ledger := coordinator.NewBudgetLedger(log, nil, roundRepo, 100)
	coord := coordinator.NewCoordinator(log, gdb, roundRepo, repos.NewLocalPatternRepo(gdb, log), globalRepo, repos.NewTransactionRepo(gdb, log), noActiveStores{}, ledger)
	svc := NewFederatedService(log, coord, roundRepo, globalRepo, 1, 0.5, 1.0)

	round, err := svc.StartRound(ctx, 1, 0.5, 1.0)
	require.NoError(t, err)
	waitForRoundTerminal(t, svc, round.ID)

	patterns, err := svc.GetRoundPatterns(ctx, round.ID)
	require.NoError(t, err)
	require.Empty(t, patterns)
}
