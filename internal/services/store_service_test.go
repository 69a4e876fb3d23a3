package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ridgeline-retail/fedhui/internal/repos"
	"github.com/ridgeline-retail/fedhui/internal/repos/testutil"
	"github.com/ridgeline-retail/fedhui/internal/types"
)

func TestStoreService_RegisterThenHeartbeat(t *testing.T) {
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	storeRepo := repos.NewStoreRepo(gdb, log)
	svc := NewStoreService(log, storeRepo, nil, time.Minute)

	id := uuid.New()
	store, err := svc.Register(ctx, id, "corner-store", "10.0.0.5")
	require.NoError(t, err)
	require.Equal(t, types.StoreStatusActive, store.ConnectionStatus)

	store, err = svc.Heartbeat(ctx, id, "10.0.0.6")
	require.NoError(t, err)
	require.Equal(t, "10.0.0.5", store.IP) // Heartbeat doesn't touch IP, only Register/Upsert does

	ids, err := svc.ActiveStoreIDs(ctx)
	require.NoError(t, err)
	require.Contains(t, ids, id)
}

func TestStoreService_SweepFlipsStaleStoresInactive(t *testing.T) {
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	storeRepo := repos.NewStoreRepo(gdb, log)
	svc := NewStoreService(log, storeRepo, nil, time.Minute)

	stale := uuid.New()
	_, err := storeRepo.Create(ctx, nil, []*types.Store{{
		ID: stale, Name: "stale", ConnectionStatus: types.StoreStatusActive,
		LastSeenAt: time.Now().Add(-time.Hour),
	}})
	require.NoError(t, err)

	n, err := svc.Sweep(ctx, time.Minute)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	ids, err := svc.ActiveStoreIDs(ctx)
	require.NoError(t, err)
	require.NotContains(t, ids, stale)
}

func TestStoreService_ListReturnsAllStores(t *testing.T) {
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	storeRepo := repos.NewStoreRepo(gdb, log)
	svc := NewStoreService(log, storeRepo, nil, time.Minute)

	_, err := svc.Register(ctx, uuid.New(), "a", "1.1.1.1")
	require.NoError(t, err)
	_, err = svc.Register(ctx, uuid.New(), "b", "2.2.2.2")
	require.NoError(t, err)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
}
