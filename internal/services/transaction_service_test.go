package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/ridgeline-retail/fedhui/internal/pkg/errors"
	"github.com/ridgeline-retail/fedhui/internal/repos"
	"github.com/ridgeline-retail/fedhui/internal/repos/testutil"
)

func registerStore(t *testing.T, storeRepo repos.StoreRepo) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := storeRepo.Upsert(context.Background(), nil, id, "store", "1.1.1.1", time.Now())
	require.NoError(t, err)
	return id
}

func TestTransactionService_UploadRejectsUnknownStore(t *testing.T) {
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	svc := NewTransactionService(log, repos.NewStoreRepo(gdb, log), repos.NewTransactionRepo(gdb, log))

	_, err := svc.Upload(ctx, uuid.New(), []TransactionUpload{{Items: []int64{1}, Quantities: []int64{1}, UnitUtilities: []float64{1}}})
	require.Error(t, err)
	var domainErr *domainerrors.Domain
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, domainerrors.CodeNotFound, domainErr.Code)
}

func TestTransactionService_UploadRejectsMismatchedArrayLengths(t *testing.T) {
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	storeRepo := repos.NewStoreRepo(gdb, log)
	svc := NewTransactionService(log, storeRepo, repos.NewTransactionRepo(gdb, log))
	storeID := registerStore(t, storeRepo)

	_, err := svc.Upload(ctx, storeID, []TransactionUpload{
		{Items: []int64{1, 2}, Quantities: []int64{1}, UnitUtilities: []float64{1, 1}},
	})
	require.Error(t, err)
	var domainErr *domainerrors.Domain
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, domainerrors.CodeValidation, domainErr.Code)
}

func TestTransactionService_UploadRejectsNonPositiveQuantity(t *testing.T) {
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	storeRepo := repos.NewStoreRepo(gdb, log)
	svc := NewTransactionService(log, storeRepo, repos.NewTransactionRepo(gdb, log))
	storeID := registerStore(t, storeRepo)

	_, err := svc.Upload(ctx, storeID, []TransactionUpload{
		{Items: []int64{1}, Quantities: []int64{0}, UnitUtilities: []float64{1}},
	})
	require.Error(t, err)
}

func TestTransactionService_UploadAndListByStore(t *testing.T) {
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	storeRepo := repos.NewStoreRepo(gdb, log)
	txnRepo := repos.NewTransactionRepo(gdb, log)
	svc := NewTransactionService(log, storeRepo, txnRepo)
	storeID := registerStore(t, storeRepo)

	n, err := svc.Upload(ctx, storeID, []TransactionUpload{
		{Items: []int64{1, 2}, Quantities: []int64{1, 2}, UnitUtilities: []float64{3.0, 1.5}},
		{Items: []int64{3}, Quantities: []int64{1}, UnitUtilities: []float64{9.0}},
	})
	require.NoError(t, err)
	require.Equal(t, 2, n)

	rows, err := svc.ListByStore(ctx, storeID, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	limited, err := svc.ListByStore(ctx, storeID, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestTransactionService_UploadRejectsEmptyBasket(t *testing.T) {
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	storeRepo := repos.NewStoreRepo(gdb, log)
	svc := NewTransactionService(log, storeRepo, repos.NewTransactionRepo(gdb, log))
	storeID := registerStore(t, storeRepo)

	_, err := svc.Upload(ctx, storeID, []TransactionUpload{{}})
	require.Error(t, err)
}
