package services

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"

	domainerrors "github.com/ridgeline-retail/fedhui/internal/pkg/errors"

	"github.com/ridgeline-retail/fedhui/internal/logger"
	"github.com/ridgeline-retail/fedhui/internal/repos"
	"github.com/ridgeline-retail/fedhui/internal/types"
)

// TransactionUpload is one basket from the upload payload: parallel
// item/quantity/unit-utility arrays (spec.md §6 "Upload payload
// invariants").
type TransactionUpload struct {
	Items         []int64
	Quantities    []int64
	UnitUtilities []float64
}

type TransactionService interface {
	Upload(ctx context.Context, storeID uuid.UUID, rows []TransactionUpload) (int, error)
	ListByStore(ctx context.Context, storeID uuid.UUID, limit int) ([]*types.Transaction, error)
}

type transactionService struct {
	log    *logger.Logger
	stores repos.StoreRepo
	txns   repos.TransactionRepo
}

func NewTransactionService(baseLog *logger.Logger, stores repos.StoreRepo, txns repos.TransactionRepo) TransactionService {
	return &transactionService{
		log:    baseLog.With("service", "TransactionService"),
		stores: stores,
		txns:   txns,
	}
}

func (s *transactionService) Upload(ctx context.Context, storeID uuid.UUID, rows []TransactionUpload) (int, error) {
	if _, err := s.stores.GetByID(ctx, nil, storeID); err != nil {
		return 0, domainerrors.New(domainerrors.CodeNotFound, "unknown store_id", err)
	}

	now := time.Now()
	txns := make([]*types.Transaction, 0, len(rows))
	for i, row := range rows {
		if err := validateUpload(row); err != nil {
			return 0, domainerrors.New(domainerrors.CodeValidation, "invalid transaction at index "+strconv.Itoa(i), err)
		}
		txns = append(txns, types.NewTransaction(storeID, now, row.Items, row.Quantities, row.UnitUtilities))
	}

	created, err := s.txns.Create(ctx, nil, txns)
	if err != nil {
		return 0, err
	}
	return len(created), nil
}

func (s *transactionService) ListByStore(ctx context.Context, storeID uuid.UUID, limit int) ([]*types.Transaction, error) {
	rows, err := s.txns.GetByStore(ctx, nil, storeID, nil, nil)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[len(rows)-limit:]
	}
	return rows, nil
}

func validateUpload(row TransactionUpload) error {
	n := len(row.Items)
	if n == 0 {
		return domainerrors.ErrInvalidArgument
	}
	if len(row.Quantities) != n || len(row.UnitUtilities) != n {
		return domainerrors.ErrInvalidArgument
	}
	for i := range row.Quantities {
		if row.Quantities[i] <= 0 {
			return domainerrors.ErrInvalidArgument
		}
		u := row.UnitUtilities[i]
		if u <= 0 || math.IsNaN(u) || math.IsInf(u, 0) {
			return domainerrors.ErrInvalidArgument
		}
	}
	return nil
}
