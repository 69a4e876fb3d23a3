package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ridgeline-retail/fedhui/internal/logger"
	"github.com/ridgeline-retail/fedhui/internal/types"
)

type TransactionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, txns []*types.Transaction) ([]*types.Transaction, error)
	GetByStore(ctx context.Context, tx *gorm.DB, storeID uuid.UUID, from, to *time.Time) ([]*types.Transaction, error)
	CountByStore(ctx context.Context, tx *gorm.DB, storeID uuid.UUID) (int64, error)
}

type transactionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTransactionRepo(db *gorm.DB, baseLog *logger.Logger) TransactionRepo {
	return &transactionRepo{db: db, log: baseLog.With("repo", "TransactionRepo")}
}

func (r *transactionRepo) Create(ctx context.Context, tx *gorm.DB, txns []*types.Transaction) ([]*types.Transaction, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(txns) == 0 {
		return []*types.Transaction{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *transactionRepo) GetByStore(ctx context.Context, tx *gorm.DB, storeID uuid.UUID, from, to *time.Time) ([]*types.Transaction, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).Where("store_id = ?", storeID)
	if from != nil {
		q = q.Where("transaction_date >= ?", *from)
	}
	if to != nil {
		q = q.Where("transaction_date <= ?", *to)
	}
	var out []*types.Transaction
	if err := q.Order("transaction_date ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *transactionRepo) CountByStore(ctx context.Context, tx *gorm.DB, storeID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Transaction{}).
		Where("store_id = ?", storeID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
