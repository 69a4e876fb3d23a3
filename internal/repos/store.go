package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ridgeline-retail/fedhui/internal/logger"
	"github.com/ridgeline-retail/fedhui/internal/types"
)

type StoreRepo interface {
	Create(ctx context.Context, tx *gorm.DB, stores []*types.Store) ([]*types.Store, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Store, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Store, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Store, error)
	TouchLastSeen(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string, at time.Time) error

	// Upsert registers a store idempotently on id (spec.md §4.4
	// "Store registration"): a known id has its name/ip refreshed and
	// last_seen reset; an unknown id is created active.
	Upsert(ctx context.Context, tx *gorm.DB, id uuid.UUID, name, ip string, at time.Time) (*types.Store, error)

	// ListInactiveSince returns every active store whose last_seen_at
	// predates cutoff, the liveness sweep's write set (spec.md §4.4).
	ListInactiveSince(ctx context.Context, tx *gorm.DB, cutoff time.Time) ([]*types.Store, error)
}

type storeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStoreRepo(db *gorm.DB, baseLog *logger.Logger) StoreRepo {
	return &storeRepo{db: db, log: baseLog.With("repo", "StoreRepo")}
}

func (r *storeRepo) Create(ctx context.Context, tx *gorm.DB, stores []*types.Store) ([]*types.Store, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(stores) == 0 {
		return []*types.Store{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&stores).Error; err != nil {
		return nil, err
	}
	return stores, nil
}

func (r *storeRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Store, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var s types.Store
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *storeRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Store, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Store
	if len(ids) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *storeRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Store, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Store
	if err := transaction.WithContext(ctx).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *storeRepo) TouchLastSeen(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string, at time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Store{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"connection_status": status,
			"last_seen_at":      at,
			"updated_at":        at,
		}).Error
}

func (r *storeRepo) Upsert(ctx context.Context, tx *gorm.DB, id uuid.UUID, name, ip string, at time.Time) (*types.Store, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	result := transaction.WithContext(ctx).
		Model(&types.Store{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"name":              name,
			"ip":                ip,
			"connection_status": types.StoreStatusActive,
			"last_seen_at":      at,
			"updated_at":        at,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		store := &types.Store{
			ID:               id,
			Name:             name,
			IP:               ip,
			ConnectionStatus: types.StoreStatusActive,
			LastSeenAt:       at,
		}
		if err := transaction.WithContext(ctx).Create(store).Error; err != nil {
			return nil, err
		}
		return store, nil
	}
	return r.GetByID(ctx, transaction, id)
}

func (r *storeRepo) ListInactiveSince(ctx context.Context, tx *gorm.DB, cutoff time.Time) ([]*types.Store, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Store
	if err := transaction.WithContext(ctx).
		Where("connection_status = ? AND last_seen_at < ?", types.StoreStatusActive, cutoff).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
