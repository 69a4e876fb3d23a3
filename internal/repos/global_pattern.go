package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ridgeline-retail/fedhui/internal/logger"
	"github.com/ridgeline-retail/fedhui/internal/types"
)

type GlobalPatternRepo interface {
	// Upsert writes a GlobalPattern once per (round_id, items); a
	// replayed commit for the same round is idempotent because of the
	// unique index on (round_id, items_key).
	Upsert(ctx context.Context, tx *gorm.DB, patterns []*types.GlobalPattern) error
	GetByRound(ctx context.Context, tx *gorm.DB, roundID uuid.UUID) ([]*types.GlobalPattern, error)
	ListAll(ctx context.Context, tx *gorm.DB, minUtility float64) ([]*types.GlobalPattern, error)
}

type globalPatternRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGlobalPatternRepo(db *gorm.DB, baseLog *logger.Logger) GlobalPatternRepo {
	return &globalPatternRepo{db: db, log: baseLog.With("repo", "GlobalPatternRepo")}
}

func (r *globalPatternRepo) Upsert(ctx context.Context, tx *gorm.DB, patterns []*types.GlobalPattern) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(patterns) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "round_id"}, {Name: "items_key"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"aggregated_utility", "global_support", "contributing_stores",
			}),
		}).
		Create(&patterns).Error
}

func (r *globalPatternRepo) GetByRound(ctx context.Context, tx *gorm.DB, roundID uuid.UUID) ([]*types.GlobalPattern, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.GlobalPattern
	if err := transaction.WithContext(ctx).
		Where("round_id = ?", roundID).
		Order("aggregated_utility DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *globalPatternRepo) ListAll(ctx context.Context, tx *gorm.DB, minUtility float64) ([]*types.GlobalPattern, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.GlobalPattern
	if err := transaction.WithContext(ctx).
		Where("aggregated_utility >= ?", minUtility).
		Order("aggregated_utility DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
