package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ridgeline-retail/fedhui/internal/logger"
	"github.com/ridgeline-retail/fedhui/internal/types"
)

type LocalPatternRepo interface {
	Create(ctx context.Context, tx *gorm.DB, patterns []*types.LocalPattern) ([]*types.LocalPattern, error)
	GetByJob(ctx context.Context, tx *gorm.DB, jobID uuid.UUID) ([]*types.LocalPattern, error)

	// UnattributedByStores returns every local_pattern row belonging to
	// storeIDs that has not yet been pulled into a round, without
	// attributing them. Callers that need to decide whether a round has
	// enough contributors before committing to a set of patterns should
	// use this instead of ClaimUnattributed.
	UnattributedByStores(ctx context.Context, tx *gorm.DB, storeIDs []uuid.UUID) ([]*types.LocalPattern, error)

	// AttributeToRound marks patterns as collected into round, so they
	// can never be collected again (spec.md §4.3 step 2). patterns must
	// have come from UnattributedByStores or ClaimUnattributed.
	AttributeToRound(ctx context.Context, tx *gorm.DB, patterns []*types.LocalPattern, roundID uuid.UUID) error

	// ClaimUnattributed is UnattributedByStores immediately followed by
	// AttributeToRound, for callers that don't need to inspect the set
	// before attributing it.
	ClaimUnattributed(ctx context.Context, tx *gorm.DB, storeIDs []uuid.UUID, roundID uuid.UUID) ([]*types.LocalPattern, error)
}

type localPatternRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLocalPatternRepo(db *gorm.DB, baseLog *logger.Logger) LocalPatternRepo {
	return &localPatternRepo{db: db, log: baseLog.With("repo", "LocalPatternRepo")}
}

func (r *localPatternRepo) Create(ctx context.Context, tx *gorm.DB, patterns []*types.LocalPattern) ([]*types.LocalPattern, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(patterns) == 0 {
		return []*types.LocalPattern{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&patterns).Error; err != nil {
		return nil, err
	}
	return patterns, nil
}

func (r *localPatternRepo) GetByJob(ctx context.Context, tx *gorm.DB, jobID uuid.UUID) ([]*types.LocalPattern, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.LocalPattern
	if err := transaction.WithContext(ctx).Where("job_id = ?", jobID).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *localPatternRepo) UnattributedByStores(ctx context.Context, tx *gorm.DB, storeIDs []uuid.UUID) ([]*types.LocalPattern, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(storeIDs) == 0 {
		return []*types.LocalPattern{}, nil
	}

	var out []*types.LocalPattern
	if err := transaction.WithContext(ctx).
		Where("store_id IN ? AND attributed_round_id IS NULL", storeIDs).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *localPatternRepo) AttributeToRound(ctx context.Context, tx *gorm.DB, patterns []*types.LocalPattern, roundID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(patterns) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(patterns))
	for i, p := range patterns {
		ids[i] = p.ID
	}
	if err := transaction.WithContext(ctx).
		Model(&types.LocalPattern{}).
		Where("id IN ? AND attributed_round_id IS NULL", ids).
		Update("attributed_round_id", roundID).Error; err != nil {
		return err
	}
	for _, p := range patterns {
		p.AttributedRoundID = &roundID
	}
	return nil
}

func (r *localPatternRepo) ClaimUnattributed(ctx context.Context, tx *gorm.DB, storeIDs []uuid.UUID, roundID uuid.UUID) ([]*types.LocalPattern, error) {
	claimed, err := r.UnattributedByStores(ctx, tx, storeIDs)
	if err != nil {
		return nil, err
	}
	if err := r.AttributeToRound(ctx, tx, claimed, roundID); err != nil {
		return nil, err
	}
	return claimed, nil
}
