package repos

import (
	"errors"
	"time"

	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ridgeline-retail/fedhui/internal/logger"
	"github.com/ridgeline-retail/fedhui/internal/types"
)

type MiningJobRepo interface {
	Create(ctx context.Context, tx *gorm.DB, jobs []*types.MiningJob) ([]*types.MiningJob, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.MiningJob, error)
	ListByStore(ctx context.Context, tx *gorm.DB, storeID uuid.UUID) ([]*types.MiningJob, error)

	// ClaimNextPending atomically picks the oldest pending-or-stale job
	// and flips it to running, mirroring a generic job-run claim but
	// scoped to mining_job's own attempts/heartbeat columns.
	ClaimNextPending(ctx context.Context, maxAttempts int, staleRunning time.Duration) (*types.MiningJob, error)
	Heartbeat(ctx context.Context, id uuid.UUID) error

	// MarkCompleted takes an explicit tx so a caller can fold it into
	// the same transaction that writes the job's LocalPattern rows
	// (spec.md §4.2 "pattern writes and the terminal job update are one
	// transaction").
	MarkCompleted(ctx context.Context, tx *gorm.DB, id uuid.UUID, patternsFound int, execSeconds float64) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
	MarkCancelled(ctx context.Context, id uuid.UUID) error
	IsCancelled(ctx context.Context, id uuid.UUID) (bool, error)

	// Requeue releases a job claimed under ClaimNextPending back to
	// pending without touching attempts, used when a worker cannot get
	// the store's lock right after claiming.
	Requeue(ctx context.Context, id uuid.UUID) error
}

type miningJobRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMiningJobRepo(db *gorm.DB, baseLog *logger.Logger) MiningJobRepo {
	return &miningJobRepo{db: db, log: baseLog.With("repo", "MiningJobRepo")}
}

func (r *miningJobRepo) Create(ctx context.Context, tx *gorm.DB, jobs []*types.MiningJob) ([]*types.MiningJob, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(jobs) == 0 {
		return []*types.MiningJob{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *miningJobRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.MiningJob, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var j types.MiningJob
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&j).Error; err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *miningJobRepo) ListByStore(ctx context.Context, tx *gorm.DB, storeID uuid.UUID) ([]*types.MiningJob, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.MiningJob
	if err := transaction.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *miningJobRepo) ClaimNextPending(ctx context.Context, maxAttempts int, staleRunning time.Duration) (*types.MiningJob, error) {
	now := time.Now()
	staleCutoff := now.Add(-staleRunning)
	var claimed *types.MiningJob
	err := r.db.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		var job types.MiningJob
		scoped := txx
		if supportsRowLocking(txx) {
			scoped = txx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}
		qErr := scoped.
			Where(`
				NOT cancelled
				AND (
					status = ?
					OR (status = ? AND heartbeat_at IS NOT NULL AND heartbeat_at < ?)
				)
			`, types.MiningJobStatusPending, types.MiningJobStatusRunning, staleCutoff).
			Where("attempts < ?", maxAttempts).
			Order("created_at ASC").
			First(&job).Error
		if errors.Is(qErr, gorm.ErrRecordNotFound) {
			return nil
		}
		if qErr != nil {
			return qErr
		}
		uErr := txx.Model(&types.MiningJob{}).
			Where("id = ?", job.ID).
			Updates(map[string]interface{}{
				"status":       types.MiningJobStatusRunning,
				"attempts":     gorm.Expr("attempts + 1"),
				"locked_at":    now,
				"heartbeat_at": now,
				"started_at":   now,
				"updated_at":   now,
			}).Error
		if uErr != nil {
			return uErr
		}
		claimed = &job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *miningJobRepo) Heartbeat(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&types.MiningJob{}).
		Where("id = ? AND status = ?", id, types.MiningJobStatusRunning).
		Updates(map[string]interface{}{
			"heartbeat_at": now,
			"updated_at":   now,
		}).Error
}

func (r *miningJobRepo) MarkCompleted(ctx context.Context, tx *gorm.DB, id uuid.UUID, patternsFound int, execSeconds float64) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now()
	return transaction.WithContext(ctx).
		Model(&types.MiningJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":                 types.MiningJobStatusCompleted,
			"patterns_found":         patternsFound,
			"execution_time_seconds": execSeconds,
			"completed_at":           now,
			"updated_at":             now,
		}).Error
}

func (r *miningJobRepo) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&types.MiningJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        types.MiningJobStatusFailed,
			"error_message": reason,
			"completed_at":  now,
			"updated_at":    now,
		}).Error
}

// MarkCancelled transitions a still-pending job straight to failed
// with cancelled=true (spec.md §5 "Cancellation"); it is only ever
// applied to pending jobs, so there is no running claim to race.
func (r *miningJobRepo) MarkCancelled(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&types.MiningJob{}).
		Where("id = ? AND status = ?", id, types.MiningJobStatusPending).
		Updates(map[string]interface{}{
			"cancelled":     true,
			"status":        types.MiningJobStatusFailed,
			"error_message": "cancelled before mining started",
			"completed_at":  now,
			"updated_at":    now,
		}).Error
}

func (r *miningJobRepo) Requeue(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&types.MiningJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       types.MiningJobStatusPending,
			"locked_at":    nil,
			"heartbeat_at": nil,
			"updated_at":   time.Now(),
		}).Error
}

func (r *miningJobRepo) IsCancelled(ctx context.Context, id uuid.UUID) (bool, error) {
	var j types.MiningJob
	if err := r.db.WithContext(ctx).
		Select("cancelled").
		Where("id = ?", id).
		First(&j).Error; err != nil {
		return false, err
	}
	return j.Cancelled, nil
}
