package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domainerrors "github.com/ridgeline-retail/fedhui/internal/pkg/errors"

	"github.com/ridgeline-retail/fedhui/internal/logger"
	"github.com/ridgeline-retail/fedhui/internal/types"
)

type FederatedRoundRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.FederatedRound, error)
	GetLatest(ctx context.Context, tx *gorm.DB) (*types.FederatedRound, error)
	ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*types.FederatedRound, error)

	// OpenNext is the single writer entrypoint into a new round: it
	// fails with domainerrors.CodeRoundInProgress if a round is
	// already running, so rounds are strictly serialized.
	OpenNext(ctx context.Context, minClients int, budget, sensitivity float64, seed int64) (*types.FederatedRound, error)
	MarkRunning(ctx context.Context, id uuid.UUID, participatingStores []uuid.UUID) error

	// MarkCompleted takes an explicit tx so a caller can fold it into
	// the same transaction that writes the round's GlobalPattern rows
	// (spec.md §4.3 step 5 "one transaction writes all GlobalPattern
	// rows ... and transitions to completed").
	MarkCompleted(ctx context.Context, tx *gorm.DB, id uuid.UUID, patternsAggregated int) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error

	// ReapRunning fails every round left in pending/running at process
	// start, since a round in that state can only mean the previous
	// process crashed mid-round (spec.md §5 "on process crash it is
	// reaped to failed by a startup sweep").
	ReapRunning(ctx context.Context, reason string) (int64, error)
}

type federatedRoundRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFederatedRoundRepo(db *gorm.DB, baseLog *logger.Logger) FederatedRoundRepo {
	return &federatedRoundRepo{db: db, log: baseLog.With("repo", "FederatedRoundRepo")}
}

func (r *federatedRoundRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.FederatedRound, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var round types.FederatedRound
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&round).Error; err != nil {
		return nil, err
	}
	return &round, nil
}

func (r *federatedRoundRepo) GetLatest(ctx context.Context, tx *gorm.DB) (*types.FederatedRound, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var round types.FederatedRound
	err := transaction.WithContext(ctx).Order("round_number DESC").Limit(1).Find(&round).Error
	if err != nil {
		return nil, err
	}
	if round.ID == uuid.Nil {
		return nil, nil
	}
	return &round, nil
}

func (r *federatedRoundRepo) ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*types.FederatedRound, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.FederatedRound
	if err := transaction.WithContext(ctx).
		Order("round_number DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// OpenNext serializes round creation: it locks the row for the most
// recently created round (if any) inside a transaction, refuses to
// proceed if that round is still running, and inserts the next round
// number. A unique index on round_number turns any race that slips
// past the lock into an insert conflict instead of a silent double
// round.
func (r *federatedRoundRepo) OpenNext(ctx context.Context, minClients int, budget, sensitivity float64, seed int64) (*types.FederatedRound, error) {
	var opened *types.FederatedRound
	err := r.db.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		scoped := txx
		if supportsRowLocking(txx) {
			scoped = txx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var latest types.FederatedRound
		err := scoped.
			Order("round_number DESC").
			Limit(1).
			Find(&latest).Error
		if err != nil {
			return err
		}

		nextNumber := 1
		if latest.ID != uuid.Nil {
			if latest.Status == types.RoundStatusRunning || latest.Status == types.RoundStatusPending {
				return domainerrors.New(domainerrors.CodeRoundInProgress, "a federated round is already in progress", nil)
			}
			nextNumber = latest.RoundNumber + 1
		}

		round := &types.FederatedRound{
			ID:                  uuid.New(),
			RoundNumber:         nextNumber,
			Status:              types.RoundStatusPending,
			MinClientsRequired:  minClients,
			PrivacyBudget:       budget,
			Sensitivity:         sensitivity,
			Seed:                seed,
			ParticipatingStores: types.EncodeUUIDSlice(nil),
		}
		if err := txx.Create(round).Error; err != nil {
			return err
		}
		opened = round
		return nil
	})
	if err != nil {
		return nil, err
	}
	return opened, nil
}

func (r *federatedRoundRepo) MarkRunning(ctx context.Context, id uuid.UUID, participatingStores []uuid.UUID) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&types.FederatedRound{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":               types.RoundStatusRunning,
			"participating_stores": types.EncodeUUIDSlice(participatingStores),
			"started_at":           now,
			"updated_at":           now,
		}).Error
}

func (r *federatedRoundRepo) MarkCompleted(ctx context.Context, tx *gorm.DB, id uuid.UUID, patternsAggregated int) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now()
	return transaction.WithContext(ctx).
		Model(&types.FederatedRound{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":              types.RoundStatusCompleted,
			"patterns_aggregated": patternsAggregated,
			"completed_at":        now,
			"updated_at":          now,
		}).Error
}

func (r *federatedRoundRepo) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&types.FederatedRound{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":         types.RoundStatusFailed,
			"failure_reason": reason,
			"completed_at":   now,
			"updated_at":     now,
		}).Error
}

func (r *federatedRoundRepo) ReapRunning(ctx context.Context, reason string) (int64, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&types.FederatedRound{}).
		Where("status IN ?", []string{types.RoundStatusPending, types.RoundStatusRunning}).
		Updates(map[string]interface{}{
			"status":         types.RoundStatusFailed,
			"failure_reason": reason,
			"completed_at":   now,
			"updated_at":     now,
		})
	return result.RowsAffected, result.Error
}
