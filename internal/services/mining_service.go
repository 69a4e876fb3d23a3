package services

import (
	"context"

	"github.com/google/uuid"

	domainerrors "github.com/ridgeline-retail/fedhui/internal/pkg/errors"

	"github.com/ridgeline-retail/fedhui/internal/logger"
	"github.com/ridgeline-retail/fedhui/internal/repos"
	"github.com/ridgeline-retail/fedhui/internal/types"
)

// StartJobParams mirrors the `/api/mining/start` request body
// (spec.md §6).
type StartJobParams struct {
	StoreID          uuid.UUID
	MinUtility       float64
	MinSupport       int
	MaxPatternLength int
	UsePruning       bool
	BatchSize        int
}

// MiningService enqueues and reports on MiningJobs; the worker pool
// (internal/jobs/worker) is the only component that actually runs
// the mining engine.
type MiningService interface {
	StartJob(ctx context.Context, params StartJobParams) (*types.MiningJob, error)
	GetStatus(ctx context.Context, jobID uuid.UUID) (*types.MiningJob, error)
	GetResults(ctx context.Context, jobID uuid.UUID) ([]*types.LocalPattern, error)
	CancelJob(ctx context.Context, jobID uuid.UUID) error
}

type miningService struct {
	log      *logger.Logger
	stores   repos.StoreRepo
	jobs     repos.MiningJobRepo
	patterns repos.LocalPatternRepo
}

func NewMiningService(baseLog *logger.Logger, stores repos.StoreRepo, jobs repos.MiningJobRepo, patterns repos.LocalPatternRepo) MiningService {
	return &miningService{
		log:      baseLog.With("service", "MiningService"),
		stores:   stores,
		jobs:     jobs,
		patterns: patterns,
	}
}

func (s *miningService) StartJob(ctx context.Context, params StartJobParams) (*types.MiningJob, error) {
	if params.StoreID == uuid.Nil {
		return nil, domainerrors.New(domainerrors.CodeValidation, "store_id is required", nil)
	}
	if params.MinUtility <= 0 {
		return nil, domainerrors.New(domainerrors.CodeValidation, "min_utility must be positive", nil)
	}
	if _, err := s.stores.GetByID(ctx, nil, params.StoreID); err != nil {
		return nil, domainerrors.New(domainerrors.CodeNotFound, "unknown store_id", err)
	}

	job := &types.MiningJob{
		ID:               uuid.New(),
		StoreID:          params.StoreID,
		MinUtility:       params.MinUtility,
		MinSupport:       params.MinSupport,
		MaxPatternLength: params.MaxPatternLength,
		UsePruning:       params.UsePruning,
		BatchSize:        params.BatchSize,
		Status:           types.MiningJobStatusPending,
	}
	created, err := s.jobs.Create(ctx, nil, []*types.MiningJob{job})
	if err != nil {
		return nil, err
	}
	return created[0], nil
}

func (s *miningService) GetStatus(ctx context.Context, jobID uuid.UUID) (*types.MiningJob, error) {
	return s.jobs.GetByID(ctx, nil, jobID)
}

func (s *miningService) GetResults(ctx context.Context, jobID uuid.UUID) ([]*types.LocalPattern, error) {
	return s.patterns.GetByJob(ctx, nil, jobID)
}

// CancelJob only succeeds while the job is still pending — a job
// already running cannot be cancelled and is instead reclaimed by the
// staleness reaper if abandoned (spec.md §5 "Cancellation").
func (s *miningService) CancelJob(ctx context.Context, jobID uuid.UUID) error {
	job, err := s.jobs.GetByID(ctx, nil, jobID)
	if err != nil {
		return err
	}
	if job.Status != types.MiningJobStatusPending {
		return domainerrors.New(domainerrors.CodeJobNotRunnable, "only a pending job can be cancelled", nil)
	}
	return s.jobs.MarkCancelled(ctx, jobID)
}
