package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/ridgeline-retail/fedhui/internal/coordinator"
	"github.com/ridgeline-retail/fedhui/internal/logger"
	"github.com/ridgeline-retail/fedhui/internal/repos"
	"github.com/ridgeline-retail/fedhui/internal/types"
)

// FederatedService is the HTTP-facing wrapper around the coordinator:
// it starts a round and returns immediately once the row exists,
// matching spec.md §6's `{round_id, round_number, status:"started"}`
// response shape, while Collect/Aggregate/Privatize/Commit continue in
// the background.
type FederatedService interface {
	StartRound(ctx context.Context, minClients int, privacyBudget, sensitivity float64) (*types.FederatedRound, error)
	ListRounds(ctx context.Context, limit int) ([]*types.FederatedRound, error)
	GetRound(ctx context.Context, id uuid.UUID) (*types.FederatedRound, error)
	GetRoundPatterns(ctx context.Context, roundID uuid.UUID) ([]*types.GlobalPattern, error)
}

type federatedService struct {
	log         *logger.Logger
	coordinator *coordinator.Coordinator
	rounds      repos.FederatedRoundRepo
	globals     repos.GlobalPatternRepo

	defaultMinClients  int
	defaultEpsilon     float64
	defaultSensitivity float64
}

func NewFederatedService(
	baseLog *logger.Logger,
	coord *coordinator.Coordinator,
	rounds repos.FederatedRoundRepo,
	globals repos.GlobalPatternRepo,
	defaultMinClients int,
	defaultEpsilon, defaultSensitivity float64,
) FederatedService {
	return &federatedService{
		log:                baseLog.With("service", "FederatedService"),
		coordinator:        coord,
		rounds:             rounds,
		globals:            globals,
		defaultMinClients:  defaultMinClients,
		defaultEpsilon:     defaultEpsilon,
		defaultSensitivity: defaultSensitivity,
	}
}

func (s *federatedService) StartRound(ctx context.Context, minClients int, privacyBudget, sensitivity float64) (*types.FederatedRound, error) {
	if minClients <= 0 {
		minClients = s.defaultMinClients
	}
	if privacyBudget <= 0 {
		privacyBudget = s.defaultEpsilon
	}
	if sensitivity <= 0 {
		sensitivity = s.defaultSensitivity
	}

	round, err := s.coordinator.Open(ctx, minClients, privacyBudget, sensitivity)
	if err != nil {
		return nil, err
	}

	// The round row already exists and the coordinator's single-round
	// lock is held; StartAsync carries the round through to a
	// terminal state and releases it, detached from this request's
	// context so a client disconnect cannot cut collection short
	// (spec.md §5 "the collect step is not interruptible once
	// started").
	go s.coordinator.StartAsync(context.Background(), round, minClients, privacyBudget, sensitivity)

	return round, nil
}

func (s *federatedService) ListRounds(ctx context.Context, limit int) ([]*types.FederatedRound, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.rounds.ListRecent(ctx, nil, limit)
}

func (s *federatedService) GetRound(ctx context.Context, id uuid.UUID) (*types.FederatedRound, error) {
	return s.rounds.GetByID(ctx, nil, id)
}

func (s *federatedService) GetRoundPatterns(ctx context.Context, roundID uuid.UUID) ([]*types.GlobalPattern, error) {
	return s.globals.GetByRound(ctx, nil, roundID)
}
