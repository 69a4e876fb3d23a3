// Package coordinator drives the federated aggregation round: Open,
// Collect, Aggregate, Privatize, Commit.
package coordinator

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	domainerrors "github.com/ridgeline-retail/fedhui/internal/pkg/errors"

	"github.com/ridgeline-retail/fedhui/internal/logger"
	"github.com/ridgeline-retail/fedhui/internal/repos"
	"github.com/ridgeline-retail/fedhui/internal/types"
)

// ActiveStoreSource is the coordinator's narrow view of the session
// registry: a snapshot of which stores are currently eligible to
// contribute to a round.
type ActiveStoreSource interface {
	ActiveStoreIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Coordinator owns the lifecycle of FederatedRounds. At most one round
// runs at a time, enforced here by an in-process mutex and, more
// durably, by FederatedRoundRepo.OpenNext's row lock.
type Coordinator struct {
	log      *logger.Logger
	db       *gorm.DB
	rounds   repos.FederatedRoundRepo
	patterns repos.LocalPatternRepo
	globals  repos.GlobalPatternRepo
	txns     repos.TransactionRepo
	stores   ActiveStoreSource
	budget   *BudgetLedger

	mu sync.Mutex
}

func NewCoordinator(
	baseLog *logger.Logger,
	db *gorm.DB,
	rounds repos.FederatedRoundRepo,
	patterns repos.LocalPatternRepo,
	globals repos.GlobalPatternRepo,
	txns repos.TransactionRepo,
	stores ActiveStoreSource,
	budget *BudgetLedger,
) *Coordinator {
	return &Coordinator{
		log:      baseLog.With("component", "Coordinator"),
		db:       db,
		rounds:   rounds,
		patterns: patterns,
		globals:  globals,
		txns:     txns,
		stores:   stores,
		budget:   budget,
	}
}

// RunRound executes one full Open/Collect/Aggregate/Privatize/Commit
// cycle and returns the resulting round row in its terminal state.
func (c *Coordinator) RunRound(ctx context.Context, minClients int, privacyBudget, sensitivity float64) (*types.FederatedRound, error) {
	round, err := c.Open(ctx, minClients, privacyBudget, sensitivity)
	if err != nil {
		return nil, err
	}
	return c.runOpenedLocked(ctx, round, minClients, privacyBudget, sensitivity)
}

// Open runs just the round-protocol's first step and returns as soon
// as the row exists, so an HTTP handler can respond
// {round_id, round_number, status:"started"} without blocking on
// collection/aggregation. The caller must eventually call StartAsync
// to drive the round to completion and release the coordinator's lock.
func (c *Coordinator) Open(ctx context.Context, minClients int, privacyBudget, sensitivity float64) (*types.FederatedRound, error) {
	if !c.mu.TryLock() {
		return nil, domainerrors.New(domainerrors.CodeRoundInProgress, "a federated round is already running on this node", nil)
	}
	round, err := c.open(ctx, minClients, privacyBudget, sensitivity)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	return round, nil
}

// StartAsync runs the Collect/Aggregate/Privatize/Commit steps for a
// round already opened via Open, releasing the coordinator's
// single-round lock when it finishes or fails. It is meant to be
// launched in its own goroutine.
func (c *Coordinator) StartAsync(ctx context.Context, round *types.FederatedRound, minClients int, privacyBudget, sensitivity float64) {
	if _, err := c.runOpenedLocked(ctx, round, minClients, privacyBudget, sensitivity); err != nil {
		c.log.Error("federated round failed", "round_id", round.ID, "error", err)
	}
}

func (c *Coordinator) open(ctx context.Context, minClients int, privacyBudget, sensitivity float64) (*types.FederatedRound, error) {
	if err := c.budget.Precheck(ctx, privacyBudget); err != nil {
		return nil, err
	}
	seed := time.Now().UnixNano()
	round, err := c.rounds.OpenNext(ctx, minClients, privacyBudget, sensitivity, seed)
	if err != nil {
		return nil, err
	}
	c.log.Info("Opened federated round", "round_id", round.ID, "round_number", round.RoundNumber)
	return round, nil
}

// runOpenedLocked assumes the single-round lock is already held and
// releases it before returning.
func (c *Coordinator) runOpenedLocked(ctx context.Context, round *types.FederatedRound, minClients int, privacyBudget, sensitivity float64) (*types.FederatedRound, error) {
	defer c.mu.Unlock()
	return c.collectThroughCommit(ctx, round, minClients, privacyBudget, sensitivity)
}

func (c *Coordinator) collectThroughCommit(ctx context.Context, round *types.FederatedRound, minClients int, privacyBudget, sensitivity float64) (*types.FederatedRound, error) {
	seed := round.Seed
	activeStoreIDs, err := c.stores.ActiveStoreIDs(ctx)
	if err != nil {
		c.failRound(ctx, round.ID, err.Error())
		return nil, err
	}

	// Check eligibility before attributing anything: a round that fails
	// for insufficient clients must leave every pattern it looked at
	// unattributed, so it remains collectible by the next round
	// (spec.md §4.3 "Stores absent from a round retain their pending
	// patterns for future rounds").
	candidates, err := c.patterns.UnattributedByStores(ctx, nil, activeStoreIDs)
	if err != nil {
		c.failRound(ctx, round.ID, err.Error())
		return nil, err
	}

	distinctStores := distinctStoreIDs(candidates)
	if len(distinctStores) < minClients {
		if err := c.rounds.MarkFailed(ctx, round.ID, types.RoundFailureInsufficientClients); err != nil {
			c.log.Error("failed to mark round failed", "round_id", round.ID, "error", err)
		}
		return c.rounds.GetByID(ctx, nil, round.ID)
	}

	if err := c.patterns.AttributeToRound(ctx, nil, candidates, round.ID); err != nil {
		c.failRound(ctx, round.ID, err.Error())
		return nil, err
	}
	claimed := candidates

	if err := c.rounds.MarkRunning(ctx, round.ID, distinctStores); err != nil {
		return nil, err
	}

	datasetSizes, err := c.datasetSizesByStore(ctx, distinctStores)
	if err != nil {
		c.failRound(ctx, round.ID, err.Error())
		return nil, err
	}

	groups, err := aggregate(claimed, datasetSizes)
	if err != nil {
		c.failRound(ctx, round.ID, err.Error())
		return nil, err
	}

	groups = privatize(groups, sensitivity, privacyBudget, seed)

	globalPatterns := make([]*types.GlobalPattern, 0, len(groups))
	for _, g := range groups {
		globalPatterns = append(globalPatterns, types.NewGlobalPattern(round.ID, g.Items, g.AggregatedUtility, g.GlobalSupport, g.ContributingStores))
	}

	// One transaction writes every GlobalPattern row and flips the round
	// to completed, so a crash between the two can never leave
	// GlobalPattern rows attached to a round ReapRunning later marks
	// failed (spec.md §4.3 step 5).
	err = c.db.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		if err := c.globals.Upsert(ctx, txx, globalPatterns); err != nil {
			return err
		}
		return c.rounds.MarkCompleted(ctx, txx, round.ID, len(globalPatterns))
	})
	if err != nil {
		c.failRound(ctx, round.ID, err.Error())
		return nil, err
	}
	if err := c.budget.Commit(ctx, privacyBudget); err != nil {
		c.log.Error("failed to commit spent privacy budget", "round_id", round.ID, "error", err)
	}

	c.log.Info("Committed federated round", "round_id", round.ID, "patterns_aggregated", len(globalPatterns))
	return c.rounds.GetByID(ctx, nil, round.ID)
}

func (c *Coordinator) failRound(ctx context.Context, roundID uuid.UUID, reason string) {
	if err := c.rounds.MarkFailed(ctx, roundID, reason); err != nil {
		c.log.Error("failed to mark round failed", "round_id", roundID, "error", err)
	}
}

func distinctStoreIDs(patterns []*types.LocalPattern) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	for _, p := range patterns {
		seen[p.StoreID] = struct{}{}
	}
	out := make([]uuid.UUID, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
