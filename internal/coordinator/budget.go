package coordinator

import (
	"context"
	"strconv"

	goredis "github.com/redis/go-redis/v9"

	domainerrors "github.com/ridgeline-retail/fedhui/internal/pkg/errors"

	"github.com/ridgeline-retail/fedhui/internal/logger"
	"github.com/ridgeline-retail/fedhui/internal/repos"
	"github.com/ridgeline-retail/fedhui/internal/types"
)

const budgetLedgerKey = "fedhui:privacy_budget:spent"

// BudgetLedger tracks cumulative privacy budget (ε) consumed across
// completed rounds, backed by a Redis counter for a cheap pre-check
// and reconciled against the FederatedRound table, the authoritative
// source, at process start (spec.md §4.3 step 4, §8 property 7).
type BudgetLedger struct {
	log    *logger.Logger
	rdb    *goredis.Client
	rounds repos.FederatedRoundRepo
	cap    float64
}

func NewBudgetLedger(baseLog *logger.Logger, rdb *goredis.Client, rounds repos.FederatedRoundRepo, budgetCap float64) *BudgetLedger {
	return &BudgetLedger{
		log:    baseLog.With("component", "BudgetLedger"),
		rdb:    rdb,
		rounds: rounds,
		cap:    budgetCap,
	}
}

// Reconcile recomputes spent budget from the Postgres FederatedRound
// table and overwrites the Redis counter with it, so a restarted
// process's fast path reflects every round ever completed rather than
// starting back at zero.
func (b *BudgetLedger) Reconcile(ctx context.Context) error {
	spent, err := b.spentFromPostgres(ctx)
	if err != nil {
		return err
	}
	if b.rdb == nil {
		return nil
	}
	return b.rdb.Set(ctx, budgetLedgerKey, strconv.FormatFloat(spent, 'f', -1, 64), 0).Err()
}

// Precheck rejects a round request that would push cumulative spend
// past the cap, without reserving anything — the actual reservation
// happens in Commit once the round succeeds.
func (b *BudgetLedger) Precheck(ctx context.Context, roundBudget float64) error {
	spent, err := b.spent(ctx)
	if err != nil {
		return err
	}
	if spent+roundBudget > b.cap {
		return domainerrors.New(domainerrors.CodeBudgetExhausted, "privacy budget cap would be exceeded by this round", nil)
	}
	return nil
}

// Commit records roundBudget as spent after a round completes.
func (b *BudgetLedger) Commit(ctx context.Context, roundBudget float64) error {
	if b.rdb == nil {
		return nil
	}
	return b.rdb.IncrByFloat(ctx, budgetLedgerKey, roundBudget).Err()
}

func (b *BudgetLedger) spent(ctx context.Context) (float64, error) {
	if b.rdb != nil {
		raw, err := b.rdb.Get(ctx, budgetLedgerKey).Result()
		if err == nil {
			v, perr := strconv.ParseFloat(raw, 64)
			if perr == nil {
				return v, nil
			}
		} else if err != goredis.Nil {
			b.log.Warn("redis budget read failed, falling back to postgres", "error", err)
		}
	}
	return b.spentFromPostgres(ctx)
}

func (b *BudgetLedger) spentFromPostgres(ctx context.Context) (float64, error) {
	rounds, err := b.rounds.ListRecent(ctx, nil, 10000)
	if err != nil {
		return 0, err
	}
	var spent float64
	for _, r := range rounds {
		if r.Status == types.RoundStatusCompleted {
			spent += r.PrivacyBudget
		}
	}
	return spent, nil
}
