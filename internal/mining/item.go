// Package mining implements the UP-Growth high-utility itemset mining
// engine: a two-pass UP-Tree construction followed by pseudo-projection
// mining, with TWU-based pruning throughout.
package mining

import (
	"context"
	"strconv"
)

// Item is one (item, quantity, unit-utility) triple within a
// transaction. Internal utility is Quantity * UnitUtility.
type Item struct {
	ID          int64
	Quantity    int
	UnitUtility float64
}

func (it Item) utility() float64 {
	return float64(it.Quantity) * it.UnitUtility
}

// Transaction is an ordered sequence of items. TransactionUtility is
// the sum of each item's internal utility.
type Transaction struct {
	Items []Item
}

func (t Transaction) utility() float64 {
	var sum float64
	for _, it := range t.Items {
		sum += it.utility()
	}
	return sum
}

// Result is one high-utility itemset found by Mine: a sorted item-id
// list together with its exact dataset utility and support count.
type Result struct {
	Items   []int64
	Utility float64
	Support int
}

// Options configures a single Mine call.
type Options struct {
	MinUtility float64
	MinSupport int
	// MaxLength caps itemset length; 0 means unbounded.
	MaxLength int
	// PruningOn toggles the Pass 3 TWU-based pruning (local-DGU and
	// projection-sum pruning). The Pass 1 discard of items whose global
	// TWU is below MinUtility applies either way. Turning it off still
	// produces a sound and complete result, just slower — useful for
	// differential testing against the pruned path.
	PruningOn bool

	BoundCacheSize      int
	PatternCacheSize    int
	ProjectionCacheSize int
}

// Stats mirrors the Python original's pruning_stats/projection_stats
// dicts: informational counters returned by Mine alongside the results.
// The mine command prints them; the worker does not record them. They
// play no role in soundness/completeness.
type Stats struct {
	NodesCreated     int
	ProjectionsBuilt int
	UtilityPruned    int
	SupportPruned    int
}

func defaultOptions(opts Options) Options {
	if opts.BoundCacheSize <= 0 {
		opts.BoundCacheSize = 2048
	}
	if opts.PatternCacheSize <= 0 {
		opts.PatternCacheSize = 2048
	}
	if opts.ProjectionCacheSize <= 0 {
		opts.ProjectionCacheSize = 512
	}
	return opts
}

// Mine runs UP-Growth with pseudo-projection over txns and returns
// every itemset whose exact dataset utility meets opts.MinUtility
// (and, if set, opts.MinSupport). ctx is checked cooperatively between
// pseudo-projection branches so a caller can cancel a long-running
// mining job; mining itself never suspends on I/O.
func Mine(ctx context.Context, txns []Transaction, opts Options) ([]Result, Stats, error) {
	opts = defaultOptions(opts)
	if err := validate(txns); err != nil {
		return nil, Stats{}, err
	}
	e := newEngine(txns, opts)
	return e.run(ctx)
}

func validate(txns []Transaction) error {
	for ti, t := range txns {
		for _, it := range t.Items {
			if it.Quantity < 0 {
				return &ValidationError{TxnIndex: ti, Reason: "negative quantity"}
			}
			if it.UnitUtility < 0 {
				return &ValidationError{TxnIndex: ti, Reason: "negative unit utility"}
			}
		}
	}
	return nil
}

// ValidationError reports a malformed transaction caught before Pass
// 1, per spec's "surfaces as a parameter error before the first pass".
type ValidationError struct {
	TxnIndex int
	Reason   string
}

func (e *ValidationError) Error() string {
	return "mining: invalid transaction at index " + strconv.Itoa(e.TxnIndex) + ": " + e.Reason
}
