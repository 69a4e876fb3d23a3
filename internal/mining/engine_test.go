package mining

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func scenario1Transactions() []Transaction {
	return []Transaction{
		{Items: []Item{
			{ID: itemA, Quantity: 2, UnitUtility: 3},
			{ID: itemB, Quantity: 1, UnitUtility: 10},
			{ID: itemC, Quantity: 3, UnitUtility: 1},
		}},
		{Items: []Item{
			{ID: itemA, Quantity: 1, UnitUtility: 3},
			{ID: itemC, Quantity: 2, UnitUtility: 1},
		}},
		{Items: []Item{
			{ID: itemB, Quantity: 2, UnitUtility: 10},
			{ID: itemC, Quantity: 4, UnitUtility: 1},
		}},
	}
}

const (
	itemA int64 = 1
	itemB int64 = 2
	itemC int64 = 3
)

func findResult(t *testing.T, results []Result, items ...int64) (Result, bool) {
	t.Helper()
	for _, r := range results {
		if canonicalKey(r.Items) == canonicalKey(items) {
			return r, true
		}
	}
	return Result{}, false
}

func TestMine_Scenario1CanonicalHUI(t *testing.T) {
	results, _, err := Mine(context.Background(), scenario1Transactions(), Options{
		MinUtility: 20,
		PruningOn:  true,
	})
	require.NoError(t, err)

	b, ok := findResult(t, results, itemB)
	require.True(t, ok, "{B} must be returned")
	require.InDelta(t, 30, b.Utility, 1e-9)

	bc, ok := findResult(t, results, itemB, itemC)
	require.True(t, ok, "{B,C} must be returned")
	require.InDelta(t, 37, bc.Utility, 1e-9)

	_, ok = findResult(t, results, itemC)
	require.False(t, ok, "{C} has utility 9 and must not be returned")
}

// TestMine_NodeUtilityIncludesAncestors pins the DGN residual to a
// prefix sum over I*-ordered survivors: node B's utility must include
// itself plus every ancestor reachable through it, never just its
// descendants. min_utility=37 sits exactly at {B,C}'s true utility, so
// a node utility that omits B's ancestors (here C, whose utilities 3 and
// 4 a suffix sum leaves out, giving B only 30) would underestimate
// the projection's upper bound and prune before narrowing from B to C.
func TestMine_NodeUtilityIncludesAncestors(t *testing.T) {
	results, _, err := Mine(context.Background(), scenario1Transactions(), Options{
		MinUtility: 37,
		PruningOn:  true,
	})
	require.NoError(t, err)

	bc, ok := findResult(t, results, itemB, itemC)
	require.True(t, ok, "{B,C} has utility 37 and must survive pruning at min_utility=37")
	require.InDelta(t, 37, bc.Utility, 1e-9)
}

func TestMine_Scenario2TWUPruning(t *testing.T) {
	itemD := int64(4)
	txns := scenario1Transactions()
	txns = append(txns, Transaction{Items: []Item{
		{ID: itemD, Quantity: 1, UnitUtility: 5},
	}})

	results, _, err := Mine(context.Background(), txns, Options{
		MinUtility: 20,
		PruningOn:  true,
	})
	require.NoError(t, err)

	for _, r := range results {
		for _, id := range r.Items {
			require.NotEqual(t, itemD, id, "item D's TWU is below min_utility and must never survive Pass 1")
		}
	}
}

func TestMine_PruningDoesNotChangeResultSet(t *testing.T) {
	txns := scenario1Transactions()

	pruned, _, err := Mine(context.Background(), txns, Options{MinUtility: 5, PruningOn: true})
	require.NoError(t, err)

	unpruned, _, err := Mine(context.Background(), txns, Options{MinUtility: 5, PruningOn: false})
	require.NoError(t, err)

	require.ElementsMatch(t, keysOf(pruned), keysOf(unpruned))
}

func keysOf(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = canonicalKey(r.Items)
	}
	return out
}

func TestMine_Deterministic(t *testing.T) {
	txns := scenario1Transactions()
	first, _, err := Mine(context.Background(), txns, Options{MinUtility: 5, PruningOn: true})
	require.NoError(t, err)
	second, _, err := Mine(context.Background(), txns, Options{MinUtility: 5, PruningOn: true})
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestMine_ZeroMinUtilityReturnsEveryPresentItemset(t *testing.T) {
	results, _, err := Mine(context.Background(), scenario1Transactions(), Options{MinUtility: 0, PruningOn: true})
	require.NoError(t, err)

	for _, want := range [][]int64{{itemA}, {itemB}, {itemC}} {
		_, ok := findResult(t, results, want...)
		require.True(t, ok, "item %v must appear when min_utility is 0", want)
	}
}

func TestMine_EmptyTransactionSet(t *testing.T) {
	results, stats, err := Mine(context.Background(), nil, Options{MinUtility: 10})
	require.NoError(t, err)
	require.Empty(t, results)
	require.Zero(t, stats.NodesCreated)
}

func TestMine_SingleItemTransactions(t *testing.T) {
	txns := []Transaction{
		{Items: []Item{{ID: itemA, Quantity: 1, UnitUtility: 50}}},
		{Items: []Item{{ID: itemB, Quantity: 1, UnitUtility: 1}}},
	}
	results, _, err := Mine(context.Background(), txns, Options{MinUtility: 20})
	require.NoError(t, err)

	a, ok := findResult(t, results, itemA)
	require.True(t, ok)
	require.InDelta(t, 50, a.Utility, 1e-9)

	_, ok = findResult(t, results, itemB)
	require.False(t, ok)
}

func TestMine_RejectsNegativeQuantity(t *testing.T) {
	txns := []Transaction{
		{Items: []Item{{ID: itemA, Quantity: -1, UnitUtility: 1}}},
	}
	_, _, err := Mine(context.Background(), txns, Options{MinUtility: 1})
	require.Error(t, err)
}

func TestMine_RespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := Mine(ctx, scenario1Transactions(), Options{MinUtility: 1})
	require.ErrorIs(t, err, context.Canceled)
}
