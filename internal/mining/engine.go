package mining

import (
	"context"
	"sort"
	"strconv"
	"strings"
)

type engine struct {
	txns     []Transaction
	opts     Options
	tree     *UPTree
	itemMaps []map[int64]Item
	stats    Stats
	results  []Result

	boundCache   *lruCache[float64]
	patternCache *lruCache[bool]
	projCache    *lruCache[*PathProjection]
}

func newEngine(txns []Transaction, opts Options) *engine {
	return &engine{
		txns:         txns,
		opts:         opts,
		tree:         newUPTree(opts.MinUtility),
		boundCache:   newLRUCache[float64](opts.BoundCacheSize),
		patternCache: newLRUCache[bool](opts.PatternCacheSize),
		projCache:    newLRUCache[*PathProjection](opts.ProjectionCacheSize),
	}
}

func (e *engine) run(ctx context.Context) ([]Result, Stats, error) {
	twu := e.computeTWU()
	e.tree.buildOrder(twu)
	rank := e.tree.rank()
	e.buildTree(rank)

	for i := len(e.tree.order) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return nil, e.stats, err
		}
		alpha := e.tree.order[i]
		proj := buildProjection(e.tree, alpha)
		e.stats.ProjectionsBuilt++
		if err := e.mineSuffix(ctx, []int64{alpha}, proj); err != nil {
			return nil, e.stats, err
		}
	}

	sort.Slice(e.results, func(i, j int) bool {
		if e.results[i].Utility != e.results[j].Utility {
			return e.results[i].Utility > e.results[j].Utility
		}
		return canonicalKey(e.results[i].Items) < canonicalKey(e.results[j].Items)
	})
	return e.results, e.stats, nil
}

// computeTWU is Pass 1: a global scan computing each item's
// Transaction-Weighted Utility, and, as a byproduct, an index from
// transaction to its items for the exact-utility recomputation used
// later at emission time.
func (e *engine) computeTWU() map[int64]float64 {
	twu := make(map[int64]float64)
	e.itemMaps = make([]map[int64]Item, len(e.txns))
	for ti, t := range e.txns {
		tu := t.utility()
		im := make(map[int64]Item, len(t.Items))
		for _, it := range t.Items {
			twu[it.ID] += tu
			im[it.ID] = it
		}
		e.itemMaps[ti] = im
	}
	return twu
}

// buildTree is Pass 2: DGU-filters each transaction to I*, sorts
// survivors into I* order, computes DGN residual prefix utilities,
// and inserts the result into the UP-Tree.
func (e *engine) buildTree(rank map[int64]int) {
	type kept struct {
		id   int64
		rank int
		u    float64
	}
	for _, t := range e.txns {
		var survivors []kept
		for _, it := range t.Items {
			if r, ok := rank[it.ID]; ok {
				survivors = append(survivors, kept{id: it.ID, rank: r, u: it.utility()})
			}
		}
		if len(survivors) == 0 {
			continue
		}
		sort.Slice(survivors, func(i, j int) bool { return survivors[i].rank < survivors[j].rank })

		ids := make([]int64, len(survivors))
		residual := make([]float64, len(survivors))
		var prefixSum float64
		for i := 0; i < len(survivors); i++ {
			prefixSum += survivors[i].u
			residual[i] = prefixSum
			ids[i] = survivors[i].id
		}
		e.stats.NodesCreated += e.tree.addTransaction(ids, residual)
	}
}

// mineSuffix is Pass 3: it emits the current itemset if its exact
// utility qualifies, then recurses over every ancestor item surviving
// local-DGU pruning, narrowing the projection one step at a time.
func (e *engine) mineSuffix(ctx context.Context, itemset []int64, proj *PathProjection) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.opts.MaxLength > 0 && len(itemset) > e.opts.MaxLength {
		return nil
	}

	e.tryEmit(itemset)

	if e.opts.PruningOn && proj.totalUtility < e.opts.MinUtility {
		return nil
	}

	local := proj.localTWU(e.tree)
	betas := make([]int64, 0, len(local))
	for id := range local {
		betas = append(betas, id)
	}
	sort.Slice(betas, func(i, j int) bool { return betas[i] < betas[j] })

	for _, beta := range betas {
		if e.opts.PruningOn && local[beta] < e.opts.MinUtility {
			e.stats.UtilityPruned++
			continue
		}

		newItemset := append([]int64{beta}, itemset...)
		key := canonicalKey(newItemset)

		if bound, ok := e.boundCache.get(key); ok {
			if e.opts.PruningOn && bound < e.opts.MinUtility {
				e.stats.UtilityPruned++
				continue
			}
		}

		sub, cached := e.projCache.get(key)
		if !cached {
			sub = proj.narrow(e.tree, beta)
			e.stats.ProjectionsBuilt++
			e.projCache.put(key, sub)
		}
		e.boundCache.put(key, sub.totalUtility)

		if err := e.mineSuffix(ctx, newItemset, sub); err != nil {
			return err
		}
	}
	return nil
}

func (e *engine) tryEmit(itemset []int64) {
	key := canonicalKey(itemset)
	if _, seen := e.patternCache.get(key); seen {
		return
	}
	e.patternCache.put(key, true)

	utility, support := e.exactUtility(itemset)
	if utility < e.opts.MinUtility {
		return
	}
	if e.opts.MinSupport > 0 && support < e.opts.MinSupport {
		e.stats.SupportPruned++
		return
	}
	sorted := append([]int64(nil), itemset...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	e.results = append(e.results, Result{Items: sorted, Utility: utility, Support: support})
}

// exactUtility recomputes u(X) directly from the retained transaction
// set rather than trusting any UP-Tree upper bound, so every emitted
// result is exact regardless of how aggressively pruning discarded
// candidates upstream.
func (e *engine) exactUtility(itemset []int64) (float64, int) {
	var utility float64
	var support int
	for _, im := range e.itemMaps {
		var sum float64
		ok := true
		for _, id := range itemset {
			it, present := im[id]
			if !present {
				ok = false
				break
			}
			sum += it.utility()
		}
		if ok {
			utility += sum
			support++
		}
	}
	return utility, support
}

func canonicalKey(items []int64) string {
	sorted := append([]int64(nil), items...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
