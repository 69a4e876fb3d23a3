package coordinator

import (
	"sort"

	"github.com/google/uuid"

	"github.com/ridgeline-retail/fedhui/internal/types"
)

// patternGroup is one canonical itemset's in-flight aggregate across
// every store that contributed a LocalPattern for it this round.
type patternGroup struct {
	Items               []int64
	ItemsKey            string
	AggregatedUtility   float64
	weightedSupportSum  float64
	datasetSizeSum      int64
	ContributingStores  int
	contributingStoreID map[uuid.UUID]struct{}
	GlobalSupport       float64
}

// aggregate groups local patterns by canonical item set and folds each
// group into aggregated_utility / global_support per spec.md §4.3
// step 3. datasetSizes supplies |D_k|, the per-store transaction
// count used as the support-weighting denominator.
func aggregate(patterns []*types.LocalPattern, datasetSizes map[uuid.UUID]int64) ([]*patternGroup, error) {
	byKey := make(map[string]*patternGroup)
	order := make([]string, 0)

	for _, p := range patterns {
		items, err := p.ItemsSlice()
		if err != nil {
			return nil, err
		}
		g, ok := byKey[p.ItemsKey]
		if !ok {
			g = &patternGroup{
				Items:               items,
				ItemsKey:            p.ItemsKey,
				contributingStoreID: make(map[uuid.UUID]struct{}),
			}
			byKey[p.ItemsKey] = g
			order = append(order, p.ItemsKey)
		}
		datasetSize := datasetSizes[p.StoreID]
		g.AggregatedUtility += p.Utility
		g.weightedSupportSum += float64(p.Support) * float64(datasetSize)
		if _, seen := g.contributingStoreID[p.StoreID]; !seen {
			g.contributingStoreID[p.StoreID] = struct{}{}
			g.datasetSizeSum += datasetSize
		}
	}

	sort.Strings(order)
	out := make([]*patternGroup, 0, len(order))
	for _, key := range order {
		g := byKey[key]
		g.ContributingStores = len(g.contributingStoreID)
		if g.datasetSizeSum > 0 {
			g.GlobalSupport = g.weightedSupportSum / float64(g.datasetSizeSum)
		}
		out = append(out, g)
	}
	return out, nil
}
