package coordinator

import (
	"math"
	"math/rand"
	"sort"
)

// privatize draws independent Laplace(0, sensitivity/epsilon) noise
// per group and adds it to aggregated_utility, matching
// LaplaceDP.add_laplace_noise's "max(0, value + noise)" floor. Groups
// left at or below zero utility are dropped. The RNG is seeded from
// the round's persisted seed so noise draws are reproducible from
// that seed alone (spec.md §4.3 "Idempotence"); groups are visited in
// ItemsKey order so the same input always produces the same draw
// sequence regardless of map iteration order.
func privatize(groups []*patternGroup, sensitivity, epsilon float64, seed int64) []*patternGroup {
	if epsilon <= 0 {
		return groups
	}

	sorted := append([]*patternGroup(nil), groups...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ItemsKey < sorted[j].ItemsKey })

	rng := rand.New(rand.NewSource(seed))
	scale := sensitivity / epsilon

	out := make([]*patternGroup, 0, len(sorted))
	for _, g := range sorted {
		noise := laplaceNoise(rng, scale)
		g.AggregatedUtility += noise
		if g.AggregatedUtility <= 0 {
			continue
		}
		out = append(out, g)
	}
	return out
}

// laplaceNoise draws one sample from Laplace(0, scale) via the
// standard inverse-CDF transform of a uniform draw on (-0.5, 0.5).
func laplaceNoise(rng *rand.Rand, scale float64) float64 {
	u := rng.Float64() - 0.5
	sign := 1.0
	if u < 0 {
		sign = -1.0
	}
	return -scale * sign * math.Log(1-2*math.Abs(u))
}
