package mining

// pathEntry is one occurrence of the suffix item in a PathProjection's
// conditional pattern base: its ancestor nodes (root-exclusive,
// suffix-item-exclusive, root-to-leaf order) and the residual utility of
// the occurrence's deepest node, which narrowing carries through
// unchanged.
type pathEntry struct {
	ancestors []nodeRef
	utility   float64
}

// PathProjection is the pseudo-projection record for a suffix item:
// parallel path records referencing the master tree, carrying no
// subtree of its own (spec.md §3 "PathProjection").
type PathProjection struct {
	suffix       int64
	paths        []pathEntry
	support      int
	totalUtility float64
}

// isValid reports whether every referenced node is still live in the
// arena. Nothing in this engine frees nodes mid-mine, so this is
// always true today; it exists because a PathProjection is defined to
// be a view that can outlive the nodes it references.
func (p *PathProjection) isValid(a *arena) bool {
	for _, pe := range p.paths {
		for _, ref := range pe.ancestors {
			if _, ok := a.get(ref); !ok {
				return false
			}
		}
	}
	return true
}

// buildProjection walks the suffix item's header chain and records
// each occurrence's ancestor path plus the node's own residual
// utility, per spec.md §4.1 Pass 3 step 1.
func buildProjection(t *UPTree, suffix int64) *PathProjection {
	chain := t.headerChain(suffix)
	proj := &PathProjection{suffix: suffix}
	for _, ref := range chain {
		n, ok := t.arena.get(ref)
		if !ok {
			continue
		}
		ancestors := t.arena.pathToRoot(ref, t.root)
		proj.paths = append(proj.paths, pathEntry{ancestors: ancestors, utility: n.utility})
		proj.totalUtility += n.utility
		proj.support++
	}
	return proj
}

// localTWU sums, per ancestor item, the residual utility of every
// occurrence containing it — spec.md §4.1 Pass 3 step 2's "local TWU
// over the projection".
func (p *PathProjection) localTWU(t *UPTree) map[int64]float64 {
	out := make(map[int64]float64)
	for _, pe := range p.paths {
		seen := make(map[int64]bool, len(pe.ancestors))
		for _, ref := range pe.ancestors {
			n, ok := t.arena.get(ref)
			if !ok {
				continue
			}
			if seen[n.item] {
				continue
			}
			seen[n.item] = true
			out[n.item] += pe.utility
		}
	}
	return out
}

// narrow builds the conditional pattern base of item β within p: the
// subset of p's paths whose ancestor chain contains β, with β and
// everything after it in the chain stripped (step 4's "narrowing the
// projection to nodes whose path reaches β"). Each kept path keeps the
// residual utility it had in p, which covers the whole root-to-suffix
// path and so stays an upper bound for every itemset drawn from it.
func (p *PathProjection) narrow(t *UPTree, beta int64) *PathProjection {
	out := &PathProjection{suffix: beta}
	for _, pe := range p.paths {
		cut := -1
		for i, ref := range pe.ancestors {
			n, ok := t.arena.get(ref)
			if ok && n.item == beta {
				cut = i
				break
			}
		}
		if cut < 0 {
			continue
		}
		out.paths = append(out.paths, pathEntry{ancestors: pe.ancestors[:cut], utility: pe.utility})
		out.totalUtility += pe.utility
		out.support++
	}
	return out
}
