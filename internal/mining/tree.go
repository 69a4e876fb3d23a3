package mining

import "sort"

// UPTree is the prefix tree built in Pass 2. Each item has a header
// chain reaching every node labeled with that item, in insertion
// order, per spec.md §3's UP-Tree invariants.
type UPTree struct {
	arena      *arena
	root       nodeRef
	header     map[int64][]nodeRef
	itemTWU    map[int64]float64
	minUtility float64
	// order is I*: retained items ordered by TWU descending, ties by
	// item id ascending, fixed for the rest of the algorithm.
	order []int64
}

func newUPTree(minUtility float64) *UPTree {
	a := newArena()
	root := a.alloc(-1, noRef)
	return &UPTree{
		arena:      a,
		root:       root,
		header:     make(map[int64][]nodeRef),
		itemTWU:    make(map[int64]float64),
		minUtility: minUtility,
	}
}

// buildOrder computes I*: items with TWU >= minUtility, sorted by TWU
// descending then item id ascending.
func (t *UPTree) buildOrder(twu map[int64]float64) {
	t.itemTWU = twu
	items := make([]int64, 0, len(twu))
	for id, w := range twu {
		if w >= t.minUtility {
			items = append(items, id)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i] == items[j] {
			return false
		}
		wi, wj := twu[items[i]], twu[items[j]]
		if wi != wj {
			return wi > wj
		}
		return items[i] < items[j]
	})
	t.order = items
}

func (t *UPTree) rank() map[int64]int {
	r := make(map[int64]int, len(t.order))
	for i, id := range t.order {
		r[id] = i
	}
	return r
}

// addTransaction inserts the DGU-filtered, I*-ordered survivors of one
// transaction, with DGN residual utilities already computed by the
// caller (residuals[k] = sum of internal utilities of items[:k+1], so
// each node's utility is an upper bound on any itemset ending there).
func (t *UPTree) addTransaction(items []int64, residuals []float64) int {
	cur := t.root
	created := 0
	for i, id := range items {
		curNode, ok := t.arena.get(cur)
		if !ok {
			break
		}
		childRef, exists := curNode.children[id]
		if !exists {
			childRef = t.arena.alloc(id, cur)
			curNode.children[id] = childRef
			t.header[id] = append(t.header[id], childRef)
			created++
		}
		childNode, _ := t.arena.get(childRef)
		childNode.count++
		childNode.utility += residuals[i]
		cur = childRef
	}
	return created
}

func (t *UPTree) headerChain(item int64) []nodeRef {
	return t.header[item]
}
