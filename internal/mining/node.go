package mining

// nodeRef is an arena index plus a generation counter: Go has no weak
// pointers, so a PathProjection holds these instead of *node. A stale
// ref (slot reused under it) fails arena.get instead of dereferencing
// into the wrong node.
type nodeRef struct {
	idx int32
	gen uint32
}

var noRef = nodeRef{idx: -1}

func (r nodeRef) valid() bool { return r.idx >= 0 }

type node struct {
	item     int64
	count    int
	utility  float64
	parent   nodeRef
	children map[int64]nodeRef
	gen      uint32
}

// arena owns every node in a UPTree by value in a single backing
// slice, so a nodeRef survives tree-wide reallocation-free growth.
type arena struct {
	nodes []node
}

func newArena() *arena {
	return &arena{}
}

func (a *arena) alloc(item int64, parent nodeRef) nodeRef {
	n := node{
		item:     item,
		parent:   parent,
		children: make(map[int64]nodeRef),
		gen:      1,
	}
	a.nodes = append(a.nodes, n)
	return nodeRef{idx: int32(len(a.nodes) - 1), gen: 1}
}

func (a *arena) get(ref nodeRef) (*node, bool) {
	if ref.idx < 0 || int(ref.idx) >= len(a.nodes) {
		return nil, false
	}
	n := &a.nodes[ref.idx]
	if n.gen != ref.gen {
		return nil, false
	}
	return n, true
}

// pathToRoot returns the chain of ancestor refs from ref's parent up
// to (but excluding) root, ordered root-to-leaf.
func (a *arena) pathToRoot(ref nodeRef, root nodeRef) []nodeRef {
	var rev []nodeRef
	n, ok := a.get(ref)
	if !ok {
		return nil
	}
	cur := n.parent
	for cur.valid() && cur != root {
		rev = append(rev, cur)
		curNode, ok := a.get(cur)
		if !ok {
			break
		}
		cur = curNode.parent
	}
	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	return rev
}
