package marktree

import (
	"slices"

	"github.com/alexhholmes/marktree/internal/base"
	"github.com/alexhholmes/marktree/internal/idset"
)

// pairLive reports whether k belongs to a pair whose both halves are in the
// tree and not orphaned. Only such pairs are tracked in intersect sets.
func (t *MarkTree) pairLive(k Key) bool {
	if !k.Paired() || k.Orphaned() {
		return false
	}
	x, i := t.find(k.PeerID())
	return x != nil && !x.Keys[i].Orphaned()
}

// pseudoIndex returns a number ordering the slot (x, i) against every other
// slot of the tree in key order. Each level contributes logBranch bits, the
// root the most significant ones. For a leaf, (x, 0) stands for the whole
// node.
func (t *MarkTree) pseudoIndex(x *base.Node, i int) uint64 {
	off := t.logBranch * uint(x.Level)
	var index uint64
	for {
		index |= uint64(i+1) << off
		off += t.logBranch
		if x.Parent == base.NoNode {
			return index
		}
		i = x.PIdx
		x = t.node(x.Parent)
	}
}

// pseudoIndexForID returns the pseudo index of the key with the given id, or
// zero when it is not in the tree. Sloppy mode maps every leaf key to the
// index of its leaf, so keys sharing a leaf compare equal.
func (t *MarkTree) pseudoIndexForID(id uint64, sloppy bool) uint64 {
	x, i := t.find(id)
	if x == nil {
		return 0
	}
	switch {
	case x.Level > 0:
		// internal key i sorts after child i
		i++
	case sloppy:
		i = 0
	}
	return t.pseudoIndex(x, i)
}

// bubbleUp moves ids covering both the first and the last child of x, and
// therefore every child, from the children into x.
func (t *MarkTree) bubbleUp(x *base.Node) {
	first := t.child(x, 0)
	last := t.child(x, len(x.Ptr)-1)
	common := idset.Intersection(first.Intersect, last.Intersect)
	if len(common) == 0 {
		return
	}
	for _, c := range x.Ptr {
		t.node(c).Intersect.RemoveAll(common)
	}
	x.Intersect.AddAll(common)
}

// pathStep is one level of a root to key path. idx is a child index for
// every step but the last, where it is the key slot.
type pathStep struct {
	node *base.Node
	idx  int
}

func (t *MarkTree) keyPath(x *base.Node, i int, buf []pathStep) []pathStep {
	buf = append(buf[:0], pathStep{node: x, idx: i})
	for x.Parent != base.NoNode {
		p := t.node(x.Parent)
		buf = append(buf, pathStep{node: p, idx: x.PIdx})
		x = p
	}
	slices.Reverse(buf)
	return buf
}

// intersectPair adds (or removes) pair to the intersect set of every node
// whose subtree lies strictly between the start key at (sx, si) and the end
// key at (ex, ei), choosing the highest such nodes. Nodes holding either
// end are left out; overlap queries scan those directly.
func (t *MarkTree) intersectPair(pair uint64, sx *base.Node, si int, ex *base.Node, ei int, remove bool) {
	var sbuf, ebuf [maxHeight + 1]pathStep
	sp := t.keyPath(sx, si, sbuf[:0])
	ep := t.keyPath(ex, ei, ebuf[:0])

	apply := func(n *base.Node) {
		if remove {
			n.Intersect.Remove(pair)
		} else {
			n.Intersect.Add(pair)
		}
	}
	applyRange := func(n *base.Node, lo, hi int) {
		for c := lo; c <= hi; c++ {
			apply(t.child(n, c))
		}
	}

	// descend while both keys live under the same child
	l := 0
	for l < len(sp)-1 && l < len(ep)-1 && sp[l].idx == ep[l].idx {
		l++
	}

	// order the two keys at the split level: child c is 2c, key a is 2a+1
	sEnc, eEnc := 2*sp[l].idx, 2*ep[l].idx
	if l == len(sp)-1 {
		sEnc++
	}
	if l == len(ep)-1 {
		eEnc++
	}
	if sEnc >= eEnc {
		// inverted pair, nothing lies between the ends
		return
	}

	split := sp[l].node
	if split.Level > 0 {
		hi := ep[l].idx
		if l < len(ep)-1 {
			hi--
		}
		applyRange(split, sp[l].idx+1, hi)
	}
	for d := l + 1; d < len(sp); d++ {
		if n := sp[d].node; n.Level > 0 {
			applyRange(n, sp[d].idx+1, len(n.Keys))
		}
	}
	for d := l + 1; d < len(ep); d++ {
		if n := ep[d].node; n.Level > 0 {
			hi := ep[d].idx
			if d < len(ep)-1 {
				hi--
			}
			applyRange(n, 0, hi)
		}
	}
}

// RestorePair clears the orphaned state of a pair once both halves are back
// in the tree and indexes the range again. k may be either half.
func (t *MarkTree) RestorePair(k Key) {
	sx, si := t.find(k.PairID())
	ex, ei := t.find(base.PeerOf(k.PairID()))
	if sx == nil || ex == nil {
		// the other half is reinserted later and restores the pair then
		t.logger.Warn("restore pair: half missing", "ns", k.NS, "id", k.ID,
			"start", sx != nil, "end", ex != nil)
		return
	}
	t.touch()
	sx.Keys[si].Flags &^= base.FlagOrphaned
	ex.Keys[ei].Flags &^= base.FlagOrphaned
	t.intersectPair(k.PairID(), sx, si, ex, ei, false)
}
