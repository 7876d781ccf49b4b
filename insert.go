package marktree

import (
	"fmt"
	"slices"

	"github.com/alexhholmes/marktree/internal/base"
)

// Put inserts a single mark. Only decoration bits and FlagRightGravity may be
// set on k; the (NS, ID) pair must not be in the tree already and NS must not
// exceed MaxNS.
func (t *MarkTree) Put(k Key) {
	invariant(k.Flags&^base.FlagsExternal == 0, "put: unexpected flags %#x", uint16(k.Flags))
	t.putKey(k)
}

// PutPair inserts a range from start to end. The END key shares the id and
// decoration of start; its gravity is given by endRight.
func (t *MarkTree) PutPair(start Key, end Pos, endRight bool) {
	invariant(start.Flags&^base.FlagsExternal == 0, "put pair: unexpected flags %#x", uint16(start.Flags))
	start.Flags |= base.FlagPaired
	t.putKey(start)

	endKey := start
	endKey.Pos = end
	endKey.Flags = start.Flags&^base.FlagRightGravity | base.FlagEnd
	if endRight {
		endKey.Flags |= base.FlagRightGravity
	}
	t.putKey(endKey)

	sx, si := t.find(start.LookupID())
	ex, ei := t.find(endKey.LookupID())
	t.intersectPair(start.PairID(), sx, si, ex, ei, false)
}

// putKey inserts k with preemptive splitting on the way down.
func (t *MarkTree) putKey(k Key) {
	invariant(k.NS <= base.MaxNS, "put: namespace %d exceeds %d", k.NS, base.MaxNS)
	k.Flags |= base.FlagReal
	_, exists := t.idx[k.LookupID()]
	invariant(!exists, "put: id %s already in tree", idString(k.LookupID()))
	t.touch()

	r := t.rootNode()
	if r == nil {
		r = t.allocNode(0)
		t.root = r.ID
	}
	if r.Full(t.t) {
		if r.Level+1 >= t.maxLevels {
			panic(fmt.Errorf("%w: height %d", ErrTooDeep, r.Level+2))
		}
		s := t.allocNode(r.Level + 1)
		s.Ptr = append(s.Ptr, r.ID)
		s.Meta = append(s.Meta, t.meta)
		r.Parent = s.ID
		r.PIdx = 0
		t.root = s.ID
		t.splitNode(s, 0)
		r = s
		t.logger.Info("mark tree grew", "height", r.Level+1, "keys", t.nKeys)
	}

	inc := base.DescribeKey(k)
	t.meta.Add(inc)

	x := r
	for x.Level > 0 {
		i := upperBound(x, k)
		if t.child(x, i).Full(t.t) {
			t.splitNode(x, i)
			if base.Compare(x.Keys[i], k) <= 0 {
				i++
			}
		}
		if i > 0 {
			k.Pos = base.Relative(x.Keys[i-1].Pos, k.Pos)
		}
		x.Meta[i].Add(inc)
		x = t.child(x, i)
	}

	i := upperBound(x, k)
	x.Keys = slices.Insert(x.Keys, i, k)
	t.refKey(x, i)
	t.nKeys++
}

// splitNode splits the full child y = x.Ptr[i] around its median, which moves
// up into x. Intersect sets are decided while y is still intact.
func (t *MarkTree) splitNode(x *base.Node, i int) {
	y := t.child(x, i)
	T := t.t
	z := t.allocNode(y.Level)

	z.Intersect = y.Intersect.Clone()
	if y.Level == 0 {
		yi := t.pseudoIndex(y, 0)
		// a start in the left half or the median with its end past y now
		// covers the right half
		for j := 0; j < T; j++ {
			k := y.Keys[j]
			if k.Start() && t.pairLive(k) && t.pseudoIndexForID(k.PeerID(), true) > yi {
				z.Intersect.Add(k.PairID())
			}
		}
		// an end at the median or in the right half with its start before y
		// now covers the left half
		for j := T - 1; j < 2*T-1; j++ {
			k := y.Keys[j]
			if !k.End() || !t.pairLive(k) {
				continue
			}
			if pi := t.pseudoIndexForID(k.PeerID(), true); pi > 0 && pi < yi {
				y.Intersect.Add(k.PairID())
			}
		}
	}

	mid := y.Keys[T-1]
	var zm base.Meta
	for j := T; j < 2*T-1; j++ {
		k := y.Keys[j]
		k.Pos = base.Relative(mid.Pos, k.Pos)
		z.Keys = append(z.Keys, k)
		zm.Add(base.DescribeKey(k))
	}
	if y.Level > 0 {
		z.Ptr = append(z.Ptr, y.Ptr[T:]...)
		z.Meta = append(z.Meta, y.Meta[T:]...)
		for _, m := range z.Meta {
			zm.Add(m)
		}
		t.reparent(z, 0)
		y.Ptr = y.Ptr[:T]
		y.Meta = y.Meta[:T]
	}
	clear(y.Keys[T-1:])
	y.Keys = y.Keys[:T-1]
	for j := range z.Keys {
		t.refKey(z, j)
	}

	if i > 0 {
		mid.Pos = base.Unrelative(x.Keys[i-1].Pos, mid.Pos)
	}
	x.Keys = slices.Insert(x.Keys, i, mid)
	t.refKey(x, i)
	x.Ptr = slices.Insert(x.Ptr, i+1, z.ID)
	x.Meta = slices.Insert(x.Meta, i+1, zm)
	x.Meta[i].Sub(zm)
	x.Meta[i].Sub(base.DescribeKey(mid))
	t.reparent(x, i+1)

	if y.Level > 0 {
		t.bubbleUp(y)
		t.bubbleUp(z)
	}
}
