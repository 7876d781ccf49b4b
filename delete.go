package marktree

import (
	"slices"

	"github.com/alexhholmes/marktree/internal/base"
	"github.com/alexhholmes/marktree/internal/idset"
)

// Del removes the key under the iterator and leaves the iterator on the key
// that followed it. If the key was half of a live pair the other half is
// marked orphaned and its lookup id is returned.
func (t *MarkTree) Del(it *Iter) (uint64, bool) {
	invariant(it.x != nil, "del: invalid iterator")
	t.touch()

	cur, curi := it.x, it.i
	deleted := cur.Keys[curi]
	id := deleted.LookupID()

	var other uint64
	hasOther := false
	if deleted.Paired() && !deleted.Orphaned() {
		other = deleted.PeerID()
		ox, oi := t.find(other)
		invariant(ox != nil, "del: peer %s of %s missing", idString(other), idString(id))
		ox.Keys[oi].Flags |= base.FlagOrphaned
		if deleted.End() {
			t.intersectPair(deleted.PairID(), ox, oi, cur, curi, true)
		} else {
			t.intersectPair(deleted.PairID(), cur, curi, ox, oi, true)
		}
		hasOther = true
	}

	// an internal key is replaced by its in order predecessor, which always
	// lives in a leaf
	adjustment := 0
	if cur.Level > 0 {
		ok := it.Prev()
		invariant(ok && it.x.Level == 0, "del: internal key without predecessor")
		adjustment = -1
	}

	x := it.x
	intkey := x.Keys[it.i]

	// the covered nodes of a pair depend on the slot of its end; lift the
	// predecessor's pair out while the end moves up
	var movedPair uint64
	repairMoved := false
	if adjustment == -1 && intkey.End() && t.pairLive(intkey) {
		sx, si := t.find(intkey.PeerID())
		movedPair = intkey.PairID()
		t.intersectPair(movedPair, sx, si, x, it.i, true)
		repairMoved = true
	}

	x.Keys = slices.Delete(x.Keys, it.i, it.i+1)
	delete(t.idx, id)
	t.nKeys--

	if inc := base.DescribeKey(deleted); !inc.IsZero() {
		for n := cur; n.Parent != base.NoNode; n = t.node(n.Parent) {
			t.node(n.Parent).Meta[n.PIdx].Sub(inc)
		}
		t.meta.Sub(inc)
	}

	if adjustment == -1 {
		inc := base.DescribeKey(intkey)
		for n := x; n != cur; {
			p := t.node(n.Parent)
			if n.PIdx > 0 {
				intkey.Pos = base.Unrelative(p.Keys[n.PIdx-1].Pos, intkey.Pos)
			}
			p.Meta[n.PIdx].Sub(inc)
			n = p
		}
		cur.Keys[curi] = intkey
		t.refKey(cur, curi)

		// the left spine of the right subtree was relative to the deleted key
		if d := base.Relative(intkey.Pos, deleted.Pos); !d.IsZero() {
			for y := t.child(cur, curi+1); ; y = t.child(y, 0) {
				for j := range y.Keys {
					y.Keys[j].Pos = base.Unrelative(d, y.Keys[j].Pos)
				}
				if y.Level == 0 {
					break
				}
			}
		}
		it.i--

		if repairMoved {
			sx, si := t.find(base.PeerOf(intkey.LookupID()))
			t.intersectPair(movedPair, sx, si, cur, curi, false)
		}
	}

	itrDirty := false
	rlvl := it.lvl - 1
	lasti := &it.i
	for x.Parent != base.NoNode {
		if len(x.Keys) >= t.t-1 {
			break
		}
		p := t.node(x.Parent)
		pi := x.PIdx
		invariant(it.s[rlvl].i == pi, "del: iterator path out of sync")
		switch {
		case pi > 0 && len(t.child(p, pi-1).Keys) > t.t-1:
			*lasti++
			itrDirty = true
			t.pivotRight(p, pi-1)
			x = nil
		case pi < len(p.Keys) && len(t.child(p, pi+1).Keys) > t.t-1:
			t.pivotLeft(p, pi)
			x = nil
		case pi > 0:
			*lasti += t.t
			x = t.mergeNode(p, pi-1)
			if lasti == &it.i {
				it.x = x
			}
			it.s[rlvl].i--
			itrDirty = true
		default:
			t.mergeNode(p, pi)
		}
		if x == nil {
			break
		}
		lasti = &it.s[rlvl].i
		rlvl--
		x = p
	}

	if r := t.rootNode(); len(r.Keys) == 0 {
		if r.Level > 0 {
			c := t.child(r, 0)
			c.Parent = base.NoNode
			c.PIdx = 0
			t.root = c.ID
			t.freeNode(r)
			copy(it.s[:], it.s[1:it.lvl])
			it.lvl--
			itrDirty = true
			t.logger.Info("mark tree shrank", "height", c.Level+1, "keys", t.nKeys)
		} else {
			t.freeNode(r)
			t.root = base.NoNode
			it.x = nil
		}
	}

	if it.x != nil && itrDirty {
		it.fixPos()
	}

	if adjustment == -1 {
		// the iterator stands just before the predecessor, which now holds
		// the deleted key's place; step over it
		it.Next()
		it.Next()
	} else if it.x != nil && it.i >= len(it.x.Keys) {
		it.Next()
	}
	return other, hasOther
}

// DelRev is Del for backward walks: the iterator is left on the key that
// preceded the deleted one, or invalidated when there is none.
func (t *MarkTree) DelRev(it *Iter) (uint64, bool) {
	peer, ok := t.Del(it)
	if it.Valid() {
		it.Prev()
	} else {
		it.Last()
	}
	return peer, ok
}

// mergeNode merges p.Ptr[i+1] and the separator p.Keys[i] into p.Ptr[i].
func (t *MarkTree) mergeNode(p *base.Node, i int) *base.Node {
	x, y := t.child(p, i), t.child(p, i+1)

	// pairs covering both halves cover the merged node; the rest moves down
	// to the children, or is found by leaf scans for leaves
	common, onlyX, onlyY := idset.Split(x.Intersect, y.Intersect)
	if x.Level > 0 {
		for _, c := range x.Ptr {
			t.node(c).Intersect.AddAll(onlyX)
		}
		for _, c := range y.Ptr {
			t.node(c).Intersect.AddAll(onlyY)
		}
	}
	x.Intersect = common

	sep := p.Keys[i]
	sepMeta := base.DescribeKey(sep)
	if i > 0 {
		sep.Pos = base.Relative(p.Keys[i-1].Pos, sep.Pos)
	}
	n := len(x.Keys)
	x.Keys = append(x.Keys, sep)
	for _, k := range y.Keys {
		k.Pos = base.Unrelative(sep.Pos, k.Pos)
		x.Keys = append(x.Keys, k)
	}
	for j := n; j < len(x.Keys); j++ {
		t.refKey(x, j)
	}
	if x.Level > 0 {
		m := len(x.Ptr)
		x.Ptr = append(x.Ptr, y.Ptr...)
		x.Meta = append(x.Meta, y.Meta...)
		t.reparent(x, m)
	}

	p.Meta[i].Add(p.Meta[i+1])
	p.Meta[i].Add(sepMeta)
	p.Keys = slices.Delete(p.Keys, i, i+1)
	p.Ptr = slices.Delete(p.Ptr, i+1, i+2)
	p.Meta = slices.Delete(p.Meta, i+1, i+2)
	t.reparent(p, i+1)

	t.freeNode(y)
	return x
}

// pivotRight moves the last key of p.Ptr[i] up into p and the separator
// p.Keys[i] down to the front of p.Ptr[i+1].
func (t *MarkTree) pivotRight(p *base.Node, i int) {
	x, y := t.child(p, i), t.child(p, i+1)
	n := len(x.Keys)
	k := x.Keys[n-1]
	sep := p.Keys[i]

	var moved base.Meta
	var c *base.Node
	if x.Level > 0 {
		c = t.child(x, n)
		moved = x.Meta[n]
	}
	kMeta, sepMeta := base.DescribeKey(k), base.DescribeKey(sep)

	if i > 0 {
		k.Pos = base.Unrelative(p.Keys[i-1].Pos, k.Pos)
	}
	p.Keys[i] = k
	t.refKey(p, i)
	sep.Pos = base.Relative(k.Pos, sep.Pos)
	for j := range y.Keys {
		y.Keys[j].Pos = base.Unrelative(sep.Pos, y.Keys[j].Pos)
	}
	y.Keys = slices.Insert(y.Keys, 0, sep)
	t.refKey(y, 0)
	clear(x.Keys[n-1:])
	x.Keys = x.Keys[:n-1]

	if x.Level > 0 {
		// child c keeps its base: it was relative to k and y's new base is k
		y.Ptr = slices.Insert(y.Ptr, 0, c.ID)
		y.Meta = slices.Insert(y.Meta, 0, moved)
		x.Ptr = x.Ptr[:n]
		x.Meta = x.Meta[:n]
		t.reparent(y, 0)
	}

	p.Meta[i].Sub(moved)
	p.Meta[i].Sub(kMeta)
	p.Meta[i+1].Add(moved)
	p.Meta[i+1].Add(sepMeta)

	if x.Level > 0 {
		// y shrank to the right of c: keep what still covers it, hand the
		// rest to its old children, and give c what covered it through x
		// but no longer covers y
		cover := idset.Union(c.Intersect, x.Intersect)
		keep := idset.Intersection(y.Intersect, cover)
		down := idset.Difference(y.Intersect, cover)
		for _, id := range y.Ptr[1:] {
			t.node(id).Intersect.AddAll(down)
		}
		y.Intersect = keep
		c.Intersect = idset.Difference(cover, keep)
		t.bubbleUp(x)
		return
	}

	if k.End() && t.pairLive(k) {
		pi := t.pseudoIndexForID(k.PeerID(), true)
		if pi > 0 && pi < t.pseudoIndex(x, 0) {
			x.Intersect.Add(k.PairID())
		}
	}
	if sep.Start() {
		y.Intersect.Remove(sep.PairID())
	}
}

// pivotLeft moves the first key of p.Ptr[i+1] up into p and the separator
// p.Keys[i] down to the end of p.Ptr[i].
func (t *MarkTree) pivotLeft(p *base.Node, i int) {
	x, y := t.child(p, i), t.child(p, i+1)
	k := y.Keys[0]
	sep := p.Keys[i]

	var moved base.Meta
	var c *base.Node
	if y.Level > 0 {
		c = t.child(y, 0)
		moved = y.Meta[0]
	}
	kMeta, sepMeta := base.DescribeKey(k), base.DescribeKey(sep)

	for j := 1; j < len(y.Keys); j++ {
		y.Keys[j].Pos = base.Relative(k.Pos, y.Keys[j].Pos)
	}
	k.Pos = base.Unrelative(sep.Pos, k.Pos)
	if i > 0 {
		sep.Pos = base.Relative(p.Keys[i-1].Pos, sep.Pos)
	}
	x.Keys = append(x.Keys, sep)
	t.refKey(x, len(x.Keys)-1)
	p.Keys[i] = k
	t.refKey(p, i)
	y.Keys = slices.Delete(y.Keys, 0, 1)

	if y.Level > 0 {
		// child c keeps its base: it was relative to sep, now x's last key
		x.Ptr = append(x.Ptr, c.ID)
		x.Meta = append(x.Meta, moved)
		y.Ptr = slices.Delete(y.Ptr, 0, 1)
		y.Meta = slices.Delete(y.Meta, 0, 1)
		t.reparent(x, len(x.Ptr)-1)
		t.reparent(y, 0)
	}

	p.Meta[i+1].Sub(moved)
	p.Meta[i+1].Sub(kMeta)
	p.Meta[i].Add(moved)
	p.Meta[i].Add(sepMeta)

	if y.Level > 0 {
		cover := idset.Union(c.Intersect, y.Intersect)
		keep := idset.Intersection(x.Intersect, cover)
		down := idset.Difference(x.Intersect, cover)
		for _, id := range x.Ptr[:len(x.Ptr)-1] {
			t.node(id).Intersect.AddAll(down)
		}
		x.Intersect = keep
		c.Intersect = idset.Difference(cover, keep)
		t.bubbleUp(y)
		return
	}

	if sep.End() {
		x.Intersect.Remove(sep.PairID())
	}
	if k.Start() && t.pairLive(k) {
		if t.pseudoIndexForID(k.PeerID(), true) > t.pseudoIndex(y, 0) {
			y.Intersect.Add(k.PairID())
		}
	}
}
