package marktree

import "github.com/alexhholmes/marktree/internal/base"

// iterLevel is one level of the iterator path: the child index taken at that
// level and the column of the running base before descending, so the base can
// be restored when climbing back up.
type iterLevel struct {
	i      int
	oldcol int
}

// Iter is a cursor over the keys of a MarkTree in order. It holds no
// resources; any mutation of the tree invalidates it unless the mutating
// call documents otherwise.
type Iter struct {
	t   *MarkTree
	x   *base.Node
	i   int
	lvl int
	pos Pos // base of x
	s   [maxHeight]iterLevel

	// overlap query state
	intersectPos  Pos
	intersectPosX Pos // intersectPos relative to the base of x
	intersectIdx  int
	restoreI      int
}

// NewIter returns an unpositioned iterator over t.
func (t *MarkTree) NewIter() Iter {
	return Iter{t: t}
}

// Valid reports whether the iterator stands on a key.
func (it *Iter) Valid() bool {
	return it.x != nil
}

// Key returns the current key with its absolute position.
func (it *Iter) Key() Key {
	invariant(it.x != nil, "iterator: key of invalid iterator")
	k := it.x.Keys[it.i]
	k.Pos = base.Unrelative(it.pos, k.Pos)
	return k
}

// Pos returns the absolute position of the current key.
func (it *Iter) Pos() Pos {
	return base.Unrelative(it.pos, it.x.Keys[it.i].Pos)
}

// LookupID returns the id of the current key.
func (it *Iter) LookupID() uint64 {
	return it.x.Keys[it.i].LookupID()
}

// First positions the iterator at the first key.
func (it *Iter) First() bool {
	r := it.t.rootNode()
	if r == nil {
		it.x = nil
		return false
	}
	it.x, it.i, it.lvl, it.pos = r, 0, 0, Pos{}
	for it.x.Level > 0 {
		it.s[it.lvl] = iterLevel{}
		it.x = it.t.child(it.x, 0)
		it.lvl++
	}
	return true
}

// Last positions the iterator at the last key.
func (it *Iter) Last() bool {
	r := it.t.rootNode()
	if r == nil {
		it.x = nil
		return false
	}
	it.x, it.lvl, it.pos = r, 0, Pos{}
	for it.x.Level > 0 {
		n := len(it.x.Keys)
		it.s[it.lvl] = iterLevel{i: n, oldcol: it.pos.Col}
		it.pos = base.Compose(it.pos, it.x.Keys[n-1].Pos)
		it.x = it.t.child(it.x, n)
		it.lvl++
	}
	it.i = len(it.x.Keys) - 1
	return true
}

// Seek positions the iterator at the first key at or after pos.
func (it *Iter) Seek(pos Pos) bool {
	return it.seek(base.SeekKey(pos, false, false), false, nil)
}

// SeekExt generalizes Seek. With gravity the iterator skips keys at pos with
// left gravity. With last it stops at the last key before the probe instead
// of the first key after it.
func (it *Iter) SeekExt(pos Pos, last, gravity bool) bool {
	return it.seek(base.SeekKey(pos, last, gravity), last, nil)
}

// seek descends towards the probe k. oldbase, when given, records the base of
// every level on the way down.
func (it *Iter) seek(k Key, last bool, oldbase []Pos) bool {
	r := it.t.rootNode()
	if r == nil {
		it.x = nil
		return false
	}
	it.x, it.lvl, it.pos = r, 0, Pos{}
	if oldbase != nil {
		oldbase[0] = it.pos
	}
	for {
		it.i = upperBound(it.x, k)
		if it.x.Level == 0 {
			break
		}
		it.s[it.lvl] = iterLevel{i: it.i, oldcol: it.pos.Col}
		if it.i > 0 {
			it.pos = base.Compose(it.pos, it.x.Keys[it.i-1].Pos)
			k.Pos = base.Relative(it.x.Keys[it.i-1].Pos, k.Pos)
		}
		it.x = it.t.child(it.x, it.i)
		it.lvl++
		if oldbase != nil {
			oldbase[it.lvl] = it.pos
		}
	}

	if last {
		return it.Prev()
	}
	if it.i >= len(it.x.Keys) {
		return it.Next()
	}
	return true
}

// Next advances to the following key.
func (it *Iter) Next() bool {
	return it.nextSkip(false, nil, 0)
}

// nextSkip advances the iterator. With skip it never descends, visiting only
// the rest of the current node and its ancestors. A nonzero filter skips
// children whose counters have none of the filtered kinds.
func (it *Iter) nextSkip(skip bool, oldbase []Pos, filter MetaFilter) bool {
	if it.x == nil {
		return false
	}
	it.i++
	if it.x.Level == 0 || skip {
		if it.i < len(it.x.Keys) {
			return true
		}
		return it.climb()
	}

	// standing on an internal key: go down to the first key after it
	for it.x.Level > 0 {
		if filter != 0 && !it.x.Meta[it.i].Has(filter) {
			if it.i < len(it.x.Keys) {
				return true
			}
			return it.climb()
		}
		if it.i > 0 {
			it.s[it.lvl].oldcol = it.pos.Col
			it.pos = base.Compose(it.pos, it.x.Keys[it.i-1].Pos)
		}
		if oldbase != nil && it.i == 0 {
			oldbase[it.lvl+1] = oldbase[it.lvl]
		}
		it.s[it.lvl].i = it.i
		it.x = it.t.child(it.x, it.i)
		it.i = 0
		it.lvl++
	}
	return true
}

// climb goes up until the iterator stands on an internal key following the
// exhausted subtree.
func (it *Iter) climb() bool {
	for it.i >= len(it.x.Keys) {
		if it.x.Parent == base.NoNode {
			it.x = nil
			return false
		}
		it.x = it.t.node(it.x.Parent)
		it.lvl--
		it.i = it.s[it.lvl].i
		if it.i > 0 {
			it.pos.Row -= it.x.Keys[it.i-1].Pos.Row
			it.pos.Col = it.s[it.lvl].oldcol
		}
	}
	return true
}

// Prev steps back to the preceding key.
func (it *Iter) Prev() bool {
	if it.x == nil {
		return false
	}
	if it.x.Level == 0 {
		it.i--
		for it.i < 0 {
			if it.x.Parent == base.NoNode {
				it.x = nil
				return false
			}
			it.x = it.t.node(it.x.Parent)
			it.lvl--
			it.i = it.s[it.lvl].i - 1
			if it.i >= 0 {
				it.pos.Row -= it.x.Keys[it.i].Pos.Row
				it.pos.Col = it.s[it.lvl].oldcol
			}
		}
		return true
	}

	// standing on an internal key: go down to the last key before it
	for it.x.Level > 0 {
		if it.i > 0 {
			it.s[it.lvl].oldcol = it.pos.Col
			it.pos = base.Compose(it.pos, it.x.Keys[it.i-1].Pos)
		}
		it.s[it.lvl].i = it.i
		it.x = it.t.child(it.x, it.i)
		it.i = len(it.x.Keys)
		it.lvl++
	}
	it.i--
	return true
}

// Rewind moves the iterator to the first key of the current leaf.
func (it *Iter) Rewind() {
	if it.x == nil {
		return
	}
	if it.x.Level > 0 {
		it.Prev()
	}
	it.i = 0
}

// NodeDone reports whether the iterator is invalid or on the last key of its
// node.
func (it *Iter) NodeDone() bool {
	return it.x == nil || it.i == len(it.x.Keys)-1
}

// SeekFilter positions the iterator at the first key at or after pos and
// before stop that carries one of the filtered decoration kinds.
func (it *Iter) SeekFilter(pos, stop Pos, filter MetaFilter) bool {
	if !it.t.meta.Has(filter) {
		it.x = nil
		return false
	}
	if !it.Seek(pos) {
		return false
	}
	return it.checkFilter(stop, filter)
}

// NextFilter advances to the next key before stop carrying one of the
// filtered decoration kinds, skipping subtrees that have none.
func (it *Iter) NextFilter(stop Pos, filter MetaFilter) bool {
	if !it.nextSkip(false, nil, filter) {
		return false
	}
	return it.checkFilter(stop, filter)
}

func (it *Iter) checkFilter(stop Pos, filter MetaFilter) bool {
	for {
		if stop.Leq(it.Pos()) {
			it.x = nil
			return false
		}
		if filter.Matches(it.x.Keys[it.i]) {
			return true
		}
		if !it.nextSkip(false, nil, filter) {
			return false
		}
	}
}

// setNode points the iterator at slot i of x, rebuilding the path.
func (it *Iter) setNode(x *base.Node, i int) {
	r := it.t.rootNode()
	it.x, it.i = x, i
	it.lvl = r.Level - x.Level
	lvl := it.lvl
	for n := x; n.Parent != base.NoNode; n = it.t.node(n.Parent) {
		lvl--
		it.s[lvl].i = n.PIdx
	}
	it.fixPos()
}

// fixPos recomputes the running base from the path indices.
func (it *Iter) fixPos() {
	it.pos = Pos{}
	x := it.t.rootNode()
	for lvl := 0; lvl < it.lvl; lvl++ {
		it.s[lvl].oldcol = it.pos.Col
		i := it.s[lvl].i
		if i > 0 {
			it.pos = base.Compose(it.pos, x.Keys[i-1].Pos)
		}
		invariant(x.Level > 0, "iterator path descends below a leaf")
		x = it.t.child(x, i)
	}
	invariant(x == it.x, "iterator path does not reach its node")
}

// Lookup returns the key with the given lookup id and absolute position. If
// it is not nil it is positioned on the key, or invalidated when the id is
// not in the tree.
func (t *MarkTree) Lookup(id uint64, it *Iter) (Key, bool) {
	if it == nil && t.cache != nil {
		if k, ok := t.cache.Get(id, t.epoch); ok {
			return k, true
		}
	}
	x, i := t.find(id)
	if x == nil {
		if it != nil {
			it.t = t
			it.x = nil
		}
		return Key{}, false
	}
	var tmp Iter
	if it == nil {
		it = &tmp
	}
	it.t = t
	it.setNode(x, i)
	k := it.Key()
	if t.cache != nil {
		t.cache.Put(id, t.epoch, k)
	}
	return k, true
}

// LookupNS is Lookup by namespace and mark id.
func (t *MarkTree) LookupNS(ns, id uint32, end bool, it *Iter) (Key, bool) {
	return t.Lookup(base.LookupID(ns, id, end), it)
}

// GetAlt returns the other half of the paired key k. An unpaired key is its
// own alternative.
func (t *MarkTree) GetAlt(k Key, it *Iter) (Key, bool) {
	if !k.Paired() {
		return k, true
	}
	return t.Lookup(k.PeerID(), it)
}
