package marktree

import (
	"slices"

	"github.com/alexhholmes/marktree/internal/base"
)

// slot is a key location recorded while the tree shape is fixed.
type slot struct {
	x *base.Node
	i int
}

// damage tracks a paired key that changed slot during a splice: where it was
// before the splice and where it ended up.
type damage struct {
	old, cur slot
}

// damageList is keyed by the lookup id of the moved key.
type damageList map[uint64]*damage

func (d damageList) record(id uint64, from, to slot) {
	if e, ok := d[id]; ok {
		e.cur = to
		return
	}
	d[id] = &damage{old: from, cur: to}
}

func sameSlot(a, b *Iter) bool {
	return a.x == b.x && a.i == b.i
}

// Splice applies one text edit to every mark: the text in
// [start, start+oldExtent) is replaced by text of size newExtent. Marks in the
// deleted range collapse to start (left gravity) or to the end of the
// inserted text (right gravity); marks after it shift. Reports whether any
// mark moved.
func (t *MarkTree) Splice(start, oldExtent, newExtent Pos) bool {
	mayDelete := !oldExtent.IsZero()
	sameLine := oldExtent.Row == 0 && newExtent.Row == 0
	oldEnd := base.Unrelative(start, oldExtent)
	newEnd := base.Unrelative(start, newExtent)

	// oldbase[lvl] is the base of the iterator's node at lvl before any key
	// on the path changed
	var oldbase [maxHeight + 1]Pos
	it := t.NewIter()
	if !it.seek(base.SeekKey(start, false, true), false, oldbase[:]) {
		return false
	}
	t.touch()
	delta := Pos{Row: newEnd.Row - oldEnd.Row, Col: newEnd.Col - oldEnd.Col}

	end := t.NewIter()
	if mayDelete {
		ipos := it.Pos()
		if ipos.Less(oldEnd) || (ipos == oldEnd && !it.x.Keys[it.i].RightGravity()) {
			ok := end.SeekExt(oldEnd, true, true)
			invariant(ok, "splice: no key before the end of the deleted range")
		} else {
			mayDelete = false
		}
	}

	dmg := damageList{}
	pastRight := false
	moved := false

	if mayDelete {
		// keys in the deleted range: left gravity collapses to start, right
		// gravity keys are swapped towards the end of the range
		for it.x != nil && !pastRight {
			locStart := base.Relative(it.pos, start)
			locOld := base.Relative(oldbase[it.lvl], oldEnd)
			if !it.x.Keys[it.i].Pos.Leq(locOld) {
				break
			}

			if it.x.Keys[it.i].RightGravity() {
				for !sameSlot(&it, &end) && end.x.Keys[end.i].RightGravity() {
					end.Prev()
				}
				if end.x.Keys[end.i].RightGravity() {
					pastRight = true
					break
				}
				t.swapKeys(&it, &end, dmg)
			}
			if sameSlot(&it, &end) {
				pastRight = true
			}

			moved = true
			if it.x.Level > 0 {
				oldbase[it.lvl+1] = base.Unrelative(oldbase[it.lvl], it.x.Keys[it.i].Pos)
				it.x.Keys[it.i].Pos = locStart
				it.nextSkip(false, oldbase[:], 0)
			} else {
				it.x.Keys[it.i].Pos = locStart
				it.Next()
			}
		}

		// right gravity keys left inside the range go to the end of the
		// inserted text
		for it.x != nil {
			locNew := base.Relative(it.pos, newEnd)
			limit := base.Relative(oldbase[it.lvl], oldEnd)
			if limit.Leq(it.x.Keys[it.i].Pos) {
				break
			}

			oldpos := it.x.Keys[it.i].Pos
			it.x.Keys[it.i].Pos = locNew
			moved = true
			if it.x.Level > 0 {
				oldbase[it.lvl+1] = base.Unrelative(oldbase[it.lvl], oldpos)
				it.nextSkip(false, oldbase[:], 0)
			} else {
				it.Next()
			}
		}
	}

	// keys after the range shift by delta. Visiting the rest of each node
	// on the way up is enough: subtrees follow their relative base.
	for it.x != nil {
		k := &it.x.Keys[it.i]
		p := base.Unrelative(oldbase[it.lvl], k.Pos)
		invariant(p.Row >= oldEnd.Row, "splice: key %v before edit end %v", p, oldEnd)
		done := false
		if p.Row == oldEnd.Row {
			if delta.Col != 0 {
				p.Col += delta.Col
				moved = true
			}
		} else if sameLine {
			// a column only edit leaves later rows alone
			done = true
		}
		if delta.Row != 0 {
			p.Row += delta.Row
			moved = true
		}
		k.Pos = base.Relative(it.pos, p)
		if done {
			break
		}
		it.nextSkip(true, nil, 0)
	}

	t.repairDamage(dmg)
	return moved
}

// swapKeys exchanges the identities of two keys, each slot keeping its
// position. Paired keys whose covered nodes may change are recorded in dmg.
func (t *MarkTree) swapKeys(a, b *Iter, dmg damageList) {
	k1, k2 := a.x.Keys[a.i], b.x.Keys[b.i]
	sa, sb := slot{a.x, a.i}, slot{b.x, b.i}

	if a.x != b.x || a.x.Level > 0 {
		if k1.Paired() {
			dmg.record(k1.LookupID(), sa, sb)
		}
		if k2.Paired() {
			dmg.record(k2.LookupID(), sb, sa)
		}
	}

	if m1, m2 := base.DescribeKey(k1), base.DescribeKey(k2); a.x != b.x && m1 != m2 {
		x1, x2 := a.x, b.x
		for x1 != x2 {
			if x1.Level <= x2.Level {
				p := t.node(x1.Parent)
				p.Meta[x1.PIdx].Add(m2)
				p.Meta[x1.PIdx].Sub(m1)
				x1 = p
			}
			if x2.Level < x1.Level {
				p := t.node(x2.Parent)
				p.Meta[x2.PIdx].Add(m1)
				p.Meta[x2.PIdx].Sub(m2)
				x2 = p
			}
		}
	}

	k1.Pos, k2.Pos = k2.Pos, k1.Pos
	a.x.Keys[a.i], b.x.Keys[b.i] = k2, k1
	t.refKey(a.x, a.i)
	t.refKey(b.x, b.i)
}

// repairDamage moves every damaged pair from the nodes it covered with its
// old slots to the nodes it covers with its current ones.
func (t *MarkTree) repairDamage(dmg damageList) {
	if len(dmg) == 0 {
		return
	}
	pairs := make([]uint64, 0, len(dmg))
	for id := range dmg {
		pair := base.PairOf(id)
		if !slices.Contains(pairs, pair) {
			pairs = append(pairs, pair)
		}
	}
	slices.Sort(pairs)

	for _, pair := range pairs {
		sx, si := t.find(pair)
		ex, ei := t.find(base.PeerOf(pair))
		if sx == nil || ex == nil || !t.pairLive(sx.Keys[si]) {
			continue
		}
		oldS, oldE := slot{sx, si}, slot{ex, ei}
		if d, ok := dmg[pair]; ok {
			oldS = d.old
		}
		if d, ok := dmg[base.PeerOf(pair)]; ok {
			oldE = d.old
		}
		t.intersectPair(pair, oldS.x, oldS.i, oldE.x, oldE.i, true)
		t.intersectPair(pair, sx, si, ex, ei, false)
	}
}
