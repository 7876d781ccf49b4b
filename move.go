package marktree

import (
	"slices"

	"github.com/alexhholmes/marktree/internal/base"
)

// Move changes the position of the key under the iterator, keeping its
// identity. Afterwards the iterator stands on the moved key.
func (t *MarkTree) Move(it *Iter, pos Pos) {
	invariant(it.x != nil, "move: invalid iterator")
	key := it.x.Keys[it.i]
	x := it.x

	if x.Level == 0 {
		// stay in the leaf when pos is strictly after the key preceding the
		// leaf (the leaf's base) and strictly before its last key
		local := false
		newpos := pos
		if x.Parent == base.NoNode {
			local = true
		} else if it.pos.Less(pos) {
			newpos = base.Relative(it.pos, pos)
			local = newpos.Less(x.Keys[len(x.Keys)-1].Pos)
		}

		if local {
			if key.Pos == newpos {
				return
			}
			t.touch()
			key.Pos = newpos
			x.Keys = slices.Delete(x.Keys, it.i, it.i+1)
			it.i = upperBound(x, key)
			x.Keys = slices.Insert(x.Keys, it.i, key)
			return
		}
	}

	_, paired := t.Del(it)
	key.Pos = pos
	t.putKey(key)
	if paired {
		t.RestorePair(key)
	}
	t.Lookup(key.LookupID(), it)
}

// MoveRegion moves every mark inside [start, start+extent] to the same
// relative place at newPos, closing the gap at start and opening one of the
// same size at newPos. Right gravity marks at the end of the region stay.
func (t *MarkTree) MoveRegion(start, extent, newPos Pos) {
	end := base.Unrelative(start, extent)
	it := t.NewIter()
	it.SeekExt(start, false, true)

	var saved []Key
	for it.Valid() {
		k := it.Key()
		if !k.Pos.Leq(end) || (k.Pos == end && k.RightGravity()) {
			break
		}
		k.Pos = base.Relative(start, k.Pos)
		saved = append(saved, k)
		t.Del(&it)
	}

	t.Splice(start, extent, Pos{})
	t.Splice(newPos, Pos{}, extent)

	for _, k := range saved {
		k.Pos = base.Unrelative(newPos, k.Pos)
		t.putKey(k)
	}
	for _, k := range saved {
		if _, ok := t.idx[k.PeerID()]; ok && k.Paired() {
			t.RestorePair(k)
		}
	}
}

// Revise replaces the decoration bits and payload of the key under the
// iterator, updating the counters of every ancestor.
func (t *MarkTree) Revise(it *Iter, decor Flags, payload any) {
	invariant(it.x != nil, "revise: invalid iterator")
	invariant(decor&^base.FlagsDecor == 0, "revise: not a decoration flag %#x", uint16(decor))
	t.touch()

	k := &it.x.Keys[it.i]
	before := base.DescribeKey(*k)
	k.Flags = k.Flags&^base.FlagsDecor | decor
	k.Decor = payload
	after := base.DescribeKey(*k)
	if before == after {
		return
	}
	for n := it.x; n.Parent != base.NoNode; n = t.node(n.Parent) {
		p := t.node(n.Parent)
		p.Meta[n.PIdx].Sub(before)
		p.Meta[n.PIdx].Add(after)
	}
	t.meta.Sub(before)
	t.meta.Add(after)
}
