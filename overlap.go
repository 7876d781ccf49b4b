package marktree

import "github.com/alexhholmes/marktree/internal/base"

// Pair is a range found by an overlap query, with absolute positions.
type Pair struct {
	Start Key
	End   Key
}

// GetOverlap starts an overlap query for pos on it. Call StepOverlap until
// it returns false to get every pair with Start.Pos < pos <= End.Pos.
// Afterwards it is an ordinary iterator positioned at the first key at or
// after pos.
func (t *MarkTree) GetOverlap(pos Pos, it *Iter) bool {
	it.t = t
	r := t.rootNode()
	if r == nil {
		it.x = nil
		return false
	}
	it.x, it.i, it.lvl, it.pos = r, 0, 0, Pos{}
	it.intersectPos = pos
	it.intersectPosX = pos
	it.intersectIdx = 0
	it.restoreI = 0
	return true
}

// StepOverlap returns the next pair overlapping the position passed to
// GetOverlap.
func (t *MarkTree) StepOverlap(it *Iter) (Pair, bool) {
	if it.x == nil {
		return Pair{}, false
	}
	probe := base.SeekKey(it.intersectPosX, false, false)

	// phase one: ids covering whole nodes on the way down
	for it.x.Level > 0 || it.intersectIdx < len(it.x.Intersect) {
		if it.intersectIdx < len(it.x.Intersect) {
			id := it.x.Intersect[it.intersectIdx]
			it.intersectIdx++
			if p, ok := t.pairOf(id); ok {
				return p, true
			}
			continue
		}

		i := upperBound(it.x, probe)
		it.s[it.lvl] = iterLevel{i: i, oldcol: it.pos.Col}
		if i > 0 {
			it.pos = base.Compose(it.pos, it.x.Keys[i-1].Pos)
			it.intersectPosX = base.Relative(it.x.Keys[i-1].Pos, it.intersectPosX)
			probe.Pos = it.intersectPosX
		}
		it.x = t.child(it.x, i)
		it.lvl++
		it.intersectIdx = 0
		it.i = 0
		it.restoreI = 0
	}

	// phase two: starts before pos in the leaf whose end is at or after it
	for it.i < len(it.x.Keys) && it.x.Keys[it.i].Pos.Less(it.intersectPosX) {
		k := it.x.Keys[it.i]
		it.i++
		it.restoreI = it.i
		if !k.Start() {
			continue
		}
		if p, ok := t.pairOf(k.PairID()); ok && !p.End.Pos.Less(it.intersectPos) {
			return p, true
		}
	}

	// phase three: ends at or after pos in the leaf whose start is before
	// pos in another node
	for it.i < len(it.x.Keys) {
		k := it.x.Keys[it.i]
		it.i++
		if !k.End() {
			continue
		}
		if t.idx[k.PeerID()] == it.x.ID {
			continue
		}
		if p, ok := t.pairOf(k.PairID()); ok && p.Start.Pos.Less(it.intersectPos) {
			return p, true
		}
	}

	// done: leave the iterator at the first key at or after pos
	it.i = it.restoreI
	if it.i >= len(it.x.Keys) {
		it.Next()
	}
	return Pair{}, false
}

// pairOf resolves both halves of a pair by its start id.
func (t *MarkTree) pairOf(pair uint64) (Pair, bool) {
	start, ok := t.Lookup(pair, nil)
	if !ok {
		return Pair{}, false
	}
	end, ok := t.Lookup(base.PeerOf(pair), nil)
	if !ok {
		return Pair{}, false
	}
	return Pair{Start: start, End: end}, true
}
