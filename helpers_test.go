package marktree

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testNS = 1

// recordLogger keeps every message for assertions.
type recordLogger struct {
	msgs []string
}

func (r *recordLogger) Error(msg string, _ ...any) { r.msgs = append(r.msgs, "error: "+msg) }
func (r *recordLogger) Warn(msg string, _ ...any)  { r.msgs = append(r.msgs, "warn: "+msg) }
func (r *recordLogger) Info(msg string, _ ...any)  { r.msgs = append(r.msgs, "info: "+msg) }

func setup(t *testing.T, branch int, opts ...Option) *MarkTree {
	t.Helper()
	tr, err := NewTree(append([]Option{WithBranchFactor(branch)}, opts...)...)
	require.NoError(t, err)
	return tr
}

func mustCheck(t *testing.T, tr *MarkTree, format string, args ...any) {
	t.Helper()
	require.NoError(t, tr.Check(), fmt.Sprintf(format, args...)+"\n"+tr.Inspect())
}

// assertCorrupted expects fn to panic with an error wrapping ErrCorrupted.
func assertCorrupted(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		assert.ErrorIs(t, err, ErrCorrupted)
	}()
	fn()
}

func at(row, col int) Pos {
	return Pos{Row: row, Col: col}
}

func point(id uint32, pos Pos, flags Flags) Key {
	return Key{Pos: pos, NS: testNS, ID: id, Flags: flags}
}

func startID(id uint32) uint64 { return LookupID(testNS, id, false) }
func endID(id uint32) uint64   { return LookupID(testNS, id, true) }

// keys returns every key in order with absolute positions.
func keys(tr *MarkTree) []Key {
	var out []Key
	it := tr.NewIter()
	for ok := it.First(); ok; ok = it.Next() {
		out = append(out, it.Key())
	}
	return out
}

func positions(tr *MarkTree) []Pos {
	var out []Pos
	for _, k := range keys(tr) {
		out = append(out, k.Pos)
	}
	return out
}

func posOf(t *testing.T, tr *MarkTree, id uint64) Pos {
	t.Helper()
	k, ok := tr.Lookup(id, nil)
	require.True(t, ok, "id %#x missing", id)
	return k.Pos
}

func randPos(rng *rand.Rand, rows, cols int) Pos {
	return at(rng.Intn(rows), rng.Intn(cols))
}

// splicePos is the expected position of a mark at p with gravity rg after
// replacing [start, start+oldExtent) by text of size newExtent.
func splicePos(p Pos, rg bool, start, oldExtent, newExtent Pos) Pos {
	oldEnd := Pos{Row: start.Row + oldExtent.Row, Col: oldExtent.Col}
	if oldExtent.Row == 0 {
		oldEnd.Col = start.Col + oldExtent.Col
	}
	newEnd := Pos{Row: start.Row + newExtent.Row, Col: newExtent.Col}
	if newExtent.Row == 0 {
		newEnd.Col = start.Col + newExtent.Col
	}

	if p.Less(start) || (p == start && !rg) {
		return p
	}
	if p.Leq(oldEnd) {
		if rg {
			return newEnd
		}
		return start
	}
	if p.Row == oldEnd.Row {
		return at(p.Row+newEnd.Row-oldEnd.Row, p.Col+newEnd.Col-oldEnd.Col)
	}
	return at(p.Row+newEnd.Row-oldEnd.Row, p.Col)
}
