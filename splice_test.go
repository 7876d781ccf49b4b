package marktree

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpliceNoop(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(17))
	tr := setup(t, 2)
	for id := uint32(1); id <= 300; id++ {
		var f Flags
		if rng.Intn(2) == 0 {
			f = FlagRightGravity
		}
		tr.Put(point(id, randPos(rng, 20, 20), f))
	}
	before := tr.Fingerprint()
	pos := positions(tr)

	for range 20 {
		moved := tr.Splice(randPos(rng, 20, 20), Pos{}, Pos{})
		assert.False(t, moved)
	}
	assert.Equal(t, before, tr.Fingerprint())
	assert.Equal(t, pos, positions(tr))
	mustCheck(t, tr, "after no-op splices")

	empty := setup(t, 2)
	assert.False(t, empty.Splice(at(0, 0), at(1, 0), Pos{}))
}

func TestSpliceDeleteColumns(t *testing.T) {
	t.Parallel()

	tr := setup(t, 10)
	tr.Put(point(1, at(0, 0), 0))
	tr.Put(point(2, at(0, 5), 0))
	tr.Put(point(3, at(1, 0), 0))

	// delete three columns on line 0
	assert.True(t, tr.Splice(at(0, 2), at(0, 3), at(0, 0)))
	assert.Equal(t, at(0, 0), posOf(t, tr, startID(1)))
	assert.Equal(t, at(0, 2), posOf(t, tr, startID(2)))
	assert.Equal(t, at(1, 0), posOf(t, tr, startID(3)))
	mustCheck(t, tr, "after splice")
}

func TestSpliceCases(t *testing.T) {
	t.Parallel()

	type mark struct {
		pos   Pos
		right bool
		want  Pos
	}
	tests := []struct {
		name                        string
		start, oldExtent, newExtent Pos
		marks                       []mark
	}{
		{
			name:  "insert columns",
			start: at(0, 3), newExtent: at(0, 2),
			marks: []mark{
				{at(0, 1), false, at(0, 1)},
				{at(0, 3), false, at(0, 3)},
				{at(0, 3), true, at(0, 5)},
				{at(0, 5), false, at(0, 7)},
				{at(1, 4), false, at(1, 4)},
			},
		},
		{
			name:  "insert newline",
			start: at(0, 3), newExtent: at(1, 0),
			marks: []mark{
				{at(0, 3), false, at(0, 3)},
				{at(0, 3), true, at(1, 0)},
				{at(0, 5), false, at(1, 2)},
				{at(2, 1), false, at(3, 1)},
			},
		},
		{
			name:  "delete across lines",
			start: at(1, 2), oldExtent: at(1, 3), newExtent: at(0, 1),
			marks: []mark{
				{at(1, 0), true, at(1, 0)},
				{at(1, 4), false, at(1, 2)},
				{at(2, 2), true, at(1, 3)},
				{at(2, 8), false, at(1, 8)},
				{at(3, 0), false, at(2, 0)},
			},
		},
		{
			name:  "replace with gravity swaps",
			start: at(0, 2), oldExtent: at(0, 6), newExtent: at(0, 3),
			marks: []mark{
				{at(0, 2), true, at(0, 5)},
				{at(0, 3), true, at(0, 5)},
				{at(0, 4), false, at(0, 2)},
				{at(0, 5), true, at(0, 5)},
				{at(0, 6), false, at(0, 2)},
				{at(0, 8), false, at(0, 2)},
				{at(0, 8), true, at(0, 5)},
				{at(0, 9), false, at(0, 6)},
			},
		},
		{
			name:  "join lines",
			start: at(0, 4), oldExtent: at(1, 0),
			marks: []mark{
				{at(0, 4), false, at(0, 4)},
				{at(1, 0), true, at(0, 4)},
				{at(1, 3), false, at(0, 7)},
				{at(2, 3), false, at(1, 3)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			for _, branch := range []int{2, 10} {
				tr := setup(t, branch)
				for i, m := range tt.marks {
					var f Flags
					if m.right {
						f = FlagRightGravity
					}
					tr.Put(point(uint32(i+1), m.pos, f))
				}
				tr.Splice(tt.start, tt.oldExtent, tt.newExtent)
				mustCheck(t, tr, "branch %d", branch)
				for i, m := range tt.marks {
					assert.Equal(t, m.want, posOf(t, tr, startID(uint32(i+1))), "branch %d mark %d", branch, i+1)
					assert.Equal(t, m.want, splicePos(m.pos, m.right, tt.start, tt.oldExtent, tt.newExtent),
						"model, mark %d", i+1)
				}
			}
		})
	}
}

func TestSpliceLargeTree(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(23))
	for _, branch := range []int{2, 3, 6} {
		tr := setup(t, branch)
		type mark struct {
			pos   Pos
			right bool
		}
		model := make(map[uint32]mark)
		for id := uint32(1); id <= 600; id++ {
			m := mark{pos: randPos(rng, 40, 30), right: rng.Intn(2) == 0}
			var f Flags
			if m.right {
				f = FlagRightGravity
			}
			tr.Put(point(id, m.pos, f))
			model[id] = m
		}

		for step := range 100 {
			start := randPos(rng, 40, 30)
			oldExtent := at(rng.Intn(3), rng.Intn(30))
			newExtent := at(rng.Intn(3), rng.Intn(30))
			if rng.Intn(2) == 0 {
				oldExtent.Row, newExtent.Row = 0, 0
			}
			tr.Splice(start, oldExtent, newExtent)
			for id, m := range model {
				m.pos = splicePos(m.pos, m.right, start, oldExtent, newExtent)
				model[id] = m
			}
			mustCheck(t, tr, "branch %d step %d", branch, step)
		}

		for id, m := range model {
			require.Equal(t, m.pos, posOf(t, tr, startID(id)), "branch %d mark %d", branch, id)
		}
	}
}
