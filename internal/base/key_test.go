package base

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupID(t *testing.T) {
	t.Parallel()

	id := LookupID(5, 42, false)
	end := LookupID(5, 42, true)
	assert.Equal(t, id|1, end)
	assert.Equal(t, end, PeerOf(id))
	assert.Equal(t, id, PeerOf(end))
	assert.Equal(t, id, PairOf(end))
	assert.Equal(t, id, PairOf(id))

	ns, mark, isEnd := SplitLookupID(end)
	assert.Equal(t, uint32(5), ns)
	assert.Equal(t, uint32(42), mark)
	assert.True(t, isEnd)

	// the whole 32 bit mark id survives
	ns, mark, isEnd = SplitLookupID(LookupID(MaxNS, 1<<32-1, false))
	assert.Equal(t, uint32(MaxNS), ns)
	assert.Equal(t, uint32(1<<32-1), mark)
	assert.False(t, isEnd)
}

func TestKeySides(t *testing.T) {
	t.Parallel()

	start := Key{NS: 1, ID: 2, Flags: FlagReal | FlagPaired}
	end := Key{NS: 1, ID: 2, Flags: FlagReal | FlagPaired | FlagEnd}
	point := Key{NS: 1, ID: 3, Flags: FlagReal}

	assert.True(t, start.Start())
	assert.False(t, end.Start())
	assert.False(t, point.Start())
	assert.Equal(t, end.LookupID(), start.PeerID())
	assert.Equal(t, start.LookupID(), end.PeerID())
	assert.Equal(t, start.LookupID(), end.PairID())
}

func TestCompare(t *testing.T) {
	t.Parallel()

	at := func(flags Flags) Key { return Key{Pos: Pos{1, 1}, Flags: flags} }
	tests := []struct {
		name string
		a, b Key
		want int
	}{
		{"position first", Key{Pos: Pos{0, 9}, Flags: FlagRightGravity | FlagReal}, at(FlagReal), -1},
		{"left gravity before right", at(FlagReal), at(FlagReal | FlagRightGravity), -1},
		{"start before end", at(FlagReal | FlagPaired), at(FlagReal | FlagPaired | FlagEnd), -1},
		{"decoration ignored", at(FlagReal | FlagDecorInline), at(FlagReal), 0},
		{"seek before real", SeekKey(Pos{1, 1}, false, false), at(FlagReal), -1},
		{"gravity seek after left", SeekKey(Pos{1, 1}, false, true), at(FlagReal | FlagEnd), 1},
		{"gravity seek before right", SeekKey(Pos{1, 1}, false, true), at(FlagReal | FlagRightGravity), -1},
		{"last seek after all", SeekKey(Pos{1, 1}, true, false), at(FlagReal | FlagRightGravity | FlagEnd), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Compare(tt.a, tt.b))
			assert.Equal(t, -tt.want, Compare(tt.b, tt.a))
		})
	}
}

func TestMeta(t *testing.T) {
	t.Parallel()

	k := Key{Flags: FlagReal | FlagPaired | FlagDecorInline | FlagDecorSignText}
	m := DescribeKey(k)
	assert.Equal(t, uint32(1), m[MetaInline])
	assert.Equal(t, uint32(1), m[MetaSignText])
	assert.Equal(t, uint32(0), m[MetaLines])

	// ends are never counted
	k.Flags |= FlagEnd
	assert.True(t, DescribeKey(k).IsZero())

	var sum Meta
	sum.Add(m)
	sum.Add(m)
	sum.Sub(m)
	assert.Equal(t, m, sum)

	assert.True(t, sum.Has(FilterOf(MetaLines, MetaInline)))
	assert.False(t, sum.Has(FilterOf(MetaLines, MetaConcealLines)))
	assert.True(t, FilterOf(MetaSignText).Matches(Key{Flags: FlagDecorSignText}))
	assert.False(t, FilterOf(MetaSignText).Matches(Key{Flags: FlagDecorSignText | FlagEnd}))
}
