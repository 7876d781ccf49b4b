package base

// Flags describe a key. The low bits classify the key, the decoration bits
// are only counted by meta counters and the top bits take part in ordering.
type Flags uint16

const (
	FlagReal     Flags = 1 << 0
	FlagEnd      Flags = 1 << 1
	FlagPaired   Flags = 1 << 2
	FlagOrphaned Flags = 1 << 3

	FlagDecorInline       Flags = 1 << 4
	FlagDecorLines        Flags = 1 << 5
	FlagDecorSignHL       Flags = 1 << 6
	FlagDecorSignText     Flags = 1 << 7
	FlagDecorConcealLines Flags = 1 << 8

	FlagRightGravity Flags = 1 << 14
	FlagLast         Flags = 1 << 15

	// FlagsDecor is the set of decoration bits a caller may set.
	FlagsDecor = FlagDecorInline | FlagDecorLines | FlagDecorSignHL |
		FlagDecorSignText | FlagDecorConcealLines

	// FlagsExternal is the set of bits accepted from callers on Put.
	FlagsExternal = FlagsDecor | FlagRightGravity

	// cmpMask orders keys sharing a position: left gravity before right
	// gravity, starts before ends, seek keys (no FlagReal) before real keys.
	cmpMask = FlagRightGravity | FlagEnd | FlagReal | FlagLast
)

// Key is a single mark. Pos is relative to the base of the node holding it
// while stored in the tree and absolute when handed out.
type Key struct {
	Pos   Pos
	NS    uint32
	ID    uint32
	Flags Flags
	Decor any
}

// MaxNS is the largest namespace a lookup id can hold.
const MaxNS = 1<<31 - 1

// LookupID packs a namespace, mark id and side into one id. ns must not
// exceed MaxNS.
func LookupID(ns, id uint32, end bool) uint64 {
	v := uint64(ns)<<33 | uint64(id)<<1
	if end {
		v |= 1
	}
	return v
}

// SplitLookupID is the inverse of LookupID.
func SplitLookupID(v uint64) (ns, id uint32, end bool) {
	return uint32(v >> 33), uint32(v>>1) & (1<<32 - 1), v&1 == 1
}

// PeerOf returns the lookup id of the other half of a pair.
func PeerOf(v uint64) uint64 {
	return v ^ 1
}

// PairOf returns the START side id, which names the pair in intersect sets.
func PairOf(v uint64) uint64 {
	return v &^ 1
}

func (k Key) Real() bool         { return k.Flags&FlagReal != 0 }
func (k Key) End() bool          { return k.Flags&FlagEnd != 0 }
func (k Key) Paired() bool       { return k.Flags&FlagPaired != 0 }
func (k Key) Start() bool        { return k.Flags&(FlagPaired|FlagEnd) == FlagPaired }
func (k Key) Orphaned() bool     { return k.Flags&FlagOrphaned != 0 }
func (k Key) RightGravity() bool { return k.Flags&FlagRightGravity != 0 }

// LookupID is the id of this side of the key.
func (k Key) LookupID() uint64 {
	return LookupID(k.NS, k.ID, k.End())
}

// PairID names the pair the key belongs to.
func (k Key) PairID() uint64 {
	return LookupID(k.NS, k.ID, false)
}

// PeerID is the id of the other half of a paired key.
func (k Key) PeerID() uint64 {
	return LookupID(k.NS, k.ID, !k.End())
}

// Compare orders two keys that are expressed against the same base.
func Compare(a, b Key) int {
	if c := a.Pos.Compare(b.Pos); c != 0 {
		return c
	}
	fa, fb := a.Flags&cmpMask, b.Flags&cmpMask
	switch {
	case fa < fb:
		return -1
	case fa > fb:
		return 1
	}
	return 0
}

// SeekKey builds the probe used to position an iterator. A plain seek sorts
// before every real key at pos; gravity sorts after left gravity keys; last
// sorts after every key at pos.
func SeekKey(pos Pos, last, gravity bool) Key {
	k := Key{Pos: pos}
	switch {
	case gravity:
		k.Flags = FlagRightGravity
	case last:
		k.Flags = FlagLast
	}
	return k
}
