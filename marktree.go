// Package marktree implements a B-tree of marks attached to (row, col)
// positions of a text buffer. Marks keep their place under text edits through
// Splice, ranges made of a START and END mark can be queried by point with
// GetOverlap, and per-subtree decoration counters let filtered walks skip
// whole subtrees.
//
// Positions are stored relative to ancestor keys, so an edit only touches the
// keys on the path to the edit point instead of every mark after it.
//
// A MarkTree is not safe for concurrent use.
package marktree

import (
	"fmt"
	"math/bits"

	"github.com/alexhholmes/marktree/internal/algo"
	"github.com/alexhholmes/marktree/internal/arena"
	"github.com/alexhholmes/marktree/internal/base"
	"github.com/alexhholmes/marktree/internal/cache"
)

type (
	Pos        = base.Pos
	Key        = base.Key
	Flags      = base.Flags
	Meta       = base.Meta
	MetaKind   = base.MetaKind
	MetaFilter = base.MetaFilter
	Arena      = arena.Arena
)

const (
	FlagRightGravity      = base.FlagRightGravity
	FlagEnd               = base.FlagEnd
	FlagPaired            = base.FlagPaired
	FlagOrphaned          = base.FlagOrphaned
	FlagReal              = base.FlagReal
	FlagLast              = base.FlagLast
	FlagDecorInline       = base.FlagDecorInline
	FlagDecorLines        = base.FlagDecorLines
	FlagDecorSignHL       = base.FlagDecorSignHL
	FlagDecorSignText     = base.FlagDecorSignText
	FlagDecorConcealLines = base.FlagDecorConcealLines

	MetaInline       = base.MetaInline
	MetaLines        = base.MetaLines
	MetaSignHL       = base.MetaSignHL
	MetaSignText     = base.MetaSignText
	MetaConcealLines = base.MetaConcealLines

	// MaxNS is the largest namespace accepted by Put and PutPair.
	MaxNS = base.MaxNS
)

const (
	// maxHeight bounds the number of levels for any supported branch factor:
	// pseudo indices pack bits.Len(2*MinBranchFactor) = 3 bits per level into
	// a uint64.
	maxHeight = 64 / 3
)

// NewArena creates a node arena that can be shared through WithArena.
//
//goland:noinspection GoUnusedExportedFunction
func NewArena(size int) *Arena {
	return arena.New(size)
}

// LookupID packs a namespace, mark id and side into the id used by Lookup.
func LookupID(ns, id uint32, end bool) uint64 {
	return base.LookupID(ns, id, end)
}

// FilterOf returns a filter selecting the given decoration kinds.
func FilterOf(kinds ...MetaKind) MetaFilter {
	return base.FilterOf(kinds...)
}

// MarkTree is the mark B-tree.
type MarkTree struct {
	root   base.NodeID
	nKeys  int
	nNodes int
	nodes  *arena.Arena
	idx    map[uint64]base.NodeID // lookup id -> node holding the key
	meta   base.Meta              // counters for the whole tree
	epoch  uint64                 // bumped on every mutation
	cache  *cache.Lookup
	logger Logger

	t         int  // branch factor
	logBranch uint // bits per level in a pseudo index
	maxLevels int
}

// NewTree creates an empty tree, validating opts.
func NewTree(opts ...Option) (*MarkTree, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.branchFactor < MinBranchFactor || o.branchFactor > MaxBranchFactor {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBranchFactor, o.branchFactor)
	}
	if o.lookupCacheSize < 0 || o.lookupCacheSize > MaxLookupCacheSize {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCacheSize, o.lookupCacheSize)
	}

	t := &MarkTree{
		idx:    make(map[uint64]base.NodeID),
		nodes:  o.arena,
		logger: o.logger,
		t:      o.branchFactor,
	}
	if t.nodes == nil {
		t.nodes = arena.New(16)
	}
	// child and internal key slots range over 1..2T
	t.logBranch = uint(bits.Len(uint(2 * t.t)))
	t.maxLevels = min(64/int(t.logBranch), maxHeight)

	if o.lookupCacheSize > 0 {
		c, err := cache.NewLookup(uint32(o.lookupCacheSize))
		if err != nil {
			return nil, fmt.Errorf("lookup cache: %w", err)
		}
		t.cache = c
	}
	return t, nil
}

// New is like NewTree but panics on invalid options.
func New(opts ...Option) *MarkTree {
	t, err := NewTree(opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// KeyCount returns the number of keys in the tree.
func (t *MarkTree) KeyCount() int {
	return t.nKeys
}

// NodeCount returns the number of nodes in the tree.
func (t *MarkTree) NodeCount() int {
	return t.nNodes
}

// Height returns the number of levels, 0 for an empty tree.
func (t *MarkTree) Height() int {
	if r := t.rootNode(); r != nil {
		return r.Level + 1
	}
	return 0
}

// MetaRoot returns the decoration counters of the whole tree.
func (t *MarkTree) MetaRoot() Meta {
	return t.meta
}

// Stats describes a tree, its node arena and its lookup cache.
type Stats struct {
	Keys   int
	Nodes  int
	Height int

	// ArenaNodes and ArenaSlots count live nodes and allocated slots of the
	// arena, which may be shared with other trees.
	ArenaNodes int
	ArenaSlots int

	// Lookup cache counters, zero without WithLookupCache.
	CacheHits    uint64
	CacheMisses  uint64
	CacheEntries int
}

// Stats returns counters describing the tree.
func (t *MarkTree) Stats() Stats {
	s := Stats{
		Keys:       t.nKeys,
		Nodes:      t.nNodes,
		Height:     t.Height(),
		ArenaNodes: t.nodes.Len(),
		ArenaSlots: t.nodes.Cap(),
	}
	if t.cache != nil {
		cs := t.cache.Stats()
		s.CacheHits, s.CacheMisses, s.CacheEntries = cs.Hits, cs.Misses, cs.Entries
	}
	return s
}

// BranchFactor returns T.
func (t *MarkTree) BranchFactor() int {
	return t.t
}

// Clear removes every key and frees every node.
func (t *MarkTree) Clear() {
	if r := t.rootNode(); r != nil {
		t.logger.Info("mark tree cleared", "keys", t.nKeys, "nodes", t.nNodes)
		t.walkNodes(r, t.freeNode)
	}
	t.root = base.NoNode
	t.nKeys = 0
	t.meta = base.Meta{}
	clear(t.idx)
	t.touch()
	if t.cache != nil {
		t.cache.Purge()
	}
}

// touch invalidates cached lookups.
func (t *MarkTree) touch() {
	t.epoch++
}

func (t *MarkTree) allocNode(level int) *base.Node {
	t.nNodes++
	return t.nodes.Alloc(level)
}

func (t *MarkTree) freeNode(n *base.Node) {
	t.nNodes--
	t.nodes.Free(n)
}

func (t *MarkTree) node(id base.NodeID) *base.Node {
	return t.nodes.Get(id)
}

func (t *MarkTree) rootNode() *base.Node {
	if t.root == base.NoNode {
		return nil
	}
	return t.nodes.Get(t.root)
}

func (t *MarkTree) child(x *base.Node, i int) *base.Node {
	return t.nodes.Get(x.Ptr[i])
}

// refKey points the id index at the node now holding x.Keys[i].
func (t *MarkTree) refKey(x *base.Node, i int) {
	t.idx[x.Keys[i].LookupID()] = x.ID
}

// reparent fixes the back references of x's children from index from on.
func (t *MarkTree) reparent(x *base.Node, from int) {
	for j := from; j < len(x.Ptr); j++ {
		c := t.nodes.Get(x.Ptr[j])
		c.Parent = x.ID
		c.PIdx = j
	}
}

// find returns the node and slot holding the key with lookup id, or nil.
func (t *MarkTree) find(id uint64) (*base.Node, int) {
	nid, ok := t.idx[id]
	if !ok {
		return nil, -1
	}
	x := t.nodes.Get(nid)
	i := x.FindID(id)
	invariant(i >= 0, "id %s indexed to node %#x but not stored there", idString(id), uint64(nid))
	return x, i
}

// walkNodes visits the subtree of x in post order.
func (t *MarkTree) walkNodes(x *base.Node, fn func(*base.Node)) {
	if x.Level > 0 {
		for _, c := range x.Ptr {
			t.walkNodes(t.nodes.Get(c), fn)
		}
	}
	fn(x)
}

// upperBound returns the number of keys of x not greater than k. k must be
// expressed against x's base.
func upperBound(x *base.Node, k Key) int {
	return algo.UpperBound(x.Keys, k)
}
