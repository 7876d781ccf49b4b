package base

import "github.com/alexhholmes/marktree/internal/idset"

// NodeID addresses a node in an arena. The low 32 bits hold the slot, the
// high 32 bits the slot generation. The zero value never names a node.
type NodeID uint64

// NoNode is the null NodeID.
const NoNode NodeID = 0

func MakeNodeID(slot, gen uint32) NodeID {
	return NodeID(uint64(gen)<<32 | uint64(slot))
}

func (id NodeID) Slot() uint32 { return uint32(id) }
func (id NodeID) Gen() uint32  { return uint32(id >> 32) }

// Node is a mark tree node. Keys are stored relative to the node's base.
// Branch nodes carry one child and one Meta per gap between keys.
type Node struct {
	ID     NodeID
	Level  int
	Keys   []Key
	Ptr    []NodeID
	Meta   []Meta
	Parent NodeID
	PIdx   int

	// Intersect holds pairs covering every key of this subtree whose
	// parent is not covered as a whole.
	Intersect idset.Set
}

// Reset prepares a recycled node for reuse, keeping allocated capacity.
func (n *Node) Reset(id NodeID, level int) {
	n.ID = id
	n.Level = level
	clear(n.Keys)
	n.Keys = n.Keys[:0]
	n.Ptr = n.Ptr[:0]
	n.Meta = n.Meta[:0]
	n.Parent = NoNode
	n.PIdx = 0
	n.Intersect = n.Intersect[:0]
}

// Full reports whether the node holds the maximum of 2t-1 keys.
func (n *Node) Full(t int) bool {
	return len(n.Keys) >= 2*t-1
}

// FindID returns the slot of the key with the given lookup id, or -1.
func (n *Node) FindID(id uint64) int {
	for i := range n.Keys {
		if n.Keys[i].LookupID() == id {
			return i
		}
	}
	return -1
}
