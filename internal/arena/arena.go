// Package arena owns the nodes of a mark tree. Nodes are addressed by
// generational ids so a reference to a freed node is detected instead of
// silently reading a recycled one.
package arena

import (
	"fmt"

	"github.com/alexhholmes/marktree/internal/base"
)

// Arena allocates and recycles nodes. The zero value is ready to use.
type Arena struct {
	slots []*base.Node
	gens  []uint32
	live  []bool
	freed []uint32 // slots available for reuse, popped from the end
	n     int
}

// New creates an empty arena with room for size nodes before growing.
func New(size int) *Arena {
	return &Arena{
		slots: make([]*base.Node, 0, size),
		gens:  make([]uint32, 0, size),
		live:  make([]bool, 0, size),
	}
}

// Alloc returns a fresh node at the given level.
func (a *Arena) Alloc(level int) *base.Node {
	var slot uint32
	if len(a.freed) > 0 {
		slot = a.freed[len(a.freed)-1]
		a.freed = a.freed[:len(a.freed)-1]
	} else {
		slot = uint32(len(a.slots))
		a.slots = append(a.slots, &base.Node{})
		a.gens = append(a.gens, 0)
		a.live = append(a.live, false)
	}
	a.gens[slot]++
	if a.gens[slot] == 0 {
		a.gens[slot] = 1
	}
	a.live[slot] = true
	a.n++

	n := a.slots[slot]
	n.Reset(base.MakeNodeID(slot, a.gens[slot]), level)
	return n
}

// Free releases a node. Its id becomes stale immediately.
func (a *Arena) Free(n *base.Node) {
	slot := a.check(n.ID)
	a.live[slot] = false
	a.freed = append(a.freed, slot)
	a.n--
	n.Reset(base.NoNode, 0)
}

// Get resolves an id. It panics on the null id and on stale ids.
func (a *Arena) Get(id base.NodeID) *base.Node {
	return a.slots[a.check(id)]
}

// Live reports whether id names an allocated node.
func (a *Arena) Live(id base.NodeID) bool {
	slot := id.Slot()
	return id != base.NoNode && int(slot) < len(a.slots) && a.live[slot] && a.gens[slot] == id.Gen()
}

// Len returns the number of allocated nodes.
func (a *Arena) Len() int {
	return a.n
}

// Cap returns the number of slots, allocated or free.
func (a *Arena) Cap() int {
	return len(a.slots)
}

func (a *Arena) check(id base.NodeID) uint32 {
	if !a.Live(id) {
		panic(fmt.Errorf("%w: %#x", base.ErrStaleNode, uint64(id)))
	}
	return id.Slot()
}
