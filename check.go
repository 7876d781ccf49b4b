package marktree

import (
	"fmt"
	"strings"

	"github.com/alexhholmes/marktree/internal/base"
	"github.com/alexhholmes/marktree/internal/idset"
)

// checker carries the state of one Check run.
type checker struct {
	t     *MarkTree
	keys  int
	nodes int
	prev  Key
	first bool
}

// Check verifies every structural invariant of the tree: node sizes and
// levels, parent links, the id index, key order, key and node counts,
// decoration counters, pair state and intersect sets. It returns an error wrapping ErrCorrupted that
// describes the first violation found.
func (t *MarkTree) Check() error {
	if err := t.check(); err != nil {
		t.logger.Error("mark tree check failed", "error", err, "keys", t.nKeys)
		return err
	}
	return nil
}

func (t *MarkTree) check() error {
	r := t.rootNode()
	if r == nil {
		if t.nKeys != 0 || t.nNodes != 0 || len(t.idx) != 0 {
			return corrupt("empty tree with %d keys, %d nodes and %d ids", t.nKeys, t.nNodes, len(t.idx))
		}
		if !t.meta.IsZero() {
			return corrupt("empty tree with counters %v", t.meta)
		}
		return nil
	}
	if r.Parent != base.NoNode {
		return corrupt("root %#x has a parent", uint64(r.ID))
	}
	if len(r.Keys) == 0 {
		return corrupt("empty root")
	}

	c := &checker{t: t, first: true}
	m, err := c.node(r, Pos{})
	if err != nil {
		return err
	}
	if m != t.meta {
		return corrupt("root counters %v, counted %v", t.meta, m)
	}
	if c.keys != t.nKeys {
		return corrupt("key count %d, counted %d", t.nKeys, c.keys)
	}
	if c.nodes != t.nNodes {
		return corrupt("node count %d, counted %d", t.nNodes, c.nodes)
	}
	if len(t.idx) != c.keys {
		return corrupt("id index holds %d ids for %d keys", len(t.idx), c.keys)
	}
	return t.checkIntersect()
}

// node checks the subtree of x whose base is pos and returns its counters.
func (c *checker) node(x *base.Node, pos Pos) (base.Meta, error) {
	t := c.t
	var m base.Meta
	c.nodes++

	n := len(x.Keys)
	if n > 2*t.t-1 {
		return m, corrupt("node %#x holds %d keys", uint64(x.ID), n)
	}
	if x.Parent != base.NoNode && n < t.t-1 {
		return m, corrupt("node %#x holds %d keys, below minimum %d", uint64(x.ID), n, t.t-1)
	}
	if x.Level > 0 && (len(x.Ptr) != n+1 || len(x.Meta) != n+1) {
		return m, corrupt("node %#x has %d keys, %d children and %d counters",
			uint64(x.ID), n, len(x.Ptr), len(x.Meta))
	}

	for i := 0; i <= n; i++ {
		if x.Level > 0 {
			ch := t.child(x, i)
			if ch.Parent != x.ID || ch.PIdx != i {
				return m, corrupt("child %d of %#x links back to %#x/%d",
					i, uint64(x.ID), uint64(ch.Parent), ch.PIdx)
			}
			if ch.Level != x.Level-1 {
				return m, corrupt("child %d of %#x at level %d under level %d",
					i, uint64(x.ID), ch.Level, x.Level)
			}
			cbase := pos
			if i > 0 {
				cbase = base.Unrelative(pos, x.Keys[i-1].Pos)
			}
			cm, err := c.node(ch, cbase)
			if err != nil {
				return m, err
			}
			if cm != x.Meta[i] {
				return m, corrupt("counters of child %d of %#x are %v, counted %v",
					i, uint64(x.ID), x.Meta[i], cm)
			}
			m.Add(cm)
		}
		if i == n {
			break
		}
		k := x.Keys[i]
		k.Pos = base.Unrelative(pos, k.Pos)
		if err := c.key(x, k); err != nil {
			return m, err
		}
		m.Add(base.DescribeKey(k))
	}
	return m, nil
}

// key checks one key, visited in order with its absolute position.
func (c *checker) key(x *base.Node, k Key) error {
	t := c.t
	c.keys++
	if !k.Real() {
		return corrupt("key %d/%d is not real", k.NS, k.ID)
	}
	if nid, ok := t.idx[k.LookupID()]; !ok || nid != x.ID {
		return corrupt("id index maps %s to %#x, stored in %#x",
			idString(k.LookupID()), uint64(nid), uint64(x.ID))
	}
	if !c.first {
		if k.Pos.Less(c.prev.Pos) {
			return corrupt("key %d/%d at %v after %v", k.NS, k.ID, k.Pos, c.prev.Pos)
		}
		if k.Pos == c.prev.Pos && c.prev.RightGravity() && !k.RightGravity() {
			return corrupt("left gravity key %d/%d after right gravity at %v", k.NS, k.ID, k.Pos)
		}
	}
	c.prev, c.first = k, false

	if k.Paired() {
		px, pi := t.find(k.PeerID())
		switch {
		case px == nil && !k.Orphaned():
			return corrupt("key %d/%d lost its peer without being orphaned", k.NS, k.ID)
		case px != nil && px.Keys[pi].Orphaned() != k.Orphaned():
			return corrupt("pair %d/%d is half orphaned", k.NS, k.ID)
		}
	}
	return nil
}

// checkIntersect recomputes every intersect set from the live pairs and
// compares the result to the stored sets, which are left untouched.
func (t *MarkTree) checkIntersect() error {
	saved := make(map[base.NodeID]idset.Set)
	t.walkNodes(t.rootNode(), func(n *base.Node) {
		saved[n.ID] = n.Intersect
		n.Intersect = nil
	})
	defer t.walkNodes(t.rootNode(), func(n *base.Node) {
		n.Intersect = saved[n.ID]
	})

	for id := range t.idx {
		if id&1 == 1 {
			continue
		}
		sx, si := t.find(id)
		if !t.pairLive(sx.Keys[si]) {
			continue
		}
		ex, ei := t.find(base.PeerOf(id))
		t.intersectPair(id, sx, si, ex, ei, false)
	}

	var err error
	t.walkNodes(t.rootNode(), func(n *base.Node) {
		if err == nil && !n.Intersect.Equal(saved[n.ID]) {
			err = corrupt("intersect set of %#x is %s, expected %s",
				uint64(n.ID), idsString(saved[n.ID]), idsString(n.Intersect))
		}
	})
	return err
}

func idsString(s idset.Set) string {
	out := make([]string, len(s))
	for i, id := range s {
		out[i] = idString(id)
	}
	return "[" + strings.Join(out, " ") + "]"
}

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorrupted, fmt.Sprintf(format, args...))
}
