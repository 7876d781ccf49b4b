package arena

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexhholmes/marktree/internal/base"
)

func TestAllocFree(t *testing.T) {
	t.Parallel()

	a := New(4)
	n1 := a.Alloc(0)
	n2 := a.Alloc(2)
	assert.NotEqual(t, base.NoNode, n1.ID)
	assert.NotEqual(t, n1.ID, n2.ID)
	assert.Equal(t, 2, n2.Level)
	assert.Equal(t, 2, a.Len())
	assert.Same(t, n1, a.Get(n1.ID))

	old := n1.ID
	n1.Keys = append(n1.Keys, base.Key{ID: 9})
	a.Free(n1)
	assert.False(t, a.Live(old))
	assert.Equal(t, 1, a.Len())

	// the freed slot is reused under a new generation
	n3 := a.Alloc(1)
	assert.Equal(t, old.Slot(), n3.ID.Slot())
	assert.NotEqual(t, old.Gen(), n3.ID.Gen())
	assert.Empty(t, n3.Keys, "recycled node is reset")
	assert.Equal(t, 1, n3.Level)
	assert.Equal(t, 2, a.Cap())
}

func TestStaleAccessPanics(t *testing.T) {
	t.Parallel()

	a := New(1)
	n := a.Alloc(0)
	id := n.ID
	a.Free(n)

	for _, bad := range []base.NodeID{id, base.NoNode, base.MakeNodeID(7, 1)} {
		func() {
			defer func() {
				r := recover()
				require.NotNil(t, r, "id %#x", uint64(bad))
				err, ok := r.(error)
				require.True(t, ok)
				assert.True(t, errors.Is(err, base.ErrStaleNode))
			}()
			a.Get(bad)
		}()
	}
}
