package cache

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/elastic/go-freelru"

	"github.com/alexhholmes/marktree/internal/base"
)

// MinLookupSize is the smallest capacity accepted by NewLookup.
const MinLookupSize = 16

// entry remembers the absolute key resolved for an id at a tree epoch.
type entry struct {
	key   base.Key
	epoch uint64
}

// Lookup caches id -> absolute key resolutions. Every mutation of the tree
// bumps its epoch, so entries from an older epoch are treated as misses.
type Lookup struct {
	lru    *freelru.LRU[uint64, entry]
	hits   uint64
	misses uint64
}

func hashID(id uint64) uint32 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], id)
	return uint32(xxhash.Sum64(b[:]))
}

// NewLookup creates a cache holding up to size entries.
func NewLookup(size uint32) (*Lookup, error) {
	size = max(size, MinLookupSize)
	lru, err := freelru.New[uint64, entry](size, hashID)
	if err != nil {
		return nil, err
	}
	return &Lookup{lru: lru}, nil
}

// Get returns the cached key for id if it was stored at epoch.
func (c *Lookup) Get(id, epoch uint64) (base.Key, bool) {
	e, ok := c.lru.Get(id)
	if !ok {
		c.misses++
		return base.Key{}, false
	}
	if e.epoch != epoch {
		c.lru.Remove(id)
		c.misses++
		return base.Key{}, false
	}
	c.hits++
	return e.key, true
}

// Put stores the resolution of id at epoch.
func (c *Lookup) Put(id, epoch uint64, k base.Key) {
	c.lru.Add(id, entry{key: k, epoch: epoch})
}

// Purge drops every entry.
func (c *Lookup) Purge() {
	c.lru.Purge()
}

// Len returns the number of cached entries, stale ones included.
func (c *Lookup) Len() int {
	return c.lru.Len()
}

// Stats holds cache statistics.
type Stats struct {
	Hits    uint64
	Misses  uint64
	Entries int
}

// Stats returns hit and miss counts since creation.
func (c *Lookup) Stats() Stats {
	return Stats{Hits: c.hits, Misses: c.misses, Entries: c.Len()}
}
