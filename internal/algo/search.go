// Package algo contains search helpers over the sorted keys of a node.
package algo

import (
	"sort"

	"github.com/alexhholmes/marktree/internal/base"
)

const searchThreshold = 32

// UpperBound returns the number of keys not greater than k: the child to
// follow for k in a branch node, or the slot to insert k at. keys and k must
// be expressed against the same base.
func UpperBound(keys []base.Key, k base.Key) int {
	if len(keys) < searchThreshold {
		i := 0
		for i < len(keys) && base.Compare(k, keys[i]) >= 0 {
			i++
		}
		return i
	}

	return sort.Search(len(keys), func(i int) bool {
		return base.Compare(k, keys[i]) < 0
	})
}
