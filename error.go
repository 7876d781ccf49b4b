package marktree

import (
	"errors"
	"fmt"

	"github.com/alexhholmes/marktree/internal/base"
)

//goland:noinspection GoUnusedGlobalVariable
var (
	ErrInvalidBranchFactor = errors.New("branch factor out of range")
	ErrInvalidCacheSize    = errors.New("lookup cache size out of range")

	ErrCorrupted  = base.ErrCorrupted
	ErrStaleNode  = base.ErrStaleNode
	ErrTooDeep    = base.ErrTooDeep
	ErrKeyMissing = base.ErrKeyMissing
)

// invariant panics with ErrCorrupted when cond does not hold. Broken
// invariants are programming errors and are never returned to callers.
func invariant(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Errorf("%w: %s", ErrCorrupted, fmt.Sprintf(format, args...)))
	}
}
