package marktree

import "github.com/alexhholmes/marktree/internal/arena"

const (
	// DefaultBranchFactor is T: nodes hold between T-1 and 2T-1 keys.
	DefaultBranchFactor = 10
	MinBranchFactor     = 2
	MaxBranchFactor     = 64

	// MaxLookupCacheSize bounds the optional lookup cache.
	MaxLookupCacheSize = 1 << 24
)

// Options configures a MarkTree.
type Options struct {
	branchFactor    int
	logger          Logger
	lookupCacheSize int // 0 disables the lookup cache
	arena           *arena.Arena
}

// DefaultOptions returns the configuration used by New without options.
//
//goland:noinspection GoUnusedExportedFunction
func DefaultOptions() Options {
	return Options{
		branchFactor: DefaultBranchFactor,
		logger:       DiscardLogger{},
	}
}

// Option configures tree options using the functional options pattern.
type Option func(*Options)

// WithBranchFactor sets T. Small values produce deep trees and are mostly
// useful to exercise rebalancing in tests.
//
//goland:noinspection GoUnusedExportedFunction
func WithBranchFactor(t int) Option {
	return func(opts *Options) {
		opts.branchFactor = t
	}
}

// WithLogger sets the logger used for diagnostics.
//
//goland:noinspection GoUnusedExportedFunction
func WithLogger(l Logger) Option {
	return func(opts *Options) {
		if l == nil {
			l = DiscardLogger{}
		}
		opts.logger = l
	}
}

// WithLookupCache enables an LRU cache of size entries in front of Lookup
// calls made without an iterator. Entries are dropped on any mutation.
//
//goland:noinspection GoUnusedExportedFunction
func WithLookupCache(size int) Option {
	return func(opts *Options) {
		opts.lookupCacheSize = size
	}
}

// WithArena makes the tree allocate its nodes from a.
//
//goland:noinspection GoUnusedExportedFunction
func WithArena(a *Arena) Option {
	return func(opts *Options) {
		opts.arena = a
	}
}
