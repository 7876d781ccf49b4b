package base

import "errors"

var (
	ErrCorrupted  = errors.New("mark tree corrupted")
	ErrStaleNode  = errors.New("stale node reference")
	ErrTooDeep    = errors.New("mark tree exceeds maximum depth")
	ErrKeyMissing = errors.New("key missing from tree")
)
