package lockmgr

import (
	"errors"
	"fmt"
)

// Sentinel errors for lock operations, expressed in terms of this
// package's in-process reader/writer semantics.
var (
	// ErrLockNotHeld indicates an attempt to release a lock this caller does not hold.
	ErrLockNotHeld = errors.New("lock not held by this caller")

	// ErrInvalidPath indicates an invalid file path was provided to GetLock.
	ErrInvalidPath = errors.New("invalid file path")
)

// ContendedLockError is an optional diagnostic a caller can construct
// when a TryLock-style acquisition (not currently exposed by Handle,
// which blocks) would have failed; kept here so future non-blocking
// acquisition can reuse the same error shape as Handle's panics.
type ContendedLockError struct {
	Path string
}

func (e *ContendedLockError) Error() string {
	return fmt.Sprintf("lock for %s is currently held", e.Path)
}
