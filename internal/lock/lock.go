// Package lock provides the per-family mutual-exclusion boundary required by
// family-scoped state transitions (activate, archive, restore). The contract
// is serialization per family id, not a global lock: unrelated families never
// contend. The local implementation covers a single process; the redis one
// extends the same boundary across replicas.
package lock

import (
	"context"
	"errors"
)

// ErrLockFailed is returned when the mutual-exclusion boundary cannot be
// acquired before the context expires.
var ErrLockFailed = errors.New("family lock acquisition failed")

// FamilyLock serializes critical sections per family id.
type FamilyLock interface {
	// Synchronized runs fn while holding the lock for familyID. The lock is
	// released when fn returns; fn receives a context it must pass down.
	Synchronized(ctx context.Context, familyID string, fn func(ctx context.Context) error) error
}
