package lock

import (
	"context"
	"sync"
)

// localFamilyLock serializes per family inside one process. Mutexes are kept
// per family id; the set of families is small (one per logical workflow), so
// entries are not reclaimed.
type localFamilyLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLocalFamilyLock creates an in-process family lock.
func NewLocalFamilyLock() FamilyLock {
	return &localFamilyLock{
		locks: make(map[string]*sync.Mutex),
	}
}

// Synchronized runs fn while holding the family's mutex.
func (l *localFamilyLock) Synchronized(ctx context.Context, familyID string, fn func(ctx context.Context) error) error {
	m := l.lockFor(familyID)
	m.Lock()
	defer m.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}

func (l *localFamilyLock) lockFor(familyID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.locks[familyID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[familyID] = m
	}
	return m
}
