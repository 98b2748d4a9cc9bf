package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const familyLockKeyPrefix = "approval-engine:family-lock:"

// releaseScript deletes the key only when it still carries our lock value, so
// an expired lock taken over by another holder is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`)

// redisFamilyLock extends the per-family boundary across replicas. Acquisition
// is SetNX with a TTL, retried until the context expires; the TTL bounds how
// long a crashed holder can block the family.
type redisFamilyLock struct {
	client        redis.Cmdable
	lockTTL       time.Duration
	retryInterval time.Duration
}

// NewRedisFamilyLock creates a redis-backed family lock.
func NewRedisFamilyLock(client redis.Cmdable, lockTTL, retryInterval time.Duration) FamilyLock {
	if lockTTL <= 0 {
		lockTTL = 10 * time.Second
	}
	if retryInterval <= 0 {
		retryInterval = 50 * time.Millisecond
	}
	return &redisFamilyLock{
		client:        client,
		lockTTL:       lockTTL,
		retryInterval: retryInterval,
	}
}

// Synchronized acquires the distributed lock for familyID, runs fn, and
// releases the lock. Release runs on a fresh context so a cancelled caller
// still frees the family.
func (l *redisFamilyLock) Synchronized(ctx context.Context, familyID string, fn func(ctx context.Context) error) error {
	key := familyLockKeyPrefix + familyID
	value := uuid.NewString()

	if err := l.acquire(ctx, key, value); err != nil {
		return err
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client, []string{key}, value).Err()
	}()

	return fn(ctx)
}

func (l *redisFamilyLock) acquire(ctx context.Context, key, value string) error {
	ticker := time.NewTicker(l.retryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, value, l.lockTTL).Result()
		if err != nil {
			return fmt.Errorf("acquire family lock: %w", err)
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s", ErrLockFailed, key)
		case <-ticker.C:
		}
	}
}
