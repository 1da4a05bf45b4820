package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/tonnetz/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// ErrLockAcquire is returned when the lock cannot be acquired.
var ErrLockAcquire = errors.New("failed to acquire distributed lock")

// releaseScript deletes the lock only if we still own it.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

// Locker implements ports.DistributedLocker using Redis SET NX PX.
type Locker struct {
	client *backend.Client
	prefix string
	poll   time.Duration
}

// NewLocker creates a new Redis locker.
func NewLocker(client *backend.Client, prefix string) *Locker {
	return &Locker{
		client: client,
		prefix: prefix,
		poll:   20 * time.Millisecond,
	}
}

// Lock polls until the key is acquired or ctx is done.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	lockKey := l.prefix + "lock:" + key
	token := fmt.Sprintf("%d", time.Now().UnixNano())

	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, lockKey, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLockAcquire, err)
		}
		if ok {
			return func(ctx context.Context) error {
				return l.client.Eval(ctx, releaseScript, []string{lockKey}, token).Err()
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
