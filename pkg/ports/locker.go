package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock obtained from a DistributedLocker.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serialises selection updates for one session across replicas.
type DistributedLocker interface {
	// Lock blocks until key is held, ctx is done, or the implementation gives up.
	// The lock expires on its own after ttl so a crashed holder cannot wedge a session.
	// The returned UnlockFunc MUST be called to release the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
