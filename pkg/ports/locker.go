package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock taken by a DistributedLocker.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes edits of one session across studio replicas.
type DistributedLocker interface {
	// Lock blocks until key (a session ID) is held or ctx is done.
	// The lock expires after ttl if its holder dies; the returned
	// UnlockFunc must be called to release it earlier.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
