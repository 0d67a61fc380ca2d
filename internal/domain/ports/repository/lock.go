package repository

import (
	"context"
	"time"
)

// JobLocker guards admin jobs that must not overlap. TryLock returns
// domain.ErrLocked when the key is already held.
type JobLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}
