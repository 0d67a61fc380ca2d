package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"telegram-storefront-bot/internal/domain"
	"telegram-storefront-bot/internal/domain/ports/repository"
)

const (
	broadcastLockKey = "lock:job:broadcast"
	exportLockKey    = "lock:job:export"
	jobLockTTL       = 10 * time.Minute
)

// runExclusive runs fn while holding key. It returns domain.ErrLocked when
// another job holds the key. A nil locker, or a locker that is unreachable,
// runs fn without the guard.
func runExclusive(ctx context.Context, locker repository.JobLocker, key string, log *zerolog.Logger, fn func() error) error {
	if locker == nil {
		return fn()
	}
	token, err := locker.TryLock(ctx, key, jobLockTTL)
	switch {
	case errors.Is(err, domain.ErrLocked):
		return err
	case err != nil:
		log.Warn().Err(err).Str("key", key).Msg("job lock unavailable, running unguarded")
		return fn()
	}
	defer func() {
		if err := locker.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
			log.Debug().Err(err).Str("key", key).Msg("job unlock failed")
		}
	}()
	return fn()
}
