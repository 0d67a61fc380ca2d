package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"telegram-storefront-bot/internal/domain/model"
	"telegram-storefront-bot/internal/domain/ports/repository"
	"telegram-storefront-bot/internal/infra/metrics"
)

var _ repository.UserRepository = (*userRepoCacheDecorator)(nil)

// userRepoCacheDecorator caches positive IsRegistered answers. Registration is
// monotonic, so a cached "yes" can never go stale and needs no invalidation.
type userRepoCacheDecorator struct {
	inner repository.UserRepository
	cache RedisClient
	ttl   time.Duration
	log   *zerolog.Logger
}

func NewUserRepoCacheDecorator(inner repository.UserRepository, cache RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.UserRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	l := logger.With().Str("component", "registered_cache").Logger()
	return &userRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   ttl,
		log:   &l,
	}
}

func registeredKey(userID int64) string {
	return fmt.Sprintf("user:registered:%d", userID)
}

func (d *userRepoCacheDecorator) Upsert(ctx context.Context, userID int64, p model.UserPatch) error {
	if err := d.inner.Upsert(ctx, userID, p); err != nil {
		return err
	}
	if p.Registered != nil && *p.Registered {
		if err := d.cache.Set(ctx, registeredKey(userID), "1", d.ttl); err != nil {
			d.log.Warn().Err(err).Int64("tg_id", userID).Msg("failed to warm registered cache")
		}
	}
	return nil
}

func (d *userRepoCacheDecorator) IsRegistered(ctx context.Context, userID int64) (bool, error) {
	key := registeredKey(userID)
	val, err := d.cache.Get(ctx, key)
	switch {
	case err == nil && val == "1":
		metrics.IncCacheRequest("registered", "hit")
		return true, nil
	case err != nil && !errors.Is(err, redis.Nil):
		d.log.Warn().Err(err).Int64("tg_id", userID).Msg("registered cache read failed")
	}

	metrics.IncCacheRequest("registered", "miss")
	ok, err := d.inner.IsRegistered(ctx, userID)
	if err != nil {
		return false, err
	}
	if ok {
		_ = d.cache.Set(ctx, key, "1", d.ttl)
	}
	return ok, nil
}

// Pass-through methods that don't need caching
func (d *userRepoCacheDecorator) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	return d.inner.FindByID(ctx, userID)
}

func (d *userRepoCacheDecorator) ListRegisteredIDs(ctx context.Context) ([]int64, error) {
	return d.inner.ListRegisteredIDs(ctx)
}

func (d *userRepoCacheDecorator) CountRegistered(ctx context.Context) (int, error) {
	return d.inner.CountRegistered(ctx)
}

func (d *userRepoCacheDecorator) ListForExport(ctx context.Context, onlyRegistered bool) ([]*model.User, error) {
	metrics.IncCacheRequest("user_list", "bypass")
	return d.inner.ListForExport(ctx, onlyRegistered)
}

func (d *userRepoCacheDecorator) Ping(ctx context.Context) error {
	if err := d.cache.Ping(ctx); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	return d.inner.Ping(ctx)
}
