package redis

import (
	"context"
	"fmt"
	"time"

	"telegram-storefront-bot/internal/domain/model"
	"telegram-storefront-bot/internal/domain/ports/adapter"
	"telegram-storefront-bot/internal/infra/metrics"
)

var _ adapter.Geocoder = (*GeocodeCache)(nil)

// GeocodeCache keeps resolved addresses only. Degraded answers are retried on
// the next export.
type GeocodeCache struct {
	inner adapter.Geocoder
	cache RedisClient
	ttl   time.Duration
}

func NewGeocodeCache(inner adapter.Geocoder, cache RedisClient, ttl time.Duration) *GeocodeCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &GeocodeCache{inner: inner, cache: cache, ttl: ttl}
}

func geoKey(lat, lon float64) string {
	return fmt.Sprintf("geo:%.6f:%.6f", lat, lon)
}

func (g *GeocodeCache) Reverse(ctx context.Context, lat, lon *float64) model.GeocodeResult {
	if lat == nil || lon == nil {
		return g.inner.Reverse(ctx, lat, lon)
	}
	key := geoKey(*lat, *lon)
	if addr, err := g.cache.Get(ctx, key); err == nil && addr != "" {
		metrics.IncCacheRequest("geocode", "hit")
		return model.GeocodeResult{Address: addr, Status: model.GeocodeResolved}
	}
	metrics.IncCacheRequest("geocode", "miss")

	res := g.inner.Reverse(ctx, lat, lon)
	if res.Status == model.GeocodeResolved {
		_ = g.cache.Set(ctx, key, res.Address, g.ttl)
	}
	return res
}
