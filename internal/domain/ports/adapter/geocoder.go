package adapter

import (
	"context"

	"telegram-storefront-bot/internal/domain/model"
)

// Geocoder resolves coordinates to a human readable address. It never fails:
// lookup problems degrade to a raw "lat, lon" string.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lon *float64) model.GeocodeResult
}
