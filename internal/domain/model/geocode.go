package model

// GeocodeStatus tells how an address string was obtained.
type GeocodeStatus string

const (
	GeocodeResolved GeocodeStatus = "resolved"
	GeocodeDegraded GeocodeStatus = "degraded"
	GeocodeNoData   GeocodeStatus = "no_data"
)

type GeocodeResult struct {
	Address string
	Status  GeocodeStatus
}
