package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"telegram-storefront-bot/internal/config"
	"telegram-storefront-bot/internal/domain/model"
	"telegram-storefront-bot/internal/domain/ports/adapter"
	"telegram-storefront-bot/internal/infra/metrics"
)

// NoData is returned for rows without coordinates.
const NoData = "нет данных"

var _ adapter.Geocoder = (*NominatimGeocoder)(nil)

// addressParts is the order used to assemble an address when the service
// returns no display_name.
var addressParts = []string{"road", "house_number", "city", "town", "village", "state", "country"}

// NominatimGeocoder calls the OpenStreetMap Nominatim /reverse endpoint.
type NominatimGeocoder struct {
	baseURL   string
	language  string
	userAgent string
	client    *http.Client
	log       *zerolog.Logger
}

func NewNominatimGeocoder(cfg config.GeocoderConfig, logger *zerolog.Logger) (*NominatimGeocoder, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid geocoder base url %q", cfg.BaseURL)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	l := logger.With().Str("component", "geocoder").Logger()
	return &NominatimGeocoder{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		language:  cfg.Language,
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: timeout},
		log:       &l,
	}, nil
}

type reverseResponse struct {
	DisplayName string            `json:"display_name"`
	Address     map[string]string `json:"address"`
}

// Reverse never returns an error. Missing coordinates give NoData without a
// request; any failure gives the raw "lat, lon" pair.
func (g *NominatimGeocoder) Reverse(ctx context.Context, lat, lon *float64) model.GeocodeResult {
	if lat == nil || lon == nil {
		metrics.IncGeocode(string(model.GeocodeNoData))
		return model.GeocodeResult{Address: NoData, Status: model.GeocodeNoData}
	}

	start := time.Now()
	addr, err := g.lookup(ctx, *lat, *lon)
	metrics.ObserveGeocodeLatency(time.Since(start))
	if err != nil {
		g.log.Debug().Err(err).Float64("lat", *lat).Float64("lon", *lon).Msg("reverse geocoding degraded")
		metrics.IncGeocode(string(model.GeocodeDegraded))
		return model.GeocodeResult{Address: RawCoordinates(*lat, *lon), Status: model.GeocodeDegraded}
	}
	metrics.IncGeocode(string(model.GeocodeResolved))
	return model.GeocodeResult{Address: addr, Status: model.GeocodeResolved}
}

func (g *NominatimGeocoder) lookup(ctx context.Context, lat, lon float64) (string, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", FormatCoord(lat))
	q.Set("lon", FormatCoord(lon))
	if g.language != "" {
		q.Set("accept-language", g.language)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("nominatim status %d", resp.StatusCode)
	}

	var out reverseResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return "", fmt.Errorf("decode nominatim response: %w", err)
	}
	if addr := parseAddress(out); addr != "" {
		return addr, nil
	}
	return "", errors.New("nominatim response has no address")
}

func parseAddress(r reverseResponse) string {
	if s := strings.TrimSpace(r.DisplayName); s != "" {
		return s
	}
	parts := make([]string, 0, len(addressParts))
	for _, k := range addressParts {
		if v := strings.TrimSpace(r.Address[k]); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}

// RawCoordinates is the degraded form of an address.
func RawCoordinates(lat, lon float64) string {
	return FormatCoord(lat) + ", " + FormatCoord(lon)
}

// FormatCoord prints the shortest exact decimal form of a coordinate.
func FormatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
