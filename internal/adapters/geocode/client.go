// Package geocode wraps the forward-geocoding providers the store
// locator can use: Mapbox when a token is configured, else the Google
// Geocoding API. Results are best-effort and non-authoritative; a miss
// is ErrNoMatch, and callers decide what to fall back to.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"thefix/internal/adapters/observability"
	"thefix/internal/domain"
)

type Provider string

const (
	ProviderMapbox Provider = "mapbox"
	ProviderGoogle Provider = "google"
)

// proximity bias toward the Midtown reference point; keeps ambiguous
// queries like "Main St" near the metro area the stores serve.
const proximityBias = "-73.985664,40.748514"

// ErrNoMatch wraps domain.ErrNotFound so callers can branch on the
// domain sentinel without importing this package.
var ErrNoMatch = fmt.Errorf("geocode: no match: %w", domain.ErrNotFound)

type Client struct {
	provider Provider
	base     string
	token    string
	hc       *http.Client
	rl       *rate.Limiter
}

// New builds a client for the given provider. The base URL is
// configurable so tests can point at a local server.
func New(provider Provider, base, token string, rps int) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("geocode: %s token is required", provider)
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		provider: provider,
		base:     base,
		token:    token,
		hc:       &http.Client{Timeout: 10 * time.Second},
		rl:       rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// Geocode resolves a free-text query to a coordinate. One round trip,
// no retries: a failed lookup degrades to the directory fallback at the
// caller, so retry loops buy nothing here.
func (c *Client) Geocode(ctx context.Context, query string) (domain.Coordinate, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return domain.Coordinate{}, err
	}

	var u string
	switch c.provider {
	case ProviderMapbox:
		q := url.Values{}
		q.Set("access_token", c.token)
		q.Set("limit", "1")
		q.Set("proximity", proximityBias)
		u = fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s.json?%s", c.base, url.PathEscape(query), q.Encode())
	case ProviderGoogle:
		q := url.Values{}
		q.Set("address", query)
		q.Set("key", c.token)
		u = fmt.Sprintf("%s/maps/api/geocode/json?%s", c.base, q.Encode())
	default:
		return domain.Coordinate{}, fmt.Errorf("geocode: unknown provider %q", c.provider)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.Coordinate{}, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "thefix/1.0")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("geocode", string(c.provider), 0, time.Since(start))
		return domain.Coordinate{}, err
	}
	defer resp.Body.Close()
	observability.ObserveExternal("geocode", string(c.provider), resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return domain.Coordinate{}, fmt.Errorf("geocode: %s returned %d", c.provider, resp.StatusCode)
	}

	switch c.provider {
	case ProviderMapbox:
		return decodeMapbox(resp)
	default:
		return decodeGoogle(resp)
	}
}

func decodeMapbox(resp *http.Response) (domain.Coordinate, error) {
	var body struct {
		Features []struct {
			Center []float64 `json:"center"` // [lng, lat]
		} `json:"features"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.Coordinate{}, fmt.Errorf("geocode: decode mapbox response: %w", err)
	}
	if len(body.Features) == 0 || len(body.Features[0].Center) < 2 {
		return domain.Coordinate{}, ErrNoMatch
	}
	center := body.Features[0].Center
	return domain.Coordinate{Lat: center[1], Lng: center[0]}, nil
}

func decodeGoogle(resp *http.Response) (domain.Coordinate, error) {
	var body struct {
		Status  string `json:"status"`
		Results []struct {
			Geometry struct {
				Location struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"location"`
			} `json:"geometry"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.Coordinate{}, fmt.Errorf("geocode: decode google response: %w", err)
	}
	if body.Status != "OK" || len(body.Results) == 0 {
		return domain.Coordinate{}, ErrNoMatch
	}
	loc := body.Results[0].Geometry.Location
	return domain.Coordinate{Lat: loc.Lat, Lng: loc.Lng}, nil
}
