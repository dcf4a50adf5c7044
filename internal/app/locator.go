package app

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"thefix/internal/domain"
)

// Resolution sources: a true geocode from the provider, or an
// approximate match against the static store directory.
const (
	SourceGeocoding = "geocoding"
	SourceFallback  = "fallback"
)

const fallbackNote = "Using an approximate match from known store locations."

// Resolution is the outcome of a store-locator search.
type Resolution struct {
	Coordinate domain.Coordinate `json:"coordinates"`
	Source     string            `json:"source"`
	Note       string            `json:"message,omitempty"`
}

// LocatorService resolves free-text searches to coordinates and ranks
// the store directory by distance. The geocoder may be nil when no
// provider is configured; resolution then relies on the directory alone.
type LocatorService struct {
	geocoder domain.Geocoder
	stores   []domain.StoreLocation
}

func NewLocatorService(g domain.Geocoder, stores []domain.StoreLocation) *LocatorService {
	return &LocatorService{geocoder: g, stores: stores}
}

// Resolve turns a search string into a coordinate. The primary provider
// is tried first; on error or no match the static directory is searched
// by substring. A miss on both paths is domain.ErrNotFound, never a
// synthetic coordinate.
func (s *LocatorService) Resolve(ctx context.Context, query string) (Resolution, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Resolution{}, domain.ErrNotFound
	}

	var primary *domain.Coordinate
	if s.geocoder != nil {
		c, err := s.geocoder.Geocode(ctx, query)
		switch {
		case err == nil:
			primary = &c
		case errors.Is(err, domain.ErrNotFound):
			// a clean miss, fall through to the directory
		default:
			log.Warn().Err(err).Str("query", query).Msg("geocode provider failed, trying directory fallback")
		}
	}

	return chooseResult(primary, s.matchDirectory(query))
}

// chooseResult is the fallback policy: a provider result always wins;
// an approximate directory match is tagged as such; otherwise not found.
func chooseResult(primary *domain.Coordinate, fallback *domain.StoreLocation) (Resolution, error) {
	if primary != nil {
		return Resolution{Coordinate: *primary, Source: SourceGeocoding}, nil
	}
	if fallback != nil {
		return Resolution{Coordinate: fallback.Coordinate, Source: SourceFallback, Note: fallbackNote}, nil
	}
	return Resolution{}, domain.ErrNotFound
}

func (s *LocatorService) matchDirectory(query string) *domain.StoreLocation {
	q := strings.ToLower(query)
	for i := range s.stores {
		st := &s.stores[i]
		if strings.Contains(strings.ToLower(st.Name), q) || strings.Contains(strings.ToLower(st.Address), q) {
			return st
		}
	}
	return nil
}

// Nearest ranks this service's directory around origin.
func (s *LocatorService) Nearest(origin domain.Coordinate, limit int) []domain.RankedLocation {
	return Rank(origin, s.stores, limit)
}

// Rank computes the distance from origin to every store and returns the
// nearest limit stores sorted ascending, ties kept in input order.
// Stores with malformed coordinates are skipped.
func Rank(origin domain.Coordinate, stores []domain.StoreLocation, limit int) []domain.RankedLocation {
	ranked := make([]domain.RankedLocation, 0, len(stores))
	for _, st := range stores {
		if !st.Coordinate.Valid() {
			continue
		}
		ranked = append(ranked, domain.RankedLocation{
			StoreLocation: st,
			DistanceMiles: domain.Distance(origin, st.Coordinate),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].DistanceMiles < ranked[j].DistanceMiles })
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
