package ratelimit

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"thefix/internal/adapters/observability"
)

// Limiter guards an endpoint with a fixed window of max requests per
// window per key. Up to max requests can land just before a boundary and
// max more just after it, an accepted imprecision for this use case.
type Limiter struct {
	store  Store
	max    int64
	window time.Duration
}

func New(store Store, max int, window time.Duration) *Limiter {
	return &Limiter{store: store, max: int64(max), window: window}
}

// Allow reports whether the request identified by key fits in the
// current window. Store failures fail open: throttling is protection,
// not a feature the user request depends on.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	n, err := l.store.Incr(ctx, key, l.window)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("rate limit store unavailable, allowing request")
		return true
	}
	if n > l.max {
		observability.ObserveRateLimit("limited")
		return false
	}
	observability.ObserveRateLimit("allowed")
	return true
}
