package domain

import (
	"context"
	"errors"
)

// ErrNotFound is returned when neither the geocoding provider nor the
// store-directory fallback yields a coordinate.
var ErrNotFound = errors.New("not found")

// Geocoder turns a free-text query into a coordinate. Best-effort and
// non-authoritative; implementations return an error on no match.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (Coordinate, error)
}

// Completer is an opaque text-completion collaborator. Its output has no
// guaranteed format and is parsed defensively by callers.
type Completer interface {
	Complete(ctx context.Context, system string, turns []ChatMessage) (string, error)
}

// TicketLog appends an ordered row of strings to an external audit log
// (a spreadsheet in production). Append-only, never queried.
type TicketLog interface {
	Append(ctx context.Context, row []string) error
}
