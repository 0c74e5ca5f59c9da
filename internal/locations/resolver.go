package locations

import (
	"context"
	"errors"
)

// Resolver maps a human-readable location slug to a location identifier.
type Resolver interface {
	// Resolve returns ErrNotFound when no location has the slug.
	Resolve(ctx context.Context, slug string) (string, error)
}

// ErrNotFound is returned when a slug does not resolve to a location.
var ErrNotFound = errors.New("location not found")
