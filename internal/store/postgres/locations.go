package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alex-user-go/staysearch/internal/locations"
)

// Locations resolves slugs from the locations table.
type Locations struct {
	db *sql.DB
}

var _ locations.Resolver = (*Locations)(nil)

// NewLocations creates a Locations resolver.
func NewLocations(db *sql.DB) *Locations {
	return &Locations{db: db}
}

// Resolve implements locations.Resolver.
func (l *Locations) Resolve(ctx context.Context, slug string) (string, error) {
	var id string
	err := l.db.QueryRowContext(ctx, `SELECT location_id FROM locations WHERE slug = $1`, slug).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", locations.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("resolve location %s: %w", slug, err)
	}
	return id, nil
}
