package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alex-user-go/staysearch/internal/search/types"
)

// BlockedDates probes the per-listing blocked-date index.
type BlockedDates struct {
	db *sql.DB
}

// NewBlockedDates creates a BlockedDates store.
func NewBlockedDates(db *sql.DB) *BlockedDates {
	return &BlockedDates{db: db}
}

const blockedQuery = `
	SELECT EXISTS (
		SELECT 1 FROM blocked_dates
		WHERE listing_id = $1 AND blocked_date BETWEEN $2::date AND $3::date
	)`

// HasBlockedDates reports whether any date in [from, to] is blocked.
func (b *BlockedDates) HasBlockedDates(ctx context.Context, listingID string, from, to time.Time) (bool, error) {
	var blocked bool
	err := b.db.QueryRowContext(ctx, blockedQuery,
		listingID, from.Format(types.DateLayout), to.Format(types.DateLayout),
	).Scan(&blocked)
	if err != nil {
		return false, fmt.Errorf("probe blocked dates for %s: %w", listingID, err)
	}
	return blocked, nil
}
