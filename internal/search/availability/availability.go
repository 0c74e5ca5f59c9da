// Package availability checks candidates against the blocked-date index.
package availability

import (
	"context"
	"log/slog"
	"time"

	"github.com/alex-user-go/staysearch/internal/search/batch"
	"github.com/alex-user-go/staysearch/internal/search/types"
)

// Store probes the blocked-date index of a single listing.
type Store interface {
	// HasBlockedDates reports whether any blocking record exists for
	// listingID between from and to, both inclusive.
	HasBlockedDates(ctx context.Context, listingID string, from, to time.Time) (bool, error)
}

// FailureRecorder counts per-candidate lookup failures.
type FailureRecorder interface {
	IncCandidateFailures()
}

// Checker filters candidates down to those free for a whole night range.
type Checker struct {
	store     Store
	batchSize int
	failures  FailureRecorder
	logger    *slog.Logger
}

// NewChecker creates a new Checker.
func NewChecker(store Store, batchSize int, failures FailureRecorder, logger *slog.Logger) *Checker {
	return &Checker{
		store:     store,
		batchSize: batchSize,
		failures:  failures,
		logger:    logger,
	}
}

// Available returns the candidates with no blocking record between
// firstNight and lastNight. A candidate whose probe fails is left out.
// The only error returned is the context's.
func (c *Checker) Available(ctx context.Context, candidates []types.Candidate, firstNight, lastNight time.Time) ([]types.Candidate, error) {
	outcomes, err := batch.Run(ctx, candidates, c.batchSize, func(ctx context.Context, cand types.Candidate) (bool, error) {
		return c.store.HasBlockedDates(ctx, cand.ListingID, firstNight, lastNight)
	})
	if err != nil {
		return nil, err
	}

	available := make([]types.Candidate, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Err != nil {
			c.failures.IncCandidateFailures()
			c.logger.Warn("availability probe failed",
				"listing_id", o.Item.ListingID,
				"error", o.Err,
			)
			continue
		}
		if o.Value {
			continue
		}
		available = append(available, o.Item)
	}
	return available, nil
}
