package availability_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alex-user-go/staysearch/internal/obs"
	"github.com/alex-user-go/staysearch/internal/search/availability"
	"github.com/alex-user-go/staysearch/internal/search/types"
)

// blockedStore is an in-memory blocked-date index.
type blockedStore struct {
	mu      sync.Mutex
	blocked map[string][]time.Time
	failing map[string]bool
	probes  []probe
}

type probe struct {
	listingID string
	from, to  time.Time
}

func (s *blockedStore) HasBlockedDates(_ context.Context, listingID string, from, to time.Time) (bool, error) {
	s.mu.Lock()
	s.probes = append(s.probes, probe{listingID, from, to})
	s.mu.Unlock()

	if s.failing[listingID] {
		return false, errors.New("store unavailable")
	}
	for _, d := range s.blocked[listingID] {
		if !d.Before(from) && !d.After(to) {
			return true, nil
		}
	}
	return false, nil
}

func date(s string) time.Time {
	d, err := time.Parse(types.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestChecker_Available(t *testing.T) {
	store := &blockedStore{
		blocked: map[string][]time.Time{
			"blocked-mid":      {date("2025-07-02")},
			"blocked-checkout": {date("2025-07-04")},
			"blocked-before":   {date("2025-06-30")},
		},
		failing: map[string]bool{"broken": true},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := obs.NewMetrics(logger)
	checker := availability.NewChecker(store, 2, metrics, logger)

	candidates := []types.Candidate{
		{ListingID: "free"},
		{ListingID: "blocked-mid"},
		{ListingID: "blocked-checkout"},
		{ListingID: "broken"},
		{ListingID: "blocked-before"},
	}

	got, err := checker.Available(context.Background(), candidates, date("2025-07-01"), date("2025-07-03"))
	require.NoError(t, err)

	var gotIDs []string
	for _, c := range got {
		gotIDs = append(gotIDs, c.ListingID)
	}
	assert.ElementsMatch(t, []string{"free", "blocked-checkout", "blocked-before"}, gotIDs)
	assert.Equal(t, int64(1), metrics.Snapshot().CandidateFailures)
	assert.Len(t, store.probes, len(candidates))
	for _, p := range store.probes {
		assert.Equal(t, date("2025-07-01"), p.from)
		assert.Equal(t, date("2025-07-03"), p.to)
	}
}

func TestChecker_Available_ContextCancelled(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	checker := availability.NewChecker(&blockedStore{}, 2, obs.NewMetrics(logger), logger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := checker.Available(ctx, []types.Candidate{{ListingID: "a"}}, date("2025-07-01"), date("2025-07-03"))
	require.Error(t, err)
	assert.Nil(t, got)
}
