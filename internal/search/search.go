// Package search runs the search-accommodations pipeline: candidate
// retrieval, booking-term and attribute filtering, availability probing and
// pricing.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alex-user-go/staysearch/internal/locations"
	"github.com/alex-user-go/staysearch/internal/search/availability"
	"github.com/alex-user-go/staysearch/internal/search/filter"
	"github.com/alex-user-go/staysearch/internal/search/pricing"
	"github.com/alex-user-go/staysearch/internal/search/types"
)

// DefaultPageSize is the number of candidates read per search.
const DefaultPageSize = 100

// ErrLocationNotFound is returned when the request's slug resolves to nothing.
var ErrLocationNotFound = errors.New("location not found")

// ListingIndex is the public listing index, keyed by location.
type ListingIndex interface {
	// Candidates returns listings that fit q.MinGuests in q.LocationID, in a
	// stable order, starting after the continuation key q.After.
	Candidates(ctx context.Context, q types.CandidateQuery) (types.CandidatePage, error)
}

// Listing is a bookable listing with its price for the requested stay.
type Listing struct {
	types.Candidate
	Pricing pricing.Quote `json:"pricing"`
}

// Counts records how many listings survived each stage.
type Counts struct {
	Candidates        int `json:"candidates"`
	AfterBookingTerms int `json:"afterBookingTerms"`
	AfterFilters      int `json:"afterFilters"`
	Available         int `json:"available"`
	Priced            int `json:"priced"`
}

// Result is one page of search results.
type Result struct {
	LocationID string
	Listings   []Listing
	// Next is the store continuation key for the following page, nil when
	// the index is exhausted.
	Next   []byte
	Counts Counts
}

// Searcher runs searches against its collaborators.
type Searcher struct {
	locations    locations.Resolver
	index        ListingIndex
	availability *availability.Checker
	pricing      *pricing.Resolver
	pageSize     int
	timeout      time.Duration
	logger       *slog.Logger
}

// NewSearcher creates a new Searcher.
func NewSearcher(
	resolver locations.Resolver,
	index ListingIndex,
	checker *availability.Checker,
	pricer *pricing.Resolver,
	pageSize int,
	timeout time.Duration,
	logger *slog.Logger,
) *Searcher {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Searcher{
		locations:    resolver,
		index:        index,
		availability: checker,
		pricing:      pricer,
		pageSize:     pageSize,
		timeout:      timeout,
		logger:       logger,
	}
}

// Search returns the bookable, priced listings for req. A timeout or
// cancellation is returned as an error; partial results are never returned.
func (s *Searcher) Search(ctx context.Context, req types.Request) (*Result, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	locationID, err := s.resolveLocation(ctx, req)
	if err != nil {
		return nil, err
	}

	page, err := s.index.Candidates(ctx, types.CandidateQuery{
		LocationID: locationID,
		MinGuests:  req.Guests(),
		After:      req.Cursor,
		Limit:      s.pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("retrieve candidates: %w", err)
	}

	counts := Counts{Candidates: len(page.Candidates)}

	candidates := filter.BookingTerms(page.Candidates, req.Nights, req.DaysUntilCheckIn)
	counts.AfterBookingTerms = len(candidates)

	candidates = filter.Attributes(candidates, req.Filters)
	counts.AfterFilters = len(candidates)

	candidates, err = s.availability.Available(ctx, candidates, req.CheckIn, req.LastNight())
	if err != nil {
		return nil, fmt.Errorf("check availability: %w", err)
	}
	counts.Available = len(candidates)

	priced, err := s.pricing.PriceAll(ctx, candidates, pricing.Stay{
		CheckIn:       req.CheckIn,
		Nights:        req.Nights,
		Adults:        req.Adults,
		ChildAges:     req.ChildAges,
		Authenticated: req.Authenticated,
	})
	if err != nil {
		return nil, fmt.Errorf("resolve pricing: %w", err)
	}
	counts.Priced = len(priced)

	listings := make([]Listing, len(priced))
	for i, p := range priced {
		listings[i] = Listing{Candidate: p.Candidate, Pricing: p.Quote}
	}

	s.logger.Debug("search completed",
		"location_id", locationID,
		"candidates", counts.Candidates,
		"available", counts.Available,
		"priced", counts.Priced,
	)

	return &Result{
		LocationID: locationID,
		Listings:   listings,
		Next:       page.Next,
		Counts:     counts,
	}, nil
}

func (s *Searcher) resolveLocation(ctx context.Context, req types.Request) (string, error) {
	if req.LocationID != "" {
		return req.LocationID, nil
	}
	id, err := s.locations.Resolve(ctx, req.LocationSlug)
	if errors.Is(err, locations.ErrNotFound) {
		return "", fmt.Errorf("%w: %s", ErrLocationNotFound, req.LocationSlug)
	}
	if err != nil {
		return "", fmt.Errorf("resolve location %s: %w", req.LocationSlug, err)
	}
	return id, nil
}
