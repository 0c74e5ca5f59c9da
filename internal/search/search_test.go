package search_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alex-user-go/staysearch/internal/locations"
	"github.com/alex-user-go/staysearch/internal/obs"
	"github.com/alex-user-go/staysearch/internal/search"
	"github.com/alex-user-go/staysearch/internal/search/availability"
	"github.com/alex-user-go/staysearch/internal/search/cursor"
	"github.com/alex-user-go/staysearch/internal/search/pricing"
	"github.com/alex-user-go/staysearch/internal/search/types"
)

type staticResolver map[string]string

func (r staticResolver) Resolve(_ context.Context, slug string) (string, error) {
	if id, ok := r[slug]; ok {
		return id, nil
	}
	return "", locations.ErrNotFound
}

// memIndex is a keyset-paginated listing index ordered by listing id.
type memIndex struct {
	listings []types.Candidate
}

type indexKey struct {
	ListingID string `json:"listingId"`
}

func (m *memIndex) Candidates(_ context.Context, q types.CandidateQuery) (types.CandidatePage, error) {
	var after string
	if q.After != nil {
		var k indexKey
		if err := json.Unmarshal(q.After, &k); err != nil {
			return types.CandidatePage{}, err
		}
		after = k.ListingID
	}

	sorted := slices.Clone(m.listings)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ListingID < sorted[j].ListingID })

	var page types.CandidatePage
	for _, c := range sorted {
		if c.LocationID != q.LocationID || c.MaxGuests < q.MinGuests || c.ListingID <= after {
			continue
		}
		if len(page.Candidates) == q.Limit {
			last := page.Candidates[len(page.Candidates)-1].ListingID
			page.Next, _ = json.Marshal(indexKey{ListingID: last})
			break
		}
		page.Candidates = append(page.Candidates, c)
	}
	return page, nil
}

type memBlocked map[string][]string

func (m memBlocked) HasBlockedDates(_ context.Context, listingID string, from, to time.Time) (bool, error) {
	for _, d := range m[listingID] {
		if d >= from.Format(types.DateLayout) && d <= to.Format(types.DateLayout) {
			return true, nil
		}
	}
	return false, nil
}

type memPricing struct {
	matrices map[string]*pricing.Matrix
	fail     map[string]bool
	fallback *pricing.Matrix
}

func (m memPricing) GetPricingMatrix(_ context.Context, listingID string) (*pricing.Matrix, error) {
	if m.fail[listingID] {
		return nil, errors.New("connection reset")
	}
	if mx, ok := m.matrices[listingID]; ok {
		return mx, nil
	}
	if m.fallback != nil {
		return m.fallback, nil
	}
	return nil, pricing.ErrMatrixNotFound
}

type slowBlocked struct{}

func (slowBlocked) HasBlockedDates(ctx context.Context, _ string, _, _ time.Time) (bool, error) {
	<-ctx.Done()
	return false, ctx.Err()
}

func defaultMatrix(price float64) *pricing.Matrix {
	return &pricing.Matrix{
		BasePrices: []pricing.BasePrice{{IsDefault: true, StandardPrice: price}},
		Currency:   "EUR",
	}
}

func candidate(id, location string, maxGuests, minNights, maxNights int) types.Candidate {
	return types.Candidate{
		ListingID:  id,
		Title:      "Listing " + id,
		LocationID: location,
		MaxGuests:  maxGuests,
		Terms: types.BookingTerms{
			MinBookingNights:   minNights,
			MaxBookingNights:   maxNights,
			AdvanceBookingDays: 365,
		},
	}
}

func newSearcher(t *testing.T, index search.ListingIndex, blocked availability.Store, prices pricing.Store, pageSize int, timeout time.Duration) (*search.Searcher, *obs.Metrics) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := obs.NewMetrics(logger)
	return search.NewSearcher(
		staticResolver{"zlatibor-serbia": "loc_zlatibor"},
		index,
		availability.NewChecker(blocked, 4, metrics, logger),
		pricing.NewResolver(prices, 4, metrics, logger),
		pageSize,
		timeout,
		logger,
	), metrics
}

func threeNights() types.Request {
	return types.Request{
		LocationSlug:     "zlatibor-serbia",
		CheckIn:          time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		CheckOut:         time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC),
		Adults:           2,
		Nights:           3,
		DaysUntilCheckIn: 10,
	}
}

func listingIDs(listings []search.Listing) []string {
	ids := make([]string, len(listings))
	for i, l := range listings {
		ids[i] = l.ListingID
	}
	return ids
}

func TestSearch_ThreeNightStay(t *testing.T) {
	index := &memIndex{listings: []types.Candidate{
		candidate("lst_a", "loc_zlatibor", 4, 1, 30),
		candidate("lst_b", "loc_zlatibor", 4, 5, 30), // minimum stay too long
		candidate("lst_c", "loc_zlatibor", 4, 1, 2),  // maximum stay too short
		candidate("lst_d", "loc_zlatibor", 4, 1, 30), // blocked on a stay night
		candidate("lst_e", "loc_zlatibor", 4, 1, 30), // blocked on check-out day only
		candidate("lst_f", "loc_zlatibor", 1, 1, 30), // too small
		candidate("lst_g", "loc_kopaonik", 4, 1, 30), // elsewhere
	}}
	blocked := memBlocked{
		"lst_d": {"2025-07-03"},
		"lst_e": {"2025-07-04", "2025-06-30"},
	}
	s, _ := newSearcher(t, index, blocked, memPricing{fallback: defaultMatrix(50)}, 100, time.Second)

	result, err := s.Search(context.Background(), threeNights())
	require.NoError(t, err)

	assert.Equal(t, "loc_zlatibor", result.LocationID)
	assert.Equal(t, []string{"lst_a", "lst_e"}, listingIDs(result.Listings))
	assert.Nil(t, result.Next)
	assert.Equal(t, search.Counts{
		Candidates:        5,
		AfterBookingTerms: 3,
		AfterFilters:      3,
		Available:         2,
		Priced:            2,
	}, result.Counts)

	for _, l := range result.Listings {
		assert.Equal(t, 150.0, l.Pricing.TotalPrice)
		assert.Len(t, l.Pricing.NightlyBreakdown, 3)
	}
}

func TestSearch_CursorResumesWithoutGapsOrDuplicates(t *testing.T) {
	var all []types.Candidate
	for _, id := range []string{"lst_01", "lst_02", "lst_03", "lst_04", "lst_05", "lst_06", "lst_07"} {
		all = append(all, candidate(id, "loc_zlatibor", 4, 1, 30))
	}
	s, _ := newSearcher(t, &memIndex{listings: all}, memBlocked{}, memPricing{fallback: defaultMatrix(40)}, 3, time.Second)

	var seen []string
	req := threeNights()
	for pages := 0; ; pages++ {
		require.Less(t, pages, 5, "pagination did not terminate")

		result, err := s.Search(context.Background(), req)
		require.NoError(t, err)
		seen = append(seen, listingIDs(result.Listings)...)

		next := cursor.Encode(result.Next)
		if next == "" {
			break
		}
		req.Cursor, err = cursor.Decode(next)
		require.NoError(t, err)
		assert.Equal(t, result.Next, req.Cursor)
	}

	assert.Equal(t, []string{"lst_01", "lst_02", "lst_03", "lst_04", "lst_05", "lst_06", "lst_07"}, seen)
}

func TestSearch_LocationIDSkipsResolution(t *testing.T) {
	index := &memIndex{listings: []types.Candidate{candidate("lst_a", "loc_kopaonik", 4, 1, 30)}}
	s, _ := newSearcher(t, index, memBlocked{}, memPricing{fallback: defaultMatrix(50)}, 10, time.Second)

	req := threeNights()
	req.LocationSlug = ""
	req.LocationID = "loc_kopaonik"

	result, err := s.Search(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"lst_a"}, listingIDs(result.Listings))
}

func TestSearch_UnknownLocation(t *testing.T) {
	s, _ := newSearcher(t, &memIndex{}, memBlocked{}, memPricing{}, 10, time.Second)

	req := threeNights()
	req.LocationSlug = "atlantis"

	_, err := s.Search(context.Background(), req)
	assert.ErrorIs(t, err, search.ErrLocationNotFound)
}

func TestSearch_PricingFailuresDropOnlyThatListing(t *testing.T) {
	index := &memIndex{listings: []types.Candidate{
		candidate("lst_a", "loc_zlatibor", 4, 1, 30),
		candidate("lst_b", "loc_zlatibor", 4, 1, 30),
		candidate("lst_c", "loc_zlatibor", 4, 1, 30),
		candidate("lst_d", "loc_zlatibor", 4, 1, 30),
	}}
	prices := memPricing{
		matrices: map[string]*pricing.Matrix{
			"lst_a": defaultMatrix(50),
			// no default price: corrupt
			"lst_c": {BasePrices: []pricing.BasePrice{{StandardPrice: 10, DateRange: &pricing.DateRange{Start: "2025-01-01", End: "2025-12-31"}}}},
			// season bounds not in YYYY-MM-DD form
			"lst_d": {BasePrices: []pricing.BasePrice{
				{IsDefault: true, StandardPrice: 50},
				{StandardPrice: 80, DateRange: &pricing.DateRange{Start: "2025-7-1", End: "2025-7-3"}},
			}},
		},
		fail: map[string]bool{"lst_b": true},
	}
	s, metrics := newSearcher(t, index, memBlocked{}, prices, 10, time.Second)

	result, err := s.Search(context.Background(), threeNights())
	require.NoError(t, err)
	assert.Equal(t, []string{"lst_a"}, listingIDs(result.Listings))
	assert.Equal(t, 4, result.Counts.Available)
	assert.Equal(t, 1, result.Counts.Priced)
	assert.Equal(t, int64(3), metrics.Snapshot().CandidateFailures)
}

func TestSearch_AttributeFilters(t *testing.T) {
	withPool := candidate("lst_pool", "loc_zlatibor", 4, 1, 30)
	withPool.Amenities.Pool = true
	withPool.PropertyType = types.PropertyVilla
	plain := candidate("lst_plain", "loc_zlatibor", 4, 1, 30)
	plain.PropertyType = types.PropertyVilla

	s, _ := newSearcher(t, &memIndex{listings: []types.Candidate{withPool, plain}}, memBlocked{}, memPricing{fallback: defaultMatrix(50)}, 10, time.Second)

	pool := true
	villa := types.PropertyVilla
	req := threeNights()
	req.Filters = types.Filters{Pool: &pool, PropertyType: &villa}

	result, err := s.Search(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"lst_pool"}, listingIDs(result.Listings))
	assert.Equal(t, 1, result.Counts.AfterFilters)
}

func TestSearch_TimeoutIsAnError(t *testing.T) {
	index := &memIndex{listings: []types.Candidate{candidate("lst_a", "loc_zlatibor", 4, 1, 30)}}
	s, _ := newSearcher(t, index, slowBlocked{}, memPricing{fallback: defaultMatrix(50)}, 10, 50*time.Millisecond)

	start := time.Now()
	result, err := s.Search(context.Background(), threeNights())
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}
