package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/alex-user-go/staysearch/internal/search/cursor"
	"github.com/alex-user-go/staysearch/internal/search/types"
)

// DefaultMaxPageSize caps a single read when no cap is configured.
const DefaultMaxPageSize = 100

// ListingIndex reads the materialized public-listing index.
type ListingIndex struct {
	db          *sql.DB
	maxPageSize int
}

// NewListingIndex creates a ListingIndex whose reads return at most
// maxPageSize rows. A non-positive cap means DefaultMaxPageSize.
func NewListingIndex(db *sql.DB, maxPageSize int) *ListingIndex {
	if maxPageSize <= 0 {
		maxPageSize = DefaultMaxPageSize
	}
	return &ListingIndex{db: db, maxPageSize: maxPageSize}
}

const candidatesQuery = `
	SELECT listing_id, title, location_id, max_guests, bedrooms, bathrooms,
	       property_type, COALESCE(parking_type, ''), check_in_type,
	       pets_allowed, wifi, air_conditioning, parking, gym, pool, workspace, instant_book,
	       min_booking_nights, max_booking_nights, advance_booking_days,
	       latitude, longitude, host_verified, verified
	FROM public_listings
	WHERE location_id = $1 AND max_guests >= $2 AND listing_id > $3
	ORDER BY listing_id
	LIMIT $4`

// continuationKey is the position after which the next page starts.
type continuationKey struct {
	ListingID string `json:"listingId"`
}

func encodeKey(listingID string) []byte {
	key, _ := json.Marshal(continuationKey{ListingID: listingID})
	return key
}

func decodeKey(key []byte) (string, error) {
	if len(key) == 0 {
		return "", nil
	}
	var k continuationKey
	if err := json.Unmarshal(key, &k); err != nil || k.ListingID == "" {
		return "", fmt.Errorf("%w: unknown continuation key", cursor.ErrInvalid)
	}
	return k.ListingID, nil
}

func pageLimit(n, maxPageSize int) int {
	if n <= 0 || n > maxPageSize {
		return maxPageSize
	}
	return n
}

// Candidates returns listings in q.LocationID that fit at least q.MinGuests,
// ordered by listing id, starting after q.After.
func (l *ListingIndex) Candidates(ctx context.Context, q types.CandidateQuery) (types.CandidatePage, error) {
	after, err := decodeKey(q.After)
	if err != nil {
		return types.CandidatePage{}, err
	}
	limit := pageLimit(q.Limit, l.maxPageSize)

	// One extra row tells whether another page exists.
	rows, err := l.db.QueryContext(ctx, candidatesQuery, q.LocationID, q.MinGuests, after, limit+1)
	if err != nil {
		return types.CandidatePage{}, fmt.Errorf("query listings: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	candidates := make([]types.Candidate, 0, limit)
	for rows.Next() {
		var c types.Candidate
		if err := rows.Scan(
			&c.ListingID, &c.Title, &c.LocationID, &c.MaxGuests, &c.Bedrooms, &c.Bathrooms,
			&c.PropertyType, &c.ParkingType, &c.CheckInType,
			&c.Amenities.PetsAllowed, &c.Amenities.WiFi, &c.Amenities.AirConditioning,
			&c.Amenities.Parking, &c.Amenities.Gym, &c.Amenities.Pool,
			&c.Amenities.Workspace, &c.Amenities.InstantBook,
			&c.Terms.MinBookingNights, &c.Terms.MaxBookingNights, &c.Terms.AdvanceBookingDays,
			&c.Coordinates.Latitude, &c.Coordinates.Longitude, &c.HostVerified, &c.Verified,
		); err != nil {
			return types.CandidatePage{}, fmt.Errorf("scan listing: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return types.CandidatePage{}, fmt.Errorf("iterate listings: %w", err)
	}

	return paginate(candidates, limit), nil
}

// paginate trims the look-ahead row and derives the continuation key.
func paginate(rows []types.Candidate, limit int) types.CandidatePage {
	if len(rows) <= limit {
		return types.CandidatePage{Candidates: rows}
	}
	page := rows[:limit]
	return types.CandidatePage{
		Candidates: page,
		Next:       encodeKey(page[len(page)-1].ListingID),
	}
}
