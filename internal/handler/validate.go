package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/alex-user-go/staysearch/internal/search/cursor"
	"github.com/alex-user-go/staysearch/internal/search/types"
)

const (
	maxNights    = 365
	maxGuests    = 50
	maxChildAge  = 17
	maxSlugLen   = 100
	maxChildAges = 50
)

var (
	slugPattern       = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	locationIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	digitsPattern     = regexp.MustCompile(`^[0-9]{1,9}$`)
)

// ValidationError names the first invalid query parameter.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ParseSearchParams validates the query of r into a search request.
// now fixes "today" for the advance-notice calculation.
func ParseSearchParams(r *http.Request, now time.Time) (*types.Request, error) {
	query := r.URL.Query()
	req := &types.Request{}

	// Location: slug or opaque id, exactly one
	slug := strings.TrimSpace(query.Get("location"))
	locationID := strings.TrimSpace(query.Get("locationId"))
	switch {
	case slug != "" && locationID != "":
		return nil, invalid("location", "location and locationId are mutually exclusive")
	case slug != "":
		if len(slug) > maxSlugLen || !slugPattern.MatchString(slug) {
			return nil, invalid("location", "must be a lowercase slug")
		}
		req.LocationSlug = slug
	case locationID != "":
		if !locationIDPattern.MatchString(locationID) {
			return nil, invalid("locationId", "must be 1-64 letters, digits, '_' or '-'")
		}
		req.LocationID = locationID
	default:
		return nil, invalid("location", "location or locationId is required")
	}

	// Dates
	checkIn, err := parseDate(query, "checkIn")
	if err != nil {
		return nil, err
	}
	checkOut, err := parseDate(query, "checkOut")
	if err != nil {
		return nil, err
	}
	if !checkOut.After(checkIn) {
		return nil, invalid("checkOut", "must be after checkIn")
	}
	nights := int(checkOut.Sub(checkIn).Hours() / 24)
	if nights > maxNights {
		return nil, invalid("checkOut", "stay cannot exceed %d nights", maxNights)
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if checkIn.Before(today) {
		return nil, invalid("checkIn", "cannot be in the past")
	}
	req.CheckIn = checkIn
	req.CheckOut = checkOut
	req.Nights = nights
	req.DaysUntilCheckIn = int(checkIn.Sub(today).Hours() / 24)

	// Guests
	adultsStr := strings.TrimSpace(query.Get("adults"))
	if adultsStr == "" {
		return nil, invalid("adults", "adults is required")
	}
	adults, ok := parseCount(adultsStr)
	if !ok || adults < 1 {
		return nil, invalid("adults", "must be a positive integer")
	}
	req.Adults = adults

	childAges, err := parseChildAges(query.Get("childAges"))
	if err != nil {
		return nil, err
	}
	req.ChildAges = childAges

	if req.Guests() > maxGuests {
		return nil, invalid("adults", "total guests cannot exceed %d", maxGuests)
	}

	if req.Filters, err = parseFilters(query); err != nil {
		return nil, err
	}

	if c := query.Get("cursor"); c != "" {
		key, err := cursor.Decode(c)
		if err != nil {
			return nil, invalid("cursor", "malformed cursor")
		}
		req.Cursor = key
	}

	return req, nil
}

func parseDate(query url.Values, field string) (time.Time, error) {
	raw := strings.TrimSpace(query.Get(field))
	if raw == "" {
		return time.Time{}, invalid(field, "%s is required", field)
	}
	t, err := time.Parse(types.DateLayout, raw)
	if err != nil {
		return time.Time{}, invalid(field, "must be in YYYY-MM-DD format")
	}
	return t, nil
}

// parseCount accepts unsigned decimal digits only, so "+2" and "-0" fail.
func parseCount(s string) (int, bool) {
	if !digitsPattern.MatchString(s) {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}

func parseChildAges(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	if len(parts) > maxChildAges {
		return nil, invalid("childAges", "at most %d children", maxChildAges)
	}
	ages := make([]int, 0, len(parts))
	for _, p := range parts {
		age, ok := parseCount(strings.TrimSpace(p))
		if !ok || age > maxChildAge {
			return nil, invalid("childAges", "each age must be an integer from 0 to %d", maxChildAge)
		}
		ages = append(ages, age)
	}
	return ages, nil
}

func parseFilters(query url.Values) (types.Filters, error) {
	var f types.Filters

	bools := []struct {
		name string
		dst  **bool
	}{
		{"petsAllowed", &f.PetsAllowed},
		{"wifi", &f.WiFi},
		{"airConditioning", &f.AirConditioning},
		{"parking", &f.Parking},
		{"gym", &f.Gym},
		{"pool", &f.Pool},
		{"workspace", &f.Workspace},
		{"instantBook", &f.InstantBook},
	}
	for _, b := range bools {
		if !query.Has(b.name) {
			continue
		}
		var v bool
		switch query.Get(b.name) {
		case "true":
			v = true
		case "false":
			v = false
		default:
			return types.Filters{}, invalid(b.name, `must be "true" or "false"`)
		}
		*b.dst = &v
	}

	if query.Has("parkingType") {
		p := types.ParkingType(query.Get("parkingType"))
		if !p.Valid() {
			return types.Filters{}, invalid("parkingType", "must be one of free, paid, street")
		}
		f.ParkingType = &p
	}
	if query.Has("checkInType") {
		c := types.CheckInType(query.Get("checkInType"))
		if !c.Valid() {
			return types.Filters{}, invalid("checkInType", "must be one of self, host, reception")
		}
		f.CheckInType = &c
	}
	if query.Has("propertyType") {
		p := types.PropertyType(query.Get("propertyType"))
		if !p.Valid() {
			return types.Filters{}, invalid("propertyType", "must be one of apartment, house, villa, cabin, cottage, studio, room")
		}
		f.PropertyType = &p
	}

	return f, nil
}
