// Package filter holds the in-memory predicate passes applied to retrieved candidates.
package filter

import "github.com/alex-user-go/staysearch/internal/search/types"

// BookingTerms drops candidates whose stay-length or booking-window terms
// reject a stay of nights beginning daysUntilCheckIn days from today.
// Candidates with malformed terms are dropped. Order is preserved.
func BookingTerms(candidates []types.Candidate, nights, daysUntilCheckIn int) []types.Candidate {
	out := make([]types.Candidate, 0, len(candidates))
	for _, c := range candidates {
		t := c.Terms
		if !wellFormed(t) {
			continue
		}
		if t.MinBookingNights > nights {
			continue
		}
		if t.MaxBookingNights < nights {
			continue
		}
		if t.AdvanceBookingDays < daysUntilCheckIn {
			continue
		}
		out = append(out, c)
	}
	return out
}

func wellFormed(t types.BookingTerms) bool {
	return t.MinBookingNights >= 0 &&
		t.MaxBookingNights >= 1 &&
		t.MaxBookingNights >= t.MinBookingNights &&
		t.AdvanceBookingDays >= 0
}

// Attributes keeps candidates matching every filter present in f.
// Order is preserved.
func Attributes(candidates []types.Candidate, f types.Filters) []types.Candidate {
	out := make([]types.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if Matches(c, f) {
			out = append(out, c)
		}
	}
	return out
}

// Matches reports whether a single candidate satisfies f.
func Matches(c types.Candidate, f types.Filters) bool {
	a := c.Amenities
	checks := []struct {
		want *bool
		have bool
	}{
		{f.PetsAllowed, a.PetsAllowed},
		{f.WiFi, a.WiFi},
		{f.AirConditioning, a.AirConditioning},
		{f.Parking, a.Parking},
		{f.Gym, a.Gym},
		{f.Pool, a.Pool},
		{f.Workspace, a.Workspace},
		{f.InstantBook, a.InstantBook},
	}
	for _, chk := range checks {
		if chk.want != nil && *chk.want != chk.have {
			return false
		}
	}

	if f.ParkingType != nil && *f.ParkingType != c.ParkingType {
		return false
	}
	if f.CheckInType != nil && *f.CheckInType != c.CheckInType {
		return false
	}
	if f.PropertyType != nil && *f.PropertyType != c.PropertyType {
		return false
	}
	return true
}
