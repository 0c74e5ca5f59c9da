package types

import "time"

// DateLayout is the calendar date format used on the wire and in stores.
const DateLayout = "2006-01-02"

// ParkingType enumerates the parking categories a listing can offer.
type ParkingType string

const (
	ParkingFree   ParkingType = "free"
	ParkingPaid   ParkingType = "paid"
	ParkingStreet ParkingType = "street"
)

// Valid reports whether p is a known parking type.
func (p ParkingType) Valid() bool {
	switch p {
	case ParkingFree, ParkingPaid, ParkingStreet:
		return true
	}
	return false
}

// CheckInType enumerates how guests are received.
type CheckInType string

const (
	CheckInSelf      CheckInType = "self"
	CheckInHost      CheckInType = "host"
	CheckInReception CheckInType = "reception"
)

// Valid reports whether c is a known check-in type.
func (c CheckInType) Valid() bool {
	switch c {
	case CheckInSelf, CheckInHost, CheckInReception:
		return true
	}
	return false
}

// PropertyType enumerates listing property categories.
type PropertyType string

const (
	PropertyApartment PropertyType = "apartment"
	PropertyHouse     PropertyType = "house"
	PropertyVilla     PropertyType = "villa"
	PropertyCabin     PropertyType = "cabin"
	PropertyCottage   PropertyType = "cottage"
	PropertyStudio    PropertyType = "studio"
	PropertyRoom      PropertyType = "room"
)

// Valid reports whether p is a known property type.
func (p PropertyType) Valid() bool {
	switch p {
	case PropertyApartment, PropertyHouse, PropertyVilla, PropertyCabin,
		PropertyCottage, PropertyStudio, PropertyRoom:
		return true
	}
	return false
}

// Filters holds the optional attribute filters of a search.
// A nil field means the caller does not care about that attribute.
type Filters struct {
	PetsAllowed     *bool
	WiFi            *bool
	AirConditioning *bool
	Parking         *bool
	Gym             *bool
	Pool            *bool
	Workspace       *bool
	InstantBook     *bool

	ParkingType  *ParkingType
	CheckInType  *CheckInType
	PropertyType *PropertyType
}

// Request is a validated search request.
type Request struct {
	LocationSlug     string
	LocationID       string
	CheckIn          time.Time
	CheckOut         time.Time
	Adults           int
	ChildAges        []int
	Nights           int
	DaysUntilCheckIn int
	Filters          Filters
	// Cursor is the decoded store continuation key, nil for the first page.
	Cursor        []byte
	Authenticated bool
}

// Guests returns the total number of guests.
func (r Request) Guests() int {
	return r.Adults + len(r.ChildAges)
}

// LastNight returns the date of the final night of the stay.
func (r Request) LastNight() time.Time {
	return r.CheckOut.AddDate(0, 0, -1)
}

// Coordinates is a geographic point.
type Coordinates struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// Amenities are the boolean attributes of a listing.
type Amenities struct {
	PetsAllowed     bool `json:"petsAllowed"`
	WiFi            bool `json:"wifi"`
	AirConditioning bool `json:"airConditioning"`
	Parking         bool `json:"parking"`
	Gym             bool `json:"gym"`
	Pool            bool `json:"pool"`
	Workspace       bool `json:"workspace"`
	InstantBook     bool `json:"instantBook"`
}

// BookingTerms constrain which stays a listing accepts.
type BookingTerms struct {
	MinBookingNights int `json:"minBookingNights"`
	MaxBookingNights int `json:"maxBookingNights"`
	// AdvanceBookingDays is how many days ahead of check-in a booking may be made.
	AdvanceBookingDays int `json:"advanceBookingDays"`
}

// Candidate is a snapshot of a listing's public attributes.
type Candidate struct {
	ListingID    string       `json:"listingId"`
	Title        string       `json:"title"`
	LocationID   string       `json:"locationId"`
	MaxGuests    int          `json:"maxGuests"`
	Bedrooms     int          `json:"bedrooms"`
	Bathrooms    int          `json:"bathrooms"`
	PropertyType PropertyType `json:"propertyType"`
	ParkingType  ParkingType  `json:"parkingType,omitempty"`
	CheckInType  CheckInType  `json:"checkInType"`
	Amenities    Amenities    `json:"amenities"`
	Terms        BookingTerms `json:"bookingTerms"`
	Coordinates  Coordinates  `json:"coordinates"`
	HostVerified bool         `json:"hostVerified"`
	Verified     bool         `json:"verified"`
}

// CandidateQuery selects a page from the public listing index.
type CandidateQuery struct {
	LocationID string
	MinGuests  int
	After      []byte
	Limit      int
}

// CandidatePage is one page from the public listing index.
// Next is nil when the index is exhausted.
type CandidatePage struct {
	Candidates []Candidate
	Next       []byte
}
