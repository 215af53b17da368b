package model

import (
	"strings"
	"time"
)

// Event is one scheduled, dated instance of a Workshop with its own seat
// inventory. AvailableSeats is decremented server side when bookings are
// confirmed, so any copy held here is only a hint; it must be re-checked
// against the API before a booking decision.
//
// Fields:
//  EventID        – unique key.
//  WorkshopID     – owning workshop (foreign key into the catalog).
//  EventDate      – date as returned by the API (YYYY-MM-DD or RFC3339).
//  EventTime      – free text time range ("9:00am - 4:00pm").
//  VenueDetails   – venue override; empty means the workshop location.
//  AvailableSeats – seats left, in [0, TotalSeats of the workshop].
//  Status         – Active, Cancelled, ...
type Event struct {
	EventID        string `json:"eventId"`
	WorkshopID     string `json:"workshopId"`
	EventDate      string `json:"eventDate"`
	EventTime      string `json:"eventTime,omitempty"`
	VenueDetails   string `json:"venueDetails,omitempty"`
	AvailableSeats Count  `json:"availableSeats"`
	Status         string `json:"status"`
}

var eventDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Date parses EventDate. ok is false when the field is empty or in a
// format the sheet is not expected to produce.
func (e Event) Date() (t time.Time, ok bool) {
	s := strings.TrimSpace(e.EventDate)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range eventDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// IsActive reports whether the event row is open for booking.
func (e Event) IsActive() bool { return strings.EqualFold(e.Status, StatusActive) }

// EventWithCapacity is an Event annotated with the owning workshop's
// TotalSeats so seat ratios can be computed without a catalog lookup.
type EventWithCapacity struct {
	Event
	TotalSeats Count `json:"totalSeats"`
}

// Availability is the live answer of the checkAvailability action.
type Availability struct {
	IsAvailable    bool  `json:"isAvailable"`
	AvailableSeats Count `json:"availableSeats"`
	IsNearlyFull   bool  `json:"isNearlyFull"`
	IsClosingSoon  bool  `json:"isClosingSoon"`
}
