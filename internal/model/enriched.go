package model

// AvailabilityStatus classifies how bookable a workshop currently is.
type AvailabilityStatus string

const (
	AvailabilityHigh        AvailabilityStatus = "high"
	AvailabilityMedium      AvailabilityStatus = "medium"
	AvailabilityLow         AvailabilityStatus = "low"
	AvailabilityFull        AvailabilityStatus = "full"
	AvailabilityUnavailable AvailabilityStatus = "unavailable"
	// AvailabilityAvailable is used when seats exist but the next event
	// has no known capacity to compute a ratio against.
	AvailabilityAvailable AvailabilityStatus = "available"
)

// Bookable reports whether a workshop in this state can be booked.
func (s AvailabilityStatus) Bookable() bool {
	switch s {
	case AvailabilityHigh, AvailabilityMedium, AvailabilityLow, AvailabilityAvailable:
		return true
	}
	return false
}

// AvailabilityInfo is the status plus a human label such as
// "Only 2 seats left".
type AvailabilityInfo struct {
	Status AvailabilityStatus `json:"status"`
	Label  string             `json:"label"`
}

// EnrichedWorkshop is a Workshop merged with the events that reference it.
// It is derived on every reconciliation and never stored on its own.
type EnrichedWorkshop struct {
	Workshop
	TotalAvailableSeats int                 `json:"totalAvailableSeats"`
	UpcomingEventsCount int                 `json:"upcomingEventsCount"`
	NextEvent           *EventWithCapacity  `json:"nextEvent"`
	AllEvents           []EventWithCapacity `json:"allEvents"`
	Availability        AvailabilityInfo    `json:"availability"`
}
