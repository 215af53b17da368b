package availability

import (
	"fmt"
	"time"

	"github.com/iliyamo/workshop-booking/internal/model"
)

// Classify places a workshop in one of the availability tiers:
//
//	no upcoming events                -> unavailable
//	no seats left on upcoming events  -> full
//	next event >= 50% free            -> high
//	next event >= 20% free            -> medium
//	otherwise                         -> low
//
// When the next event has no known capacity the workshop is simply
// "available". now decides which of ew.AllEvents are upcoming.
func Classify(ew model.EnrichedWorkshop, now time.Time) model.AvailabilityInfo {
	if ew.UpcomingEventsCount == 0 {
		return model.AvailabilityInfo{Status: model.AvailabilityUnavailable, Label: "No upcoming dates"}
	}
	upcomingSeats := 0
	for _, e := range ew.AllEvents {
		if IsUpcoming(e.Event, now) && e.AvailableSeats > 0 {
			upcomingSeats += int(e.AvailableSeats)
		}
	}
	total := ew.TotalAvailableSeats
	if total <= 0 || upcomingSeats == 0 {
		return model.AvailabilityInfo{Status: model.AvailabilityFull, Label: "Fully booked"}
	}

	available := fmt.Sprintf("%d seat%s available", total, plural(total))
	if ew.NextEvent == nil || ew.NextEvent.TotalSeats <= 0 {
		return model.AvailabilityInfo{Status: model.AvailabilityAvailable, Label: available}
	}

	free := int(ew.NextEvent.AvailableSeats)
	capacity := int(ew.NextEvent.TotalSeats)
	switch {
	case free*2 >= capacity:
		return model.AvailabilityInfo{Status: model.AvailabilityHigh, Label: available}
	case free*5 >= capacity:
		return model.AvailabilityInfo{Status: model.AvailabilityMedium, Label: available}
	default:
		return model.AvailabilityInfo{
			Status: model.AvailabilityLow,
			Label:  fmt.Sprintf("Only %d seat%s left", total, plural(total)),
		}
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
