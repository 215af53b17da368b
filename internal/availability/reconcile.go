// Package availability merges the slow-changing workshop catalog with the
// fast-changing scheduled events into the per-workshop views the booking
// pages render. Everything here is a pure function of its inputs and the
// supplied clock.
package availability

import (
	"log"
	"sort"
	"time"

	"github.com/iliyamo/workshop-booking/internal/model"
)

// Reconcile enriches every catalog workshop with its events. Output order
// follows the catalog. Events that reference a workshop missing from the
// catalog are dropped with a warning.
func Reconcile(workshops []model.Workshop, events []model.Event, now time.Time) []model.EnrichedWorkshop {
	known := make(map[string]struct{}, len(workshops))
	for _, w := range workshops {
		known[w.WorkshopID] = struct{}{}
	}
	grouped := make(map[string][]model.Event, len(workshops))
	for _, e := range events {
		if _, ok := known[e.WorkshopID]; !ok {
			log.Printf("availability: dropping event %q for unknown workshop %q", e.EventID, e.WorkshopID)
			continue
		}
		grouped[e.WorkshopID] = append(grouped[e.WorkshopID], e)
	}

	out := make([]model.EnrichedWorkshop, 0, len(workshops))
	for _, w := range workshops {
		out = append(out, Enrich(w, grouped[w.WorkshopID], now))
	}
	return out
}

// Enrich builds the view of one workshop from the events that belong to
// it. TotalAvailableSeats sums every event, past ones included; only the
// upcoming count and NextEvent look at dates.
func Enrich(w model.Workshop, events []model.Event, now time.Time) model.EnrichedWorkshop {
	sorted := SortByDate(events)

	ew := model.EnrichedWorkshop{
		Workshop:  w,
		AllEvents: make([]model.EventWithCapacity, 0, len(sorted)),
	}
	for _, e := range sorted {
		withCap := model.EventWithCapacity{Event: e, TotalSeats: w.TotalSeats}
		ew.AllEvents = append(ew.AllEvents, withCap)
		ew.TotalAvailableSeats += int(e.AvailableSeats)
		if IsUpcoming(e, now) {
			ew.UpcomingEventsCount++
			if ew.NextEvent == nil {
				next := withCap
				ew.NextEvent = &next
			}
		}
	}
	ew.Availability = Classify(ew, now)
	return ew
}

// IsUpcoming reports whether the event date is at or after now. Events
// without a parseable date are never upcoming.
func IsUpcoming(e model.Event, now time.Time) bool {
	d, ok := e.Date()
	return ok && !d.Before(now)
}

// SortByDate returns a copy of events ordered by date ascending. Undated
// events go last; ties are broken by event id so the order never depends
// on the input order.
func SortByDate(events []model.Event) []model.Event {
	out := make([]model.Event, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool {
		di, oki := out[i].Date()
		dj, okj := out[j].Date()
		switch {
		case oki && okj && !di.Equal(dj):
			return di.Before(dj)
		case oki != okj:
			return oki
		}
		return out[i].EventID < out[j].EventID
	})
	return out
}
