package booking

import (
	"fmt"

	"github.com/iliyamo/workshop-booking/internal/availability"
	"github.com/iliyamo/workshop-booking/internal/catalog"
	"github.com/iliyamo/workshop-booking/internal/model"
)

// EventOption is one pickable event card.
type EventOption struct {
	model.Event
	WorkshopName string  `json:"workshopName"`
	Venue        string  `json:"venue"`
	Price        float64 `json:"price"`
	Level        string  `json:"level"`
	SeatsLabel   string  `json:"seatsLabel"`
}

// OptionGroup is a titled run of event cards for one workshop.
type OptionGroup struct {
	WorkshopID string        `json:"workshopId"`
	Title      string        `json:"title"`
	Subtitle   string        `json:"subtitle"`
	Events     []EventOption `json:"events"`
}

// OptionList is the event picker. Preselected is set when the wizard was
// deep-linked to an event; Others holds the "browse other workshops"
// groups that follow a deep-linked workshop.
type OptionList struct {
	Preselected *EventOption  `json:"preselected,omitempty"`
	Groups      []OptionGroup `json:"groups"`
	Others      []OptionGroup `json:"others,omitempty"`
	Notice      string        `json:"notice,omitempty"`
}

// Options lays out the events of snap for the picker. A deep-linked event
// comes first with the other dates of its workshop; a deep-linked
// workshop comes first followed by every other workshop; otherwise all
// events are grouped by workshop. Events of unknown workshops are left out.
func Options(snap catalog.Snapshot, seed Seed) OptionList {
	workshops := make(map[string]model.Workshop, len(snap.Workshops))
	order := make([]string, 0, len(snap.Workshops))
	for _, ew := range snap.Workshops {
		workshops[ew.WorkshopID] = ew.Workshop
		order = append(order, ew.WorkshopID)
	}
	events := availability.SortByDate(snap.Events)

	byWorkshop := func(id, skip string) []model.Event {
		var out []model.Event
		for _, e := range events {
			if e.WorkshopID == id && e.EventID != skip {
				out = append(out, e)
			}
		}
		return out
	}

	if seed.EventID != "" {
		for _, e := range events {
			if e.EventID != seed.EventID {
				continue
			}
			w, ok := workshops[e.WorkshopID]
			if !ok {
				break
			}
			pre := option(e, w)
			list := OptionList{Preselected: &pre, Groups: []OptionGroup{}}
			if rest := byWorkshop(e.WorkshopID, e.EventID); len(rest) > 0 {
				list.Groups = append(list.Groups, group(w, rest, "Other Available Dates"))
			} else {
				list.Notice = "This is the only scheduled date for this workshop."
			}
			return list
		}
	}

	if w, ok := workshops[seed.WorkshopID]; ok && seed.WorkshopID != "" {
		if own := byWorkshop(w.WorkshopID, ""); len(own) > 0 {
			list := OptionList{Groups: []OptionGroup{group(w, own, "Choose Your Date")}}
			for _, id := range order {
				if id == w.WorkshopID {
					continue
				}
				if evs := byWorkshop(id, ""); len(evs) > 0 {
					list.Others = append(list.Others, group(workshops[id], evs, ""))
				}
			}
			return list
		}
	}

	list := OptionList{Groups: []OptionGroup{}}
	seen := map[string]bool{}
	for _, e := range events {
		if seen[e.WorkshopID] {
			continue
		}
		seen[e.WorkshopID] = true
		w, ok := workshops[e.WorkshopID]
		if !ok {
			continue
		}
		list.Groups = append(list.Groups, group(w, byWorkshop(w.WorkshopID, ""), ""))
	}
	if len(list.Groups) == 0 {
		list.Notice = "There are currently no scheduled events."
	}
	return list
}

func group(w model.Workshop, events []model.Event, title string) OptionGroup {
	if title == "" {
		title = w.Name
	}
	g := OptionGroup{
		WorkshopID: w.WorkshopID,
		Title:      title,
		Subtitle:   w.Format + " • " + w.Duration,
		Events:     make([]EventOption, 0, len(events)),
	}
	for _, e := range events {
		g.Events = append(g.Events, option(e, w))
	}
	return g
}

func option(e model.Event, w model.Workshop) EventOption {
	venue := e.VenueDetails
	if venue == "" {
		venue = w.Location
	}
	seats := int(e.AvailableSeats)
	return EventOption{
		Event:        e,
		WorkshopName: w.Name,
		Venue:        venue,
		Price:        w.Price,
		Level:        availability.SeatLevel(seats),
		SeatsLabel:   fmt.Sprintf("%d seats available", seats),
	}
}
