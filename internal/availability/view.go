package availability

import (
	"fmt"
	"log"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/workshop-booking/internal/model"
)

// BadgeKind is the visual weight of a badge.
type BadgeKind string

const (
	BadgeSuccess BadgeKind = "success"
	BadgeWarning BadgeKind = "warning"
	BadgeDanger  BadgeKind = "danger"
	BadgeInfo    BadgeKind = "info"
)

// Badge is a short status pill shown next to an event.
type Badge struct {
	Text string    `json:"text"`
	Kind BadgeKind `json:"kind"`
}

const (
	nearlyFullSeats = 5
	closingSoonDays = 7
)

// EventBadges returns the pills for one event. A sold out or inactive
// event gets a single "Sold Out" badge.
func EventBadges(e model.Event, now time.Time) []Badge {
	seats := int(e.AvailableSeats)
	if seats <= 0 || !e.IsActive() {
		return []Badge{{Text: "Sold Out", Kind: BadgeDanger}}
	}

	kind := BadgeSuccess
	if seats <= nearlyFullSeats {
		kind = BadgeWarning
	}
	badges := []Badge{{Text: fmt.Sprintf("%d seat%s left", seats, plural(seats)), Kind: kind}}

	if d, ok := e.Date(); ok {
		days := int(math.Ceil(d.Sub(now).Hours() / 24))
		if days > 0 && days <= closingSoonDays {
			badges = append(badges, Badge{Text: "Closing Soon", Kind: BadgeInfo})
		}
	}
	if seats <= nearlyFullSeats {
		badges = append(badges, Badge{Text: "Nearly Full!", Kind: BadgeWarning})
	}
	return badges
}

// SeatLabel renders the seat count of a calendar row. class is "full",
// "low" or empty.
func SeatLabel(available, total int) (text, class string) {
	switch {
	case available <= 0:
		return "Fully Booked", "full"
	case available <= nearlyFullSeats:
		return fmt.Sprintf("Only %d left!", available), "low"
	default:
		return fmt.Sprintf("%d of %d available", available, total), ""
	}
}

// SeatLevel buckets a seat count for the event picker: more than 10 is
// "high", more than 5 is "medium", anything else "low".
func SeatLevel(available int) string {
	switch {
	case available > 10:
		return "high"
	case available > nearlyFullSeats:
		return "medium"
	default:
		return "low"
	}
}

// CalendarRow is one event line of the public calendar.
type CalendarRow struct {
	model.Event
	Venue     string `json:"venue"`
	Time      string `json:"time"`
	SeatText  string `json:"seatText"`
	SeatClass string `json:"seatClass,omitempty"`
	Bookable  bool   `json:"bookable"`
}

// CalendarGroup is every scheduled event of one workshop. Workshop is nil
// when the catalog has no entry for WorkshopID.
type CalendarGroup struct {
	WorkshopID string          `json:"workshopId"`
	Workshop   *model.Workshop `json:"workshop"`
	Events     []CalendarRow   `json:"events"`
}

// GroupCalendar groups events per workshop, sorts each group by date and
// orders the groups by the numeric suffix of ids like "service-12".
func GroupCalendar(workshops []model.Workshop, events []model.Event) []CalendarGroup {
	byID := make(map[string]model.Workshop, len(workshops))
	for _, w := range workshops {
		byID[w.WorkshopID] = w
	}

	grouped := make(map[string][]model.Event)
	for _, e := range events {
		if e.WorkshopID == "" {
			log.Printf("availability: event %q has no workshop id", e.EventID)
			continue
		}
		grouped[e.WorkshopID] = append(grouped[e.WorkshopID], e)
	}

	groups := make([]CalendarGroup, 0, len(grouped))
	for id, evs := range grouped {
		g := CalendarGroup{WorkshopID: id}
		if w, ok := byID[id]; ok {
			g.Workshop = &w
		} else {
			log.Printf("availability: no catalog entry for workshop %q", id)
		}
		for _, e := range SortByDate(evs) {
			g.Events = append(g.Events, calendarRow(e, g.Workshop))
		}
		groups = append(groups, g)
	}

	sort.Slice(groups, func(i, j int) bool {
		ni, oki := serviceNumber(groups[i].WorkshopID)
		nj, okj := serviceNumber(groups[j].WorkshopID)
		switch {
		case oki && okj && ni != nj:
			return ni < nj
		case oki != okj:
			return oki
		}
		return groups[i].WorkshopID < groups[j].WorkshopID
	})
	return groups
}

func calendarRow(e model.Event, w *model.Workshop) CalendarRow {
	row := CalendarRow{Event: e, Venue: e.VenueDetails, Time: e.EventTime}
	total := 0
	if w != nil {
		total = int(w.TotalSeats)
		if row.Venue == "" {
			row.Venue = w.Location
		}
	}
	if row.Venue == "" {
		row.Venue = "TBC"
	}
	if row.Time == "" {
		row.Time = "TBC"
	}
	row.SeatText, row.SeatClass = SeatLabel(int(e.AvailableSeats), total)
	row.Bookable = e.AvailableSeats > 0 && e.IsActive()
	return row
}

func serviceNumber(id string) (int, bool) {
	i := strings.LastIndexByte(id, '-')
	if i < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(id[i+1:])
	return n, err == nil
}

// DeepLinkEventID returns the event query parameter of a booking link,
// or "" when there is none.
func DeepLinkEventID(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(u.Query().Get("event"))
}
