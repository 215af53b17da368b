// Package admin is the read-only staff view over bookings: filtering,
// summary statistics and CSV export.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/iliyamo/workshop-booking/internal/catalog"
	"github.com/iliyamo/workshop-booking/internal/model"
)

// ErrNoBookings is returned by ExportCSV when there is nothing to export.
var ErrNoBookings = errors.New("admin: no bookings to export")

// BookingSource lists stored bookings. *repository.BookingRepo satisfies it.
type BookingSource interface {
	List(ctx context.Context) ([]model.BookingRecord, error)
}

// ScheduleSource provides workshops and events. *catalog.TieredCache satisfies it.
type ScheduleSource interface {
	Init(ctx context.Context) (catalog.Snapshot, error)
}

// Filter narrows the booking list. Search matches booking id, customer
// name or email case-insensitively; Status must match exactly. Empty
// fields match everything.
type Filter struct {
	Search string `query:"q"`
	Status string `query:"status"`
}

// Match reports whether b passes the filter.
func (f Filter) Match(b model.BookingRecord) bool {
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	term := strings.ToLower(strings.TrimSpace(f.Search))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(b.BookingID), term) ||
		strings.Contains(strings.ToLower(b.CustomerName), term) ||
		strings.Contains(strings.ToLower(b.Email), term)
}

// Stats summarises the booking list. Revenue and seats only count
// confirmed bookings.
type Stats struct {
	ConfirmedBookings int     `json:"confirmedBookings"`
	Revenue           float64 `json:"revenue"`
	Seats             int     `json:"seats"`
	ActiveEvents      int     `json:"activeEvents"`
}

// ComputeStats derives Stats from bookings and events.
func ComputeStats(bookings []model.BookingRecord, events []model.Event) Stats {
	var s Stats
	for _, b := range bookings {
		if b.Status != model.BookingStatusConfirmed {
			continue
		}
		s.ConfirmedBookings++
		s.Revenue += b.TotalAmount
		s.Seats += int(b.NumSeats)
	}
	for _, e := range events {
		if e.Status == model.StatusActive {
			s.ActiveEvents++
		}
	}
	return s
}

// Row is a booking joined with the event and workshop it is for.
type Row struct {
	model.BookingRecord
	WorkshopName string `json:"workshopName"`
	EventDate    string `json:"eventDate"`
}

// Dashboard is one load of the admin view.
type Dashboard struct {
	Rows     []Row     `json:"bookings"`
	Total    int       `json:"total"`
	Stats    Stats     `json:"stats"`
	Degraded bool      `json:"degraded"`
	LoadedAt time.Time `json:"loadedAt"`
}

// View loads bookings and the schedule and shapes them for staff.
type View struct {
	bookings BookingSource
	schedule ScheduleSource
	now      func() time.Time
}

// NewView wires a View.
func NewView(bookings BookingSource, schedule ScheduleSource) *View {
	return &View{bookings: bookings, schedule: schedule, now: time.Now}
}

// Load reads everything and returns the bookings matching f, newest
// first. Stats always cover the unfiltered list.
func (v *View) Load(ctx context.Context, f Filter) (Dashboard, error) {
	all, err := v.bookings.List(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("admin: list bookings: %w", err)
	}
	snap, err := v.schedule.Init(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("admin: load schedule: %w", err)
	}
	if snap.Degraded {
		log.Printf("admin: schedule is degraded, event names may be missing")
	}

	events := make(map[string]model.Event, len(snap.Events))
	for _, e := range snap.Events {
		events[e.EventID] = e
	}
	workshops := make(map[string]string, len(snap.Workshops))
	for _, w := range snap.Workshops {
		workshops[w.WorkshopID] = w.Name
	}

	matched := Apply(all, f)
	rows := make([]Row, 0, len(matched))
	for _, b := range matched {
		r := Row{BookingRecord: b}
		if e, ok := events[b.EventID]; ok {
			r.EventDate = e.EventDate
			r.WorkshopName = workshops[e.WorkshopID]
		}
		rows = append(rows, r)
	}
	return Dashboard{
		Rows:     rows,
		Total:    len(all),
		Stats:    ComputeStats(all, snap.Events),
		Degraded: snap.Degraded,
		LoadedAt: v.now().UTC(),
	}, nil
}

// Bookings returns the bookings matching f, newest first.
func (v *View) Bookings(ctx context.Context, f Filter) ([]model.BookingRecord, error) {
	all, err := v.bookings.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("admin: list bookings: %w", err)
	}
	return Apply(all, f), nil
}

// Apply filters bookings and sorts the result newest first. The input is
// not modified.
func Apply(bookings []model.BookingRecord, f Filter) []model.BookingRecord {
	out := make([]model.BookingRecord, 0, len(bookings))
	for _, b := range bookings {
		if f.Match(b) {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].BookingTimestamp.After(out[j].BookingTimestamp)
	})
	return out
}
