package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Workshop is a catalog entry: a recurring class or session type that
// scheduled events are instances of. Workshops change rarely and are
// refreshed wholesale from the Workshop Catalog sheet.
//
// Fields:
//  WorkshopID  – unique key (e.g. "service-3").
//  Name        – display name.
//  Description – short marketing description.
//  Format      – delivery format (In-person, Online, ...).
//  Duration    – free text duration ("1 day", "3 hours").
//  Location    – default venue when an event has none.
//  Price       – price per seat in NZD.
//  TotalSeats  – capacity of every event instance.
//  Status      – Active or Inactive.
type Workshop struct {
	WorkshopID  string  `json:"workshopId"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Format      string  `json:"format,omitempty"`
	Duration    string  `json:"duration,omitempty"`
	Location    string  `json:"location,omitempty"`
	Price       float64 `json:"price"`
	TotalSeats  Count   `json:"totalSeats"`
	Status      string  `json:"status"`
}

// StatusActive is the status value the sheets use for bookable rows.
const StatusActive = "Active"

// IsActive reports whether the workshop is bookable.
func (w Workshop) IsActive() bool { return strings.EqualFold(w.Status, StatusActive) }

// Count is a seat count. Spreadsheet cells sometimes come back as strings,
// so it accepts "12", 12 and 12.0 alike. Anything unparseable decodes to 0.
type Count int

// UnmarshalJSON implements json.Unmarshaler.
func (c *Count) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*c = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(strings.TrimSpace(s))
	}
	if n, err := strconv.Atoi(string(b)); err == nil {
		*c = Count(n)
		return nil
	}
	if f, err := strconv.ParseFloat(string(b), 64); err == nil {
		*c = Count(int(f))
		return nil
	}
	*c = 0
	return nil
}
