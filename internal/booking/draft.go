package booking

import (
	"fmt"

	"github.com/iliyamo/workshop-booking/internal/model"
)

// EventSnapshot is what the wizard knew about the chosen event when it
// was selected.
type EventSnapshot struct {
	Event        model.Event        `json:"event"`
	Workshop     model.Workshop     `json:"workshop"`
	Availability model.Availability `json:"availability"`
}

// Venue falls back to the workshop location.
func (s EventSnapshot) Venue() string {
	if s.Event.VenueDetails != "" {
		return s.Event.VenueDetails
	}
	return s.Workshop.Location
}

// Draft is the booking being assembled. It lives only in memory and is
// sent as one payload when the customer pays.
type Draft struct {
	EventID         string         `json:"eventId"`
	EventDetails    *EventSnapshot `json:"eventDetails,omitempty"`
	FullName        string         `json:"fullName"`
	Email           string         `json:"email"`
	Phone           string         `json:"phone"`
	Organization    string         `json:"organization"`
	Designation     string         `json:"designation"`
	NewsletterOptIn bool           `json:"newsletterOptIn"`
	PromoOptIn      bool           `json:"promoOptIn"`
	NumSeats        int            `json:"numSeats"`
}

func newDraft() Draft { return Draft{NumSeats: 1} }

// Customer is the checkout payload built from the draft.
func (d Draft) Customer() model.CustomerData {
	return model.CustomerData{
		Name:            d.FullName,
		Email:           d.Email,
		Phone:           d.Phone,
		Organization:    d.Organization,
		Designation:     d.Designation,
		NumSeats:        d.NumSeats,
		NewsletterOptIn: d.NewsletterOptIn,
		PromoOptIn:      d.PromoOptIn,
	}
}

// Review is the read-only summary shown before payment.
type Review struct {
	Workshop        string  `json:"workshop"`
	Date            string  `json:"date"`
	Time            string  `json:"time"`
	Location        string  `json:"location"`
	FullName        string  `json:"fullName"`
	Email           string  `json:"email"`
	Phone           string  `json:"phone"`
	Organization    string  `json:"organization,omitempty"`
	Designation     string  `json:"designation,omitempty"`
	NumSeats        int     `json:"numSeats"`
	UnitPrice       float64 `json:"unitPrice"`
	Total           float64 `json:"total"`
	Currency        string  `json:"currency"`
	TotalLabel      string  `json:"totalLabel"`
	NewsletterOptIn bool    `json:"newsletterOptIn"`
	PromoOptIn      bool    `json:"promoOptIn"`
}

const reviewDateLayout = "Monday, 2 January 2006"

func buildReview(d Draft, currency string) *Review {
	r := &Review{
		FullName:        d.FullName,
		Email:           d.Email,
		Phone:           d.Phone,
		Organization:    d.Organization,
		Designation:     d.Designation,
		NumSeats:        d.NumSeats,
		Currency:        currency,
		NewsletterOptIn: d.NewsletterOptIn,
		PromoOptIn:      d.PromoOptIn,
	}
	if s := d.EventDetails; s != nil {
		r.Workshop = s.Workshop.Name
		r.Time = s.Event.EventTime
		r.Location = s.Venue()
		r.Date = s.Event.EventDate
		if t, ok := s.Event.Date(); ok {
			r.Date = t.Format(reviewDateLayout)
		}
		r.UnitPrice = s.Workshop.Price
	}
	r.Total = r.UnitPrice * float64(r.NumSeats)
	r.TotalLabel = fmt.Sprintf("$%.2f %s", r.Total, currency)
	return r
}
