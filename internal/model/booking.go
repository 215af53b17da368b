package model

import "time"

// CustomerData is the customer part of a createCheckoutSession request.
type CustomerData struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Organization    string `json:"organization"`
	Designation     string `json:"designation"`
	NumSeats        int    `json:"numSeats"`
	NewsletterOptIn bool   `json:"newsletterOptIn"`
	PromoOptIn      bool   `json:"promoOptIn"`
}

// CheckoutSession is the hosted payment page handed back by the API.
type CheckoutSession struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// BookingRecord mirrors a row of the Bookings sheet and of the local
// `bookings` table that confirmed bookings are copied into.
//
// Fields:
//  BookingID        – booking reference issued by the API.
//  EventID          – booked event.
//  CustomerName     – full name entered in the wizard.
//  Email, Phone     – contact details.
//  Organization     – optional.
//  Designation      – optional.
//  NumSeats         – seats purchased.
//  TotalAmount      – amount charged in NZD.
//  StripePaymentID  – payment reference, if any.
//  PaymentStatus    – paid, unpaid, ...
//  NewsletterOptIn  – "Yes"/"No" as the sheet stores it.
//  PromoOptIn       – "Yes"/"No".
//  BookingTimestamp – when the booking was made.
//  Status           – Confirmed, Pending, Cancelled.
type BookingRecord struct {
	BookingID        string    `json:"bookingId"`
	EventID          string    `json:"eventId"`
	CustomerName     string    `json:"customerName"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	Organization     string    `json:"organization"`
	Designation      string    `json:"designation"`
	NumSeats         Count     `json:"numSeats"`
	TotalAmount      float64   `json:"totalAmount"`
	StripePaymentID  string    `json:"stripePaymentId"`
	PaymentStatus    string    `json:"paymentStatus"`
	NewsletterOptIn  string    `json:"newsletterOptIn"`
	PromoOptIn       string    `json:"promoOptIn"`
	BookingTimestamp time.Time `json:"bookingTimestamp"`
	Status           string    `json:"status"`
}

// BookingStatusConfirmed is the status the admin stats count.
const BookingStatusConfirmed = "Confirmed"

// BookingConfirmation is what confirmBooking returns once the payment
// provider has settled the checkout session. Timestamps stay as the raw
// strings the sheet produced; Record parses them.
type BookingConfirmation struct {
	BookingID        string  `json:"bookingId"`
	SessionID        string  `json:"sessionId"`
	EventID          string  `json:"eventId"`
	CustomerName     string  `json:"customerName"`
	Email            string  `json:"email"`
	Phone            string  `json:"phone"`
	Organization     string  `json:"organization"`
	Designation      string  `json:"designation"`
	NumSeats         Count   `json:"numSeats"`
	TotalAmount      float64 `json:"totalAmount"`
	StripePaymentID  string  `json:"stripePaymentId"`
	PaymentStatus    string  `json:"paymentStatus"`
	NewsletterOptIn  string  `json:"newsletterOptIn"`
	PromoOptIn       string  `json:"promoOptIn"`
	BookingTimestamp string  `json:"bookingTimestamp"`
	Status           string  `json:"status"`
}

// Record converts the confirmation into the row stored locally. A missing
// or unparseable timestamp falls back to now.
func (c BookingConfirmation) Record(now time.Time) BookingRecord {
	ts, err := time.Parse(time.RFC3339Nano, c.BookingTimestamp)
	if err != nil {
		ts = now
	}
	status := c.Status
	if status == "" {
		status = BookingStatusConfirmed
	}
	return BookingRecord{
		BookingID:        c.BookingID,
		EventID:          c.EventID,
		CustomerName:     c.CustomerName,
		Email:            c.Email,
		Phone:            c.Phone,
		Organization:     c.Organization,
		Designation:      c.Designation,
		NumSeats:         c.NumSeats,
		TotalAmount:      c.TotalAmount,
		StripePaymentID:  c.StripePaymentID,
		PaymentStatus:    c.PaymentStatus,
		NewsletterOptIn:  c.NewsletterOptIn,
		PromoOptIn:       c.PromoOptIn,
		BookingTimestamp: ts.UTC(),
		Status:           status,
	}
}
