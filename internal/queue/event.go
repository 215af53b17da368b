// Package queue defines message payloads exchanged over the message broker.
package queue

import "github.com/iliyamo/workshop-booking/internal/model"

// Queue names. Both are durable.
const (
	BookingConfirmedQueue = "booking.confirmed"
	CheckoutStartedQueue  = "booking.checkout_started"
)

// BookingConfirmedEvent is published once the booking API has confirmed a
// paid checkout session. It carries the whole confirmation so consumers
// can store the booking without calling the API again.
type BookingConfirmedEvent struct {
	Booking     model.BookingConfirmation `json:"booking"`
	ConfirmedAt string                    `json:"confirmed_at"`
}

// CheckoutStartedEvent is published when a wizard hands a customer off to
// the payment page. Nothing is booked yet at that point.
type CheckoutStartedEvent struct {
	SessionID string `json:"session_id"`
	EventID   string `json:"event_id"`
	Email     string `json:"email"`
	NumSeats  int    `json:"num_seats"`
	StartedAt string `json:"started_at"`
}
