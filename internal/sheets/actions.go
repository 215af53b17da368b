package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"

	"github.com/iliyamo/workshop-booking/internal/model"
)

func decode[T any](action string, raw json.RawMessage) (T, error) {
	var out T
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &NetworkError{Action: action, Err: fmt.Errorf("decode data: %w", err)}
	}
	return out, nil
}

// GetWorkshops returns the workshop catalog.
func (c *Client) GetWorkshops(ctx context.Context) ([]model.Workshop, error) {
	raw, err := c.Get(ctx, "getWorkshops", nil)
	if err != nil {
		return nil, err
	}
	return decode[[]model.Workshop]("getWorkshops", raw)
}

// GetAllEvents returns every scheduled event.
func (c *Client) GetAllEvents(ctx context.Context) ([]model.Event, error) {
	raw, err := c.Get(ctx, "getAllEvents", nil)
	if err != nil {
		return nil, err
	}
	return decode[[]model.Event]("getAllEvents", raw)
}

// GetEventsForWorkshop returns the scheduled events of one workshop.
func (c *Client) GetEventsForWorkshop(ctx context.Context, workshopID string) ([]model.Event, error) {
	raw, err := c.Get(ctx, "getEvents", url.Values{"workshopId": {workshopID}})
	if err != nil {
		return nil, err
	}
	return decode[[]model.Event]("getEvents", raw)
}

// CheckAvailability asks for the live seat state of an event. It never
// touches the response cache: callers use it right before a decision that
// depends on seats still being there.
func (c *Client) CheckAvailability(ctx context.Context, eventID string) (model.Availability, error) {
	raw, err := c.get(ctx, "checkAvailability", c.actionURL("checkAvailability", url.Values{"eventId": {eventID}}))
	if err != nil {
		return model.Availability{}, err
	}
	av, err := decode[model.Availability]("checkAvailability", raw)
	if err == nil {
		log.Printf("sheets: event %s available=%t seats=%d", eventID, av.IsAvailable, av.AvailableSeats)
	}
	return av, err
}

// CreateCheckoutSession starts a hosted payment session for the customer.
func (c *Client) CreateCheckoutSession(ctx context.Context, eventID string, customer model.CustomerData) (model.CheckoutSession, error) {
	raw, err := c.Post(ctx, "createCheckoutSession", map[string]any{
		"eventId":      eventID,
		"customerData": customer,
	})
	if err != nil {
		return model.CheckoutSession{}, err
	}
	return decode[model.CheckoutSession]("createCheckoutSession", raw)
}

// ValidateBooking asks the API whether numSeats can still be booked on the
// event. A refusal comes back as *APIError carrying the server message.
func (c *Client) ValidateBooking(ctx context.Context, eventID string, numSeats int) error {
	if numSeats < 1 {
		numSeats = 1
	}
	_, err := c.Post(ctx, "validateBooking", map[string]any{
		"eventId":  eventID,
		"numSeats": numSeats,
	})
	return err
}

// ConfirmBooking settles a paid checkout session into a booking.
func (c *Client) ConfirmBooking(ctx context.Context, sessionID string) (model.BookingConfirmation, error) {
	raw, err := c.Post(ctx, "confirmBooking", map[string]any{"sessionId": sessionID})
	if err != nil {
		return model.BookingConfirmation{}, err
	}
	conf, err := decode[model.BookingConfirmation]("confirmBooking", raw)
	if err == nil && conf.SessionID == "" {
		conf.SessionID = sessionID
	}
	return conf, err
}
