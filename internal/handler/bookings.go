package handler

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/workshop-booking/internal/booking"
	"github.com/iliyamo/workshop-booking/internal/catalog"
	"github.com/iliyamo/workshop-booking/internal/model"
)

// Snapshotter hands the wizard the schedule to pick from.
type Snapshotter interface {
	Init(ctx context.Context) (catalog.Snapshot, error)
}

// Confirmer settles a paid checkout session. *sheets.Client satisfies it.
type Confirmer interface {
	ConfirmBooking(ctx context.Context, sessionID string) (model.BookingConfirmation, error)
}

// ConfirmationPublisher announces confirmed bookings. *service.Publisher
// satisfies it.
type ConfirmationPublisher interface {
	PublishBookingConfirmed(ctx context.Context, c model.BookingConfirmation) error
}

// BookingHandler drives booking wizards over HTTP. Each wizard lives in
// the registry under a session id returned by Create.
type BookingHandler struct {
	Sessions  *booking.Registry
	Schedule  Snapshotter
	Confirmer Confirmer
	Publisher ConfirmationPublisher
}

func NewBookingHandler(reg *booking.Registry, schedule Snapshotter, confirmer Confirmer, pub ConfirmationPublisher) *BookingHandler {
	return &BookingHandler{Sessions: reg, Schedule: schedule, Confirmer: confirmer, Publisher: pub}
}

type wizardResp struct {
	ID      string             `json:"id"`
	State   booking.State      `json:"state"`
	Options booking.OptionList `json:"options"`
}

func wizardBody(id string, w *booking.Wizard) wizardResp {
	return wizardResp{ID: id, State: w.State(), Options: w.Options()}
}

// Create starts a wizard. ?event= preselects an event and ?workshop=
// puts a workshop's dates first.
func (h *BookingHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	snap, err := h.Schedule.Init(ctx)
	if err != nil {
		return respondError(c, err)
	}
	seed := booking.Seed{
		EventID:    strings.TrimSpace(c.QueryParam("event")),
		WorkshopID: strings.TrimSpace(c.QueryParam("workshop")),
	}
	id, w := h.Sessions.Create(ctx, snap, seed)
	return c.JSON(http.StatusCreated, wizardBody(id, w))
}

// Get returns a wizard's state and event options.
func (h *BookingHandler) Get(c echo.Context) error {
	id := c.Param("id")
	w, err := h.Sessions.Get(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, wizardBody(id, w))
}

// Delete abandons a wizard.
func (h *BookingHandler) Delete(c echo.Context) error {
	id := c.Param("id")
	if _, err := h.Sessions.Get(id); err != nil {
		return respondError(c, err)
	}
	h.Sessions.Delete(id)
	return c.NoContent(http.StatusNoContent)
}

// Select picks the event on step 1.
func (h *BookingHandler) Select(c echo.Context) error {
	var ev booking.SelectEvent
	if err := c.Bind(&ev); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	return h.transition(c, ev)
}

// Next submits the current step's fields. The body is the fields object.
func (h *BookingHandler) Next(c echo.Context) error {
	var f booking.Fields
	if err := c.Bind(&f); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	return h.transition(c, booking.Next{Fields: f})
}

// Back returns to an earlier step.
func (h *BookingHandler) Back(c echo.Context) error {
	var ev booking.Back
	if err := c.Bind(&ev); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	return h.transition(c, ev)
}

// Pay re-validates the booking and opens the checkout session. The state
// in the response carries the payment page URL.
func (h *BookingHandler) Pay(c echo.Context) error {
	return h.transition(c, booking.Pay{})
}

func (h *BookingHandler) transition(c echo.Context, ev booking.Event) error {
	id := c.Param("id")
	w, err := h.Sessions.Get(id)
	if err != nil {
		return respondError(c, err)
	}
	if _, err := w.Transition(c.Request().Context(), ev); err != nil {
		st := w.State()
		msg := st.Error
		if msg == "" {
			msg = err.Error()
		}
		body := echo.Map{"error": msg, "state": st}
		if verrs, ok := err.(booking.ValidationErrors); ok {
			body["fields"] = verrs
		}
		return c.JSON(statusFor(err), body)
	}
	return c.JSON(http.StatusOK, wizardBody(id, w))
}

// Confirm is where the payment page sends the customer back. The session
// is settled with the booking API and the booking is announced on the
// broker for the admin store.
func (h *BookingHandler) Confirm(c echo.Context) error {
	sessionID := strings.TrimSpace(c.QueryParam("session_id"))
	if sessionID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "session_id required"})
	}
	ctx := c.Request().Context()
	conf, err := h.Confirmer.ConfirmBooking(ctx, sessionID)
	if err != nil {
		return respondError(c, err)
	}
	if h.Publisher != nil {
		if err := h.Publisher.PublishBookingConfirmed(ctx, conf); err != nil {
			log.Printf("handler: booking %s confirmed but not published: %v", conf.BookingID, err)
		}
	}
	return c.JSON(http.StatusOK, conf)
}
