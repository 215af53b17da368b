package handler

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/workshop-booking/internal/admin"
	"github.com/iliyamo/workshop-booking/internal/booking"
	"github.com/iliyamo/workshop-booking/internal/catalog"
	"github.com/iliyamo/workshop-booking/internal/repository"
	"github.com/iliyamo/workshop-booking/internal/sheets"
)

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var verrs booking.ValidationErrors
	var stale *booking.StaleDataError
	var timeout *sheets.TimeoutError
	var netErr *sheets.NetworkError
	var apiErr *sheets.APIError
	switch {
	case errors.As(err, &verrs), errors.Is(err, booking.ErrNoEventSelected):
		return http.StatusUnprocessableEntity
	case errors.As(err, &stale), errors.Is(err, booking.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, booking.ErrInvalidTransition):
		return http.StatusBadRequest
	case errors.Is(err, booking.ErrWizardClosed):
		return http.StatusGone
	case errors.Is(err, booking.ErrSessionNotFound),
		errors.Is(err, catalog.ErrWorkshopNotFound),
		errors.Is(err, repository.ErrBookingNotFound),
		errors.Is(err, admin.ErrNoBookings):
		return http.StatusNotFound
	case errors.As(err, &timeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &netErr), errors.As(err, &apiErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// respondError writes err as {"error": ...}. Validation failures also list
// the offending fields. Unmapped errors are logged and hidden.
func respondError(c echo.Context, err error) error {
	status := statusFor(err)
	body := echo.Map{"error": err.Error()}

	var verrs booking.ValidationErrors
	var stale *booking.StaleDataError
	var apiErr *sheets.APIError
	switch {
	case errors.As(err, &verrs):
		body["error"] = "validation failed"
		body["fields"] = verrs
	case errors.As(err, &stale):
		body["error"] = stale.Message
		body["eventId"] = stale.EventID
	case errors.As(err, &apiErr):
		body["error"] = apiErr.Message
	case status == http.StatusInternalServerError:
		log.Printf("handler: %s %s: %v", c.Request().Method, c.Path(), err)
		body["error"] = "internal error"
	}
	return c.JSON(status, body)
}
