package handler

import (
	"bytes"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/workshop-booking/internal/admin"
)

// AdminHandler serves the staff booking views.
type AdminHandler struct {
	View *admin.View
	Now  func() time.Time
}

func NewAdminHandler(v *admin.View) *AdminHandler {
	return &AdminHandler{View: v, Now: time.Now}
}

func bindFilter(c echo.Context) (admin.Filter, error) {
	var f admin.Filter
	err := (&echo.DefaultBinder{}).BindQueryParams(c, &f)
	return f, err
}

// Bookings returns the filtered booking list with stats.
func (h *AdminHandler) Bookings(c echo.Context) error {
	f, err := bindFilter(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid query"})
	}
	d, err := h.View.Load(c.Request().Context(), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

// ExportCSV downloads the filtered booking list.
func (h *AdminHandler) ExportCSV(c echo.Context) error {
	f, err := bindFilter(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid query"})
	}
	bookings, err := h.View.Bookings(c.Request().Context(), f)
	if err != nil {
		return respondError(c, err)
	}
	var buf bytes.Buffer
	if err := admin.ExportCSV(&buf, bookings); err != nil {
		return respondError(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+admin.ExportFilename(h.Now())+`"`)
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
