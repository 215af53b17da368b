package handler

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/workshop-booking/internal/availability"
	"github.com/iliyamo/workshop-booking/internal/catalog"
	"github.com/iliyamo/workshop-booking/internal/model"
)

// Catalog is the read side of the tiered cache. *catalog.TieredCache
// satisfies it.
type Catalog interface {
	Init(ctx context.Context) (catalog.Snapshot, error)
	ForceRefresh(ctx context.Context) (catalog.Snapshot, error)
	WorkshopByID(ctx context.Context, id string) (model.EnrichedWorkshop, error)
	Info(ctx context.Context) catalog.Info
	Clear(ctx context.Context) error
	ExportJSON(ctx context.Context, w io.Writer) error
}

// AvailabilityChecker asks the booking API for live seat counts.
type AvailabilityChecker interface {
	CheckAvailability(ctx context.Context, eventID string) (model.Availability, error)
}

// WorkshopHandler serves the public catalog and calendar.
type WorkshopHandler struct {
	Catalog Catalog
	Live    AvailabilityChecker
	Now     func() time.Time
}

func NewWorkshopHandler(cat Catalog, live AvailabilityChecker) *WorkshopHandler {
	return &WorkshopHandler{Catalog: cat, Live: live, Now: time.Now}
}

type snapshotResp struct {
	catalog.Snapshot
	CatalogAgeSeconds float64 `json:"catalogAgeSeconds"`
	EventsAgeSeconds  float64 `json:"eventsAgeSeconds"`
}

func toSnapshotResp(s catalog.Snapshot) snapshotResp {
	if s.Workshops == nil {
		s.Workshops = []model.EnrichedWorkshop{}
	}
	if s.Events == nil {
		s.Events = []model.Event{}
	}
	return snapshotResp{
		Snapshot:          s,
		CatalogAgeSeconds: s.CatalogAge.Seconds(),
		EventsAgeSeconds:  s.EventsAge.Seconds(),
	}
}

// List returns the reconciled workshops. A degraded snapshot is still a
// 200; only a cancelled request fails.
func (h *WorkshopHandler) List(c echo.Context) error {
	snap, err := h.Catalog.Init(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toSnapshotResp(snap))
}

// Get returns one workshop with its live events.
func (h *WorkshopHandler) Get(c echo.Context) error {
	ew, err := h.Catalog.WorkshopByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, ew)
}

// Refresh drops every cache and refetches both lanes.
func (h *WorkshopHandler) Refresh(c echo.Context) error {
	snap, err := h.Catalog.ForceRefresh(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toSnapshotResp(snap))
}

// CacheInfo reports both lanes.
func (h *WorkshopHandler) CacheInfo(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Catalog.Info(c.Request().Context()))
}

// ClearCache drops both lanes and the response cache.
func (h *WorkshopHandler) ClearCache(c echo.Context) error {
	if err := h.Catalog.Clear(c.Request().Context()); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Export downloads the current catalog and events as JSON.
func (h *WorkshopHandler) Export(c echo.Context) error {
	var buf bytes.Buffer
	if err := h.Catalog.ExportJSON(c.Request().Context(), &buf); err != nil {
		return respondError(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="workshops.json"`)
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, buf.Bytes())
}

type calendarEventResp struct {
	availability.CalendarRow
	Badges []availability.Badge `json:"badges"`
}

type calendarGroupResp struct {
	WorkshopID string              `json:"workshopId"`
	Workshop   *model.Workshop     `json:"workshop"`
	Events     []calendarEventResp `json:"events"`
}

// Calendar lists every event grouped by workshop with seat labels and
// badges.
func (h *WorkshopHandler) Calendar(c echo.Context) error {
	snap, err := h.Catalog.Init(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	workshops := make([]model.Workshop, len(snap.Workshops))
	for i, ew := range snap.Workshops {
		workshops[i] = ew.Workshop
	}
	now := h.Now()
	groups := availability.GroupCalendar(workshops, snap.Events)
	out := make([]calendarGroupResp, 0, len(groups))
	for _, g := range groups {
		resp := calendarGroupResp{WorkshopID: g.WorkshopID, Workshop: g.Workshop}
		for _, row := range g.Events {
			resp.Events = append(resp.Events, calendarEventResp{
				CalendarRow: row,
				Badges:      availability.EventBadges(row.Event, now),
			})
		}
		out = append(out, resp)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"groups":      out,
		"degraded":    snap.Degraded,
		"lastUpdated": snap.LastUpdated,
	})
}

// EventAvailability asks the API for the live seat count of one event.
// It never reads from a cache.
func (h *WorkshopHandler) EventAvailability(c echo.Context) error {
	a, err := h.Live.CheckAvailability(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}
