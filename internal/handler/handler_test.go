package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/workshop-booking/internal/catalog"
	"github.com/iliyamo/workshop-booking/internal/model"
	"github.com/iliyamo/workshop-booking/internal/store"
)

// fakeAPI stands in for the booking API on both the read and the booking
// side.
type fakeAPI struct {
	mu          sync.Mutex
	workshops   []model.Workshop
	events      []model.Event
	avail       map[string]model.Availability
	listErr     error
	availErr    error
	validateErr error
	confirmErr  error
	confirmed   []string
	cleared     int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		workshops: []model.Workshop{
			{WorkshopID: "service-2", Name: "Data Storytelling", Format: "Online", Duration: "3 hours", Price: 120, TotalSeats: 15, Status: model.StatusActive},
			{WorkshopID: "service-1", Name: "Leadership Essentials", Format: "In-person", Duration: "1 day", Location: "Auckland", Price: 250, TotalSeats: 20, Status: model.StatusActive},
		},
		events: []model.Event{
			{EventID: "e1", WorkshopID: "service-1", EventDate: "2099-03-11", EventTime: "9am - 4pm", AvailableSeats: 12, Status: model.StatusActive},
			{EventID: "e2", WorkshopID: "service-1", EventDate: "2099-04-11", AvailableSeats: 0, Status: model.StatusActive},
			{EventID: "e3", WorkshopID: "service-2", EventDate: "2099-03-20", VenueDetails: "Zoom", AvailableSeats: 2, Status: model.StatusActive},
		},
		avail: map[string]model.Availability{
			"e1": {IsAvailable: true, AvailableSeats: 12},
			"e2": {IsAvailable: false},
			"e3": {IsAvailable: true, AvailableSeats: 2, IsNearlyFull: true},
		},
	}
}

func (f *fakeAPI) GetWorkshops(context.Context) ([]model.Workshop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.workshops, f.listErr
}

func (f *fakeAPI) GetAllEvents(context.Context) ([]model.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events, f.listErr
}

func (f *fakeAPI) GetEventsForWorkshop(_ context.Context, id string) ([]model.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Event
	for _, e := range f.events {
		if e.WorkshopID == id {
			out = append(out, e)
		}
	}
	return out, f.listErr
}

func (f *fakeAPI) ClearCache(context.Context) {
	f.mu.Lock()
	f.cleared++
	f.mu.Unlock()
}

func (f *fakeAPI) CheckAvailability(_ context.Context, id string) (model.Availability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.avail[id], f.availErr
}

func (f *fakeAPI) ValidateBooking(context.Context, string, int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validateErr
}

func (f *fakeAPI) CreateCheckoutSession(_ context.Context, eventID string, _ model.CustomerData) (model.CheckoutSession, error) {
	return model.CheckoutSession{SessionID: "cs_" + eventID, URL: "https://pay.example.com/cs_" + eventID}, nil
}

func (f *fakeAPI) ConfirmBooking(_ context.Context, sessionID string) (model.BookingConfirmation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.confirmErr != nil {
		return model.BookingConfirmation{}, f.confirmErr
	}
	f.confirmed = append(f.confirmed, sessionID)
	return model.BookingConfirmation{BookingID: "BK-1", SessionID: sessionID, EventID: "e1", NumSeats: 2, TotalAmount: 500}, nil
}

func newCatalog(api *fakeAPI) *catalog.TieredCache {
	return catalog.New(api, store.NewMemoryKV(), catalog.Options{})
}

func call(e *echo.Echo, method, target, body string, hdr map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}
