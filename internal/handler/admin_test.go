package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/workshop-booking/internal/admin"
	"github.com/iliyamo/workshop-booking/internal/model"
	"github.com/iliyamo/workshop-booking/internal/repository"
	"github.com/iliyamo/workshop-booking/internal/utils"
)

type fakeUsers map[string]repository.User

func (f fakeUsers) GetByEmail(_ context.Context, email string) (repository.User, error) {
	if email == "broken@example.com" {
		return repository.User{}, errors.New("db down")
	}
	u, ok := f[email]
	if !ok {
		return repository.User{}, sql.ErrNoRows
	}
	return u, nil
}

func TestLogin(t *testing.T) {
	hash, err := utils.HashPassword("hunter2", bcrypt.MinCost)
	require.NoError(t, err)
	users := fakeUsers{
		"admin@example.com":  {ID: 1, Email: "admin@example.com", PasswordHash: hash, Role: repository.RoleAdmin, IsActive: true},
		"former@example.com": {ID: 2, Email: "former@example.com", PasswordHash: hash, Role: repository.RoleAdmin},
	}
	h := NewAuthHandler(users, "secret", 30)
	e := echo.New()
	e.POST("/v1/admin/login", h.Login)

	rec := call(e, http.MethodPost, "/v1/admin/login", `{"email":" Admin@Example.com ","password":"hunter2"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeJSON[loginResp](t, rec)
	assert.Equal(t, "ADMIN", body.User.Role)
	claims, err := utils.ParseAccessToken("secret", body.Access.Token)
	require.NoError(t, err)
	assert.Equal(t, "1", claims.Subject)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"missing password", `{"email":"admin@example.com"}`, http.StatusBadRequest},
		{"wrong password", `{"email":"admin@example.com","password":"nope"}`, http.StatusUnauthorized},
		{"unknown user", `{"email":"who@example.com","password":"hunter2"}`, http.StatusUnauthorized},
		{"inactive", `{"email":"former@example.com","password":"hunter2"}`, http.StatusUnauthorized},
		{"store failure", `{"email":"broken@example.com","password":"hunter2"}`, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, call(e, http.MethodPost, "/v1/admin/login", tc.body, nil).Code)
		})
	}
}

type fakeBookings struct {
	list []model.BookingRecord
	err  error
}

func (f fakeBookings) List(context.Context) ([]model.BookingRecord, error) { return f.list, f.err }

func adminEcho(b fakeBookings) *echo.Echo {
	h := NewAdminHandler(admin.NewView(b, newCatalog(newFakeAPI())))
	h.Now = func() time.Time { return time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC) }
	e := echo.New()
	e.GET("/v1/admin/bookings", h.Bookings)
	e.GET("/v1/admin/bookings.csv", h.ExportCSV)
	return e
}

func sampleBookings() []model.BookingRecord {
	return []model.BookingRecord{
		{BookingID: "BK-1", EventID: "e1", CustomerName: "Jane Doe", Email: "jane@example.com", NumSeats: 2, TotalAmount: 500, Status: model.BookingStatusConfirmed, BookingTimestamp: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
		{BookingID: "BK-2", EventID: "e3", CustomerName: "Sam Lee", Email: "sam@example.com", NumSeats: 1, TotalAmount: 120, Status: "Cancelled", BookingTimestamp: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
	}
}

type dashboardBody struct {
	Bookings []struct {
		BookingID    string `json:"bookingId"`
		WorkshopName string `json:"workshopName"`
	} `json:"bookings"`
	Total int         `json:"total"`
	Stats admin.Stats `json:"stats"`
}

func TestAdminBookings(t *testing.T) {
	e := adminEcho(fakeBookings{list: sampleBookings()})

	rec := call(e, http.MethodGet, "/v1/admin/bookings", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	d := decodeJSON[dashboardBody](t, rec)
	require.Len(t, d.Bookings, 2)
	assert.Equal(t, "BK-2", d.Bookings[0].BookingID)
	assert.Equal(t, "Data Storytelling", d.Bookings[0].WorkshopName)
	assert.Equal(t, 2, d.Total)
	assert.Equal(t, 1, d.Stats.ConfirmedBookings)

	rec = call(e, http.MethodGet, "/v1/admin/bookings?q=JANE&status=Confirmed", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "BK-1")
	assert.NotContains(t, rec.Body.String(), "BK-2")
}

func TestAdminBookingsFailure(t *testing.T) {
	e := adminEcho(fakeBookings{err: errors.New("db down")})
	rec := call(e, http.MethodGet, "/v1/admin/bookings", "", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", decodeJSON[map[string]any](t, rec)["error"])
}

func TestAdminExportCSV(t *testing.T) {
	e := adminEcho(fakeBookings{list: sampleBookings()})

	rec := call(e, http.MethodGet, "/v1/admin/bookings.csv?status=Confirmed", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="workshop-bookings-2026-03-02.csv"`, rec.Header().Get(echo.HeaderContentDisposition))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "BK-1,e1,Jane Doe,"))

	rec = call(e, http.MethodGet, "/v1/admin/bookings.csv?status=Pending", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
