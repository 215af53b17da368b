package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/workshop-booking/internal/model"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func workshop(id string, seats int) model.Workshop {
	return model.Workshop{WorkshopID: id, Name: "Workshop " + id, Price: 100, TotalSeats: model.Count(seats), Status: model.StatusActive}
}

func event(id, workshopID, date string, seats int) model.Event {
	return model.Event{EventID: id, WorkshopID: workshopID, EventDate: date, AvailableSeats: model.Count(seats), Status: model.StatusActive}
}

func TestReconcileScenario(t *testing.T) {
	workshops := []model.Workshop{workshop("w1", 20)}
	events := []model.Event{
		event("e2", "w1", "2026-04-09", 0),
		event("e1", "w1", "2026-03-11", 15),
	}

	out := Reconcile(workshops, events, now)
	require.Len(t, out, 1)
	ew := out[0]
	assert.Equal(t, 15, ew.TotalAvailableSeats)
	assert.Equal(t, 2, ew.UpcomingEventsCount)
	require.NotNil(t, ew.NextEvent)
	assert.Equal(t, "e1", ew.NextEvent.EventID)
	assert.Equal(t, model.Count(20), ew.NextEvent.TotalSeats)
	assert.Equal(t, model.AvailabilityHigh, ew.Availability.Status)
	assert.Equal(t, "15 seats available", ew.Availability.Label)
	require.Len(t, ew.AllEvents, 2)
	assert.Equal(t, "e1", ew.AllEvents[0].EventID)
}

func TestReconcileIsIdempotent(t *testing.T) {
	workshops := []model.Workshop{workshop("w1", 20), workshop("w2", 8)}
	events := []model.Event{
		event("e1", "w1", "2026-03-11", 15),
		event("e2", "w2", "2026-03-20", 2),
		event("e3", "w1", "2026-01-01", 4),
	}
	first := Reconcile(workshops, events, now)
	second := Reconcile(workshops, events, now)
	assert.Equal(t, first, second)
}

func TestReconcileSeatSumAndUnknownWorkshops(t *testing.T) {
	workshops := []model.Workshop{workshop("w1", 20), workshop("w2", 10)}
	events := []model.Event{
		event("e1", "w1", "2026-03-11", 15),
		event("e2", "w1", "2026-02-01", 3), // past, still counted
		event("e3", "w2", "2026-05-01", 7),
		event("e4", "ghost", "2026-05-01", 99),
		event("e5", "", "2026-05-01", 1),
	}

	out := Reconcile(workshops, events, now)
	require.Len(t, out, 2)
	assert.Equal(t, "w1", out[0].WorkshopID)
	assert.Equal(t, "w2", out[1].WorkshopID)

	sum := 0
	for _, ew := range out {
		sum += ew.TotalAvailableSeats
	}
	assert.Equal(t, 15+3+7, sum)
	assert.Equal(t, 18, out[0].TotalAvailableSeats)
	assert.Equal(t, 1, out[0].UpcomingEventsCount)
	assert.Len(t, out[0].AllEvents, 2)
}

func TestReconcileNextEventTieBreak(t *testing.T) {
	out := Reconcile(
		[]model.Workshop{workshop("w1", 10)},
		[]model.Event{
			event("b", "w1", "2026-03-12", 5),
			event("a", "w1", "2026-03-12", 5),
			event("c", "w1", "", 5),
		},
		now,
	)
	require.NotNil(t, out[0].NextEvent)
	assert.Equal(t, "a", out[0].NextEvent.EventID)
	assert.Equal(t, 2, out[0].UpcomingEventsCount)
	assert.Equal(t, "c", out[0].AllEvents[2].EventID, "undated events sort last")
}

func TestReconcileEmptyInputs(t *testing.T) {
	assert.Empty(t, Reconcile(nil, nil, now))

	out := Reconcile([]model.Workshop{workshop("w1", 10)}, nil, now)
	require.Len(t, out, 1)
	assert.Nil(t, out[0].NextEvent)
	assert.Empty(t, out[0].AllEvents)
	assert.Equal(t, model.AvailabilityUnavailable, out[0].Availability.Status)
}

func TestIsUpcoming(t *testing.T) {
	assert.True(t, IsUpcoming(event("e", "w", "2026-03-10T12:00:00Z", 1), now))
	assert.False(t, IsUpcoming(event("e", "w", "2026-03-10", 1), now))
	assert.False(t, IsUpcoming(event("e", "w", "someday", 1), now))
}
