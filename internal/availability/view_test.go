package availability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/workshop-booking/internal/model"
)

func TestEventBadges(t *testing.T) {
	cancelled := event("e", "w", "2026-03-20", 10)
	cancelled.Status = "Cancelled"

	tests := []struct {
		name string
		ev   model.Event
		want []Badge
	}{
		{"plenty of seats far out", event("e", "w", "2026-04-30", 12), []Badge{{"12 seats left", BadgeSuccess}}},
		{"nearly full and closing", event("e", "w", "2026-03-17", 4), []Badge{
			{"4 seats left", BadgeWarning},
			{"Closing Soon", BadgeInfo},
			{"Nearly Full!", BadgeWarning},
		}},
		{"one seat", event("e", "w", "2026-04-30", 1), []Badge{
			{"1 seat left", BadgeWarning},
			{"Nearly Full!", BadgeWarning},
		}},
		{"sold out", event("e", "w", "2026-03-12", 0), []Badge{{"Sold Out", BadgeDanger}}},
		{"inactive", cancelled, []Badge{{"Sold Out", BadgeDanger}}},
		{"past event is not closing soon", event("e", "w", "2026-03-01", 8), []Badge{{"8 seats left", BadgeSuccess}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EventBadges(tt.ev, now))
		})
	}
}

func TestSeatLabel(t *testing.T) {
	text, class := SeatLabel(0, 20)
	assert.Equal(t, "Fully Booked", text)
	assert.Equal(t, "full", class)

	text, class = SeatLabel(5, 20)
	assert.Equal(t, "Only 5 left!", text)
	assert.Equal(t, "low", class)

	text, class = SeatLabel(6, 20)
	assert.Equal(t, "6 of 20 available", text)
	assert.Empty(t, class)
}

func TestSeatLevel(t *testing.T) {
	assert.Equal(t, "high", SeatLevel(11))
	assert.Equal(t, "medium", SeatLevel(10))
	assert.Equal(t, "low", SeatLevel(5))
}

func TestGroupCalendar(t *testing.T) {
	w10 := workshop("service-10", 20)
	w10.Location = "Auckland"
	workshops := []model.Workshop{w10, workshop("service-2", 12)}
	withVenue := event("e3", "service-2", "2026-03-12", 3)
	withVenue.VenueDetails = "Level 2, 10 Queen St"
	withVenue.EventTime = "9am - 4pm"
	events := []model.Event{
		event("e1", "service-10", "2026-05-01", 0),
		event("e2", "custom", "2026-04-01", 9),
		withVenue,
		event("e4", "service-2", "2026-03-11", 8),
		event("e5", "", "2026-03-11", 8),
	}

	groups := GroupCalendar(workshops, events)
	require.Len(t, groups, 3)
	assert.Equal(t, "service-2", groups[0].WorkshopID)
	assert.Equal(t, "service-10", groups[1].WorkshopID)
	assert.Equal(t, "custom", groups[2].WorkshopID)

	first := groups[0]
	require.NotNil(t, first.Workshop)
	require.Len(t, first.Events, 2)
	assert.Equal(t, "e4", first.Events[0].EventID)
	assert.Equal(t, "8 of 12 available", first.Events[0].SeatText)
	assert.Equal(t, "TBC", first.Events[0].Time)
	assert.Equal(t, "Level 2, 10 Queen St", first.Events[1].Venue)
	assert.Equal(t, "Only 3 left!", first.Events[1].SeatText)

	full := groups[1].Events[0]
	assert.Equal(t, "Auckland", full.Venue)
	assert.Equal(t, "Fully Booked", full.SeatText)
	assert.False(t, full.Bookable)

	assert.Nil(t, groups[2].Workshop)
	assert.Equal(t, "TBC", groups[2].Events[0].Venue)
	assert.True(t, groups[2].Events[0].Bookable)
}

func TestDeepLinkEventID(t *testing.T) {
	assert.Equal(t, "evt-7", DeepLinkEventID("https://example.com/booking?workshop=service-1&event=evt-7"))
	assert.Equal(t, "evt-7", DeepLinkEventID("/booking?event=%20evt-7%20"))
	assert.Empty(t, DeepLinkEventID("https://example.com/booking"))
	assert.Empty(t, DeepLinkEventID("%zz"))
}
