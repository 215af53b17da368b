package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// subject identifies the caller for rate limiting.  Staff are keyed by the
// JWT subject and customers by their booking session when the route has
// one.  Everyone else is "anon".
func subject(c echo.Context) string {
	if v, ok := c.Get(ctxUserID).(string); ok && v != "" {
		return "user:" + v
	}
	if strings.HasPrefix(c.Path(), "/v1/bookings/:id") {
		if id := c.Param("id"); id != "" {
			return "session:" + id
		}
	}
	return "anon"
}
