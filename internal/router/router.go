package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/workshop-booking/internal/handler"
	"github.com/iliyamo/workshop-booking/internal/middleware"
)

// RegisterRoutes registers the health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the unauthenticated catalog endpoints. The
// calendar goes through the response cache; the rest read the tiered
// cache directly.
func RegisterPublic(e *echo.Echo, w *handler.WorkshopHandler, rc *middleware.ResponseCache) {
	g := e.Group("/v1")
	g.GET("/workshops", w.List)
	g.GET("/workshops/export", w.Export)
	g.GET("/workshops/:id", w.Get)
	g.POST("/workshops/refresh", w.Refresh)
	g.GET("/cache", w.CacheInfo)
	g.DELETE("/cache", w.ClearCache)
	g.GET("/calendar", w.Calendar, rc.Middleware())
	// Live seat check; never cached.
	g.GET("/events/:id/availability", w.EventAvailability)
}

// RegisterBookings registers the booking wizard. Every route is rate
// limited since most transitions reach the booking API.
func RegisterBookings(e *echo.Echo, b *handler.BookingHandler, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/bookings", limit)
	g.POST("", b.Create)
	g.GET("/confirm", b.Confirm)
	g.GET("/:id", b.Get)
	g.DELETE("/:id", b.Delete)
	g.POST("/:id/select", b.Select)
	g.POST("/:id/next", b.Next)
	g.POST("/:id/back", b.Back)
	g.POST("/:id/pay", b.Pay)
}
