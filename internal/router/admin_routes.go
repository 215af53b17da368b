package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/workshop-booking/internal/handler"
	"github.com/iliyamo/workshop-booking/internal/middleware"
	"github.com/iliyamo/workshop-booking/internal/repository"
)

// RegisterAdmin registers staff login and the booking views. Login is
// public but rate limited; everything else needs an ADMIN token.
func RegisterAdmin(e *echo.Echo, auth *handler.AuthHandler, v *handler.AdminHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	e.POST("/v1/admin/login", auth.Login, limit)

	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(repository.RoleAdmin),
	)
	g.GET("/bookings", v.Bookings)
	g.GET("/bookings.csv", v.ExportCSV)
}
