package router

import (
	"github.com/labstack/echo/v4"

	"github.com/unibite/unibite-backend/internal/handler"
	"github.com/unibite/unibite-backend/internal/middleware"
	"github.com/unibite/unibite-backend/internal/model"
)

// RegisterListings registers the listing endpoints.  Browse endpoints
// are public (students and guests can see what is on offer) and sit
// behind the Redis response cache; creation requires the RESTAURANT
// role.
func RegisterListings(e *echo.Echo, h *handler.ListingHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	e.GET("/v1/listings", h.ListAll, cache)
	e.GET("/v1/listings/:id", h.GetByID, cache)
	e.GET("/v1/listings/restaurant/:id", h.ListByRestaurant, cache)

	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleRestaurant),
	)
	g.POST("/listings", h.Create)
}
