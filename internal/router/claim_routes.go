package router

import (
	"github.com/labstack/echo/v4"

	"github.com/unibite/unibite-backend/internal/handler"
	"github.com/unibite/unibite-backend/internal/middleware"
	"github.com/unibite/unibite-backend/internal/model"
)

// RegisterClaims registers the claim lifecycle endpoints.  Students
// create and cancel claims and view their own; restaurants view claims
// against their listings and redeem tokens at pickup.  The rate
// limiter guards the mutating endpoints against scripted claim grabs.
func RegisterClaims(e *echo.Echo, h *handler.ClaimHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	student := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleStudent),
	)
	student.POST("/claims", h.Create, limit)

	restaurant := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleRestaurant),
	)
	restaurant.GET("/claims/listing/:id", h.ByListing)
	restaurant.POST("/claims/redeem", h.Redeem, limit)

	// Both roles: claim listing by student (handler enforces that a
	// student only sees their own) and cancellation (handler scopes it
	// to the claim's student or the listing's restaurant).
	both := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleStudent, model.RoleRestaurant),
	)
	both.GET("/claims/student/:id", h.ByStudent)
	both.POST("/claims/:id/cancel", h.Cancel, limit)
}
