package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/unibite/unibite-backend/internal/model"
	"github.com/unibite/unibite-backend/internal/repository"
)

// ListingHandler exposes listing management for restaurants and the
// public browse endpoints for students.  Quantity mutation is not
// reachable from here: once created, a listing's remaining quantity
// changes only through the claim flow.
type ListingHandler struct {
	Listings *repository.ListingRepo
}

// NewListingHandler constructs a ListingHandler.
func NewListingHandler(listings *repository.ListingRepo) *ListingHandler {
	if listings == nil {
		panic("nil repository passed to NewListingHandler")
	}
	return &ListingHandler{Listings: listings}
}

type createListingReq struct {
	Title          string     `json:"title"`
	Description    *string    `json:"description,omitempty"`
	TotalQuantity  uint32     `json:"total_quantity"`
	PerPersonLimit uint32     `json:"per_person_limit"`
	PickupLocation *string    `json:"pickup_location,omitempty"`
	AvailableUntil *time.Time `json:"available_until,omitempty"`
}

// Create handles POST /v1/listings.  The restaurant ID is taken from
// the JWT, never from the body.  Remaining quantity starts equal to
// the total.
func (h *ListingHandler) Create(c echo.Context) error {
	restaurantID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createListingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}
	if req.TotalQuantity == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "total_quantity must be > 0"})
	}
	if req.PerPersonLimit == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "per_person_limit must be > 0"})
	}

	listing := model.Listing{
		RestaurantID:   restaurantID,
		Title:          req.Title,
		Description:    req.Description,
		TotalQuantity:  req.TotalQuantity,
		PerPersonLimit: req.PerPersonLimit,
		PickupLocation: req.PickupLocation,
		AvailableUntil: req.AvailableUntil,
	}
	if err := h.Listings.Create(c.Request().Context(), &listing); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create listing failed"})
	}
	return c.JSON(http.StatusCreated, listing)
}

// ListAll handles GET /v1/listings, the public browse endpoint.
func (h *ListingHandler) ListAll(c echo.Context) error {
	listings, err := h.Listings.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load listings failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": listings})
}

// ListByRestaurant handles GET /v1/listings/restaurant/:id.
func (h *ListingHandler) ListByRestaurant(c echo.Context) error {
	restaurantID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
	}
	listings, err := h.Listings.ListByRestaurant(c.Request().Context(), restaurantID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load listings failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": listings})
}

// GetByID handles GET /v1/listings/:id.
func (h *ListingHandler) GetByID(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id"})
	}
	listing, err := h.Listings.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load listing failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": listing})
}
