package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/unibite/unibite-backend/internal/model"
	"github.com/unibite/unibite-backend/internal/queue"
	"github.com/unibite/unibite-backend/internal/repository"
	"github.com/unibite/unibite-backend/internal/service"
)

// ClaimHandler exposes the claim lifecycle over HTTP.  All business
// decisions live in the claim service; the handler only shapes
// requests and maps error kinds to status codes.
type ClaimHandler struct {
	Svc *service.ClaimService
}

// NewClaimHandler constructs a ClaimHandler.
func NewClaimHandler(svc *service.ClaimService) *ClaimHandler {
	if svc == nil {
		panic("nil service passed to NewClaimHandler")
	}
	return &ClaimHandler{Svc: svc}
}

type createClaimReq struct {
	ListingID uint64 `json:"listing_id"`
	Quantity  uint32 `json:"quantity"`
}

type redeemReq struct {
	QRToken string `json:"qr_token"`
}

// claimError maps the service/repository error taxonomy to an HTTP
// status and user-facing message.  Business-rule rejections are 409,
// the not-found family is 404, malformed input is 400.
func claimError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrListingNotFound),
		errors.Is(err, repository.ErrClaimNotFound),
		errors.Is(err, repository.ErrInvalidToken):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrExceedsPerPersonLimit),
		errors.Is(err, repository.ErrSoldOut), // includes insufficient remaining
		errors.Is(err, repository.ErrAlreadyRedeemed),
		errors.Is(err, repository.ErrAlreadyCanceled),
		errors.Is(err, repository.ErrNoActiveClaim):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// Create handles POST /v1/claims.  The student ID comes from the JWT.
// On success the response carries the claim-scoped QR token the
// student presents at pickup.
func (h *ClaimHandler) Create(c echo.Context) error {
	studentID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createClaimReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	claim, err := h.Svc.CreateClaim(c.Request().Context(), req.ListingID, studentID, req.Quantity)
	if err != nil {
		return claimError(c, err)
	}
	return c.JSON(http.StatusCreated, claim)
}

// ByStudent handles GET /v1/claims/student/:id.  Students may only
// view their own claims; restaurants may look up any student.
func (h *ClaimHandler) ByStudent(c echo.Context) error {
	callerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	studentID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid student id"})
	}
	if role, _ := c.Get("role").(string); role == model.RoleStudent && callerID != studentID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	claims, err := h.Svc.ClaimsByStudent(c.Request().Context(), studentID)
	if err != nil {
		return claimError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": claims})
}

// ByListing handles GET /v1/claims/listing/:id.
func (h *ClaimHandler) ByListing(c echo.Context) error {
	listingID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id"})
	}
	claims, err := h.Svc.ClaimsByListing(c.Request().Context(), listingID)
	if err != nil {
		return claimError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": claims})
}

// Redeem handles POST /v1/claims/redeem.  The token may be a
// claim-scoped QR token or a user's standing token; resolution happens
// inside the service.  A pickup event is published after a successful
// redemption, best effort.
func (h *ClaimHandler) Redeem(c echo.Context) error {
	var req redeemReq
	if err := c.Bind(&req); err != nil || req.QRToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "qr_token is required"})
	}
	claim, err := h.Svc.Redeem(c.Request().Context(), req.QRToken)
	if err != nil {
		return claimError(c, err)
	}

	redeemedAt := time.Now().UTC()
	if claim.RedeemedAt != nil {
		redeemedAt = *claim.RedeemedAt
	}
	_ = queue.PublishClaimRedeemed(c.Request().Context(), queue.ClaimRedeemedEvent{
		ClaimID:    claim.ID,
		ListingID:  claim.ListingID,
		StudentID:  claim.StudentID,
		Quantity:   claim.Quantity,
		RedeemedAt: redeemedAt.Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, claim)
}

// Cancel handles POST /v1/claims/:id/cancel.  Students may only cancel
// their own claims; restaurants only claims against their own listings.
func (h *ClaimHandler) Cancel(c echo.Context) error {
	callerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	claimID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid claim id"})
	}
	existing, err := h.Svc.Claim(c.Request().Context(), claimID)
	if err != nil {
		return claimError(c, err)
	}
	switch role, _ := c.Get("role").(string); role {
	case model.RoleStudent:
		if existing.StudentID != callerID {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
	case model.RoleRestaurant:
		owner, err := h.Svc.ListingOwner(c.Request().Context(), existing.ListingID)
		if err != nil {
			return claimError(c, err)
		}
		if owner != callerID {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
	}
	claim, err := h.Svc.Cancel(c.Request().Context(), claimID)
	if err != nil {
		return claimError(c, err)
	}
	return c.JSON(http.StatusOK, claim)
}
