package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unibite/unibite-backend/internal/model"
	"github.com/unibite/unibite-backend/internal/repository"
	"github.com/unibite/unibite-backend/internal/service"
)

// Minimal stubs so the handler can be exercised through a real
// ClaimService without a database.

type stubInventory struct {
	owners map[uint64]uint64
}

func (s *stubInventory) Reserve(context.Context, uint64, uint32) error { return nil }
func (s *stubInventory) Restore(context.Context, uint64, uint32) error { return nil }

func (s *stubInventory) Owner(_ context.Context, id uint64) (uint64, error) {
	owner, ok := s.owners[id]
	if !ok {
		return 0, repository.ErrListingNotFound
	}
	return owner, nil
}

type stubLedger struct {
	claims map[uint64]*model.Claim
}

func (s *stubLedger) Create(context.Context, uint64, uint64, uint32) (model.Claim, error) {
	return model.Claim{}, repository.ErrClaimNotFound
}

func (s *stubLedger) GetByID(_ context.Context, id uint64) (model.Claim, error) {
	c, ok := s.claims[id]
	if !ok {
		return model.Claim{}, repository.ErrClaimNotFound
	}
	return *c, nil
}

func (s *stubLedger) GetByToken(context.Context, string) (model.Claim, error) {
	return model.Claim{}, repository.ErrClaimNotFound
}

func (s *stubLedger) Redeem(context.Context, uint64) (model.Claim, error) {
	return model.Claim{}, repository.ErrClaimNotFound
}

func (s *stubLedger) Cancel(_ context.Context, id uint64) (model.Claim, error) {
	c, ok := s.claims[id]
	if !ok {
		return model.Claim{}, repository.ErrClaimNotFound
	}
	if c.Status != model.StatusClaimed {
		return model.Claim{}, repository.ErrAlreadyCanceled
	}
	c.Status = model.StatusCanceled
	return *c, nil
}

func (s *stubLedger) LatestClaimedByStudent(context.Context, uint64) (model.Claim, error) {
	return model.Claim{}, repository.ErrNoActiveClaim
}

func (s *stubLedger) ListByStudent(context.Context, uint64) ([]model.Claim, error) {
	return nil, nil
}

func (s *stubLedger) ListByListing(context.Context, uint64) ([]model.Claim, error) {
	return nil, nil
}

type stubTokens struct{}

func (stubTokens) FindUserByQRToken(context.Context, string) (uint64, error) {
	return 0, repository.ErrUserNotFound
}

func cancelRequest(t *testing.T, h *ClaimHandler, claimID string, userID uint64, role string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/claims/"+claimID+"/cancel", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/claims/:id/cancel")
	c.SetParamNames("id")
	c.SetParamValues(claimID)
	c.Set("user_id", userID)
	c.Set("role", role)
	require.NoError(t, h.Cancel(c))
	return rec
}

func TestCancelOwnershipScoping(t *testing.T) {
	// Claim 5: student 42 against listing 10, owned by restaurant 77.
	newHandler := func() *ClaimHandler {
		inv := &stubInventory{owners: map[uint64]uint64{10: 77}}
		ledger := &stubLedger{claims: map[uint64]*model.Claim{
			5: {ID: 5, ListingID: 10, StudentID: 42, Quantity: 1,
				Status: model.StatusClaimed, ClaimedAt: time.Now().UTC()},
		}}
		return NewClaimHandler(service.NewClaimService(inv, ledger, stubTokens{}))
	}

	// Another student cannot cancel.
	rec := cancelRequest(t, newHandler(), "5", 43, model.RoleStudent)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// A restaurant that does not own the listing cannot cancel.
	rec = cancelRequest(t, newHandler(), "5", 78, model.RoleRestaurant)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// The claim's student may cancel.
	rec = cancelRequest(t, newHandler(), "5", 42, model.RoleStudent)
	assert.Equal(t, http.StatusOK, rec.Code)

	// The listing's restaurant may cancel.
	rec = cancelRequest(t, newHandler(), "5", 77, model.RoleRestaurant)
	assert.Equal(t, http.StatusOK, rec.Code)
}
