package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unibite/unibite-backend/internal/model"
	"github.com/unibite/unibite-backend/internal/repository"
)

func newTestService() (*ClaimService, *fakeInventory, *fakeLedger, *fakeStandingTokens) {
	inv := newFakeInventory()
	ledger := newFakeLedger()
	tokens := &fakeStandingTokens{byToken: make(map[string]uint64)}
	return NewClaimService(inv, ledger, tokens), inv, ledger, tokens
}

func TestCreateClaimValidatesInput(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.CreateClaim(ctx, 0, 1, 1)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateClaim(ctx, 1, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateClaim(ctx, 1, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateClaimReservesAndRecords(t *testing.T) {
	svc, inv, _, _ := newTestService()
	inv.add(7, 10, 3)

	claim, err := svc.CreateClaim(context.Background(), 7, 42, 3)
	require.NoError(t, err)

	assert.Equal(t, uint64(7), claim.ListingID)
	assert.Equal(t, uint64(42), claim.StudentID)
	assert.Equal(t, uint32(3), claim.Quantity)
	assert.Equal(t, model.StatusClaimed, claim.Status)
	assert.NotEmpty(t, claim.QRToken)
	assert.Equal(t, uint32(7), inv.remaining(7))
}

func TestCreateClaimRejectsInventoryFailures(t *testing.T) {
	svc, inv, ledger, _ := newTestService()
	inv.add(1, 2, 2)

	_, err := svc.CreateClaim(context.Background(), 99, 1, 1)
	assert.ErrorIs(t, err, repository.ErrListingNotFound)

	_, err = svc.CreateClaim(context.Background(), 1, 1, 5)
	assert.ErrorIs(t, err, repository.ErrExceedsPerPersonLimit)

	// No ledger mutation happened for any rejected request.
	claims, _ := ledger.ListByListing(context.Background(), 1)
	assert.Empty(t, claims)
	assert.Equal(t, uint32(2), inv.remaining(1))
}

func TestCreateClaimCompensatesWhenLedgerFails(t *testing.T) {
	svc, inv, ledger, _ := newTestService()
	inv.add(5, 4, 4)
	ledger.failCreate = true

	_, err := svc.CreateClaim(context.Background(), 5, 1, 3)
	require.Error(t, err)

	// The reservation was rolled back, so the counter invariant holds.
	assert.Equal(t, uint32(4), inv.remaining(5))
}

func TestRedeemExactlyOnce(t *testing.T) {
	svc, inv, _, _ := newTestService()
	inv.add(1, 5, 5)

	claim, err := svc.CreateClaim(context.Background(), 1, 9, 1)
	require.NoError(t, err)

	const attempts = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		repeats   int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Redeem(context.Background(), claim.QRToken)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, repository.ErrAlreadyRedeemed):
				repeats++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes, "exactly one redeem may succeed")
	assert.Equal(t, attempts-1, repeats, "all other attempts report already redeemed")
}

func TestConcurrentClaimsNeverOversell(t *testing.T) {
	svc, inv, ledger, _ := newTestService()
	inv.add(1, 3, 3)

	// Two simultaneous claims for the full remaining quantity: exactly
	// one wins.
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
		refused int
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(student uint64) {
			defer wg.Done()
			_, err := svc.CreateClaim(context.Background(), 1, student, 3)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				granted++
			} else if errors.Is(err, repository.ErrSoldOut) {
				refused++
			}
		}(uint64(i + 1))
	}
	wg.Wait()

	assert.Equal(t, 1, granted)
	assert.Equal(t, 1, refused)
	assert.Equal(t, uint32(0), inv.remaining(1))

	// Across all outcomes, active quantity never exceeds the total.
	claims, err := ledger.ListByListing(context.Background(), 1)
	require.NoError(t, err)
	var active uint32
	for _, c := range claims {
		if c.Status == model.StatusClaimed || c.Status == model.StatusRedeemed {
			active += c.Quantity
		}
	}
	assert.LessOrEqual(t, active, uint32(3))
}

func TestManyConcurrentClaimsHoldInvariant(t *testing.T) {
	svc, inv, ledger, _ := newTestService()
	const total = 10
	inv.add(1, total, 3)

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(student uint64) {
			defer wg.Done()
			qty := uint32(student%3 + 1)
			_, _ = svc.CreateClaim(context.Background(), 1, student, qty)
		}(uint64(i + 1))
	}
	wg.Wait()

	claims, err := ledger.ListByListing(context.Background(), 1)
	require.NoError(t, err)
	var active uint32
	for _, c := range claims {
		if c.Status == model.StatusClaimed || c.Status == model.StatusRedeemed {
			active += c.Quantity
		}
	}
	assert.LessOrEqual(t, active, uint32(total))
	assert.Equal(t, uint32(total)-active, inv.remaining(1),
		"remaining must equal total minus active claim quantity")
}

func TestCancelRestoresExactly(t *testing.T) {
	svc, inv, _, _ := newTestService()
	inv.add(1, 5, 5)

	claim, err := svc.CreateClaim(context.Background(), 1, 2, 2)
	require.NoError(t, err)
	require.Equal(t, uint32(3), inv.remaining(1))

	canceled, err := svc.Cancel(context.Background(), claim.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCanceled, canceled.Status)
	assert.Equal(t, uint32(5), inv.remaining(1))

	// Terminal: neither a second cancel nor a redeem may move it again,
	// and no further quantity is restored.
	_, err = svc.Cancel(context.Background(), claim.ID)
	assert.ErrorIs(t, err, repository.ErrAlreadyCanceled)
	_, err = svc.Redeem(context.Background(), claim.QRToken)
	assert.ErrorIs(t, err, repository.ErrAlreadyCanceled)
	assert.Equal(t, uint32(5), inv.remaining(1))
}

func TestCancelStandsWhenRestoreFails(t *testing.T) {
	svc, inv, ledger, _ := newTestService()
	inv.add(1, 5, 5)

	claim, err := svc.CreateClaim(context.Background(), 1, 2, 2)
	require.NoError(t, err)

	// Listing vanishes before the compensating restore.
	inv.mu.Lock()
	delete(inv.listings, 1)
	inv.mu.Unlock()

	canceled, err := svc.Cancel(context.Background(), claim.ID)
	require.NoError(t, err, "restore failure must not fail the cancellation")
	assert.Equal(t, model.StatusCanceled, canceled.Status)

	// The claim was not resurrected.
	got, err := ledger.GetByID(context.Background(), claim.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCanceled, got.Status)
}

func TestRedeemedClaimCannotBeCanceled(t *testing.T) {
	svc, inv, _, _ := newTestService()
	inv.add(1, 5, 5)

	claim, err := svc.CreateClaim(context.Background(), 1, 2, 2)
	require.NoError(t, err)

	_, err = svc.Redeem(context.Background(), claim.QRToken)
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), claim.ID)
	assert.ErrorIs(t, err, repository.ErrAlreadyRedeemed)
	// Quantity of a redeemed claim stays consumed.
	assert.Equal(t, uint32(3), inv.remaining(1))
}

// TestClaimLifecycleScenario walks the reference scenario: total=5,
// per-person limit 3; A takes 3, B is refused 3, C takes 2, A redeems
// once, C cancels.
func TestClaimLifecycleScenario(t *testing.T) {
	svc, inv, _, _ := newTestService()
	inv.add(1, 5, 3)
	ctx := context.Background()

	a, err := svc.CreateClaim(ctx, 1, 101, 3)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), inv.remaining(1))

	_, err = svc.CreateClaim(ctx, 1, 102, 3)
	assert.ErrorIs(t, err, repository.ErrSoldOut, "insufficient remaining is a sold-out rejection")
	assert.Equal(t, uint32(2), inv.remaining(1))

	cClaim, err := svc.CreateClaim(ctx, 1, 103, 2)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), inv.remaining(1))

	redeemed, err := svc.Redeem(ctx, a.QRToken)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRedeemed, redeemed.Status)
	require.NotNil(t, redeemed.RedeemedAt)

	_, err = svc.Redeem(ctx, a.QRToken)
	assert.ErrorIs(t, err, repository.ErrAlreadyRedeemed)

	canceled, err := svc.Cancel(ctx, cClaim.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCanceled, canceled.Status)
	assert.Equal(t, uint32(2), inv.remaining(1))
}

func TestListsAreOrderedByCreation(t *testing.T) {
	svc, inv, _, _ := newTestService()
	inv.add(1, 10, 2)
	ctx := context.Background()

	first, err := svc.CreateClaim(ctx, 1, 7, 1)
	require.NoError(t, err)
	second, err := svc.CreateClaim(ctx, 1, 7, 2)
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, first.ID)
	require.NoError(t, err)

	claims, err := svc.ClaimsByStudent(ctx, 7)
	require.NoError(t, err)
	require.Len(t, claims, 2, "lists include claims regardless of status")
	assert.Equal(t, first.ID, claims[0].ID)
	assert.Equal(t, second.ID, claims[1].ID)
	assert.True(t, !claims[0].ClaimedAt.After(claims[1].ClaimedAt))
}
