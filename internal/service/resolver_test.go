package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unibite/unibite-backend/internal/repository"
)

func TestResolveClaimTokenWinsOverStatus(t *testing.T) {
	svc, inv, ledger, _ := newTestService()
	inv.add(1, 5, 5)
	ctx := context.Background()

	claim, err := svc.CreateClaim(ctx, 1, 4, 1)
	require.NoError(t, err)

	resolver := NewResolver(ledger, &fakeStandingTokens{byToken: map[string]uint64{}})

	id, err := resolver.Resolve(ctx, claim.QRToken)
	require.NoError(t, err)
	assert.Equal(t, claim.ID, id)

	// A claim token keeps resolving after the claim is terminal; the
	// transition itself is what gets rejected, with the precise reason.
	_, err = svc.Redeem(ctx, claim.QRToken)
	require.NoError(t, err)

	id, err = resolver.Resolve(ctx, claim.QRToken)
	require.NoError(t, err)
	assert.Equal(t, claim.ID, id)

	_, err = svc.Redeem(ctx, claim.QRToken)
	assert.ErrorIs(t, err, repository.ErrAlreadyRedeemed)
}

func TestResolveStandingTokenPicksLatestClaimed(t *testing.T) {
	svc, inv, ledger, _ := newTestService()
	inv.add(1, 10, 5)
	ctx := context.Background()

	const studentID = 9
	first, err := svc.CreateClaim(ctx, 1, studentID, 1)
	require.NoError(t, err)
	second, err := svc.CreateClaim(ctx, 1, studentID, 1)
	require.NoError(t, err)

	tokens := &fakeStandingTokens{byToken: map[string]uint64{"standing-9": studentID}}
	resolver := NewResolver(ledger, tokens)

	// Two CLAIMED claims: the newer one wins.
	id, err := resolver.Resolve(ctx, "standing-9")
	require.NoError(t, err)
	assert.Equal(t, second.ID, id)

	// Once the newer claim is terminal the older one becomes the
	// latest CLAIMED.
	_, err = svc.Redeem(ctx, second.QRToken)
	require.NoError(t, err)

	id, err = resolver.Resolve(ctx, "standing-9")
	require.NoError(t, err)
	assert.Equal(t, first.ID, id)
}

func TestResolveStandingTokenWithoutActiveClaim(t *testing.T) {
	svc, inv, ledger, _ := newTestService()
	inv.add(1, 5, 5)
	ctx := context.Background()

	const studentID = 3
	claim, err := svc.CreateClaim(ctx, 1, studentID, 1)
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, claim.ID)
	require.NoError(t, err)

	tokens := &fakeStandingTokens{byToken: map[string]uint64{"standing-3": studentID}}
	resolver := NewResolver(ledger, tokens)

	_, err = resolver.Resolve(ctx, "standing-3")
	assert.ErrorIs(t, err, repository.ErrNoActiveClaim)
}

func TestResolveRejectsUnknownAndEmptyTokens(t *testing.T) {
	_, _, ledger, tokens := newTestService()
	resolver := NewResolver(ledger, tokens)
	ctx := context.Background()

	_, err := resolver.Resolve(ctx, "no-such-token")
	assert.ErrorIs(t, err, repository.ErrInvalidToken)

	_, err = resolver.Resolve(ctx, "")
	assert.ErrorIs(t, err, repository.ErrInvalidToken)

	_, err = resolver.Resolve(ctx, "   ")
	assert.ErrorIs(t, err, repository.ErrInvalidToken)
}
