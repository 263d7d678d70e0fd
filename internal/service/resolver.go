package service

import (
	"context"
	"errors"
	"strings"

	"github.com/unibite/unibite-backend/internal/repository"
)

// Resolver maps an opaque QR token to exactly one claim.  A scanned
// code can be either a claim-scoped token (single pickup) or a user's
// standing token (reused across pickups); the resolver hides that
// ambiguity so the redemption endpoint has a single call site.
//
// Resolution order: claim token first, then standing token.  A claim
// token resolves to its claim regardless of the claim's current
// status — legality of the transition is judged downstream by the
// ledger, which reports already-redeemed/already-canceled precisely.
type Resolver struct {
	ledger Ledger
	tokens StandingTokens
}

// NewResolver wires a Resolver from its collaborators.
func NewResolver(ledger Ledger, tokens StandingTokens) *Resolver {
	return &Resolver{ledger: ledger, tokens: tokens}
}

// Resolve returns the ID of the claim the token designates.  It fails
// with ErrInvalidToken when the token matches neither a claim nor a
// user, and with ErrNoActiveClaim when a standing token's owner has no
// CLAIMED claim.  Among multiple CLAIMED claims the most recently
// created one wins.
func (r *Resolver) Resolve(ctx context.Context, token string) (uint64, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, repository.ErrInvalidToken
	}
	claim, err := r.ledger.GetByToken(ctx, token)
	if err == nil {
		return claim.ID, nil
	}
	if !errors.Is(err, repository.ErrClaimNotFound) {
		return 0, err
	}
	userID, err := r.tokens.FindUserByQRToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return 0, repository.ErrInvalidToken
		}
		return 0, err
	}
	latest, err := r.ledger.LatestClaimedByStudent(ctx, userID)
	if err != nil {
		return 0, err
	}
	return latest.ID, nil
}
