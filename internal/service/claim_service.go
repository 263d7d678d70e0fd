// Package service contains the claim orchestration logic.  The claim
// lifecycle spans two owners: the listing inventory owns the finite
// remaining-quantity counter, the claim ledger owns claim rows and
// their status transitions.  ClaimService composes the two (plus
// standing-token resolution) behind small interfaces so the whole
// state machine is testable with in-memory fakes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/unibite/unibite-backend/internal/model"
)

// ErrInvalidInput marks request-shape validation failures.  Handlers
// translate it to HTTP 400; wrap it with fmt.Errorf("%w: ...") to
// attach the offending field.
var ErrInvalidInput = errors.New("invalid input")

// Inventory is the listing-quantity side of claim creation.  Reserve
// must be atomic: concurrent calls against one listing never jointly
// exceed the remaining quantity.  Restore puts quantity back after a
// cancellation or a failed claim write, clamped at the listing total.
type Inventory interface {
	Reserve(ctx context.Context, listingID uint64, qty uint32) error
	Restore(ctx context.Context, listingID uint64, qty uint32) error
	Owner(ctx context.Context, listingID uint64) (uint64, error)
}

// Ledger owns claim records.  Redeem and Cancel are compare-and-swap
// transitions from CLAIMED; concurrent attempts on one claim produce
// exactly one success.
type Ledger interface {
	Create(ctx context.Context, listingID, studentID uint64, qty uint32) (model.Claim, error)
	GetByID(ctx context.Context, id uint64) (model.Claim, error)
	GetByToken(ctx context.Context, token string) (model.Claim, error)
	Redeem(ctx context.Context, id uint64) (model.Claim, error)
	Cancel(ctx context.Context, id uint64) (model.Claim, error)
	LatestClaimedByStudent(ctx context.Context, studentID uint64) (model.Claim, error)
	ListByStudent(ctx context.Context, studentID uint64) ([]model.Claim, error)
	ListByListing(ctx context.Context, listingID uint64) ([]model.Claim, error)
}

// StandingTokens resolves a user-scoped QR token to the owning user.
type StandingTokens interface {
	FindUserByQRToken(ctx context.Context, token string) (uint64, error)
}

// ClaimService is the public face of the claim lifecycle.  All
// mutations flow through it so the reserve/create and cancel/restore
// pairs stay consistent even under partial failure.
type ClaimService struct {
	inv      Inventory
	ledger   Ledger
	resolver *Resolver
}

// NewClaimService wires the service from its collaborators.  All
// dependencies must be non-nil.
func NewClaimService(inv Inventory, ledger Ledger, tokens StandingTokens) *ClaimService {
	if inv == nil || ledger == nil || tokens == nil {
		panic("nil dependency passed to NewClaimService")
	}
	return &ClaimService{
		inv:      inv,
		ledger:   ledger,
		resolver: NewResolver(ledger, tokens),
	}
}

// CreateClaim validates the request, reserves quantity against the
// listing and records the claim.  The sequence is all-or-nothing: when
// the reservation fails nothing is written, and when the ledger write
// fails after a successful reservation the quantity is restored so the
// listing invariant (remaining = total - active claims) still holds.
func (s *ClaimService) CreateClaim(ctx context.Context, listingID, studentID uint64, qty uint32) (model.Claim, error) {
	if listingID == 0 {
		return model.Claim{}, fmt.Errorf("%w: listing_id is required", ErrInvalidInput)
	}
	if studentID == 0 {
		return model.Claim{}, fmt.Errorf("%w: student_id is required", ErrInvalidInput)
	}
	if qty == 0 {
		return model.Claim{}, fmt.Errorf("%w: quantity must be > 0", ErrInvalidInput)
	}
	if err := s.inv.Reserve(ctx, listingID, qty); err != nil {
		return model.Claim{}, err
	}
	claim, err := s.ledger.Create(ctx, listingID, studentID, qty)
	if err != nil {
		// Compensate: the quantity was already taken out of the
		// listing but no claim exists to account for it.
		if rerr := s.inv.Restore(ctx, listingID, qty); rerr != nil {
			log.Printf("claim-service: compensating restore of %d on listing %d failed: %v", qty, listingID, rerr)
		}
		return model.Claim{}, err
	}
	return claim, nil
}

// Redeem resolves a QR token (claim-scoped first, then standing) to a
// claim and transitions it to REDEEMED.  Transition legality is
// entirely the ledger's call: a token that resolves to an already
// redeemed or canceled claim surfaces that exact rejection.
func (s *ClaimService) Redeem(ctx context.Context, token string) (model.Claim, error) {
	claimID, err := s.resolver.Resolve(ctx, token)
	if err != nil {
		return model.Claim{}, err
	}
	return s.ledger.Redeem(ctx, claimID)
}

// Cancel transitions a claim to CANCELED and restores its quantity to
// the listing.  When the restore fails (e.g. the listing vanished) the
// cancellation still stands; a canceled claim is never resurrected.
// The inconsistency is logged for follow-up instead.
func (s *ClaimService) Cancel(ctx context.Context, claimID uint64) (model.Claim, error) {
	if claimID == 0 {
		return model.Claim{}, fmt.Errorf("%w: claim_id is required", ErrInvalidInput)
	}
	claim, err := s.ledger.Cancel(ctx, claimID)
	if err != nil {
		return model.Claim{}, err
	}
	if rerr := s.inv.Restore(ctx, claim.ListingID, claim.Quantity); rerr != nil {
		log.Printf("claim-service: restore of %d on listing %d after cancel of claim %d failed: %v",
			claim.Quantity, claim.ListingID, claim.ID, rerr)
	}
	return claim, nil
}

// ListingOwner returns the restaurant that owns a listing.  Handlers
// use it to scope restaurant operations to the restaurant's own
// listings.
func (s *ClaimService) ListingOwner(ctx context.Context, listingID uint64) (uint64, error) {
	if listingID == 0 {
		return 0, fmt.Errorf("%w: listing_id is required", ErrInvalidInput)
	}
	return s.inv.Owner(ctx, listingID)
}

// Claim returns a single claim by ID.
func (s *ClaimService) Claim(ctx context.Context, claimID uint64) (model.Claim, error) {
	if claimID == 0 {
		return model.Claim{}, fmt.Errorf("%w: claim_id is required", ErrInvalidInput)
	}
	return s.ledger.GetByID(ctx, claimID)
}

// ClaimsByStudent returns all of a student's claims, oldest first.
func (s *ClaimService) ClaimsByStudent(ctx context.Context, studentID uint64) ([]model.Claim, error) {
	if studentID == 0 {
		return nil, fmt.Errorf("%w: student_id is required", ErrInvalidInput)
	}
	return s.ledger.ListByStudent(ctx, studentID)
}

// ClaimsByListing returns all claims against a listing, oldest first.
func (s *ClaimService) ClaimsByListing(ctx context.Context, listingID uint64) ([]model.Claim, error) {
	if listingID == 0 {
		return nil, fmt.Errorf("%w: listing_id is required", ErrInvalidInput)
	}
	return s.ledger.ListByListing(ctx, listingID)
}
