package model

import "time"

// ClaimStatus enumerates the lifecycle states of a claim.  CLAIMED is
// the only initial state; REDEEMED and CANCELED are terminal and
// mutually exclusive.  Transitions are validated through
// CanTransitionTo so that an illegal move is rejected before any row
// is touched.
type ClaimStatus string

const (
	StatusClaimed  ClaimStatus = "CLAIMED"
	StatusRedeemed ClaimStatus = "REDEEMED"
	StatusCanceled ClaimStatus = "CANCELED"
)

// Valid reports whether s is one of the known states.
func (s ClaimStatus) Valid() bool {
	switch s {
	case StatusClaimed, StatusRedeemed, StatusCanceled:
		return true
	}
	return false
}

// Terminal reports whether the state admits no further transitions.
func (s ClaimStatus) Terminal() bool {
	return s == StatusRedeemed || s == StatusCanceled
}

// CanTransitionTo reports whether a claim in state s may move to next.
// Only CLAIMED -> REDEEMED and CLAIMED -> CANCELED are legal.
func (s ClaimStatus) CanTransitionTo(next ClaimStatus) bool {
	return s == StatusClaimed && next.Terminal()
}

// Claim records a student's reservation of portions against a
// listing.  Each claim carries its own single-use QR token; the
// reserved quantity was already validated and decremented by the
// listing inventory before the claim row exists.
//
// Fields:
//  ID         – primary key identifier.
//  ListingID  – listing the portions were reserved against.
//  StudentID  – student who made the claim.
//  Quantity   – portions reserved (1..per_person_limit at claim time).
//  Status     – current lifecycle state.
//  QRToken    – unique claim-scoped redemption token.
//  ClaimedAt  – creation timestamp.
//  RedeemedAt – set only when the claim transitions to REDEEMED.
type Claim struct {
	ID         uint64      `json:"id"`                    // claims.id
	ListingID  uint64      `json:"listing_id"`            // claims.listing_id
	StudentID  uint64      `json:"student_id"`            // claims.student_id
	Quantity   uint32      `json:"quantity"`              // claims.quantity
	Status     ClaimStatus `json:"status"`                // claims.status
	QRToken    string      `json:"qr_token"`              // claims.qr_token
	ClaimedAt  time.Time   `json:"claimed_at"`            // claims.claimed_at
	RedeemedAt *time.Time  `json:"redeemed_at,omitempty"` // claims.redeemed_at (nullable)
}
