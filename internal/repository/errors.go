// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as
// handlers and services to distinguish between failure scenarios with
// errors.Is instead of string comparison.  Business-rule rejections
// (sold out, over the per-person limit, already redeemed, already
// canceled) all translate to HTTP 409 at the edge; the not-found
// family translates to 404.
package repository

import (
	"errors"
	"fmt"
)

// ErrListingNotFound is returned when no listing exists for the given id.
var ErrListingNotFound = errors.New("listing not found")

// ErrClaimNotFound is returned when no claim exists for the given id or token.
var ErrClaimNotFound = errors.New("claim not found")

// ErrUserNotFound is returned when no user matches the given id or token.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailExists is returned when registration collides with an existing email.
var ErrEmailExists = errors.New("email already exists")

// ErrSoldOut is returned when a listing has no remaining quantity at all.
var ErrSoldOut = errors.New("listing is sold out")

// ErrInsufficientRemaining is returned when the requested quantity is
// positive but exceeds what is left.  It wraps ErrSoldOut so callers
// that only care about the coarse outcome can match either with a
// single errors.Is(err, ErrSoldOut).
var ErrInsufficientRemaining = fmt.Errorf("not enough quantity remaining: %w", ErrSoldOut)

// ErrExceedsPerPersonLimit is returned when the requested quantity is
// larger than the listing's per-person limit.
var ErrExceedsPerPersonLimit = errors.New("quantity exceeds per-person limit")

// ErrAlreadyRedeemed is returned when a terminal REDEEMED claim is
// redeemed or canceled again.  Exactly one redeem attempt per claim
// ever succeeds; every later attempt gets this error.
var ErrAlreadyRedeemed = errors.New("claim already redeemed")

// ErrAlreadyCanceled is returned when a terminal CANCELED claim is
// redeemed or canceled again.
var ErrAlreadyCanceled = errors.New("claim already canceled")

// ErrInvalidToken is returned when a redemption token matches neither a
// claim's QR token nor any user's standing token.
var ErrInvalidToken = errors.New("invalid qr token")

// ErrNoActiveClaim is returned when a standing token resolves to a user
// who currently has no claim in the CLAIMED state.
var ErrNoActiveClaim = errors.New("no active claim found for this user")
