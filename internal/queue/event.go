// Package queue defines message payloads exchanged over the message broker.
package queue

// ClaimRedeemedEvent is published when a claim is successfully redeemed
// at pickup.  It carries enough information for downstream consumers to
// log or notify without querying the primary database.
type ClaimRedeemedEvent struct {
	ClaimID    uint64 `json:"claim_id"`
	ListingID  uint64 `json:"listing_id"`
	StudentID  uint64 `json:"student_id"`
	Quantity   uint32 `json:"quantity"`
	RedeemedAt string `json:"redeemed_at"`
}
