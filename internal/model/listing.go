package model

import "time"

// Listing represents a surplus-food offer published by a restaurant.
// The remaining quantity starts equal to the total quantity and is
// only ever mutated through the listing repository's Reserve and
// Restore operations, so that 0 <= remaining <= total always holds.
//
// Fields:
//  ID                – primary key identifier.
//  RestaurantID      – user ID of the restaurant that owns the listing.
//  Title             – short name of the offer.
//  Description       – optional free-text description.
//  TotalQuantity     – number of portions offered, fixed at creation.
//  RemainingQuantity – portions still claimable.
//  PerPersonLimit    – maximum portions a single claim may reserve.
//  PickupLocation    – optional pickup instructions.
//  AvailableUntil    – optional end of the availability window.
//  CreatedAt         – creation timestamp.
type Listing struct {
	ID                uint64     `json:"id"`                        // food_listings.id
	RestaurantID      uint64     `json:"restaurant_id"`             // food_listings.restaurant_id
	Title             string     `json:"title"`                     // food_listings.title
	Description       *string    `json:"description,omitempty"`     // food_listings.description (nullable)
	TotalQuantity     uint32     `json:"total_quantity"`            // food_listings.total_quantity
	RemainingQuantity uint32     `json:"remaining_quantity"`        // food_listings.remaining_quantity
	PerPersonLimit    uint32     `json:"per_person_limit"`          // food_listings.per_person_limit
	PickupLocation    *string    `json:"pickup_location,omitempty"` // food_listings.pickup_location (nullable)
	AvailableUntil    *time.Time `json:"available_until,omitempty"` // food_listings.available_until (nullable)
	CreatedAt         time.Time  `json:"created_at"`                // food_listings.created_at
}
