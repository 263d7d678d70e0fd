package repository

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/unibite/unibite-backend/internal/model"
)

// ListingRepo provides data access to the food_listings table and owns
// the listing inventory: the remaining_quantity counter is only ever
// mutated through Reserve and Restore so the no-oversell invariant is
// enforced in exactly one place.
type ListingRepo struct {
	db *sql.DB
}

// NewListingRepo returns a ListingRepo bound to the given database.
func NewListingRepo(db *sql.DB) *ListingRepo { return &ListingRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions
// spanning multiple repositories.
func (r *ListingRepo) DB() *sql.DB { return r.db }

const listingColumns = `id, restaurant_id, title, description, total_quantity,
	remaining_quantity, per_person_limit, pickup_location, available_until, created_at`

func scanListing(row interface{ Scan(...any) error }) (model.Listing, error) {
	var (
		l         model.Listing
		desc      sql.NullString
		pickup    sql.NullString
		availThru sql.NullTime
	)
	err := row.Scan(&l.ID, &l.RestaurantID, &l.Title, &desc, &l.TotalQuantity,
		&l.RemainingQuantity, &l.PerPersonLimit, &pickup, &availThru, &l.CreatedAt)
	if err != nil {
		return model.Listing{}, err
	}
	if desc.Valid {
		d := desc.String
		l.Description = &d
	}
	if pickup.Valid {
		p := pickup.String
		l.PickupLocation = &p
	}
	if availThru.Valid {
		t := availThru.Time.UTC()
		l.AvailableUntil = &t
	}
	return l, nil
}

// Create inserts a new listing.  The remaining quantity is initialized
// to the total quantity; validation of the input fields is the
// handler's responsibility.  The generated ID and creation timestamp
// are populated on the passed struct.
func (r *ListingRepo) Create(ctx context.Context, l *model.Listing) error {
	const q = `INSERT INTO food_listings
		(restaurant_id, title, description, total_quantity, remaining_quantity,
		 per_person_limit, pickup_location, available_until)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		l.RestaurantID, l.Title, l.Description, l.TotalQuantity, l.TotalQuantity,
		l.PerPersonLimit, l.PickupLocation, l.AvailableUntil)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = uint64(id)
	l.RemainingQuantity = l.TotalQuantity
	// Query back the row to populate the DB-assigned timestamp.
	created, err := r.GetByID(ctx, l.ID)
	if err != nil {
		return err
	}
	*l = created
	return nil
}

// GetByID fetches a single listing.  ErrListingNotFound is returned
// when no row matches.
func (r *ListingRepo) GetByID(ctx context.Context, id uint64) (model.Listing, error) {
	l, err := scanListing(r.db.QueryRowContext(ctx,
		`SELECT `+listingColumns+` FROM food_listings WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Listing{}, ErrListingNotFound
	}
	return l, err
}

// ListAll returns every listing ordered by creation time descending
// (newest offers first, matching the browse page).
func (r *ListingRepo) ListAll(ctx context.Context) ([]model.Listing, error) {
	return r.list(ctx,
		`SELECT `+listingColumns+` FROM food_listings ORDER BY created_at DESC, id DESC`)
}

// ListByRestaurant returns the listings owned by one restaurant,
// newest first.
func (r *ListingRepo) ListByRestaurant(ctx context.Context, restaurantID uint64) ([]model.Listing, error) {
	return r.list(ctx,
		`SELECT `+listingColumns+` FROM food_listings WHERE restaurant_id = ? ORDER BY created_at DESC, id DESC`,
		restaurantID)
}

// Owner returns the restaurant that owns a listing.
func (r *ListingRepo) Owner(ctx context.Context, listingID uint64) (uint64, error) {
	var owner uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT restaurant_id FROM food_listings WHERE id = ?`, listingID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrListingNotFound
	}
	return owner, err
}

func (r *ListingRepo) list(ctx context.Context, q string, args ...any) ([]model.Listing, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	listings := make([]model.Listing, 0)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return listings, nil
}

// Reserve atomically decrements a listing's remaining quantity by qty.
// The checks run in a fixed order: listing exists, not sold out,
// quantity within the per-person limit, quantity within what remains.
// The decrement itself is a single conditional UPDATE guarded by
// remaining_quantity >= qty, so two concurrent reservations can never
// both succeed past the available quantity: whichever UPDATE runs
// second sees the already-decremented counter and matches zero rows.
func (r *ListingRepo) Reserve(ctx context.Context, listingID uint64, qty uint32) error {
	if qty == 0 {
		return ErrInsufficientRemaining
	}
	remaining, limit, err := r.readCounters(ctx, listingID)
	if err != nil {
		return err
	}
	if remaining == 0 {
		return ErrSoldOut
	}
	if qty > limit {
		return ErrExceedsPerPersonLimit
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE food_listings SET remaining_quantity = remaining_quantity - ?
		 WHERE id = ? AND remaining_quantity >= ?`,
		qty, listingID, qty)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Asked for more than the read observed, or lost the race to a
		// concurrent reservation.  Classify from the counter read above:
		// a re-read here could see a counter already replenished by a
		// concurrent Restore and misstate what the caller raced against.
		return ErrInsufficientRemaining
	}
	return nil
}

// Restore increments a listing's remaining quantity by qty, clamped so
// it never exceeds the total.  The read-compute-write runs under a
// row lock (SELECT ... FOR UPDATE) so concurrent restores and reserves
// are serialized against the same row.  A clamp indicates a caller bug
// (double restore); it is logged but the restore still succeeds so a
// cancellation is never failed on account of it.
func (r *ListingRepo) Restore(ctx context.Context, listingID uint64, qty uint32) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	var remaining, total uint32
	err = tx.QueryRowContext(ctx,
		`SELECT remaining_quantity, total_quantity FROM food_listings WHERE id = ? FOR UPDATE`,
		listingID).Scan(&remaining, &total)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrListingNotFound
	}
	if err != nil {
		return err
	}
	restored := remaining + qty
	if restored > total {
		log.Printf("listing-repo: restore of %d on listing %d would exceed total (%d > %d); clamping",
			qty, listingID, restored, total)
		restored = total
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE food_listings SET remaining_quantity = ? WHERE id = ?`,
		restored, listingID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func (r *ListingRepo) readCounters(ctx context.Context, listingID uint64) (remaining, limit uint32, err error) {
	err = r.db.QueryRowContext(ctx,
		`SELECT remaining_quantity, per_person_limit FROM food_listings WHERE id = ?`,
		listingID).Scan(&remaining, &limit)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, ErrListingNotFound
	}
	return remaining, limit, err
}
