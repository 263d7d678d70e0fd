package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/unibite/unibite-backend/internal/model"
)

// ClaimRepo owns claim records and their status transitions.  It never
// touches listing quantities; compensating inventory updates are the
// claim service's job.  Both terminal transitions are implemented as a
// compare-and-swap on the status column, so concurrent attempts on the
// same claim produce exactly one success.
type ClaimRepo struct {
	db *sql.DB
}

// NewClaimRepo returns a ClaimRepo bound to the given database.
func NewClaimRepo(db *sql.DB) *ClaimRepo { return &ClaimRepo{db: db} }

const claimColumns = `id, listing_id, student_id, quantity, status, qr_token, claimed_at, redeemed_at`

func scanClaim(row interface{ Scan(...any) error }) (model.Claim, error) {
	var (
		c          model.Claim
		status     string
		redeemedAt sql.NullTime
	)
	err := row.Scan(&c.ID, &c.ListingID, &c.StudentID, &c.Quantity, &status,
		&c.QRToken, &c.ClaimedAt, &redeemedAt)
	if err != nil {
		return model.Claim{}, err
	}
	c.Status = model.ClaimStatus(status)
	if redeemedAt.Valid {
		t := redeemedAt.Time.UTC()
		c.RedeemedAt = &t
	}
	return c, nil
}

// Create inserts a new claim in the CLAIMED state with a fresh UUID
// QR token.  The quantity is recorded verbatim; it was validated and
// reserved by the listing inventory before this call.
func (r *ClaimRepo) Create(ctx context.Context, listingID, studentID uint64, qty uint32) (model.Claim, error) {
	token := uuid.NewString()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO claims (listing_id, student_id, quantity, status, qr_token)
		 VALUES (?, ?, ?, ?, ?)`,
		listingID, studentID, qty, string(model.StatusClaimed), token)
	if err != nil {
		return model.Claim{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Claim{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID fetches a single claim.  ErrClaimNotFound is returned when
// no row matches.
func (r *ClaimRepo) GetByID(ctx context.Context, id uint64) (model.Claim, error) {
	c, err := scanClaim(r.db.QueryRowContext(ctx,
		`SELECT `+claimColumns+` FROM claims WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Claim{}, ErrClaimNotFound
	}
	return c, err
}

// GetByToken fetches a claim by its claim-scoped QR token.
// ErrClaimNotFound is returned when the token matches no claim; the
// caller may then fall back to standing-token resolution.
func (r *ClaimRepo) GetByToken(ctx context.Context, token string) (model.Claim, error) {
	c, err := scanClaim(r.db.QueryRowContext(ctx,
		`SELECT `+claimColumns+` FROM claims WHERE qr_token = ?`, token))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Claim{}, ErrClaimNotFound
	}
	return c, err
}

// Redeem transitions a claim from CLAIMED to REDEEMED and stamps the
// redemption time.  The UPDATE is guarded by status = 'CLAIMED': when
// zero rows match, the current status is re-read to report
// ErrAlreadyRedeemed, ErrAlreadyCanceled or ErrClaimNotFound.  A second
// redeem of the same claim therefore deterministically fails instead of
// silently succeeding.
func (r *ClaimRepo) Redeem(ctx context.Context, id uint64) (model.Claim, error) {
	return r.transition(ctx, id, model.StatusRedeemed,
		`UPDATE claims SET status = ?, redeemed_at = UTC_TIMESTAMP() WHERE id = ? AND status = ?`)
}

// Cancel transitions a claim from CLAIMED to CANCELED.  The same
// compare-and-swap guard as Redeem applies.
func (r *ClaimRepo) Cancel(ctx context.Context, id uint64) (model.Claim, error) {
	return r.transition(ctx, id, model.StatusCanceled,
		`UPDATE claims SET status = ? WHERE id = ? AND status = ?`)
}

func (r *ClaimRepo) transition(ctx context.Context, id uint64, next model.ClaimStatus, q string) (model.Claim, error) {
	res, err := r.db.ExecContext(ctx, q, string(next), id, string(model.StatusClaimed))
	if err != nil {
		return model.Claim{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return model.Claim{}, err
	}
	if affected == 0 {
		current, err := r.GetByID(ctx, id)
		if err != nil {
			return model.Claim{}, err
		}
		switch current.Status {
		case model.StatusRedeemed:
			return model.Claim{}, ErrAlreadyRedeemed
		case model.StatusCanceled:
			return model.Claim{}, ErrAlreadyCanceled
		}
		// CLAIMED again would mean the CAS lost to nothing; treat as
		// not found to avoid reporting a bogus success.
		return model.Claim{}, ErrClaimNotFound
	}
	return r.GetByID(ctx, id)
}

// LatestClaimedByStudent returns the student's most recently created
// claim that is still in the CLAIMED state.  The id tie-break keeps
// the choice deterministic when two claims share a timestamp.
// ErrNoActiveClaim is returned when the student has none.
func (r *ClaimRepo) LatestClaimedByStudent(ctx context.Context, studentID uint64) (model.Claim, error) {
	c, err := scanClaim(r.db.QueryRowContext(ctx,
		`SELECT `+claimColumns+` FROM claims
		 WHERE student_id = ? AND status = ?
		 ORDER BY claimed_at DESC, id DESC LIMIT 1`,
		studentID, string(model.StatusClaimed)))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Claim{}, ErrNoActiveClaim
	}
	return c, err
}

// ListByStudent returns all of a student's claims regardless of status,
// ordered by creation time ascending for stable pagination.
func (r *ClaimRepo) ListByStudent(ctx context.Context, studentID uint64) ([]model.Claim, error) {
	return r.list(ctx,
		`SELECT `+claimColumns+` FROM claims WHERE student_id = ? ORDER BY claimed_at ASC, id ASC`,
		studentID)
}

// ListByListing returns all claims against a listing regardless of
// status, ordered by creation time ascending.
func (r *ClaimRepo) ListByListing(ctx context.Context, listingID uint64) ([]model.Claim, error) {
	return r.list(ctx,
		`SELECT `+claimColumns+` FROM claims WHERE listing_id = ? ORDER BY claimed_at ASC, id ASC`,
		listingID)
}

func (r *ClaimRepo) list(ctx context.Context, q string, args ...any) ([]model.Claim, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	claims := make([]model.Claim, 0)
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		claims = append(claims, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return claims, nil
}
