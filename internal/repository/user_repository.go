package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/unibite/unibite-backend/internal/model"
	"github.com/unibite/unibite-backend/internal/utils"
)

// UserRepo provides data access to the users table.  Every user is
// assigned a standing QR token at creation; the redemption flow can
// resolve that token to the user's most recent active claim, so one
// printed code works across many pickups.
type UserRepo struct{ DB *sql.DB }

// NewUserRepo returns a UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id, email, password_hash, role, phone, qr_token, is_active, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var (
		u     model.User
		phone sql.NullString
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &phone,
		&u.QRToken, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	if phone.Valid {
		p := phone.String
		u.Phone = &p
	}
	return u, nil
}

// Create inserts a user with a bcrypt password hash and a fresh
// standing QR token, returning the new ID and the token.  A duplicate
// email maps to ErrEmailExists (MySQL error 1062).
func (r *UserRepo) Create(ctx context.Context, email, password, role string, phone *string, cost int) (uint64, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, "", err
	}
	qrToken := uuid.NewString()
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role, phone, qr_token) VALUES (?,?,?,?,?)",
		email, hash, role, phone, qrToken)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, "", ErrEmailExists
		}
		return 0, "", err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, "", err
	}
	return uint64(id), qrToken, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email=? LIMIT 1`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id=? LIMIT 1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

// GetByQRToken fetches a user by their standing QR token.
// ErrUserNotFound is returned when the token belongs to no user.
func (r *UserRepo) GetByQRToken(ctx context.Context, token string) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE qr_token=? LIMIT 1`, token))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

// FindUserByQRToken resolves a standing token to the owning user ID.
// It exists so the repo satisfies the claim service's StandingTokens
// interface without exposing the full user record.
func (r *UserRepo) FindUserByQRToken(ctx context.Context, token string) (uint64, error) {
	u, err := r.GetByQRToken(ctx, token)
	if err != nil {
		return 0, err
	}
	return u.ID, nil
}
