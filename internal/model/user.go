package model

import "time"

// User represents an account in the platform.  Students claim food
// listings; restaurants publish them and redeem claims at pickup.
// Each user carries a standing QR token that can be printed once and
// presented at any pickup: the redemption endpoint resolves it to the
// user's most recent active claim.
//
// Fields:
//  ID           – primary key identifier.
//  Email        – unique login email (stored lowercased).
//  PasswordHash – bcrypt hash of the password.
//  Role         – STUDENT or RESTAURANT.
//  Phone        – optional contact phone.
//  QRToken      – unique standing token assigned at registration.
//  IsActive     – whether the account is active.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type User struct {
	ID           uint64    `json:"id"`             // users.id
	Email        string    `json:"email"`          // users.email
	PasswordHash string    `json:"-"`              // users.password_hash (never serialized)
	Role         string    `json:"role"`           // users.role
	Phone        *string   `json:"phone,omitempty"` // users.phone (nullable)
	QRToken      string    `json:"qr_token"`       // users.qr_token
	IsActive     bool      `json:"is_active"`      // users.is_active
	CreatedAt    time.Time `json:"created_at"`     // users.created_at
	UpdatedAt    time.Time `json:"updated_at"`     // users.updated_at
}

// Roles accepted at registration.
const (
	RoleStudent    = "STUDENT"
	RoleRestaurant = "RESTAURANT"
)
