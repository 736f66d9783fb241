package auth

import (
	"time"

	"github.com/google/uuid"
)

// User represents a user record as stored in the users table.
// HashedPassword and OAuthID are never serialized.
type User struct {
	ID             uuid.UUID  `json:"id"`
	Email          string     `json:"email"`
	Username       string     `json:"username"`
	Phone          *string    `json:"phone,omitempty"`
	HashedPassword string     `json:"-"`
	Address        *string    `json:"address,omitempty"`
	City           *string    `json:"city,omitempty"`
	State          *string    `json:"state,omitempty"`
	PostalCode     *string    `json:"postal_code,omitempty"`
	IsVerified     bool       `json:"is_verified"`
	IsSuperuser    bool       `json:"is_superuser"`
	OAuthProvider  *string    `json:"oauth_provider,omitempty"`
	OAuthID        *string    `json:"-"`
	AdminGrantedBy *uuid.UUID `json:"admin_granted_by,omitempty"`
	AdminGrantedAt *time.Time `json:"admin_granted_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
