package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is an account in the system.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Role         UserRole
	Blocked      bool
	Plan         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CanAuthenticate reports whether the account may obtain new tokens.
func (u *User) CanAuthenticate() bool {
	return !u.Blocked
}
