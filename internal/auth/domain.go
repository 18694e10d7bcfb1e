package auth

import (
	"time"

	"github.com/optimwalls/Optimwalls/internal/shared"
)

// User is the full account row. Only Identity projections leave this package.
type User struct {
	ID              int64
	Username        string
	Email           *string
	PasswordHash    string
	RoleID          int64
	FullName        *string
	Department      *string
	Position        *string
	EmailVerifiedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Identity returns the safe projection used past the auth boundary.
func (u *User) Identity() *shared.Identity {
	return &shared.Identity{ID: u.ID, Username: u.Username, RoleID: u.RoleID}
}
