package user

import (
	"time"

	"github.com/google/uuid"
)

// User represents a user entity in the system.
type User struct {
	ID        uuid.UUID // ID is assigned by the repository on creation
	FirstName string
	LastName  string
	Email     string // Email is unique across all users
	CreatedAt time.Time
	UpdatedAt time.Time
}

// New creates a user that has not been persisted yet.
func New(firstName, lastName, email string) *User {
	return &User{
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
	}
}

// UpdateBasicInfo replaces the user's name and email.
func (u *User) UpdateBasicInfo(firstName, lastName, email string) {
	u.FirstName = firstName
	u.LastName = lastName
	u.Email = email
}
