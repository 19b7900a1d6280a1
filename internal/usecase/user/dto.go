package user

import (
	"strings"

	"github.com/google/uuid"

	domain "user-crud-service/internal/domain/user"
)

// CreateUserDto is the input for creating a new user.
type CreateUserDto struct {
	FirstName string `validate:"required,max=100"`
	LastName  string `validate:"required,max=100"`
	Email     string `validate:"required,email,max=254"`
}

// UpdateUserDto is the input for a full update of an existing user.
type UpdateUserDto struct {
	FirstName string `validate:"required,max=100"`
	LastName  string `validate:"required,max=100"`
	Email     string `validate:"required,email,max=254"`
}

// UserDto is the outward projection of a user.
type UserDto struct {
	ID        uuid.UUID
	FirstName string
	LastName  string
	Email     string
}

func (in CreateUserDto) normalize() CreateUserDto {
	return CreateUserDto{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     strings.TrimSpace(in.Email),
	}
}

func (in UpdateUserDto) normalize() UpdateUserDto {
	return UpdateUserDto{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     strings.TrimSpace(in.Email),
	}
}

// toDto maps a domain user onto its transfer object.
func toDto(u *domain.User) *UserDto {
	return &UserDto{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	}
}
