package user

import (
	"context"

	"github.com/google/uuid"
)

// Usecase defines the interface for user business logic operations.
// A nil result with a nil error means the user does not exist.
type Usecase interface {
	Create(ctx context.Context, in CreateUserDto) (*UserDto, error)
	GetByID(ctx context.Context, id uuid.UUID) (*UserDto, error)
	GetAll(ctx context.Context) ([]UserDto, error)
	Update(ctx context.Context, id uuid.UUID, in UpdateUserDto) (*UserDto, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}
