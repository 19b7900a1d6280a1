package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	domain "user-crud-service/internal/domain/user"
	pkgerrors "user-crud-service/pkg/errors"
	"user-crud-service/pkg/logger"
)

// Repository defines the interface for user data access operations.
// Lookups return nil, nil when no user matches, and so does Update when the
// user is gone. Add and Update report a taken email as DuplicateEmailError.
type Repository interface {
	Add(ctx context.Context, u *domain.User) (*domain.User, error)      // Persist a new user, assigning its ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)    // Retrieve user by ID
	GetByEmail(ctx context.Context, email string) (*domain.User, error) // Retrieve user by email
	GetAll(ctx context.Context) ([]domain.User, error)                  // Retrieve every user
	Update(ctx context.Context, u *domain.User) (*domain.User, error)   // Persist changes to an existing user
	Delete(ctx context.Context, id uuid.UUID) error                     // Delete user by ID
	Exists(ctx context.Context, id uuid.UUID) (bool, error)             // Check whether a user exists
}

// Service implements the business logic for user management operations.
// It sits between the HTTP handlers and the repository.
type Service struct {
	repo     Repository          // Repository for data access
	log      *zap.Logger         // Logger for structured logging
	validate *validator.Validate // Validator for DTO validation
}

var _ Usecase = (*Service)(nil)

// New creates a new Service with the provided repository and logger.
func New(r Repository, log *zap.Logger) *Service {
	return &Service{repo: r, log: log, validate: validator.New()}
}

// formatValidationError converts validator.ValidationErrors into a ValidationError.
func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return pkgerrors.NewValidationError("", err.Error())
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		switch e.Tag() {
		case "required":
			messages = append(messages, "is required")
		case "email":
			messages = append(messages, "must be a valid email")
		case "max":
			messages = append(messages, fmt.Sprintf("must be at most %s characters", e.Param()))
		default:
			messages = append(messages, "is invalid")
		}
	}

	if len(validationErrors) == 1 {
		return pkgerrors.NewValidationError(validationErrors[0].Field(), messages[0])
	}
	for i, e := range validationErrors {
		messages[i] = e.Field() + " " + messages[i]
	}
	return pkgerrors.NewValidationError("", strings.Join(messages, ", "))
}

// Create validates the input, enforces email uniqueness and persists a new user.
func (s *Service) Create(ctx context.Context, in CreateUserDto) (*UserDto, error) {
	log := logger.WithContext(ctx, s.log)
	in = in.normalize()
	log.Info("creating user", zap.String("email", in.Email))

	if err := s.validate.Struct(in); err != nil {
		log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	existing, err := s.repo.GetByEmail(ctx, in.Email)
	if err != nil {
		log.Error("failed to check existing email", zap.String("email", in.Email), zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to validate email uniqueness", err)
	}
	if existing != nil {
		log.Warn("email already exists", zap.String("email", in.Email))
		return nil, pkgerrors.NewDuplicateEmailError(in.Email)
	}

	created, err := s.repo.Add(ctx, domain.New(in.FirstName, in.LastName, in.Email))
	if pkgerrors.IsDuplicateEmail(err) {
		log.Warn("email already exists", zap.String("email", in.Email))
		return nil, err
	}
	if err != nil {
		log.Error("failed to create user", zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to create user", err)
	}

	log.Info("user created", zap.String("id", created.ID.String()))
	return toDto(created), nil
}

// GetByID returns the user with the given id, or nil when it does not exist.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*UserDto, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		logger.WithContext(ctx, s.log).Error("failed to get user", zap.String("id", id.String()), zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to get user", err)
	}
	if u == nil {
		return nil, nil
	}
	return toDto(u), nil
}

// GetAll returns every stored user.
func (s *Service) GetAll(ctx context.Context) ([]UserDto, error) {
	users, err := s.repo.GetAll(ctx)
	if err != nil {
		logger.WithContext(ctx, s.log).Error("failed to list users", zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to list users", err)
	}

	out := make([]UserDto, len(users))
	for i := range users {
		out[i] = *toDto(&users[i])
	}
	return out, nil
}

// Update replaces the basic info of an existing user.
// A missing user yields nil, nil and nothing is written.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateUserDto) (*UserDto, error) {
	log := logger.WithContext(ctx, s.log)
	in = in.normalize()
	log.Info("updating user", zap.String("id", id.String()), zap.String("email", in.Email))

	if err := s.validate.Struct(in); err != nil {
		log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.Error("failed to get user", zap.String("id", id.String()), zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to get user", err)
	}
	if u == nil {
		log.Warn("user not found", zap.String("id", id.String()))
		return nil, nil
	}

	if in.Email != u.Email {
		owner, err := s.repo.GetByEmail(ctx, in.Email)
		if err != nil {
			log.Error("failed to check existing email", zap.String("email", in.Email), zap.Error(err))
			return nil, pkgerrors.NewInternalError("failed to validate email uniqueness", err)
		}
		if owner != nil && owner.ID != u.ID {
			log.Warn("email already exists", zap.String("email", in.Email), zap.String("existing_id", owner.ID.String()))
			return nil, pkgerrors.NewDuplicateEmailError(in.Email)
		}
	}

	u.UpdateBasicInfo(in.FirstName, in.LastName, in.Email)

	updated, err := s.repo.Update(ctx, u)
	if pkgerrors.IsDuplicateEmail(err) {
		log.Warn("email already exists", zap.String("email", in.Email))
		return nil, err
	}
	if err != nil {
		log.Error("failed to update user", zap.String("id", id.String()), zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to update user", err)
	}
	if updated == nil {
		log.Warn("user deleted before update", zap.String("id", id.String()))
		return nil, nil
	}
	return toDto(updated), nil
}

// Delete removes the user with the given id.
// It reports false, without attempting a delete, when the user does not exist.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	log := logger.WithContext(ctx, s.log)
	log.Info("deleting user", zap.String("id", id.String()))

	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		log.Error("failed to check user existence", zap.String("id", id.String()), zap.Error(err))
		return false, pkgerrors.NewInternalError("failed to check user existence", err)
	}
	if !exists {
		log.Warn("user not found", zap.String("id", id.String()))
		return false, nil
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		log.Error("failed to delete user", zap.String("id", id.String()), zap.Error(err))
		return false, pkgerrors.NewInternalError("failed to delete user", err)
	}
	return true, nil
}
