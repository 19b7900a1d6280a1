package gormrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-crud-service/internal/domain/user"
	pkgerrors "user-crud-service/pkg/errors"
	"user-crud-service/pkg/logger"
)

// UserRepo implements the user Repository on top of GORM.
// It works with any GORM dialector; the service uses postgres and sqlite.
type UserRepo struct {
	db  *gorm.DB    // GORM database connection
	log *zap.Logger // Structured logger for database operations
}

// NewUserRepo creates a new instance of UserRepo.
func NewUserRepo(db *gorm.DB, log *zap.Logger) *UserRepo {
	return &UserRepo{db: db, log: log}
}

// UserSchema represents the database schema for the users table.
type UserSchema struct {
	ID        string `gorm:"primaryKey;size:36"`
	FirstName string `gorm:"size:100;not null"`
	LastName  string `gorm:"size:100;not null"`
	Email     string `gorm:"size:254;not null;uniqueIndex"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

// Migrate creates or updates the users table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&UserSchema{})
}

func toSchema(u *user.User) UserSchema {
	return UserSchema{
		ID:        u.ID.String(),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (m UserSchema) toDomain() (*user.User, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("corrupt user id %q: %w", m.ID, err)
	}
	return &user.User{
		ID:        id,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Email:     m.Email,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}, nil
}

// Add inserts a new user, generating its ID when it has none.
// A unique email violation is reported as a DuplicateEmailError.
func (r *UserRepo) Add(ctx context.Context, u *user.User) (*user.User, error) {
	if u == nil {
		return nil, errors.New("user cannot be nil")
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}

	model := toSchema(u)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			logger.WithContext(ctx, r.log).Warn("email already stored", zap.String("email", u.Email))
			return nil, pkgerrors.NewDuplicateEmailError(u.Email)
		}
		logger.WithContext(ctx, r.log).Error("failed to create user in db", zap.Error(err), zap.String("email", u.Email))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logger.WithContext(ctx, r.log).Info("user created in db", zap.String("id", model.ID))
	return model.toDomain()
}

// GetByID retrieves a user by ID. It returns nil, nil when no row matches.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WithContext(ctx, r.log).Debug("user not found", zap.String("id", id.String()))
			return nil, nil
		}
		logger.WithContext(ctx, r.log).Error("failed to get user from db", zap.Error(err), zap.String("id", id.String()))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return model.toDomain()
}

// GetByEmail retrieves a user by email. It returns nil, nil when no row matches.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WithContext(ctx, r.log).Debug("user not found by email", zap.String("email", email))
			return nil, nil
		}
		logger.WithContext(ctx, r.log).Error("failed to get user by email from db", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return model.toDomain()
}

// GetAll retrieves every user ordered by creation time.
func (r *UserRepo) GetAll(ctx context.Context) ([]user.User, error) {
	var models []UserSchema
	if err := r.db.WithContext(ctx).Order("created_at, id").Find(&models).Error; err != nil {
		logger.WithContext(ctx, r.log).Error("failed to list users from db", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]user.User, 0, len(models))
	for _, model := range models {
		u, err := model.toDomain()
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, nil
}

// Update writes all fields of an existing user.
// It returns nil, nil when the row no longer exists and never re-inserts it.
// A unique email violation is reported as a DuplicateEmailError.
func (r *UserRepo) Update(ctx context.Context, u *user.User) (*user.User, error) {
	if u == nil {
		return nil, errors.New("user cannot be nil")
	}

	model := toSchema(u)
	result := r.db.WithContext(ctx).
		Model(&UserSchema{ID: model.ID}).
		Select("*").
		Omit("id", "created_at").
		Updates(&model)
	if err := result.Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			logger.WithContext(ctx, r.log).Warn("email already stored", zap.String("email", u.Email))
			return nil, pkgerrors.NewDuplicateEmailError(u.Email)
		}
		logger.WithContext(ctx, r.log).Error("failed to update user in db", zap.Error(err), zap.String("id", model.ID))
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	if result.RowsAffected == 0 {
		logger.WithContext(ctx, r.log).Warn("user vanished before update", zap.String("id", model.ID))
		return nil, nil
	}

	logger.WithContext(ctx, r.log).Info("user updated in db", zap.String("id", model.ID))
	return model.toDomain()
}

// Delete removes a user by ID.
func (r *UserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&UserSchema{}).Error; err != nil {
		logger.WithContext(ctx, r.log).Error("failed to delete user in db", zap.Error(err), zap.String("id", id.String()))
		return fmt.Errorf("failed to delete user: %w", err)
	}

	logger.WithContext(ctx, r.log).Info("user deleted in db", zap.String("id", id.String()))
	return nil
}

// Exists reports whether a user with the given ID is stored.
func (r *UserRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&UserSchema{}).Where("id = ?", id.String()).Count(&count).Error; err != nil {
		logger.WithContext(ctx, r.log).Error("failed to check user existence", zap.Error(err), zap.String("id", id.String()))
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return count > 0, nil
}
