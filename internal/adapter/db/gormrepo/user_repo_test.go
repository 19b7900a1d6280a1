package gormrepo

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"user-crud-service/internal/domain/user"
	pkgerrors "user-crud-service/pkg/errors"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	// Every pooled connection would otherwise get its own empty database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(db))
	return db
}

func setupTestRepo(t *testing.T) *UserRepo {
	return NewUserRepo(setupTestDB(t), zaptest.NewLogger(t))
}

func TestUserRepo_Add_AssignsID(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	created, err := repo.Add(ctx, user.New("Matti", "Meikäläinen", "matti@example.com"))
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, "Meikäläinen", created.LastName)
	assert.False(t, created.CreatedAt.IsZero())

	found, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.Email, found.Email)
}

func TestUserRepo_Add_KeepsGivenID(t *testing.T) {
	repo := setupTestRepo(t)
	id := uuid.New()

	created, err := repo.Add(context.Background(), &user.User{ID: id, FirstName: "A", LastName: "B", Email: "a@example.com"})
	require.NoError(t, err)
	assert.Equal(t, id, created.ID)
}

func TestUserRepo_Add_Nil(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.Add(context.Background(), nil)
	assert.Error(t, err)
}

func TestUserRepo_Add_DuplicateEmailRejectedByStore(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	_, err := repo.Add(ctx, user.New("Matti", "Meikäläinen", "matti@example.com"))
	require.NoError(t, err)

	dup, err := repo.Add(ctx, user.New("Other", "Person", "matti@example.com"))
	require.Error(t, err)
	assert.Nil(t, dup)
	assert.True(t, pkgerrors.IsDuplicateEmail(err))
	assert.Equal(t, http.StatusConflict, pkgerrors.HTTPStatus(err))
}

func TestUserRepo_GetByID_NotFound(t *testing.T) {
	repo := setupTestRepo(t)

	found, err := repo.GetByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestUserRepo_GetByEmail(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	created, err := repo.Add(ctx, user.New("Matti", "Meikäläinen", "matti@example.com"))
	require.NoError(t, err)

	found, err := repo.GetByEmail(ctx, "matti@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)

	missing, err := repo.GetByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserRepo_GetAll(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	empty, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	emails := []string{"a@example.com", "b@example.com", "c@example.com"}
	for _, e := range emails {
		_, err := repo.Add(ctx, user.New("First", "Last", e))
		require.NoError(t, err)
	}

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	got := make([]string, 0, len(all))
	for _, u := range all {
		got = append(got, u.Email)
	}
	assert.ElementsMatch(t, emails, got)
}

func TestUserRepo_Update(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	created, err := repo.Add(ctx, user.New("Matti", "Meikäläinen", "matti@example.com"))
	require.NoError(t, err)

	created.UpdateBasicInfo("Maija", "Virtanen", "maija@example.com")
	updated, err := repo.Update(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, "Maija", updated.FirstName)

	found, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Virtanen", found.LastName)
	assert.Equal(t, "maija@example.com", found.Email)

	old, err := repo.GetByEmail(ctx, "matti@example.com")
	require.NoError(t, err)
	assert.Nil(t, old)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUserRepo_Update_DuplicateEmailRejectedByStore(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	_, err := repo.Add(ctx, user.New("Matti", "Meikäläinen", "matti@example.com"))
	require.NoError(t, err)
	maija, err := repo.Add(ctx, user.New("Maija", "Virtanen", "maija@example.com"))
	require.NoError(t, err)

	maija.UpdateBasicInfo("Maija", "Virtanen", "matti@example.com")
	updated, err := repo.Update(ctx, maija)
	require.Error(t, err)
	assert.Nil(t, updated)
	assert.True(t, pkgerrors.IsDuplicateEmail(err))

	found, err := repo.GetByID(ctx, maija.ID)
	require.NoError(t, err)
	assert.Equal(t, "maija@example.com", found.Email)
}

func TestUserRepo_Update_DeletedRowIsNotRecreated(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	created, err := repo.Add(ctx, user.New("Matti", "Meikäläinen", "matti@example.com"))
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, created.ID))

	created.UpdateBasicInfo("Matti", "Virtanen", "matti@example.com")
	updated, err := repo.Update(ctx, created)
	require.NoError(t, err)
	assert.Nil(t, updated)

	exists, err := repo.Exists(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUserRepo_Update_KeepsCreatedAt(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	created, err := repo.Add(ctx, user.New("Matti", "Meikäläinen", "matti@example.com"))
	require.NoError(t, err)

	changed := *created
	changed.CreatedAt = changed.CreatedAt.Add(-time.Hour)
	changed.UpdateBasicInfo("Matti", "Virtanen", "matti@example.com")
	_, err = repo.Update(ctx, &changed)
	require.NoError(t, err)

	found, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, created.CreatedAt, found.CreatedAt, time.Second)
}

func TestUserRepo_DeleteAndExists(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	created, err := repo.Add(ctx, user.New("Matti", "Meikäläinen", "matti@example.com"))
	require.NoError(t, err)

	exists, err := repo.Exists(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, repo.Delete(ctx, created.ID))

	exists, err = repo.Exists(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	found, err := repo.GetByEmail(ctx, "matti@example.com")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestUserRepo_Exists_Unknown(t *testing.T) {
	repo := setupTestRepo(t)

	exists, err := repo.Exists(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.False(t, exists)
}
