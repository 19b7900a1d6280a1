package infrastructure

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"user-crud-service/internal/config"
)

func sqliteConfig(t *testing.T, migrate bool) *config.Config {
	cfg, err := config.LoadConfig(t.TempDir())
	require.NoError(t, err)

	cfg.DB.Driver = "sqlite"
	cfg.DB.SQLitePath = filepath.Join(t.TempDir(), "users.db")
	cfg.DB.AutoMigrate = migrate
	return cfg
}

func TestNewDatabase_SQLiteWithMigration(t *testing.T) {
	db, err := NewDatabase(sqliteConfig(t, true), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = CloseDatabase(db) })

	assert.True(t, db.Migrator().HasTable("users"))
}

func TestNewDatabase_SQLiteWithoutMigration(t *testing.T) {
	db, err := NewDatabase(sqliteConfig(t, false), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = CloseDatabase(db) })

	assert.False(t, db.Migrator().HasTable("users"))
}

func TestCloseDatabase_Nil(t *testing.T) {
	assert.NoError(t, CloseDatabase(nil))
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := sqliteConfig(t, false)
	cfg.Redis.Host = mr.Host()
	cfg.Redis.Port = mr.Port()

	rdb, err := NewRedisClient(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	assert.NoError(t, rdb.Ping(context.Background()))
}
