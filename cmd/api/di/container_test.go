package di

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"user-crud-service/internal/config"
	"user-crud-service/internal/usecase/user"
)

func testConfig(t *testing.T) *config.Config {
	cfg, err := config.LoadConfig(t.TempDir())
	require.NoError(t, err)

	cfg.DB.Driver = "sqlite"
	cfg.DB.SQLitePath = filepath.Join(t.TempDir(), "users.db")
	cfg.DB.AutoMigrate = true
	cfg.Tracing.Enabled = false
	return cfg
}

func TestNewContainer_WithoutRedis(t *testing.T) {
	cfg := testConfig(t)
	cfg.Redis.Enabled = false
	ctx := context.Background()

	c, err := NewContainer(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(ctx) })

	assert.Nil(t, c.RedisClient)
	assert.NotNil(t, c.RateLimiter)
	assert.NotNil(t, c.GinHandler)

	checks := c.Readiness()
	assert.Len(t, checks, 1)
	assert.NoError(t, checks["database"](ctx))

	created, err := c.UserUC.Create(ctx, user.CreateUserDto{FirstName: "Matti", LastName: "Meikäläinen", Email: "matti@example.com"})
	require.NoError(t, err)

	found, err := c.UserUC.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Email, found.Email)
}

func TestNewContainer_WithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Redis.Enabled = true
	cfg.Redis.Host = mr.Host()
	cfg.Redis.Port = mr.Port()
	cfg.RateLimit.Enabled = false
	ctx := context.Background()

	c, err := NewContainer(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(ctx) })

	require.NotNil(t, c.RedisClient)
	assert.Nil(t, c.RateLimiter)

	checks := c.Readiness()
	require.Contains(t, checks, "redis")
	assert.NoError(t, checks["redis"](ctx))

	created, err := c.UserUC.Create(ctx, user.CreateUserDto{FirstName: "Matti", LastName: "Meikäläinen", Email: "matti@example.com"})
	require.NoError(t, err)
	_, err = c.UserUC.GetByID(ctx, created.ID)
	require.NoError(t, err)

	assert.True(t, mr.Exists("user:"+created.ID.String()))
}

func TestNewContainer_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.DB.Driver = "oracle"

	c, err := NewContainer(context.Background(), cfg, zaptest.NewLogger(t))
	assert.Error(t, err)
	assert.Nil(t, c)
}

func TestNewContainer_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Redis.Enabled = true
	cfg.Redis.Host = mr.Host()
	cfg.Redis.Port = mr.Port()
	cfg.Redis.MaxRetries = -1
	mr.Close()

	c, err := NewContainer(context.Background(), cfg, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "Redis")
	assert.Nil(t, c)
}
