package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnv(t *testing.T, content string) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.env"), []byte(content), 0o600))
	t.Setenv("CONFIG_PATH", dir)
}

func TestNew_InvalidConfig(t *testing.T) {
	writeEnv(t, "DB_DRIVER=oracle\n")

	a, err := New(context.Background())
	assert.Error(t, err)
	assert.Nil(t, a)
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "users.db")
	writeEnv(t, "DB_DRIVER=sqlite\n"+
		"DB_SQLITE_PATH="+dbPath+"\n"+
		"HTTP_PORT=0\n"+
		"REDIS_ENABLED=false\n"+
		"TRACING_ENABLED=false\n"+
		"LOG_LEVEL=error\n"+
		"SHUTDOWN_TIMEOUT_SECONDS=5\n")

	a, err := New(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sqlite", a.Config.DB.Driver)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("application did not shut down")
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	assert.Equal(t, ".", getConfigPath())

	t.Setenv("CONFIG_PATH", "/etc/users")
	assert.Equal(t, "/etc/users", getConfigPath())
}
