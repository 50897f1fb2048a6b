package push

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTokenDB(t *testing.T, path string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db
}

func TestEnsureToken_StableAcrossCalls(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "device.db")
	db := openTokenDB(t, path)

	first, err := EnsureToken(db)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	again, err := EnsureToken(db)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	// The token survives a process restart.
	reopened := openTokenDB(t, path)
	after, err := EnsureToken(reopened)
	require.NoError(t, err)
	assert.Equal(t, first, after)
}

func TestEnsureToken_DistinctPerDevice(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a, err := EnsureToken(openTokenDB(t, filepath.Join(dir, "a.db")))
	require.NoError(t, err)
	b, err := EnsureToken(openTokenDB(t, filepath.Join(dir, "b.db")))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestForwardToken_NoEndpointIsNoOp(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ForwardToken(context.Background(), "", "tok-123"))
	assert.NoError(t, ForwardToken(context.Background(), "http://localhost:9/register", "tok-123"))
}
