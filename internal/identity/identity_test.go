package identity

import (
	"context"
	"path/filepath"
	"testing"

	"ember/internal/docstore"
	"ember/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testSecret = "test-secret-for-identity-sessions"

type testEnv struct {
	store  *docstore.Store
	dbPath string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return &testEnv{
		store:  docstore.New(rdb),
		dbPath: filepath.Join(t.TempDir(), "local.db"),
	}
}

func (e *testEnv) openService(t *testing.T) *Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(e.dbPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	svc, err := NewService(e.store, db, testSecret)
	require.NoError(t, err)
	return svc
}

func TestService_SignInRegistersNewAccount(t *testing.T) {
	t.Parallel()

	svc := newTestEnv(t).openService(t)
	ctx := context.Background()

	p, err := svc.SignIn(ctx, "Ada@Example.com", "hunter22", "Ada Lovelace")
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "ada@example.com", p.Email)
	assert.Equal(t, "Ada Lovelace", p.DisplayName)

	current := svc.Current()
	require.NotNil(t, current)
	assert.Equal(t, p.ID, current.ID)
}

func TestService_SignInRejectsWrongPassword(t *testing.T) {
	t.Parallel()

	svc := newTestEnv(t).openService(t)
	ctx := context.Background()

	_, err := svc.SignIn(ctx, "ada@example.com", "correct", "Ada Lovelace")
	require.NoError(t, err)
	require.NoError(t, svc.SignOut(ctx))

	_, err = svc.SignIn(ctx, "ada@example.com", "wrong", "")
	assert.True(t, models.HasCode(err, models.CodeAuth))
	assert.Nil(t, svc.Current())
}

func TestService_NewAccountRequiresDisplayName(t *testing.T) {
	t.Parallel()

	svc := newTestEnv(t).openService(t)
	_, err := svc.SignIn(context.Background(), "new@example.com", "pw", "  ")
	assert.True(t, models.HasCode(err, models.CodeAuth))
}

func TestService_SessionSurvivesRestart(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	first := env.openService(t)

	p, err := first.SignIn(context.Background(), "ada@example.com", "pw", "Ada Lovelace")
	require.NoError(t, err)

	// A second service over the same local database restores the principal
	// synchronously, before any listener fires.
	second := env.openService(t)
	current := second.Current()
	require.NotNil(t, current)
	assert.Equal(t, p.ID, current.ID)
	assert.Equal(t, "Ada Lovelace", current.DisplayName)
}

func TestService_ListenersFireOnChanges(t *testing.T) {
	t.Parallel()

	svc := newTestEnv(t).openService(t)
	ctx := context.Background()

	changes := make(chan *Principal, 4)
	remove := svc.Listen(func(p *Principal) { changes <- p })
	defer remove()

	_, err := svc.SignIn(ctx, "ada@example.com", "pw", "Ada Lovelace")
	require.NoError(t, err)
	p := <-changes
	require.NotNil(t, p)

	require.NoError(t, svc.SignOut(ctx))
	assert.Nil(t, <-changes)

	// A removed listener stays silent.
	remove()
	_, err = svc.SignIn(ctx, "ada@example.com", "pw", "")
	require.NoError(t, err)
	select {
	case p := <-changes:
		t.Fatalf("removed listener fired with %+v", p)
	default:
	}
}

func TestService_DeleteAccount(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	svc := env.openService(t)
	ctx := context.Background()

	_, err := svc.SignIn(ctx, "ada@example.com", "pw", "Ada Lovelace")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAccount(ctx))
	assert.Nil(t, svc.Current())

	// The credentials are gone; signing in again creates a fresh account
	// and therefore needs a display name.
	_, err = svc.SignIn(ctx, "ada@example.com", "pw", "")
	assert.True(t, models.HasCode(err, models.CodeAuth))
}

func TestService_DeleteAccountRequiresPrincipal(t *testing.T) {
	t.Parallel()

	svc := newTestEnv(t).openService(t)
	err := svc.DeleteAccount(context.Background())
	assert.True(t, models.HasCode(err, models.CodeUnauthenticated))
}
