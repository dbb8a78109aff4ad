package app

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aussiebroadwan/bearer/pkg/authsdk"
	"github.com/aussiebroadwan/bearer/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		SecretKey:             strings.Repeat("k", 32),
		Algorithm:             "HS256",
		AccessTokenTTLMinutes: 30,
		Store:                 StoreConfig{Driver: DriverMemory},
		Env:                   "test",
		LogLevel:              "error",
		LogFormat:             "json",
		Port:                  8080,
	}
}

func TestApplicationServesLoginFlow(t *testing.T) {
	ctx := context.Background()

	app, err := New(ctx, testConfig(t), WithLogOutput(io.Discard))
	require.NoError(t, err)

	srv := httptest.NewServer(app.Handler())
	t.Cleanup(srv.Close)
	client := authsdk.NewClient(srv.URL)

	sess, err := client.Login(ctx, "johndoe", "secret")
	require.NoError(t, err)

	// The seeded bcrypt digest is upgraded on the first good login.
	stored, err := app.Users().GetUser(ctx, "johndoe")
	require.NoError(t, err)
	require.Equal(t, cryptox.SchemeArgon2id, cryptox.Scheme(stored.PasswordHash))

	me, err := sess.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, "johndoe", me.Username)

	require.NoError(t, app.Users().SetDisabled(ctx, "johndoe", true))
	_, err = sess.Me(ctx)
	require.ErrorIs(t, err, authsdk.ErrInactiveUser)
}

func TestApplicationSQLiteAndSeedFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	seed := filepath.Join(dir, "users.yaml")
	require.NoError(t, os.WriteFile(seed, []byte("users:\n  - username: alice\n    password: wonderland\n"), 0o600))

	cfg := testConfig(t)
	cfg.Store = StoreConfig{Driver: DriverSQLite, DatabaseFile: filepath.Join(dir, "auth.db")}
	cfg.SeedFile = seed
	cfg.PepperFile = filepath.Join(dir, "pepper")

	var logs bytes.Buffer
	cfg.LogLevel = "info"
	app, err := New(ctx, cfg, WithLogOutput(&logs))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.db.Close() })
	require.Contains(t, logs.String(), "seed users created")

	srv := httptest.NewServer(app.Handler())
	t.Cleanup(srv.Close)
	client := authsdk.NewClient(srv.URL)

	_, err = client.Login(ctx, "alice", "wonderland")
	require.NoError(t, err)

	// With a seed file the default account is not created.
	_, err = client.Login(ctx, "johndoe", "secret")
	require.ErrorIs(t, err, authsdk.ErrIncorrectCredentials)

	_, err = os.Stat(cfg.PepperFile)
	require.NoError(t, err)
}

func TestDevEnvGeneratesSecret(t *testing.T) {
	cfg := testConfig(t)
	cfg.SecretKey = ""
	cfg.Env = EnvDev

	var logs bytes.Buffer
	app, err := New(context.Background(), cfg, WithLogOutput(&logs))
	require.NoError(t, err)
	require.NotNil(t, app.codec)
	require.Contains(t, logs.String(), "SECRET_KEY not set")
}

func TestNewRejectsWeakSecret(t *testing.T) {
	cfg := testConfig(t)
	cfg.SecretKey = "short"

	_, err := New(context.Background(), cfg, WithLogOutput(io.Discard))
	require.Error(t, err)
}

func TestNewRejectsBadTrustedProxies(t *testing.T) {
	cfg := testConfig(t)
	cfg.TrustedProxies = []string{"not-an-address"}

	_, err := New(context.Background(), cfg, WithLogOutput(io.Discard))
	require.ErrorContains(t, err, "trusted proxies")
}
