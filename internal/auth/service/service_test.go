package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/bearer/internal/auth/store/drivers/memory"
	"github.com/aussiebroadwan/bearer/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/bearer/pkg/cryptox"
	"github.com/aussiebroadwan/bearer/pkg/jwtx"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	auth   *AuthService
	users  *UserService
	codec  *jwtx.Codec
	hasher *cryptox.PasswordHasher
	clock  *clock
}

func fastHasher() *cryptox.PasswordHasher {
	return &cryptox.PasswordHasher{
		Params:     cryptox.Argon2Params{Memory: 64, Iterations: 1, Parallelism: 1, KeyLength: 32, SaltLength: 16},
		BcryptCost: bcrypt.MinCost,
	}
}

func newFixture(t *testing.T, useSQLite bool) *fixture {
	t.Helper()

	c := &clock{t: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)}
	codec, err := jwtx.NewCodec(jwtx.CodecOptions{
		Secret: []byte(testSecret),
		TTL:    30 * time.Minute,
		Now:    c.Now,
	})
	require.NoError(t, err)

	hasher := fastHasher()
	f := &fixture{codec: codec, hasher: hasher, clock: c}

	if useSQLite {
		s, err := sqlite.NewStore(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		require.NoError(t, s.ApplyMigrations(context.Background()))

		f.auth = &AuthService{Store: s, Passwords: hasher, Codec: codec}
		f.users = &UserService{Store: s, Hasher: hasher, Now: c.Now}
		return f
	}

	s := memory.NewStore()
	f.auth = &AuthService{Store: s, Passwords: hasher, Codec: codec}
	f.users = &UserService{Store: s, Hasher: hasher, Now: c.Now}
	return f
}

func (f *fixture) register(t *testing.T, username, password string) {
	t.Helper()
	_, err := f.users.CreateUser(context.Background(), NewUser{
		Username: username,
		Password: password,
		Email:    username + "@example.com",
	})
	require.NoError(t, err)
}
