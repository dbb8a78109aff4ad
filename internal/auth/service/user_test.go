package service

import (
	"context"
	"strings"
	"testing"

	"github.com/aussiebroadwan/bearer/internal/auth/domain"
	"github.com/aussiebroadwan/bearer/internal/auth/store"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, true)

	t.Run("hashes plaintext passwords", func(t *testing.T) {
		u, err := f.users.CreateUser(ctx, NewUser{Username: "alice", Password: "wonderland", FullName: " Alice "})
		require.NoError(t, err)
		require.NotEmpty(t, u.ID)
		require.Equal(t, "Alice", u.FullName)
		require.True(t, strings.HasPrefix(u.PasswordHash, "$argon2id$"))
		require.NotContains(t, u.PasswordHash, "wonderland")
		require.True(t, u.CreatedAt.Equal(f.clock.Now()))

		stored, err := f.users.GetUser(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, u.ID, stored.ID)
		require.True(t, f.hasher.Check("wonderland", stored.PasswordHash))
	})

	t.Run("keeps a supplied digest", func(t *testing.T) {
		u, err := f.users.CreateUser(ctx, NewUser{Username: "legacy", PasswordHash: DefaultSeedUsers[0].PasswordHash})
		require.NoError(t, err)
		require.Equal(t, DefaultSeedUsers[0].PasswordHash, u.PasswordHash)

		_, err = f.auth.Authenticate(ctx, "legacy", "secret")
		require.NoError(t, err)
	})

	t.Run("duplicate username", func(t *testing.T) {
		_, err := f.users.CreateUser(ctx, NewUser{Username: "alice", Password: "again"})
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("invalid input", func(t *testing.T) {
		for name, in := range map[string]NewUser{
			"empty username": {Password: "pw"},
			"whitespace":     {Username: "al ice", Password: "pw"},
			"control char":   {Username: "al\x00ice", Password: "pw"},
			"too long":       {Username: strings.Repeat("a", maxUsernameLength+1), Password: "pw"},
			"no password":    {Username: "carol"},
			"bad email":      {Username: "dave", Password: "pw", Email: "not-an-email"},
		} {
			t.Run(name, func(t *testing.T) {
				_, err := f.users.CreateUser(ctx, in)
				require.ErrorIs(t, err, ErrInvalidUser)
			})
		}
	})
}

func TestSetDisabledAndPassword(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, false)
	f.register(t, "alice", "wonderland")

	require.NoError(t, f.users.SetDisabled(ctx, "alice", true))
	u, err := f.users.GetUser(ctx, "alice")
	require.NoError(t, err)
	require.False(t, u.Active())

	// Disabled accounts still authenticate; the session resolver refuses them.
	_, err = f.auth.Authenticate(ctx, "alice", "wonderland")
	require.NoError(t, err)

	require.NoError(t, f.users.SetPassword(ctx, "alice", "looking-glass"))
	_, err = f.auth.Authenticate(ctx, "alice", "wonderland")
	require.ErrorIs(t, err, ErrBadCredentials)
	_, err = f.auth.Authenticate(ctx, "alice", "looking-glass")
	require.NoError(t, err)

	require.ErrorIs(t, f.users.SetPassword(ctx, "alice", ""), ErrInvalidUser)
	require.ErrorIs(t, f.users.SetDisabled(ctx, "ghost", true), store.ErrNotFound)
}

func TestListOwnedItems(t *testing.T) {
	t.Parallel()

	items := (&ItemService{}).ListOwned(context.Background(), domain.User{Username: "alice"})
	require.Equal(t, []domain.Item{{ItemID: "Foo", Owner: "alice"}}, items)
}
