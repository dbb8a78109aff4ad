// Package storetest holds the behaviour every store driver must share.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/bearer/internal/auth/domain"
	"github.com/aussiebroadwan/bearer/internal/auth/store"
	"github.com/aussiebroadwan/bearer/pkg/idx"
	"github.com/stretchr/testify/require"
)

// NewUser returns a user with a fresh ID and second precision timestamps,
// which every driver round-trips exactly.
func NewUser(username string) domain.User {
	now := time.Now().UTC().Truncate(time.Second)
	return domain.User{
		ID:           idx.New().String(),
		Username:     username,
		Email:        username + "@example.com",
		FullName:     "Test " + username,
		PasswordHash: "$argon2id$v=19$m=64,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2g",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Run exercises s, which must be empty and migrated.
func Run(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("empty store", func(t *testing.T) {
		n, err := s.Users().Count(ctx)
		require.NoError(t, err)
		require.Zero(t, n)

		_, err = s.Users().GetUserByUsername(ctx, "nobody")
		require.ErrorIs(t, err, store.ErrNotFound)

		_, err = s.Users().GetUserByID(ctx, idx.New().String())
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("create and get", func(t *testing.T) {
		u := NewUser("alice")
		require.NoError(t, s.Users().CreateUser(ctx, u))

		got, err := s.Users().GetUserByUsername(ctx, "alice")
		require.NoError(t, err)
		requireSameUser(t, u, got)

		got, err = s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		requireSameUser(t, u, got)
	})

	t.Run("optional fields stay empty", func(t *testing.T) {
		u := NewUser("bare")
		u.Email, u.FullName = "", ""
		require.NoError(t, s.Users().CreateUser(ctx, u))

		got, err := s.Users().GetUserByUsername(ctx, "bare")
		require.NoError(t, err)
		require.Empty(t, got.Email)
		require.Empty(t, got.FullName)
	})

	t.Run("usernames are unique and exact", func(t *testing.T) {
		err := s.Users().CreateUser(ctx, NewUser("alice"))
		require.ErrorIs(t, err, store.ErrAlreadyExists)

		_, err = s.Users().GetUserByUsername(ctx, "ALICE")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("set disabled", func(t *testing.T) {
		require.NoError(t, s.Users().SetDisabled(ctx, "alice", true))
		got, err := s.Users().GetUserByUsername(ctx, "alice")
		require.NoError(t, err)
		require.True(t, got.Disabled)

		require.NoError(t, s.Users().SetDisabled(ctx, "alice", false))
		got, err = s.Users().GetUserByUsername(ctx, "alice")
		require.NoError(t, err)
		require.False(t, got.Disabled)

		require.ErrorIs(t, s.Users().SetDisabled(ctx, "nobody", true), store.ErrNotFound)
	})

	t.Run("update password hash", func(t *testing.T) {
		require.NoError(t, s.Users().UpdatePasswordHash(ctx, "alice", "$2b$04$new"))
		got, err := s.Users().GetUserByUsername(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, "$2b$04$new", got.PasswordHash)

		require.ErrorIs(t, s.Users().UpdatePasswordHash(ctx, "nobody", "x"), store.ErrNotFound)
	})

	t.Run("transaction commits", func(t *testing.T) {
		err := s.WithTx(ctx, func(tx store.Store) error {
			if err := tx.Users().CreateUser(ctx, NewUser("tx-commit")); err != nil {
				return err
			}
			_, err := tx.Users().GetUserByUsername(ctx, "tx-commit")
			return err
		})
		require.NoError(t, err)

		_, err = s.Users().GetUserByUsername(ctx, "tx-commit")
		require.NoError(t, err)
	})

	t.Run("transaction rolls back", func(t *testing.T) {
		boom := errors.New("boom")
		err := s.WithTx(ctx, func(tx store.Store) error {
			if err := tx.Users().CreateUser(ctx, NewUser("tx-rollback")); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		_, err = s.Users().GetUserByUsername(ctx, "tx-rollback")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("concurrent reads", func(t *testing.T) {
		var wg sync.WaitGroup
		errs := make(chan error, 32)
		for i := range 32 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				u, err := s.Users().GetUserByUsername(ctx, "alice")
				if err == nil && u.Username != "alice" {
					err = fmt.Errorf("reader %d got %q", i, u.Username)
				}
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}
	})

	t.Run("ping", func(t *testing.T) {
		require.NoError(t, s.Ping(ctx))
	})
}

func requireSameUser(t *testing.T, want, got domain.User) {
	t.Helper()
	require.Equal(t, want.ID, got.ID)
	require.Equal(t, want.Username, got.Username)
	require.Equal(t, want.Email, got.Email)
	require.Equal(t, want.FullName, got.FullName)
	require.Equal(t, want.PasswordHash, got.PasswordHash)
	require.Equal(t, want.Disabled, got.Disabled)
	require.WithinDuration(t, want.CreatedAt, got.CreatedAt, time.Second)
	require.WithinDuration(t, want.UpdatedAt, got.UpdatedAt, time.Second)
}
