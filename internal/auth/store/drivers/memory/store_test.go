package memory_test

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/bearer/internal/auth/store"
	"github.com/aussiebroadwan/bearer/internal/auth/store/drivers/memory"
	"github.com/aussiebroadwan/bearer/internal/auth/store/storetest"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	storetest.Run(t, memory.NewStore())
}

func TestReturnedUsersAreCopies(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	require.NoError(t, s.Users().CreateUser(ctx, storetest.NewUser("alice")))

	u, err := s.Users().GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	u.Disabled = true

	again, err := s.Users().GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.False(t, again.Disabled)
}

func TestNestedTxSharesOuter(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()

	err := s.WithTx(ctx, func(tx store.Store) error {
		return tx.WithTx(ctx, func(inner store.Store) error {
			return inner.Users().CreateUser(ctx, storetest.NewUser("nested"))
		})
	})
	require.NoError(t, err)

	n, err := s.Users().Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := memory.NewStore().Users().GetUserByUsername(ctx, "alice")
	require.ErrorIs(t, err, context.Canceled)
}
