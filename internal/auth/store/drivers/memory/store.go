// Package memory is a map backed store for tests and single process
// deployments that seed their users at start up.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/aussiebroadwan/bearer/internal/auth/domain"
	"github.com/aussiebroadwan/bearer/internal/auth/store"
)

type Store struct {
	mu    sync.RWMutex
	users map[string]domain.User // keyed by username
	now   func() time.Time
}

func NewStore() *Store {
	return &Store{
		users: make(map[string]domain.User),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Users() store.Users { return &usersRepo{s: s, locked: false} }

func (s *Store) ApplyMigrations(context.Context) error { return nil }
func (s *Store) Ping(context.Context) error            { return nil }
func (s *Store) Close() error                          { return nil }

// WithTx runs fn against a copy of the data while holding the write lock,
// and publishes the copy only if fn succeeds.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &txStore{
		Store: Store{users: maps.Clone(s.users), now: s.now},
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.users = tx.users
	return nil
}

// txStore works on a private copy, so its repository skips locking.
type txStore struct {
	Store
}

func (t *txStore) Users() store.Users { return &usersRepo{s: &t.Store, locked: true} }

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Store) error) error {
	// Already isolated; nested transactions share the outer one.
	return fn(t)
}
