package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/bearer/internal/auth/store"
)

type txStore struct {
	tx *sql.Tx
	q  *queries
}

func newTx(tx *sql.Tx) *txStore {
	return &txStore{tx: tx, q: &queries{db: tx}}
}

func (t *txStore) Users() store.Users { return &usersRepo{q: t.q} }

// Migrations run before any transaction is opened.
func (t *txStore) ApplyMigrations(context.Context) error { return nil }

func (t *txStore) Ping(context.Context) error { return nil }

// Close is a no-op: the owner of the transaction commits or rolls back.
func (t *txStore) Close() error { return nil }

// WithTx reuses the open transaction. sqlite has no nested transactions
// without savepoints and nothing here needs them.
func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(t)
}
