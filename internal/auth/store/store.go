package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/bearer/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface implemented by the memory, sqlite
// and postgres drivers. Repositories hang off it so the same code runs
// inside and outside a transaction.
type Store interface {
	Users() Users

	// ApplyMigrations brings the schema up to date. Drivers without a
	// schema treat it as a no-op.
	ApplyMigrations(ctx context.Context) error

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise. fn must only use the Store it is given.
	WithTx(ctx context.Context, fn func(tx Store) error) error

	Ping(ctx context.Context) error
	Close() error
}

// Users is the credential store. Lookups are by exact username.
type Users interface {
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// CreateUser inserts u. The ID and timestamps are supplied by the caller.
	// A duplicate username yields ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error

	SetDisabled(ctx context.Context, username string, disabled bool) error
	UpdatePasswordHash(ctx context.Context, username, hash string) error

	Count(ctx context.Context) (int, error)
}
