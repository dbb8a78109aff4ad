package sqlite

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/bearer/internal/auth/domain"
	"github.com/aussiebroadwan/bearer/internal/auth/store"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type usersRepo struct {
	q *queries
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	u, err := r.q.GetUserByUsername(ctx, username)
	return u, mapNotFound(err)
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	u, err := r.q.GetUserByID(ctx, id)
	return u, mapNotFound(err)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	err := r.q.CreateUser(ctx, u)
	var se *msqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return store.ErrAlreadyExists
		}
	}
	return err
}

func (r *usersRepo) SetDisabled(ctx context.Context, username string, disabled bool) error {
	n, err := r.q.SetUserDisabled(ctx, username, disabled, time.Now().UTC())
	return affectedOne(n, err)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, username, hash string) error {
	n, err := r.q.UpdateUserPasswordHash(ctx, username, hash, time.Now().UTC())
	return affectedOne(n, err)
}

func (r *usersRepo) Count(ctx context.Context) (int, error) {
	return r.q.CountUsers(ctx)
}

func affectedOne(n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
