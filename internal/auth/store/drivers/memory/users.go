package memory

import (
	"context"

	"github.com/aussiebroadwan/bearer/internal/auth/domain"
	"github.com/aussiebroadwan/bearer/internal/auth/store"
)

type usersRepo struct {
	s *Store

	// locked is set inside a transaction, where the outer lock is held.
	locked bool
}

func (r *usersRepo) rlock() func() {
	if r.locked {
		return func() {}
	}
	r.s.mu.RLock()
	return r.s.mu.RUnlock
}

func (r *usersRepo) lock() func() {
	if r.locked {
		return func() {}
	}
	r.s.mu.Lock()
	return r.s.mu.Unlock
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}
	defer r.rlock()()

	u, ok := r.s.users[username]
	if !ok {
		return domain.User{}, store.ErrNotFound
	}
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}
	defer r.rlock()()

	for _, u := range r.s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, store.ErrNotFound
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer r.lock()()

	if _, ok := r.s.users[u.Username]; ok {
		return store.ErrAlreadyExists
	}
	for _, existing := range r.s.users {
		if existing.ID == u.ID {
			return store.ErrAlreadyExists
		}
	}
	r.s.users[u.Username] = u
	return nil
}

func (r *usersRepo) SetDisabled(ctx context.Context, username string, disabled bool) error {
	return r.update(ctx, username, func(u *domain.User) { u.Disabled = disabled })
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, username, hash string) error {
	return r.update(ctx, username, func(u *domain.User) { u.PasswordHash = hash })
}

func (r *usersRepo) update(ctx context.Context, username string, mutate func(*domain.User)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer r.lock()()

	u, ok := r.s.users[username]
	if !ok {
		return store.ErrNotFound
	}
	mutate(&u)
	u.UpdatedAt = r.s.now()
	r.s.users[username] = u
	return nil
}

func (r *usersRepo) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	defer r.rlock()()

	return len(r.s.users), nil
}
