package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/aussiebroadwan/bearer/internal/auth/store"
	"github.com/aussiebroadwan/bearer/pkg/slogx"
	"gopkg.in/yaml.v3"
)

// SeedUser is one entry of a seed file.
type SeedUser struct {
	Username     string `yaml:"username"`
	Email        string `yaml:"email"`
	FullName     string `yaml:"full_name"`
	Password     string `yaml:"password"`
	PasswordHash string `yaml:"password_hash"`
	Disabled     bool   `yaml:"disabled"`
}

type seedFile struct {
	Users []SeedUser `yaml:"users"`
}

// DefaultSeedUsers is loaded into an empty store when no seed file is
// configured. The digest is bcrypt of "secret".
var DefaultSeedUsers = []SeedUser{
	{
		Username:     "johndoe",
		FullName:     "John Doe",
		Email:        "johndoe@example.com",
		PasswordHash: "$2b$12$EixZaYVK1fsbw1ZfbX3OXePaWxn96p36WQoeG6Lruj3vjPGga31lW",
	},
}

// LoadSeedFile reads users from a YAML document of the form
//
//	users:
//	  - username: alice
//	    password: wonderland
//	  - username: bob
//	    password_hash: $argon2id$...
//	    disabled: true
func LoadSeedFile(path string) ([]SeedUser, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	for i, u := range f.Users {
		if u.Password != "" && u.PasswordHash != "" {
			return nil, fmt.Errorf("seed file %s: user %d (%q): set password or password_hash, not both", path, i, u.Username)
		}
	}
	return f.Users, nil
}

// SeedService populates the credential store at start up.
type SeedService struct {
	Store  store.Store
	Hasher PasswordHasher
}

// Run seeds users from path, or DefaultSeedUsers when path is empty and the
// store holds no accounts yet. It returns the number of users created.
func (s *SeedService) Run(ctx context.Context, path string) (int, error) {
	if path != "" {
		users, err := LoadSeedFile(path)
		if err != nil {
			return 0, err
		}
		return s.Seed(ctx, users)
	}

	n, err := s.Store.Users().Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed: count users: %w", err)
	}
	if n > 0 {
		return 0, nil
	}
	return s.Seed(ctx, DefaultSeedUsers)
}

// Seed creates every user in one transaction. Users that already exist are
// left untouched, so seeding is safe to repeat. SeedUser and NewUser share
// their layout so one converts to the other.
func (s *SeedService) Seed(ctx context.Context, users []SeedUser) (int, error) {
	l := slogx.FromContext(ctx)
	created := 0

	err := s.Store.WithTx(ctx, func(tx store.Store) error {
		created = 0
		us := &UserService{Store: tx, Hasher: s.Hasher}

		for _, su := range users {
			// Look before inserting: a failed insert aborts a postgres
			// transaction.
			_, err := tx.Users().GetUserByUsername(ctx, su.Username)
			switch {
			case err == nil:
				l.Debug("seed user exists", slog.String("username", su.Username))
				continue
			case !errors.Is(err, store.ErrNotFound):
				return fmt.Errorf("seed user %q: %w", su.Username, err)
			}

			if _, err := us.CreateUser(ctx, NewUser(su)); err != nil {
				return fmt.Errorf("seed user %q: %w", su.Username, err)
			}
			created++
			l.Info("seed user created", slog.String("username", su.Username), slog.Bool("disabled", su.Disabled))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}
