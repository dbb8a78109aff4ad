package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/aussiebroadwan/bearer/internal/auth/domain"
	"github.com/aussiebroadwan/bearer/internal/auth/store"
	"github.com/aussiebroadwan/bearer/pkg/idx"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// ErrInvalidUser rejects a user that cannot be stored as given.
var ErrInvalidUser = errors.New("invalid_user")

const (
	maxUsernameLength = 64
	maxFullNameLength = 200
)

// PasswordHasher hashes new passwords. *cryptox.PasswordHasher implements it.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// NewUser describes an account to create. Exactly one of Password and
// PasswordHash is used: a plaintext password is hashed, an existing digest
// is stored as is.
type NewUser struct {
	Username     string
	Email        string
	FullName     string
	Password     string
	PasswordHash string
	Disabled     bool
}

// Validate checks the profile fields. Passwords are checked by CreateUser.
func (in NewUser) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Username,
			validation.Required,
			validation.Length(1, maxUsernameLength),
			validation.By(printableWithoutSpaces),
		),
		validation.Field(&in.Email, is.Email),
		validation.Field(&in.FullName, validation.Length(0, maxFullNameLength)),
	)
}

// UserService manages accounts outside the login flow: seeding, tests and
// operator tooling.
type UserService struct {
	Store  store.Store
	Hasher PasswordHasher

	// Now defaults to time.Now.
	Now func() time.Time
}

func (s *UserService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *UserService) CreateUser(ctx context.Context, in NewUser) (domain.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	if err := in.Validate(); err != nil {
		return domain.User{}, fmt.Errorf("%w: %v", ErrInvalidUser, err)
	}

	hash := in.PasswordHash
	switch {
	case in.Password != "":
		var err error
		if hash, err = s.Hasher.Hash(in.Password); err != nil {
			return domain.User{}, fmt.Errorf("create user: hash password: %w", err)
		}
	case hash == "":
		return domain.User{}, fmt.Errorf("%w: password or password hash required", ErrInvalidUser)
	}

	now := s.now()
	u := domain.User{
		ID:           idx.NewAt(now).String(),
		Username:     in.Username,
		Email:        in.Email,
		FullName:     in.FullName,
		PasswordHash: hash,
		Disabled:     in.Disabled,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func (s *UserService) GetUser(ctx context.Context, username string) (domain.User, error) {
	return s.Store.Users().GetUserByUsername(ctx, username)
}

// SetDisabled toggles the account's access. Tokens already issued stay
// valid but are refused by the session resolver while disabled.
func (s *UserService) SetDisabled(ctx context.Context, username string, disabled bool) error {
	return s.Store.Users().SetDisabled(ctx, username, disabled)
}

func (s *UserService) SetPassword(ctx context.Context, username, password string) error {
	if password == "" {
		return fmt.Errorf("%w: empty password", ErrInvalidUser)
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	return s.Store.Users().UpdatePasswordHash(ctx, username, hash)
}

func printableWithoutSpaces(value any) error {
	s, _ := value.(string)
	if strings.IndexFunc(s, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) >= 0 {
		return errors.New("must not contain whitespace or control characters")
	}
	return nil
}
