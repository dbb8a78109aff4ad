package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/bearer/internal/auth/domain"
	"github.com/aussiebroadwan/bearer/internal/auth/store"
	"github.com/aussiebroadwan/bearer/pkg/cryptox"
	"github.com/aussiebroadwan/bearer/pkg/jwtx"
	"github.com/aussiebroadwan/bearer/pkg/slogx"
)

var (
	// ErrIncorrectCredentials is the umbrella for every login failure. The
	// HTTP layer maps it to a single response so callers cannot tell an
	// unknown username from a wrong password.
	ErrIncorrectCredentials = errors.New("incorrect_credentials")
	ErrUnknownUser          = fmt.Errorf("%w: unknown_user", ErrIncorrectCredentials)
	ErrBadCredentials       = fmt.Errorf("%w: bad_credentials", ErrIncorrectCredentials)

	// ErrUnauthorized rejects a bearer token: undecodable, forged, expired,
	// without a subject, or naming a user that no longer exists.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInactiveUser means the token was good but the account is disabled.
	ErrInactiveUser = errors.New("inactive_user")
)

// TokenCodec mints and decodes access tokens. *jwtx.Codec implements it.
type TokenCodec interface {
	Mint(subject string, ttl time.Duration) (string, jwtx.Claims, error)
	Decode(raw string) (jwtx.Claims, error)
}

// PasswordVerifier checks a password against a stored digest and upgrades
// digests made with an outdated scheme. *cryptox.PasswordHasher implements it.
type PasswordVerifier interface {
	PasswordHasher
	Verify(password, digest string) error
	// DummyDigests returns one digest per accepted scheme.
	DummyDigests() []string
	NeedsRehash(digest string) bool
}

// IssuedToken is the result of a successful login.
type IssuedToken struct {
	AccessToken string
	ExpiresAt   time.Time
	ExpiresIn   time.Duration
	User        domain.User
}

type AuthService struct {
	Store     store.Store
	Passwords PasswordVerifier
	Codec     TokenCodec

	// AccessTTL is the lifetime of issued tokens. Zero defers to the codec.
	AccessTTL time.Duration
}

// Authenticate looks up username and verifies password against the stored
// digest. Failures wrap ErrIncorrectCredentials; store faults are returned
// as is.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (domain.User, error) {
	l := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return domain.User{}, fmt.Errorf("authenticate: lookup user: %w", err)
		}

		_ = s.verify(password, "")
		l.Warn("authentication failed", slog.String("reason", "unknown_user"), slog.String("username", username))
		return domain.User{}, ErrUnknownUser
	}

	if err := s.verify(password, user.PasswordHash); err != nil {
		l.Warn("authentication failed",
			slog.String("reason", "bad_credentials"),
			slog.String("username", username),
			slog.Any("err", err),
		)
		return domain.User{}, ErrBadCredentials
	}

	if s.Passwords.NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, &user, password)
	}
	return user, nil
}

// verify checks password against digest and then against the dummy digest of
// every other scheme, so the work done is the same whichever scheme the
// account uses and whether it exists at all. An empty digest never matches.
func (s *AuthService) verify(password, digest string) error {
	err := ErrBadCredentials
	if digest != "" {
		err = s.Passwords.Verify(password, digest)
	}
	for _, dummy := range s.Passwords.DummyDigests() {
		if digest == "" || cryptox.Scheme(dummy) != cryptox.Scheme(digest) {
			_ = s.Passwords.Verify(password, dummy)
		}
	}
	return err
}

// rehash replaces an outdated digest after a successful login. Failure is
// logged and does not fail the login.
func (s *AuthService) rehash(ctx context.Context, user *domain.User, password string) {
	l := slogx.FromContext(ctx)

	digest, err := s.Passwords.Hash(password)
	if err == nil {
		err = s.Store.Users().UpdatePasswordHash(ctx, user.Username, digest)
	}
	if err != nil {
		l.Error("password rehash failed", slog.String("username", user.Username), slog.Any("err", err))
		return
	}

	l.Info("password rehashed",
		slog.String("username", user.Username),
		slog.String("from", cryptox.Scheme(user.PasswordHash)),
	)
	user.PasswordHash = digest
}

// Login authenticates and mints an access token for the user.
func (s *AuthService) Login(ctx context.Context, username, password string) (IssuedToken, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return IssuedToken{}, err
	}

	raw, claims, err := s.Codec.Mint(user.Username, s.AccessTTL)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("login: mint token: %w", err)
	}

	slogx.FromContext(ctx).Info("access token issued",
		slog.String("username", user.Username),
		slog.String("jti", claims.ID),
	)

	var expiresIn time.Duration
	if claims.IssuedAt != nil {
		expiresIn = claims.Expiry().Sub(claims.IssuedAt.Time)
	}
	return IssuedToken{
		AccessToken: raw,
		ExpiresAt:   claims.Expiry(),
		ExpiresIn:   expiresIn,
		User:        user,
	}, nil
}

// ResolveSession turns a bearer token into the current user record. It
// decodes the token, re-reads the user named by its subject and enforces
// the disabled flag. It never mutates anything.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (domain.User, error) {
	l := slogx.FromContext(ctx)

	claims, err := s.Codec.Decode(token)
	if err != nil {
		l.Warn("session rejected", slog.String("reason", "decode"), slog.Any("err", err))
		return domain.User{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	if claims.Subject == "" {
		l.Warn("session rejected", slog.String("reason", "empty_subject"), slog.String("jti", claims.ID))
		return domain.User{}, ErrUnauthorized
	}

	user, err := s.Store.Users().GetUserByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Warn("session rejected", slog.String("reason", "unknown_subject"), slog.String("subject", claims.Subject))
			return domain.User{}, ErrUnauthorized
		}
		return domain.User{}, fmt.Errorf("resolve session: lookup user: %w", err)
	}

	if !user.Active() {
		l.Info("session rejected", slog.String("reason", "inactive_user"), slog.String("subject", claims.Subject))
		return domain.User{}, ErrInactiveUser
	}

	return user, nil
}
