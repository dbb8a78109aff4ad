package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrMismatch means the digest is well formed but was not produced from
	// the supplied password.
	ErrMismatch = errors.New("cryptox: password does not match")

	// ErrMalformedHash covers digests that cannot be parsed, use an unknown
	// scheme or carry parameters outside the accepted bounds.
	ErrMalformedHash = errors.New("cryptox: malformed password hash")
)

// Argon2Params tunes Argon2id. Memory is in KiB.
type Argon2Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	KeyLength   uint32
	SaltLength  uint32
}

// DefaultArgon2Params follow the OWASP minimum for Argon2id.
var DefaultArgon2Params = Argon2Params{
	Memory:      19 * 1024,
	Iterations:  2,
	Parallelism: 1,
	KeyLength:   32,
	SaltLength:  16,
}

// LegacyBcryptCost is the cost of the bcrypt digests shipped with the default
// seed user.
const LegacyBcryptCost = 12

// Digest schemes accepted by Verify.
const (
	SchemeArgon2id = "argon2id"
	SchemeBcrypt   = "bcrypt"
)

// Scheme names the scheme that produced digest, or "" when it is not one
// Verify accepts.
func Scheme(digest string) string {
	switch {
	case strings.HasPrefix(digest, "$argon2id$"):
		return SchemeArgon2id
	case strings.HasPrefix(digest, "$2a$"), strings.HasPrefix(digest, "$2b$"), strings.HasPrefix(digest, "$2y$"):
		return SchemeBcrypt
	default:
		return ""
	}
}

// Upper bounds applied to parameters read back from stored digests, so a
// hostile row cannot make verification allocate gigabytes.
const (
	maxMemory     = 1 << 20 // 1 GiB
	maxIterations = 16
	maxKeyLength  = 128
)

// PasswordHasher hashes new passwords with Argon2id and verifies both
// Argon2id PHC strings and bcrypt digests. The pepper, when set, is mixed into
// Argon2id hashes only; bcrypt digests come from external seed data and are
// verified as is.
type PasswordHasher struct {
	Pepper string
	Params Argon2Params

	// BcryptCost is the cost of the bcrypt dummy digest. It should match
	// the most expensive bcrypt digest the store may hold. Zero means
	// LegacyBcryptCost.
	BcryptCost int

	dummyOnce sync.Once
	dummies   []string
}

// NewPasswordHasher returns a hasher using DefaultArgon2Params.
func NewPasswordHasher(pepper string) *PasswordHasher {
	return &PasswordHasher{Pepper: pepper, Params: DefaultArgon2Params}
}

// Hash returns a PHC string: $argon2id$v=19$m=..,t=..,p=..$salt$hash.
func (h *PasswordHasher) Hash(password string) (string, error) {
	p := h.Params
	salt := make([]byte, p.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("cryptox: read salt: %w", err)
	}

	key := argon2.IDKey([]byte(password+h.Pepper), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.Memory, p.Iterations, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify compares password against digest. It returns nil on a match,
// ErrMismatch on a wrong password and ErrMalformedHash for unusable digests.
func (h *PasswordHasher) Verify(password, digest string) error {
	switch Scheme(digest) {
	case SchemeArgon2id:
		return h.verifyArgon2(password, digest)
	case SchemeBcrypt:
		err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(password))
		switch {
		case err == nil:
			return nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return ErrMismatch
		default:
			return fmt.Errorf("%w: %v", ErrMalformedHash, err)
		}
	default:
		return ErrMalformedHash
	}
}

// Check reports whether password produced digest. It never fails: malformed
// digests simply do not match.
func (h *PasswordHasher) Check(password, digest string) bool {
	return h.Verify(password, digest) == nil
}

// DummyDigests holds one valid digest of a random password per accepted
// scheme, Argon2id first. Verifying a password against every scheme a real
// account did not use keeps unknown usernames and accounts on either scheme
// at the same cost.
func (h *PasswordHasher) DummyDigests() []string {
	h.dummyOnce.Do(func() {
		pw := MustGenerateToken(TokenSize128)
		a, err := h.Hash(pw)
		if err != nil {
			panic(err)
		}
		b, err := bcrypt.GenerateFromPassword([]byte(pw), h.bcryptCost())
		if err != nil {
			panic(err)
		}
		h.dummies = []string{a, string(b)}
	})
	return h.dummies
}

// NeedsRehash reports whether digest should be replaced by a fresh Hash once
// the password is known: bcrypt digests and Argon2id digests made with other
// parameters. Malformed digests are left alone.
func (h *PasswordHasher) NeedsRehash(digest string) bool {
	switch Scheme(digest) {
	case SchemeBcrypt:
		return true
	case SchemeArgon2id:
		var mem, iters uint32
		var par uint8
		parts := strings.Split(digest, "$")
		if len(parts) != 6 {
			return false
		}
		if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iters, &par); err != nil {
			return false
		}
		p := h.Params
		return mem != p.Memory || iters != p.Iterations || par != p.Parallelism
	default:
		return false
	}
}

func (h *PasswordHasher) bcryptCost() int {
	if h.BcryptCost == 0 {
		return LegacyBcryptCost
	}
	return h.BcryptCost
}

func (h *PasswordHasher) verifyArgon2(password, digest string) error {
	// ["", "argon2id", "v=19", "m=X,t=Y,p=Z", salt, hash]
	parts := strings.Split(digest, "$")
	if len(parts) != 6 {
		return fmt.Errorf("%w: expected 6 fields", ErrMalformedHash)
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return fmt.Errorf("%w: unsupported version", ErrMalformedHash)
	}

	var mem, iters uint32
	var par uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iters, &par); err != nil {
		return fmt.Errorf("%w: parameters: %v", ErrMalformedHash, err)
	}
	if mem == 0 || mem > maxMemory || iters == 0 || iters > maxIterations || par == 0 {
		return fmt.Errorf("%w: parameters out of range", ErrMalformedHash)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return fmt.Errorf("%w: salt", ErrMalformedHash)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(want) == 0 || len(want) > maxKeyLength {
		return fmt.Errorf("%w: key", ErrMalformedHash)
	}

	got := argon2.IDKey([]byte(password+h.Pepper), salt, iters, mem, par, uint32(len(want))) // #nosec G115 -- bounded above
	if subtle.ConstantTimeCompare(got, want) != 1 {
		return ErrMismatch
	}
	return nil
}

var defaultHasher = NewPasswordHasher("")

// HashPassword hashes with an unpeppered default hasher.
func HashPassword(password string) (string, error) { return defaultHasher.Hash(password) }

// CheckPassword verifies with an unpeppered default hasher.
func CheckPassword(password, digest string) bool { return defaultHasher.Check(password, digest) }
