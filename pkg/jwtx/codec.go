package jwtx

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/bearer/pkg/idx"
	"github.com/golang-jwt/jwt/v5"
)

// CodecOptions configures a Codec.
type CodecOptions struct {
	// Algorithm is one of HS256 (default), HS384, HS512 or EdDSA.
	Algorithm string

	// Secret keys HMAC directly and seeds the Ed25519 key for EdDSA.
	Secret []byte

	// Issuer is stamped into minted tokens and, when set, required on decode.
	Issuer string

	// TTL is used when Mint is called with a non-positive lifetime.
	TTL time.Duration

	// Leeway tolerates clock skew between replicas when checking exp and nbf.
	Leeway time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

// Codec mints and decodes signed access tokens. It holds no mutable state
// and is safe for concurrent use.
type Codec struct {
	key    signingKey
	parser *jwt.Parser
	issuer string
	ttl    time.Duration
	leeway time.Duration
	now    func() time.Time
}

func NewCodec(opts CodecOptions) (*Codec, error) {
	if opts.Algorithm == "" {
		opts.Algorithm = "HS256"
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultAccessTokenTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	key, err := newSigningKey(opts.Algorithm, opts.Secret)
	if err != nil {
		return nil, err
	}

	// Time based claims are checked by hand once the signature has been
	// verified, so an expired forgery still reports as a bad signature.
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{key.method.Alg()}),
		jwt.WithoutClaimsValidation(),
		jwt.WithStrictDecoding(),
	)

	return &Codec{
		key:    key,
		parser: parser,
		issuer: opts.Issuer,
		ttl:    opts.TTL,
		leeway: opts.Leeway,
		now:    opts.Now,
	}, nil
}

// Ready reports whether c can sign tokens. It is safe on a nil *Codec.
func (c *Codec) Ready() error {
	if c == nil || c.key.method == nil || c.key.sign == nil {
		return ErrNoKey
	}
	return nil
}

func (c *Codec) Algorithm() string         { return c.key.method.Alg() }
func (c *Codec) DefaultTTL() time.Duration { return c.ttl }

// Mint signs a token for subject that expires ttl from now. A non-positive
// ttl selects the default. exp has whole second precision, so lifetimes
// under a second are raised to one second.
func (c *Codec) Mint(subject string, ttl time.Duration) (string, Claims, error) {
	if strings.TrimSpace(subject) == "" {
		return "", Claims{}, fmt.Errorf("%w: empty subject", ErrInvalidClaim)
	}
	if ttl <= 0 {
		ttl = c.ttl
	}
	ttl = max(ttl, time.Second)

	claims := newClaims(subject, c.issuer, idx.New().String(), c.now(), ttl)

	t := jwt.NewWithClaims(c.key.method, claims)
	if c.key.kid != "" {
		t.Header["kid"] = c.key.kid
	}

	signed, err := t.SignedString(c.key.sign)
	if err != nil {
		return "", Claims{}, fmt.Errorf("jwtx: sign: %w", err)
	}
	return signed, claims, nil
}

// Decode verifies raw and returns its claims. Checks run in a fixed order:
// structure (ErrMalformed), signature (ErrInvalidSig, ErrAlgMismatch), then
// expiry (ErrExpired), not-before and issuer.
func (c *Codec) Decode(raw string) (Claims, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return Claims{}, fmt.Errorf("%w: expected 3 segments", ErrMalformed)
	}
	for _, seg := range parts[:2] {
		if _, err := base64.RawURLEncoding.Strict().DecodeString(seg); err != nil {
			return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}
	// A signature segment that does not even decode cannot verify.
	if _, err := base64.RawURLEncoding.Strict().DecodeString(parts[2]); err != nil {
		return Claims{}, ErrInvalidSig
	}

	var claims Claims
	tok, err := c.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return c.key.verify, nil
	})
	if err != nil {
		return Claims{}, c.classify(tok, err)
	}
	if !tok.Valid {
		return Claims{}, ErrInvalidSig
	}

	if err := claims.validateTime(c.now(), c.leeway); err != nil {
		return Claims{}, err
	}
	if err := claims.validateIssuer(c.issuer); err != nil {
		return Claims{}, err
	}
	return claims, nil
}

func (c *Codec) classify(tok *jwt.Token, err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		// Header names an algorithm jwt does not know, "none" included.
		return ErrAlgMismatch
	case tok != nil && tok.Method != nil && tok.Method.Alg() != c.key.method.Alg():
		return ErrAlgMismatch
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSig
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}

// PublicJWKS lists the keys a third party needs to verify tokens. HMAC
// algorithms publish nothing.
func (c *Codec) PublicJWKS() JWKS {
	if c.key.public == nil {
		return JWKS{Keys: []JWK{}}
	}
	return JWKS{Keys: []JWK{*c.key.public}}
}
