package jwtx

import (
	"crypto/ed25519"
	"fmt"

	"github.com/aussiebroadwan/bearer/pkg/cryptox"
	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the shortest HMAC secret accepted, matching the output
// size of SHA-256.
const MinSecretLength = 32

// signingKey pairs a JWS method with the material used to sign and verify.
type signingKey struct {
	method jwt.SigningMethod
	kid    string
	sign   any
	verify any
	public *JWK
}

func newSigningKey(alg string, secret []byte) (signingKey, error) {
	switch alg {
	case "HS256", "HS384", "HS512":
		if len(secret) < MinSecretLength {
			return signingKey{}, fmt.Errorf("%w: %d bytes, need at least %d", ErrWeakSecret, len(secret), MinSecretLength)
		}
		return signingKey{
			method: jwt.GetSigningMethod(alg),
			sign:   secret,
			verify: secret,
		}, nil

	case "EdDSA":
		priv, err := cryptox.DeriveEd25519Key(secret)
		if err != nil {
			return signingKey{}, err
		}
		pub := priv.Public().(ed25519.PublicKey)
		kid := cryptox.Fingerprint(pub)[:16]
		jwk := NewEd25519JWK(kid, "sig", alg, pub)

		return signingKey{
			method: jwt.SigningMethodEdDSA,
			kid:    kid,
			sign:   priv,
			verify: pub,
			public: &jwk,
		}, nil

	default:
		return signingKey{}, fmt.Errorf("%w: %q", ErrUnsupportedAlg, alg)
	}
}
