package cryptox

import (
	"crypto/ed25519"
	"crypto/sha256"
	"errors"
)

// DeriveEd25519Key turns a shared secret into a deterministic Ed25519 key, so
// every replica configured with the same SECRET_KEY signs with the same key.
func DeriveEd25519Key(secret []byte) (ed25519.PrivateKey, error) {
	if len(secret) == 0 {
		return nil, errors.New("cryptox: empty secret")
	}

	seed := sha256.Sum256(append([]byte("bearer/ed25519:"), secret...))
	return ed25519.NewKeyFromSeed(seed[:]), nil
}
