package jwtx

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed covers tokens whose structure cannot be parsed and tokens
	// missing a required claim.
	ErrMalformed = errors.New("jwtx: malformed token")

	// ErrInvalidSig means the signature does not verify against the
	// configured key.
	ErrInvalidSig = errors.New("jwtx: invalid signature")

	// ErrAlgMismatch is a signature failure caused by a token announcing an
	// algorithm other than the configured one.
	ErrAlgMismatch = fmt.Errorf("%w: algorithm mismatch", ErrInvalidSig)

	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")

	ErrNoKey          = errors.New("jwtx: no signing key")
	ErrUnsupportedAlg = errors.New("jwtx: unsupported algorithm")
	ErrWeakSecret     = errors.New("jwtx: secret too short")
)
