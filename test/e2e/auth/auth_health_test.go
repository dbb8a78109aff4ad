//go:build e2e

package auth_test

import (
	"testing"

	"github.com/aussiebroadwan/bearer/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

func TestHealthEndpoints(t *testing.T) {
	client := setupAuthContainer(t, relaxedLimits)

	health, err := client.Liveness(t.Context())
	assertHealthy(t, health, err)

	health, err = client.Readiness(t.Context())
	assertHealthy(t, health, err)
	require.Equal(t, "ok", health.Checks["database"])
	require.Equal(t, "ok", health.Checks["signer"])
}

// TestJWKSEndpoint verifies the EdDSA key is published and that tokens can
// be verified offline with it.
func TestJWKSEndpoint(t *testing.T) {
	client := setupAuthContainer(t, relaxedLimits)

	jwks, err := client.JWKS(t.Context())
	require.NoError(t, err)
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, "OKP", jwks.Keys[0].Kty)
	require.Equal(t, "Ed25519", jwks.Keys[0].Crv)
	require.NotEmpty(t, jwks.Keys[0].Kid)

	verifier, err := client.NewVerifier(t.Context(), authsdk.VerifierOptions{Issuer: "bearer-e2e"})
	require.NoError(t, err)
	defer verifier.Close()

	sess, err := client.Login(t.Context(), "alice", "wonderland")
	require.NoError(t, err)

	claims, err := verifier.Verify(sess.AccessToken())
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Subject)
}
