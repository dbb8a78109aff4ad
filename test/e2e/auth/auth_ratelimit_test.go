//go:build e2e

package auth_test

import (
	"testing"

	"github.com/aussiebroadwan/bearer/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestRateLimitTokenEndpoint checks the default strict profile: five login
// attempts per minute per address and username.
func TestRateLimitTokenEndpoint(t *testing.T) {
	client := setupAuthContainer(t, nil)
	ctx := t.Context()

	for i := range 5 {
		_, err := client.Token(ctx, "johndoe", "wrong")
		require.ErrorIs(t, err, authsdk.ErrIncorrectCredentials, "attempt %d", i+1)
	}

	_, err := client.Token(ctx, "johndoe", "secret")
	var apiErr *authsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 429, apiErr.StatusCode)

	// A different username has its own budget.
	_, err = client.Token(ctx, "alice", "wonderland")
	require.NoError(t, err)
}
