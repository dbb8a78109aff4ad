package cryptox

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	for _, size := range []int{TokenSize128, TokenSize256, 24} {
		a, err := GenerateToken(size)
		require.NoError(t, err)
		b, err := GenerateToken(size)
		require.NoError(t, err)

		require.NotEqual(t, a, b)
		raw, err := base64.RawURLEncoding.DecodeString(a)
		require.NoError(t, err)
		require.Len(t, raw, size)
	}
}

func TestGenerateTokenInvalidSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		token, err := GenerateToken(size)
		require.Error(t, err)
		require.Empty(t, token)
	}
}

func TestFingerprint(t *testing.T) {
	require.Equal(t, Fingerprint([]byte("abc")), Fingerprint([]byte("abc")))
	require.NotEqual(t, Fingerprint([]byte("abc")), Fingerprint([]byte("abd")))
	require.Len(t, Fingerprint([]byte("abc")), 43)
}

func TestLoadPepper(t *testing.T) {
	t.Run("empty path disables pepper", func(t *testing.T) {
		p, err := LoadPepper("")
		require.NoError(t, err)
		require.Empty(t, p)
	})

	t.Run("generates then reloads", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "keys", "pepper")

		first, err := LoadPepper(path)
		require.NoError(t, err)
		require.NotEmpty(t, first)

		info, err := os.Stat(path)
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

		second, err := LoadPepper(path)
		require.NoError(t, err)
		require.Equal(t, first, second)
	})

	t.Run("rejects empty file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pepper")
		require.NoError(t, os.WriteFile(path, []byte("\n"), 0o600))

		_, err := LoadPepper(path)
		require.Error(t, err)
	})
}

func TestDeriveEd25519Key(t *testing.T) {
	a, err := DeriveEd25519Key([]byte("secret-one"))
	require.NoError(t, err)
	again, err := DeriveEd25519Key([]byte("secret-one"))
	require.NoError(t, err)
	b, err := DeriveEd25519Key([]byte("secret-two"))
	require.NoError(t, err)

	require.True(t, a.Equal(again))
	require.False(t, a.Equal(b))

	_, err = DeriveEd25519Key(nil)
	require.Error(t, err)
}
