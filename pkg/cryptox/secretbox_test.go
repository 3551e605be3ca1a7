package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCipherRoundTrip(t *testing.T) {
	t.Parallel()

	c, err := NewCipher([]byte("test-key-material"))
	require.NoError(t, err)

	for _, plaintext := range []string{"a", "bearer-token-value", "0123456789"} {
		encoded, err := c.Encrypt(plaintext)
		require.NoError(t, err)
		require.NotEqual(t, plaintext, encoded)

		decoded, err := c.Decrypt(encoded)
		require.NoError(t, err)
		require.Equal(t, plaintext, decoded)
	}
}

func TestCipherNonDeterministic(t *testing.T) {
	t.Parallel()

	c, err := NewCipher([]byte("test-key-material"))
	require.NoError(t, err)

	a, err := c.Encrypt("same input")
	require.NoError(t, err)
	b, err := c.Encrypt("same input")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestCipherRejectsGarbage(t *testing.T) {
	t.Parallel()

	c, err := NewCipher([]byte("test-key-material"))
	require.NoError(t, err)

	_, err = c.Decrypt("not-a-ciphertext")
	require.Error(t, err)

	other, err := NewCipher([]byte("different-key"))
	require.NoError(t, err)
	encoded, err := c.Encrypt("secret")
	require.NoError(t, err)
	_, err = other.Decrypt(encoded)
	require.Error(t, err)
}

func TestCipherRequiresKeyMaterial(t *testing.T) {
	t.Parallel()

	_, err := NewCipher(nil)
	require.Error(t, err)
}
