package encryption

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAESSealer_RoundTrip(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	sealer, err := NewAESSealer(key)
	require.NoError(t, err)

	sealed, err := sealer.Seal([]byte(`{"title":"Job Interview"}`), []byte("session:s1"))
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "Job Interview")

	opened, err := sealer.Open(sealed, []byte("session:s1"))
	require.NoError(t, err)
	assert.Equal(t, `{"title":"Job Interview"}`, string(opened))
}

func TestAESSealer_WrongAssociatedData(t *testing.T) {
	sealer, err := NewAESSealer("a passphrase that is not base64 key material")
	require.NoError(t, err)

	sealed, err := sealer.Seal([]byte("payload"), []byte("session:s1"))
	require.NoError(t, err)

	_, err = sealer.Open(sealed, []byte("session:s2"))
	assert.Error(t, err)
}

func TestAESSealer_DifferentKeys(t *testing.T) {
	a, err := NewAESSealer("key-a")
	require.NoError(t, err)
	b, err := NewAESSealer("key-b")
	require.NoError(t, err)

	sealed, err := a.Seal([]byte("payload"), nil)
	require.NoError(t, err)

	_, err = b.Open(sealed, nil)
	assert.Error(t, err)
}

func TestAESSealer_ShortCiphertext(t *testing.T) {
	sealer, err := NewAESSealer("key")
	require.NoError(t, err)

	_, err = sealer.Open([]byte("abc"), nil)
	assert.EqualError(t, err, "ciphertext too short")
}

func TestNewAESSealer_EmptyKey(t *testing.T) {
	sealer, err := NewAESSealer("")

	assert.Error(t, err)
	assert.Nil(t, sealer)
}

func TestPlainSealer(t *testing.T) {
	var s PlainSealer

	sealed, err := s.Seal([]byte("x"), nil)
	require.NoError(t, err)
	opened, err := s.Open(sealed, nil)
	require.NoError(t, err)

	assert.Equal(t, "x", string(opened))
}
