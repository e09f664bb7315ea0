package seal

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpen(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	sealed, err := Seal(key, []byte("payload"))
	require.NoError(t, err)
	assert.NotContains(t, string(sealed.Ciphertext), "payload")

	plaintext, err := Open(key, sealed)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), plaintext)
}

func TestOpenWrongKey(t *testing.T) {
	key, _ := GenerateKey()
	other, _ := GenerateKey()

	sealed, err := Seal(key, []byte("payload"))
	require.NoError(t, err)

	_, err = Open(other, sealed)
	assert.ErrorIs(t, err, ErrOpen)
}

func TestOpenTampered(t *testing.T) {
	key, _ := GenerateKey()
	sealed, err := Seal(key, []byte("payload"))
	require.NoError(t, err)

	sealed.Ciphertext[0] ^= 0x01
	_, err = Open(key, sealed)
	assert.ErrorIs(t, err, ErrOpen)

	_, err = Open(key, Sealed{Nonce: []byte{1, 2}, Ciphertext: sealed.Ciphertext})
	assert.ErrorIs(t, err, ErrNonce)
}

func TestSealUsesFreshNonces(t *testing.T) {
	key, _ := GenerateKey()
	a, _ := Seal(key, []byte("same"))
	b, _ := Seal(key, []byte("same"))
	assert.NotEqual(t, a.Nonce, b.Nonce)
}

func TestKeyFromHex(t *testing.T) {
	raw := make([]byte, KeySize)
	raw[0] = 0xab
	key, err := KeyFromHex(hex.EncodeToString(raw))
	require.NoError(t, err)
	assert.False(t, key.IsZero())

	_, err = KeyFromHex("abcd")
	assert.ErrorIs(t, err, ErrKeySize)

	_, err = KeyFromHex("zz")
	assert.Error(t, err)
}
