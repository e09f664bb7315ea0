// Package seal is the symmetric AEAD used to protect operation payloads.
package seal

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

const KeySize = chacha20poly1305.KeySize

var (
	ErrKeySize = errors.New("seal: key must be 32 bytes")
	ErrOpen    = errors.New("seal: message authentication failed")
	ErrNonce   = errors.New("seal: malformed nonce")
)

// SecretKey is a per-space symmetric key.
type SecretKey struct {
	key [KeySize]byte
}

func GenerateKey() (SecretKey, error) {
	var k SecretKey
	if _, err := rand.Read(k.key[:]); err != nil {
		return SecretKey{}, fmt.Errorf("seal: generate key: %w", err)
	}
	return k, nil
}

func KeyFromBytes(b []byte) (SecretKey, error) {
	if len(b) != KeySize {
		return SecretKey{}, ErrKeySize
	}
	var k SecretKey
	copy(k.key[:], b)
	return k, nil
}

func KeyFromHex(s string) (SecretKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return SecretKey{}, fmt.Errorf("seal: decode key: %w", err)
	}
	return KeyFromBytes(b)
}

func (k SecretKey) IsZero() bool {
	return k.key == [KeySize]byte{}
}

// Sealed is an XChaCha20-Poly1305 ciphertext with its nonce.
type Sealed struct {
	Nonce      []byte `cbor:"0,keyasint" json:"nonce"`
	Ciphertext []byte `cbor:"1,keyasint" json:"ciphertext"`
}

func Seal(key SecretKey, plaintext []byte) (Sealed, error) {
	aead, err := chacha20poly1305.NewX(key.key[:])
	if err != nil {
		return Sealed{}, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return Sealed{}, fmt.Errorf("seal: nonce: %w", err)
	}
	return Sealed{
		Nonce:      nonce,
		Ciphertext: aead.Seal(nil, nonce, plaintext, nil),
	}, nil
}

func Open(key SecretKey, sealed Sealed) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key.key[:])
	if err != nil {
		return nil, err
	}
	if len(sealed.Nonce) != aead.NonceSize() {
		return nil, ErrNonce
	}
	plaintext, err := aead.Open(nil, sealed.Nonce, sealed.Ciphertext, nil)
	if err != nil {
		return nil, ErrOpen
	}
	return plaintext, nil
}
