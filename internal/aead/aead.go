// Package aead is the symmetric encryption engine: XChaCha20-Poly1305 with a
// fresh random 24-byte nonce per seal. Two implementations sit behind the
// Cipher interface, the native construction and one derived from the
// 12-byte-nonce cipher via HChaCha20; their outputs are byte-identical.
// The open path also accepts legacy 12-byte nonces written by older payloads.
package aead

import (
	"crypto/cipher"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"vettid/mobile-core/internal/cryptoerrors"
	"vettid/mobile-core/internal/keys"
)

const (
	KeySize         = chacha20poly1305.KeySize
	NonceSize       = chacha20poly1305.NonceSizeX
	LegacyNonceSize = chacha20poly1305.NonceSize
	TagSize         = chacha20poly1305.Overhead
)

// Cipher seals and opens with a 32-byte key. Implementations must be
// stateless and safe for concurrent use.
type Cipher interface {
	// Seal encrypts plaintext under key, returning the ciphertext with the
	// 16-byte tag appended and the random nonce it drew.
	Seal(plaintext, key []byte) (ciphertext, nonce []byte, err error)
	// Open authenticates and decrypts. A 24-byte nonce selects the
	// extended construction, a 12-byte nonce the legacy one.
	Open(ciphertext, key, nonce []byte) ([]byte, error)
}

type nativeCipher struct{}

// NewCipher returns the default engine backed by the native
// XChaCha20-Poly1305 implementation.
func NewCipher() Cipher { return nativeCipher{} }

func (nativeCipher) Seal(plaintext, key []byte) ([]byte, []byte, error) {
	if len(key) != KeySize {
		return nil, nil, cryptoerrors.ErrInvalidKeySize
	}
	nonce, err := keys.RandomBytes(NonceSize)
	if err != nil {
		return nil, nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", cryptoerrors.ErrPrimitiveFailure, err)
	}
	return aead.Seal(nil, nonce, plaintext, nil), nonce, nil
}

func (nativeCipher) Open(ciphertext, key, nonce []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, cryptoerrors.ErrInvalidKeySize
	}
	var aead cipher.AEAD
	var err error
	switch len(nonce) {
	case NonceSize:
		aead, err = chacha20poly1305.NewX(key)
	case LegacyNonceSize:
		aead, err = chacha20poly1305.New(key)
	default:
		return nil, cryptoerrors.ErrInvalidNonceSize
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptoerrors.ErrPrimitiveFailure, err)
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, cryptoerrors.ErrDecryptionFailed
	}
	return plaintext, nil
}

// SplitTag separates the trailing authentication tag from a combined
// ciphertext buffer.
func SplitTag(combined []byte) (ciphertext, tag []byte, err error) {
	if len(combined) < TagSize {
		return nil, nil, cryptoerrors.ErrInvalidPayload
	}
	n := len(combined) - TagSize
	return combined[:n:n], combined[n:], nil
}

// JoinTag rebuilds the combined buffer Seal and Open work with.
func JoinTag(ciphertext, tag []byte) []byte {
	out := make([]byte, 0, len(ciphertext)+len(tag))
	out = append(out, ciphertext...)
	return append(out, tag...)
}
