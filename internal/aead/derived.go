package aead

import (
	"crypto/cipher"
	"fmt"

	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/chacha20poly1305"

	"vettid/mobile-core/internal/cryptoerrors"
	"vettid/mobile-core/internal/keys"
)

type derivedCipher struct{}

// NewDerivedCipher returns the fallback engine. It reaches
// XChaCha20-Poly1305 through its definition: an HChaCha20 subkey from the
// key and the first 16 nonce bytes, then the 12-byte-nonce cipher with a
// zero-prefixed sub-nonce carrying the last 8 nonce bytes. Output bytes match
// the native engine exactly, so the two can decrypt each other's payloads.
func NewDerivedCipher() Cipher { return derivedCipher{} }

func (derivedCipher) Seal(plaintext, key []byte) ([]byte, []byte, error) {
	if len(key) != KeySize {
		return nil, nil, cryptoerrors.ErrInvalidKeySize
	}
	nonce, err := keys.RandomBytes(NonceSize)
	if err != nil {
		return nil, nil, err
	}
	aead, subNonce, err := deriveSubCipher(key, nonce)
	if err != nil {
		return nil, nil, err
	}
	return aead.Seal(nil, subNonce, plaintext, nil), nonce, nil
}

func (derivedCipher) Open(ciphertext, key, nonce []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, cryptoerrors.ErrInvalidKeySize
	}
	var aead cipher.AEAD
	var openNonce []byte
	switch len(nonce) {
	case NonceSize:
		var err error
		aead, openNonce, err = deriveSubCipher(key, nonce)
		if err != nil {
			return nil, err
		}
	case LegacyNonceSize:
		var err error
		aead, err = chacha20poly1305.New(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", cryptoerrors.ErrPrimitiveFailure, err)
		}
		openNonce = nonce
	default:
		return nil, cryptoerrors.ErrInvalidNonceSize
	}
	plaintext, err := aead.Open(nil, openNonce, ciphertext, nil)
	if err != nil {
		return nil, cryptoerrors.ErrDecryptionFailed
	}
	return plaintext, nil
}

func deriveSubCipher(key, nonce []byte) (cipher.AEAD, []byte, error) {
	subKey, err := chacha20.HChaCha20(key, nonce[:16])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", cryptoerrors.ErrPrimitiveFailure, err)
	}
	defer keys.Zero(subKey)
	// Sub-nonce layout mirrors the native construction: 4 zero bytes then
	// the final 8 nonce bytes.
	subNonce := make([]byte, chacha20poly1305.NonceSize)
	copy(subNonce[4:], nonce[16:])
	aead, err := chacha20poly1305.New(subKey)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", cryptoerrors.ErrPrimitiveFailure, err)
	}
	return aead, subNonce, nil
}
