// Package connection derives and uses the long-lived symmetric key shared by
// the two ends of a relationship. The key is derived once from an X25519
// agreement with the connection id folded into the KDF salt, persisted
// through an injected store, and reused for every message on that
// connection.
package connection

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"

	"vettid/mobile-core/internal/aead"
	"vettid/mobile-core/internal/cryptoerrors"
	"vettid/mobile-core/internal/keys"
)

// keyInfoLabel is frozen; both peers derive with the same bytes.
const keyInfoLabel = "vettid-connection-key-v1"

// KeyStore persists connection keys by connection id. Implementations own
// their locking and their storage; Get must return
// cryptoerrors.ErrKeyNotFound for unknown ids and Delete must be a no-op for
// them.
type KeyStore interface {
	Put(connectionID string, key []byte) error
	Get(connectionID string) ([]byte, error)
	Delete(connectionID string) error
}

// GenerateKeyPair returns a fresh X25519 pair for establishing connections.
func GenerateKeyPair() (*keys.KeyPair, error) {
	return keys.GenerateAgreementKeyPair()
}

// DeriveSharedSecret runs the X25519 agreement between our private key and
// the peer's public key.
func DeriveSharedSecret(privateKey, peerPublicKey []byte) ([]byte, error) {
	if len(privateKey) != keys.KeySize {
		return nil, cryptoerrors.ErrInvalidPrivateKey
	}
	if err := keys.ValidatePublicKey(peerPublicKey); err != nil {
		return nil, err
	}
	secret, err := curve25519.X25519(privateKey, peerPublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptoerrors.ErrInvalidPublicKey, err)
	}
	return secret, nil
}

// DeriveConnectionKey expands the shared secret into the per-connection key.
// The connection id is the HKDF salt, so the same peers get unrelated keys
// on different connections.
func DeriveConnectionKey(secret []byte, connectionID string) ([]byte, error) {
	if len(secret) != keys.KeySize {
		return nil, fmt.Errorf("shared secret: %w", cryptoerrors.ErrInvalidKeySize)
	}
	if connectionID == "" {
		return nil, fmt.Errorf("empty connection id: %w", cryptoerrors.ErrInvalidInput)
	}
	reader := hkdf.New(sha256.New, secret, []byte(connectionID), []byte(keyInfoLabel))
	key := make([]byte, aead.KeySize)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("%w: %v", cryptoerrors.ErrPrimitiveFailure, err)
	}
	return key, nil
}
