// Package voting derives per-proposal ballot signing keys and verifies
// Merkle inclusion proofs. A voting key is a pure function of the identity
// key and the proposal id, so the same voter always signs a proposal with
// the same key while keys for different proposals stay unlinkable.
package voting

import (
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"vettid/mobile-core/internal/cryptoerrors"
	"vettid/mobile-core/internal/keys"
)

// keyInfoLabel is frozen; re-deriving on another device must yield the
// same key.
const keyInfoLabel = "vettid-voting-key-v1"

// KeyPair is a proposal-scoped Ed25519 pair. PrivateKey is the full
// 64-byte expanded key ready for ed25519.Sign.
type KeyPair struct {
	PublicKey  ed25519.PublicKey
	PrivateKey ed25519.PrivateKey
}

// DeriveKeyPair derives the Ed25519 pair for one proposal from the 32-byte
// identity private key. The proposal id is the HKDF salt, so no two
// proposals share a key and the public keys cannot be linked back to the
// identity.
func DeriveKeyPair(identityPrivateKey []byte, proposalID string) (*KeyPair, error) {
	if len(identityPrivateKey) != keys.KeySize {
		return nil, cryptoerrors.ErrInvalidPrivateKey
	}
	if proposalID == "" {
		return nil, fmt.Errorf("empty proposal id: %w", cryptoerrors.ErrInvalidInput)
	}
	reader := hkdf.New(sha256.New, identityPrivateKey, []byte(proposalID), []byte(keyInfoLabel))
	seed := make([]byte, ed25519.SeedSize)
	if _, err := io.ReadFull(reader, seed); err != nil {
		return nil, fmt.Errorf("%w: %v", cryptoerrors.ErrPrimitiveFailure, err)
	}
	defer keys.Zero(seed)
	private := ed25519.NewKeyFromSeed(seed)
	return &KeyPair{
		PublicKey:  private.Public().(ed25519.PublicKey),
		PrivateKey: private,
	}, nil
}

// Sign signs an opaque ballot with the proposal key.
func Sign(pair *KeyPair, ballot []byte) ([]byte, error) {
	if pair == nil || len(pair.PrivateKey) != ed25519.PrivateKeySize {
		return nil, cryptoerrors.ErrInvalidPrivateKey
	}
	return ed25519.Sign(pair.PrivateKey, ballot), nil
}

// Verify checks a ballot signature against a proposal public key.
func Verify(publicKey ed25519.PublicKey, ballot, signature []byte) error {
	if len(publicKey) != ed25519.PublicKeySize {
		return cryptoerrors.ErrInvalidPublicKey
	}
	if !ed25519.Verify(publicKey, ballot, signature) {
		return cryptoerrors.ErrSignatureInvalid
	}
	return nil
}
