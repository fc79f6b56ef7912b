// Package keys holds the key material primitives the rest of the crypto
// layer builds on: X25519 agreement pairs, Ed25519 signing pairs carried as
// 32-byte seeds, fingerprinting and the entropy helpers.
package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/curve25519"

	"vettid/mobile-core/internal/cryptoerrors"
)

// KeySize is the length of every public and private key in the KeyPair
// model. Ed25519 private keys are stored as their 32-byte seed and expanded
// on use.
const KeySize = 32

// KeyPair is a public key and its private counterpart, both 32 bytes.
type KeyPair struct {
	PublicKey  []byte
	PrivateKey []byte
}

// GenerateAgreementKeyPair returns a fresh X25519 pair. The private scalar is
// clamped per RFC 7748 before the public key is derived.
func GenerateAgreementKeyPair() (*KeyPair, error) {
	priv, err := RandomBytes(KeySize)
	if err != nil {
		return nil, err
	}
	clampScalar(priv)
	pub, err := curve25519.X25519(priv, curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptoerrors.ErrPrimitiveFailure, err)
	}
	return &KeyPair{PublicKey: pub, PrivateKey: priv}, nil
}

// GenerateSigningKeyPair returns a fresh Ed25519 pair with the seed as the
// private half.
func GenerateSigningKeyPair() (*KeyPair, error) {
	seed, err := RandomBytes(ed25519.SeedSize)
	if err != nil {
		return nil, err
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := append([]byte(nil), priv[ed25519.SeedSize:]...)
	return &KeyPair{PublicKey: pub, PrivateKey: seed}, nil
}

// SigningKeyFromSeed expands a 32-byte seed into the full Ed25519 private key.
func SigningKeyFromSeed(seed []byte) (ed25519.PrivateKey, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, cryptoerrors.ErrInvalidPrivateKey
	}
	return ed25519.NewKeyFromSeed(seed), nil
}

// ValidatePublicKey rejects X25519 public keys of the wrong length and the
// all-zero point.
func ValidatePublicKey(pub []byte) error {
	if len(pub) != KeySize {
		return cryptoerrors.ErrInvalidPublicKey
	}
	var zero [KeySize]byte
	if subtle.ConstantTimeCompare(pub, zero[:]) == 1 {
		return cryptoerrors.ErrInvalidPublicKey
	}
	return nil
}

// RandomBytes returns n bytes from crypto/rand, the only entropy source this
// layer uses.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("%w: %v", cryptoerrors.ErrEntropyFailure, err)
	}
	return b, nil
}

// Zero overwrites b in place. Best effort; the runtime may hold copies.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

func clampScalar(k []byte) {
	k[0] &= 248
	k[31] &= 127
	k[31] |= 64
}
