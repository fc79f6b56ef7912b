// Package hybrid implements encrypt-to-public-key: an ephemeral X25519
// exchange, HKDF-SHA256 keyed by a protocol domain, and the AEAD engine.
// Each protocol context uses its own domain so a payload sealed for one
// context can never be opened in another.
package hybrid

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

// Domain is the HKDF salt binding a payload to one protocol context. The
// literals are frozen; the vault and enclave derive with the same bytes.
type Domain string

const (
	DomainVaultTransaction Domain = "vettid-vault-transaction-v1"
	DomainEnclavePIN       Domain = "vettid-enclave-pin-v1"
	DomainSession          Domain = "vettid-session-v1"
)

// Box performs hybrid encryption with an injected AEAD engine.
type Box struct {
	cipher aead.Cipher
}

// New returns a Box using the given engine, or the default native engine
// when c is nil.
func New(c aead.Cipher) *Box {
	if c == nil {
		c = aead.NewCipher()
	}
	return &Box{cipher: c}
}

// EncryptToPublicKey seals plaintext for the holder of recipientPublicKey
// under the given domain. A fresh ephemeral pair is drawn per call and its
// private half is wiped before returning.
func (b *Box) EncryptToPublicKey(plaintext, recipientPublicKey []byte, domain Domain) (*EncryptedPayload, error) {
	if err := keys.ValidatePublicKey(recipientPublicKey); err != nil {
		return nil, err
	}
	if domain == "" {
		return nil, fmt.Errorf("empty domain: %w", cryptoerrors.ErrInvalidInput)
	}

	eph, err := keys.GenerateAgreementKeyPair()
	if err != nil {
		return nil, err
	}
	defer keys.Zero(eph.PrivateKey)

	key, err := deriveKey(eph.PrivateKey, recipientPublicKey, domain)
	if err != nil {
		return nil, err
	}
	defer keys.Zero(key)

	combined, nonce, err := b.cipher.Seal(plaintext, key)
	if err != nil {
		return nil, err
	}
	ciphertext, tag, err := aead.SplitTag(combined)
	if err != nil {
		return nil, err
	}
	return &EncryptedPayload{
		EphemeralPublicKey: eph.PublicKey,
		Nonce:              nonce,
		Ciphertext:         ciphertext,
		Tag:                tag,
	}, nil
}

// Decrypt opens a payload addressed to privateKey under the given domain.
// Any mismatch in key, domain or payload bytes surfaces as an
// authentication failure; plaintext is never partially returned.
func (b *Box) Decrypt(payload *EncryptedPayload, privateKey []byte, domain Domain) ([]byte, error) {
	if payload == nil {
		return nil, cryptoerrors.ErrInvalidPayload
	}
	if len(privateKey) != keys.KeySize {
		return nil, cryptoerrors.ErrInvalidPrivateKey
	}
	if domain == "" {
		return nil, fmt.Errorf("empty domain: %w", cryptoerrors.ErrInvalidInput)
	}
	if err := keys.ValidatePublicKey(payload.EphemeralPublicKey); err != nil {
		return nil, err
	}

	key, err := deriveKey(privateKey, payload.EphemeralPublicKey, domain)
	if err != nil {
		return nil, err
	}
	defer keys.Zero(key)

	return b.cipher.Open(aead.JoinTag(payload.Ciphertext, payload.Tag), key, payload.Nonce)
}

func deriveKey(privateKey, publicKey []byte, domain Domain) ([]byte, error) {
	secret, err := curve25519.X25519(privateKey, publicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptoerrors.ErrInvalidPublicKey, err)
	}
	defer keys.Zero(secret)

	reader := hkdf.New(sha256.New, secret, []byte(domain), nil)
	key := make([]byte, aead.KeySize)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("%w: %v", cryptoerrors.ErrPrimitiveFailure, err)
	}
	return key, nil
}
