package connection

import (
	"crypto/ed25519"

	"vettid/mobile-core/internal/cryptoerrors"
)

// SignServiceMessage signs eventID concatenated with the ciphertext under
// the identity seed, so the receiver can authenticate a message before
// decrypting it.
func SignServiceMessage(privateSeed []byte, eventID string, ciphertext []byte) ([]byte, error) {
	if len(privateSeed) != ed25519.SeedSize {
		return nil, cryptoerrors.ErrInvalidPrivateKey
	}
	priv := ed25519.NewKeyFromSeed(privateSeed)
	return ed25519.Sign(priv, signingInput(eventID, ciphertext)), nil
}

// VerifyServiceMessage checks the signature over eventID and ciphertext. Any
// mismatch, including a malformed signature, reports ErrSignatureInvalid.
func VerifyServiceMessage(publicKey []byte, eventID string, ciphertext, sig []byte) error {
	if len(publicKey) != ed25519.PublicKeySize {
		return cryptoerrors.ErrInvalidPublicKey
	}
	if !ed25519.Verify(ed25519.PublicKey(publicKey), signingInput(eventID, ciphertext), sig) {
		return cryptoerrors.ErrSignatureInvalid
	}
	return nil
}

func signingInput(eventID string, ciphertext []byte) []byte {
	msg := make([]byte, 0, len(eventID)+len(ciphertext))
	msg = append(msg, eventID...)
	return append(msg, ciphertext...)
}
