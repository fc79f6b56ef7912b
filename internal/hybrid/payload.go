package hybrid

import (
	"vettid/mobile-core/internal/aead"
	"vettid/mobile-core/internal/cryptoerrors"
	"vettid/mobile-core/internal/keys"
)

// EncryptedPayload is the hybrid envelope. The wire order, frozen across
// platforms, is ephemeral public key, nonce, ciphertext, tag.
type EncryptedPayload struct {
	EphemeralPublicKey []byte
	Nonce              []byte
	Ciphertext         []byte
	Tag                []byte
}

// Combined serializes the payload in wire order.
func (p *EncryptedPayload) Combined() []byte {
	out := make([]byte, 0, len(p.EphemeralPublicKey)+len(p.Nonce)+len(p.Ciphertext)+len(p.Tag))
	out = append(out, p.EphemeralPublicKey...)
	out = append(out, p.Nonce...)
	out = append(out, p.Ciphertext...)
	return append(out, p.Tag...)
}

// ParsePayload splits a combined buffer carrying a 24-byte nonce.
func ParsePayload(combined []byte) (*EncryptedPayload, error) {
	return parse(combined, aead.NonceSize)
}

// ParseLegacyPayload splits a combined buffer written with the legacy
// 12-byte nonce.
func ParseLegacyPayload(combined []byte) (*EncryptedPayload, error) {
	return parse(combined, aead.LegacyNonceSize)
}

func parse(combined []byte, nonceSize int) (*EncryptedPayload, error) {
	minLen := keys.KeySize + nonceSize + aead.TagSize
	if len(combined) < minLen {
		return nil, cryptoerrors.ErrInvalidPayload
	}
	p := &EncryptedPayload{
		EphemeralPublicKey: append([]byte(nil), combined[:keys.KeySize]...),
		Nonce:              append([]byte(nil), combined[keys.KeySize:keys.KeySize+nonceSize]...),
	}
	rest := combined[keys.KeySize+nonceSize:]
	ctLen := len(rest) - aead.TagSize
	p.Ciphertext = append([]byte(nil), rest[:ctLen]...)
	p.Tag = append([]byte(nil), rest[ctLen:]...)
	return p, nil
}
