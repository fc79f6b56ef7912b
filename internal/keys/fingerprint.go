package keys

import (
	"time"

	"github.com/mr-tron/base58/base58"
	"golang.org/x/crypto/blake2b"

	"vettid/mobile-core/pkg/models"
)

// FingerprintPrefix marks every identifier derived from a public key.
const FingerprintPrefix = "vett1"

// Fingerprint returns the stable identifier for a public key: the
// base58-encoded BLAKE2b-256 digest with the vett1 prefix. Safe to log and
// to show in the UI.
func Fingerprint(pub []byte) string {
	h := blake2b.Sum256(pub)
	return FingerprintPrefix + base58.Encode(h[:])
}

// NewIdentity generates a signing pair and the identity record derived from
// it. The caller owns persisting the record and protecting the private seed.
func NewIdentity() (*KeyPair, models.Identity, error) {
	pair, err := GenerateSigningKeyPair()
	if err != nil {
		return nil, models.Identity{}, err
	}
	ident := models.Identity{
		ID:               Fingerprint(pair.PublicKey),
		SigningPublicKey: append([]byte(nil), pair.PublicKey...),
		CreatedAt:        time.Now().UTC(),
	}
	return pair, ident, nil
}
