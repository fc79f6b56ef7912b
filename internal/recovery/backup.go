package recovery

import (
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"vettid/mobile-core/internal/cryptoerrors"
	"vettid/mobile-core/internal/keys"
)

const (
	// BackupSaltSize is generous because the salt is stored alongside the
	// ciphertext and costs nothing.
	BackupSaltSize = 32

	BackupNonceSize = chacha20poly1305.NonceSize
)

// EncryptedBackup is a credential blob sealed under a phrase-derived key.
// Salt and Nonce travel with the ciphertext; neither is secret.
type EncryptedBackup struct {
	Ciphertext []byte `json:"ciphertext"`
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
}

// EncryptBackup seals blob under a key derived from the recovery phrase.
// Each call draws a fresh salt and nonce, so encrypting the same blob twice
// yields unrelated ciphertexts.
func EncryptBackup(words []string, blob []byte) (*EncryptedBackup, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("empty backup blob: %w", cryptoerrors.ErrInvalidInput)
	}
	salt, err := keys.RandomBytes(BackupSaltSize)
	if err != nil {
		return nil, err
	}
	key, err := DeriveKey(words, salt)
	if err != nil {
		return nil, err
	}
	defer keys.Zero(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptoerrors.ErrPrimitiveFailure, err)
	}
	nonce, err := keys.RandomBytes(BackupNonceSize)
	if err != nil {
		return nil, err
	}
	return &EncryptedBackup{
		Ciphertext: aead.Seal(nil, nonce, blob, nil),
		Salt:       salt,
		Nonce:      nonce,
	}, nil
}

// DecryptBackup recovers the credential blob. A wrong phrase and a tampered
// ciphertext are indistinguishable; both surface ErrDecryptionFailed.
func DecryptBackup(words []string, backup *EncryptedBackup) ([]byte, error) {
	if backup == nil || len(backup.Ciphertext) == 0 {
		return nil, fmt.Errorf("empty backup: %w", cryptoerrors.ErrInvalidInput)
	}
	if len(backup.Salt) == 0 {
		return nil, cryptoerrors.ErrInvalidSalt
	}
	if len(backup.Nonce) != BackupNonceSize {
		return nil, cryptoerrors.ErrInvalidNonceSize
	}
	key, err := DeriveKey(words, backup.Salt)
	if err != nil {
		return nil, err
	}
	defer keys.Zero(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptoerrors.ErrPrimitiveFailure, err)
	}
	plaintext, err := aead.Open(nil, backup.Nonce, backup.Ciphertext, nil)
	if err != nil {
		return nil, cryptoerrors.ErrDecryptionFailed
	}
	return plaintext, nil
}
