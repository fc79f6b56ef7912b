// Package recovery manages the BIP-39 recovery phrase and the credential
// backups it protects. Phrases are 24 standard English words carrying 256
// bits of entropy plus the SHA-256 checksum byte; they exist only in memory
// and are never logged or persisted.
package recovery

import (
	"crypto/sha512"
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/pbkdf2"

	"vettid/mobile-core/internal/cryptoerrors"
	"vettid/mobile-core/internal/keys"
)

const (
	PhraseWords = 24
	EntropyBits = 256

	// KeyIterations is the floor for phrase-derived keys; deliberately
	// expensive because the phrase is a backup's only protection.
	KeyIterations = 600_000

	KeySize = 32
)

// GeneratePhrase draws 256 bits from crypto/rand and returns the 24-word
// phrase encoding them.
func GeneratePhrase() ([]string, error) {
	entropy, err := bip39.NewEntropy(EntropyBits)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptoerrors.ErrEntropyFailure, err)
	}
	defer keys.Zero(entropy)
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptoerrors.ErrPrimitiveFailure, err)
	}
	return strings.Fields(mnemonic), nil
}

// ValidatePhrase reports whether words form a well-formed 24-word phrase:
// every word on the list and the checksum byte matching. Input is trimmed
// and lowercased first.
func ValidatePhrase(words []string) bool {
	return checkPhrase(words) == nil
}

// checkPhrase pins down why a phrase is unusable. Wrong shape or unknown
// words are invalid input; 24 known words failing the checksum usually mean
// one mistyped word, reported separately so the UI can say so.
func checkPhrase(words []string) error {
	if len(words) != PhraseWords {
		return cryptoerrors.ErrInvalidPhrase
	}
	for _, w := range words {
		if !IsWord(w) {
			return cryptoerrors.ErrInvalidPhrase
		}
	}
	if !bip39.IsMnemonicValid(joinNormalized(words)) {
		return cryptoerrors.ErrChecksumMismatch
	}
	return nil
}

// IsWord reports list membership for a single word, for input-time checks
// in the entry UI.
func IsWord(w string) bool {
	_, ok := bip39.GetWordIndex(normalizeWord(w))
	return ok
}

// DeriveKey stretches the phrase into a 32-byte key with PBKDF2-HMAC-SHA512
// at the iteration floor. The caller provides the salt and owns wiping the
// returned key.
func DeriveKey(words []string, salt []byte) ([]byte, error) {
	return DeriveKeyIter(words, salt, KeyIterations)
}

// DeriveKeyIter is DeriveKey with an explicit iteration count, which may
// exceed the floor but never sit below it.
func DeriveKeyIter(words []string, salt []byte, iterations int) ([]byte, error) {
	if err := checkPhrase(words); err != nil {
		return nil, err
	}
	if len(salt) == 0 {
		return nil, cryptoerrors.ErrInvalidSalt
	}
	if iterations < KeyIterations {
		return nil, fmt.Errorf("iterations below %d: %w", KeyIterations, cryptoerrors.ErrInvalidInput)
	}
	phrase := joinNormalized(words)
	return pbkdf2.Key([]byte(phrase), salt, iterations, KeySize, sha512.New), nil
}

func joinNormalized(words []string) string {
	norm := make([]string, len(words))
	for i, w := range words {
		norm[i] = normalizeWord(w)
	}
	return strings.Join(norm, " ")
}

func normalizeWord(w string) string {
	return strings.ToLower(strings.TrimSpace(w))
}
