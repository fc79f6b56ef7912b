// Package passhash hashes passwords for verification by the remote vault.
// Argon2id with the vault's frozen parameters is the primary backend; a
// PBKDF2-HMAC-SHA256 fallback exists for constrained environments and is
// always flagged for rehash. Wrong passwords report (false, nil), never an
// error, and comparisons are constant time.
package passhash

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/argon2"

	"vettid/mobile-core/internal/cryptoerrors"
	"vettid/mobile-core/internal/keys"
)

const (
	AlgorithmArgon2id = "argon2id"
	AlgorithmPBKDF2   = "pbkdf2-sha256"

	// Argon2Version is fixed by the wire format; the vault rejects others.
	Argon2Version = argon2.Version

	HashSize = 32
	SaltSize = 16

	// FallbackIterations is the floor for PBKDF2; configuration may raise
	// it but never lower it.
	FallbackIterations = 600_000
)

// HashResult is a raw hash with the salt that produced it.
type HashResult struct {
	Hash []byte
	Salt []byte
}

// Hasher computes and verifies password hashes with one configured backend.
type Hasher struct {
	backend Backend
	params  Params
}

// New returns the default hasher: Argon2id with the frozen parameters.
func New() *Hasher {
	return &Hasher{backend: NewArgon2Backend(), params: DefaultParams()}
}

// NewWithBackend builds a hasher around an explicit backend and parameters,
// rejecting parameters below the interop floors.
func NewWithBackend(b Backend, p Params) (*Hasher, error) {
	if b == nil {
		b = NewArgon2Backend()
	}
	switch b.Name() {
	case AlgorithmArgon2id:
		if p.MemoryKiB < 8*1024 || p.Time < 1 || p.Parallelism < 1 {
			return nil, fmt.Errorf("argon2 parameters below floor: %w", cryptoerrors.ErrInvalidInput)
		}
	case AlgorithmPBKDF2:
		if p.Iterations < FallbackIterations {
			return nil, fmt.Errorf("pbkdf2 iterations below %d: %w", FallbackIterations, cryptoerrors.ErrInvalidInput)
		}
	default:
		return nil, fmt.Errorf("unknown backend %q: %w", b.Name(), cryptoerrors.ErrInvalidInput)
	}
	return &Hasher{backend: b, params: p}, nil
}

// Hash computes the 32-byte hash of password. A nil salt draws a fresh
// 16-byte one; a provided salt must be at least 16 bytes.
func (h *Hasher) Hash(password, salt []byte) (HashResult, error) {
	if len(password) == 0 {
		return HashResult{}, fmt.Errorf("empty password: %w", cryptoerrors.ErrInvalidInput)
	}
	if salt == nil {
		var err error
		if salt, err = keys.RandomBytes(SaltSize); err != nil {
			return HashResult{}, err
		}
	} else if len(salt) < SaltSize {
		return HashResult{}, cryptoerrors.ErrInvalidSalt
	}
	hash := h.backend.Hash(password, salt, h.params)
	if len(hash) != HashSize {
		return HashResult{}, fmt.Errorf("backend %s returned %d bytes: %w",
			h.backend.Name(), len(hash), cryptoerrors.ErrHashingFailed)
	}
	return HashResult{
		Hash: hash,
		Salt: append([]byte(nil), salt...),
	}, nil
}

// Verify recomputes the hash and compares in constant time. A wrong password
// is (false, nil); only malformed inputs produce an error.
func (h *Hasher) Verify(password, hash, salt []byte) (bool, error) {
	if len(password) == 0 {
		return false, fmt.Errorf("empty password: %w", cryptoerrors.ErrInvalidInput)
	}
	if len(hash) != HashSize {
		return false, fmt.Errorf("hash length %d: %w", len(hash), cryptoerrors.ErrInvalidInput)
	}
	if len(salt) < SaltSize {
		return false, cryptoerrors.ErrInvalidSalt
	}
	computed := h.backend.Hash(password, salt, h.params)
	if len(computed) != HashSize {
		return false, fmt.Errorf("backend %s returned %d bytes: %w",
			h.backend.Name(), len(computed), cryptoerrors.ErrHashingFailed)
	}
	ok := subtle.ConstantTimeCompare(computed, hash) == 1
	keys.Zero(computed)
	return ok, nil
}
