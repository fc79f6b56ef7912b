package passhash

import (
	"crypto/sha256"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
)

// Params carries the cost parameters for both backends. The Argon2 fields
// and Iterations never apply at the same time.
type Params struct {
	MemoryKiB   uint32
	Time        uint32
	Parallelism uint8
	Iterations  int
}

// DefaultParams returns the parameters the remote verifier is provisioned
// with. Changing them locally without a coordinated vault upgrade breaks
// verification.
func DefaultParams() Params {
	return Params{MemoryKiB: 64 * 1024, Time: 3, Parallelism: 4, Iterations: FallbackIterations}
}

// Backend computes the 32-byte password hash for one algorithm family.
// Implementations are stateless.
type Backend interface {
	Name() string
	Hash(password, salt []byte, p Params) []byte
}

type argon2Backend struct{}

// NewArgon2Backend returns the primary Argon2id backend.
func NewArgon2Backend() Backend { return argon2Backend{} }

func (argon2Backend) Name() string { return AlgorithmArgon2id }

func (argon2Backend) Hash(password, salt []byte, p Params) []byte {
	return argon2.IDKey(password, salt, p.Time, p.MemoryKiB, p.Parallelism, HashSize)
}

type pbkdf2Backend struct{}

// NewPBKDF2Backend returns the fallback backend for environments where
// Argon2 is unavailable. Hashes it produces always report NeedsRehash.
func NewPBKDF2Backend() Backend { return pbkdf2Backend{} }

func (pbkdf2Backend) Name() string { return AlgorithmPBKDF2 }

func (pbkdf2Backend) Hash(password, salt []byte, p Params) []byte {
	iter := p.Iterations
	if iter <= 0 {
		iter = FallbackIterations
	}
	return pbkdf2.Key(password, salt, iter, HashSize, sha256.New)
}
