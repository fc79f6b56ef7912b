package passhash

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"

	"vettid/mobile-core/internal/cryptoerrors"
	"vettid/mobile-core/internal/keys"
)

// PHCResult is a parsed or freshly produced PHC-format hash. Salt and hash
// travel base64 without padding, matching the vault's parser.
type PHCResult struct {
	Algorithm   string
	Version     int
	MemoryKiB   uint32
	Time        uint32
	Parallelism uint8
	Iterations  int
	Salt        []byte
	Hash        []byte
}

// String renders the PHC encoding, e.g.
// $argon2id$v=19$m=65536,t=3,p=4$<salt>$<hash>.
func (r *PHCResult) String() string {
	salt := base64.RawStdEncoding.EncodeToString(r.Salt)
	hash := base64.RawStdEncoding.EncodeToString(r.Hash)
	switch r.Algorithm {
	case AlgorithmArgon2id:
		return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
			r.Version, r.MemoryKiB, r.Time, r.Parallelism, salt, hash)
	case AlgorithmPBKDF2:
		return fmt.Sprintf("$pbkdf2-sha256$i=%d$%s$%s", r.Iterations, salt, hash)
	}
	return ""
}

// HashPHC hashes password and returns the result with its PHC components
// filled in for the configured backend.
func (h *Hasher) HashPHC(password, salt []byte) (*PHCResult, error) {
	res, err := h.Hash(password, salt)
	if err != nil {
		return nil, err
	}
	out := &PHCResult{
		Algorithm: h.backend.Name(),
		Salt:      res.Salt,
		Hash:      res.Hash,
	}
	switch h.backend.Name() {
	case AlgorithmArgon2id:
		out.Version = Argon2Version
		out.MemoryKiB = h.params.MemoryKiB
		out.Time = h.params.Time
		out.Parallelism = h.params.Parallelism
	case AlgorithmPBKDF2:
		out.Iterations = h.params.Iterations
		if out.Iterations <= 0 {
			out.Iterations = FallbackIterations
		}
	}
	return out, nil
}

// ParsePHC decodes a PHC string from either backend. Unknown algorithms and
// versions are rejected; base64 fields are accepted with or without padding.
func ParsePHC(s string) (*PHCResult, error) {
	parts := strings.Split(s, "$")
	if len(parts) < 2 || parts[0] != "" {
		return nil, cryptoerrors.ErrUnsupportedHash
	}
	switch parts[1] {
	case AlgorithmArgon2id:
		return parseArgon2PHC(parts)
	case AlgorithmPBKDF2:
		return parsePBKDF2PHC(parts)
	default:
		return nil, cryptoerrors.ErrUnsupportedHash
	}
}

// VerifyPHC parses the stored PHC string and verifies password against it
// with the algorithm and parameters it records, so hashes produced by either
// backend stay verifiable regardless of the hasher's configuration.
func (h *Hasher) VerifyPHC(password []byte, phc string) (bool, error) {
	if len(password) == 0 {
		return false, fmt.Errorf("empty password: %w", cryptoerrors.ErrInvalidInput)
	}
	r, err := ParsePHC(phc)
	if err != nil {
		return false, err
	}
	var computed []byte
	switch r.Algorithm {
	case AlgorithmArgon2id:
		computed = argon2.IDKey(password, r.Salt, r.Time, r.MemoryKiB, r.Parallelism, HashSize)
	case AlgorithmPBKDF2:
		computed = pbkdf2.Key(password, r.Salt, r.Iterations, HashSize, sha256.New)
	default:
		return false, cryptoerrors.ErrUnsupportedHash
	}
	ok := subtle.ConstantTimeCompare(computed, r.Hash) == 1
	keys.Zero(computed)
	return ok, nil
}

// NeedsRehash reports whether a stored hash should be recomputed: true for
// anything not produced by Argon2id with the hasher's current parameters.
func (h *Hasher) NeedsRehash(phc string) (bool, error) {
	r, err := ParsePHC(phc)
	if err != nil {
		return false, err
	}
	if r.Algorithm != AlgorithmArgon2id {
		return true, nil
	}
	p := h.params
	return r.Version != Argon2Version ||
		r.MemoryKiB != p.MemoryKiB ||
		r.Time != p.Time ||
		r.Parallelism != p.Parallelism, nil
}

func parseArgon2PHC(parts []string) (*PHCResult, error) {
	if len(parts) != 6 {
		return nil, cryptoerrors.ErrUnsupportedHash
	}
	r := &PHCResult{Algorithm: AlgorithmArgon2id}
	if _, err := fmt.Sscanf(parts[2], "v=%d", &r.Version); err != nil {
		return nil, cryptoerrors.ErrUnsupportedHash
	}
	if r.Version != Argon2Version {
		return nil, cryptoerrors.ErrUnsupportedHash
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &r.MemoryKiB, &r.Time, &r.Parallelism); err != nil {
		return nil, cryptoerrors.ErrUnsupportedHash
	}
	if err := decodePHCPayload(r, parts[4], parts[5]); err != nil {
		return nil, err
	}
	return r, nil
}

func parsePBKDF2PHC(parts []string) (*PHCResult, error) {
	if len(parts) != 5 {
		return nil, cryptoerrors.ErrUnsupportedHash
	}
	r := &PHCResult{Algorithm: AlgorithmPBKDF2}
	if _, err := fmt.Sscanf(parts[2], "i=%d", &r.Iterations); err != nil {
		return nil, cryptoerrors.ErrUnsupportedHash
	}
	if r.Iterations <= 0 {
		return nil, cryptoerrors.ErrUnsupportedHash
	}
	if err := decodePHCPayload(r, parts[3], parts[4]); err != nil {
		return nil, err
	}
	return r, nil
}

func decodePHCPayload(r *PHCResult, saltPart, hashPart string) error {
	salt, err := decodeUnpadded(saltPart)
	if err != nil {
		return fmt.Errorf("salt: %w", cryptoerrors.ErrUnsupportedHash)
	}
	hash, err := decodeUnpadded(hashPart)
	if err != nil {
		return fmt.Errorf("hash: %w", cryptoerrors.ErrUnsupportedHash)
	}
	if len(hash) != HashSize {
		return fmt.Errorf("hash length %d: %w", len(hash), cryptoerrors.ErrUnsupportedHash)
	}
	if len(salt) < SaltSize {
		return fmt.Errorf("salt length %d: %w", len(salt), cryptoerrors.ErrUnsupportedHash)
	}
	r.Salt = salt
	r.Hash = hash
	return nil
}

func decodeUnpadded(s string) ([]byte, error) {
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}
