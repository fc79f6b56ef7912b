package keystore

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"vettid/mobile-core/internal/cryptoerrors"
	"vettid/mobile-core/internal/keys"
)

const (
	envelopeVersion  = 1
	envelopeSaltSize = 16
	filePrefix       = "VETTENC1\n"
)

// Caps on the KDF parameters an envelope may request, so a crafted file
// cannot make open allocate unbounded memory.
const (
	maxKDFTime     = 16
	maxKDFMemoryKB = 512 * 1024
	maxKDFThreads  = 8
)

type kdfParams struct {
	Time     uint32
	MemoryKB uint32
	Threads  uint8
}

var defaultKDFParams = kdfParams{Time: 3, MemoryKB: 64 * 1024, Threads: 4}

type envelope struct {
	Version     uint32 `json:"version"`
	KDF         string `json:"kdf"`
	KDFTime     uint32 `json:"kdf_time"`
	KDFMemoryKB uint32 `json:"kdf_memory_kb"`
	KDFThreads  uint8  `json:"kdf_threads"`
	Salt        []byte `json:"salt"`
	Nonce       []byte `json:"nonce"`
	Ciphertext  []byte `json:"ciphertext"`
}

func sealEnvelope(key, salt []byte, p kdfParams, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptoerrors.ErrPrimitiveFailure, err)
	}
	nonce, err := keys.RandomBytes(chacha20poly1305.NonceSizeX)
	if err != nil {
		return nil, err
	}
	env := envelope{
		Version:     envelopeVersion,
		KDF:         "argon2id",
		KDFTime:     p.Time,
		KDFMemoryKB: p.MemoryKB,
		KDFThreads:  p.Threads,
		Salt:        salt,
		Nonce:       nonce,
		Ciphertext:  aead.Seal(nil, nonce, plaintext, nil),
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return append([]byte(filePrefix), raw...), nil
}

func parseEnvelope(data []byte) (*envelope, error) {
	if !strings.HasPrefix(string(data), filePrefix) {
		return nil, fmt.Errorf("missing envelope prefix: %w", cryptoerrors.ErrInvalidPayload)
	}
	var env envelope
	if err := json.Unmarshal(data[len(filePrefix):], &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", cryptoerrors.ErrInvalidPayload)
	}
	if env.Version != envelopeVersion || env.KDF != "argon2id" {
		return nil, fmt.Errorf("unknown envelope version or kdf: %w", cryptoerrors.ErrInvalidPayload)
	}
	if len(env.Salt) != envelopeSaltSize || len(env.Nonce) != chacha20poly1305.NonceSizeX {
		return nil, fmt.Errorf("bad envelope salt or nonce: %w", cryptoerrors.ErrInvalidPayload)
	}
	if env.KDFTime == 0 || env.KDFTime > maxKDFTime ||
		env.KDFMemoryKB == 0 || env.KDFMemoryKB > maxKDFMemoryKB ||
		env.KDFThreads == 0 || env.KDFThreads > maxKDFThreads {
		return nil, fmt.Errorf("envelope kdf parameters out of range: %w", cryptoerrors.ErrInvalidPayload)
	}
	return &env, nil
}

func (e *envelope) params() kdfParams {
	return kdfParams{Time: e.KDFTime, MemoryKB: e.KDFMemoryKB, Threads: e.KDFThreads}
}

func (e *envelope) open(key []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptoerrors.ErrPrimitiveFailure, err)
	}
	plaintext, err := aead.Open(nil, e.Nonce, e.Ciphertext, nil)
	if err != nil {
		return nil, cryptoerrors.ErrDecryptionFailed
	}
	return plaintext, nil
}

func deriveEnvelopeKey(passphrase, salt []byte, p kdfParams) []byte {
	return argon2.IDKey(passphrase, salt, p.Time, p.MemoryKB, p.Threads, chacha20poly1305.KeySize)
}
