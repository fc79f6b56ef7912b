package passhash

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/argon2"

	"vettid/mobile-core/internal/cryptoerrors"
)

func TestHashMatchesFrozenParameters(t *testing.T) {
	h := New()
	password := []byte("correct horse battery staple")
	salt := bytes.Repeat([]byte{0x24}, SaltSize)

	res, err := h.Hash(password, salt)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	want := argon2.IDKey(password, salt, 3, 64*1024, 4, HashSize)
	if !bytes.Equal(res.Hash, want) {
		t.Fatal("hash does not match the frozen argon2id parameters")
	}
	if !bytes.Equal(res.Salt, salt) {
		t.Fatal("returned salt differs from input salt")
	}
}

func TestHashGeneratesSalt(t *testing.T) {
	h := New()
	first, err := h.Hash([]byte("pw"), nil)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if len(first.Salt) != SaltSize {
		t.Fatalf("generated salt length %d", len(first.Salt))
	}
	second, err := h.Hash([]byte("pw"), nil)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if bytes.Equal(first.Salt, second.Salt) {
		t.Fatal("two generated salts are identical")
	}
	if bytes.Equal(first.Hash, second.Hash) {
		t.Fatal("same password with fresh salts produced identical hashes")
	}
}

func TestHashRejectsBadInputs(t *testing.T) {
	h := New()
	if _, err := h.Hash(nil, nil); !errors.Is(err, cryptoerrors.ErrInvalidInput) {
		t.Fatalf("empty password: expected invalid input, got %v", err)
	}
	if _, err := h.Hash([]byte("pw"), make([]byte, SaltSize-1)); !errors.Is(err, cryptoerrors.ErrInvalidSalt) {
		t.Fatalf("short salt: expected ErrInvalidSalt, got %v", err)
	}
}

func TestVerify(t *testing.T) {
	h := New()
	res, err := h.Hash([]byte("password-1"), nil)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	ok, err := h.Verify([]byte("password-1"), res.Hash, res.Salt)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatal("correct password rejected")
	}

	ok, err = h.Verify([]byte("password-2"), res.Hash, res.Salt)
	if err != nil {
		t.Fatalf("wrong password must not error: %v", err)
	}
	if ok {
		t.Fatal("wrong password accepted")
	}

	if _, err := h.Verify([]byte("password-1"), res.Hash[:16], res.Salt); !errors.Is(err, cryptoerrors.ErrInvalidInput) {
		t.Fatalf("short hash: expected invalid input, got %v", err)
	}
	if _, err := h.Verify([]byte("password-1"), res.Hash, res.Salt[:8]); !errors.Is(err, cryptoerrors.ErrInvalidSalt) {
		t.Fatalf("short salt: expected ErrInvalidSalt, got %v", err)
	}
}

func TestHashPHCRoundTrip(t *testing.T) {
	h := New()
	res, err := h.HashPHC([]byte("pin-123456"), nil)
	if err != nil {
		t.Fatalf("hash phc: %v", err)
	}
	phc := res.String()
	if !strings.HasPrefix(phc, "$argon2id$v=19$m=65536,t=3,p=4$") {
		t.Fatalf("unexpected phc prefix: %q", phc)
	}
	if strings.Contains(phc, "=$") || strings.HasSuffix(phc, "==") {
		t.Fatalf("phc fields must be unpadded: %q", phc)
	}

	parsed, err := ParsePHC(phc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.MemoryKiB != 64*1024 || parsed.Time != 3 || parsed.Parallelism != 4 {
		t.Fatalf("parsed parameters drifted: %+v", parsed)
	}
	if !bytes.Equal(parsed.Salt, res.Salt) || !bytes.Equal(parsed.Hash, res.Hash) {
		t.Fatal("parsed salt or hash differs from produced values")
	}

	ok, err := h.VerifyPHC([]byte("pin-123456"), phc)
	if err != nil {
		t.Fatalf("verify phc: %v", err)
	}
	if !ok {
		t.Fatal("round-tripped phc rejected correct password")
	}
	ok, err = h.VerifyPHC([]byte("pin-654321"), phc)
	if err != nil {
		t.Fatalf("wrong password must not error: %v", err)
	}
	if ok {
		t.Fatal("wrong password accepted")
	}
}

func TestParsePHCAcceptsPaddedBase64(t *testing.T) {
	h := New()
	res, err := h.HashPHC([]byte("pw"), nil)
	if err != nil {
		t.Fatalf("hash phc: %v", err)
	}
	padded := "$argon2id$v=19$m=65536,t=3,p=4$" +
		base64.StdEncoding.EncodeToString(res.Salt) + "$" +
		base64.StdEncoding.EncodeToString(res.Hash)
	parsed, err := ParsePHC(padded)
	if err != nil {
		t.Fatalf("parse padded: %v", err)
	}
	if !bytes.Equal(parsed.Hash, res.Hash) {
		t.Fatal("padded parse produced a different hash")
	}
}

func TestParsePHCRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"argon2id$v=19$m=65536,t=3,p=4$AAAA$BBBB",
		"$scrypt$n=16$AAAA$BBBB",
		"$argon2id$v=18$m=65536,t=3,p=4$AAAA$BBBB",
		"$argon2id$v=19$m=65536,t=3$AAAA$BBBB",
		"$argon2id$v=19$m=65536,t=3,p=4$!!!!$BBBB",
		"$argon2id$v=19$m=65536,t=3,p=4$AAAA",
		"$pbkdf2-sha256$i=0$AAAA$BBBB",
		"$pbkdf2-sha256$AAAA$BBBB",
	}
	for _, phc := range cases {
		if _, err := ParsePHC(phc); !errors.Is(err, cryptoerrors.ErrUnsupportedHash) {
			t.Fatalf("%q: expected ErrUnsupportedHash, got %v", phc, err)
		}
	}
}

func TestFallbackBackend(t *testing.T) {
	fallback, err := NewWithBackend(NewPBKDF2Backend(), DefaultParams())
	if err != nil {
		t.Fatalf("new fallback hasher: %v", err)
	}
	res, err := fallback.HashPHC([]byte("pw"), nil)
	if err != nil {
		t.Fatalf("hash phc: %v", err)
	}
	phc := res.String()
	if !strings.HasPrefix(phc, "$pbkdf2-sha256$i=600000$") {
		t.Fatalf("unexpected fallback prefix: %q", phc)
	}

	// A default (argon2id) hasher still verifies fallback-produced hashes.
	primary := New()
	ok, err := primary.VerifyPHC([]byte("pw"), phc)
	if err != nil {
		t.Fatalf("verify fallback hash: %v", err)
	}
	if !ok {
		t.Fatal("fallback hash rejected correct password")
	}

	needs, err := primary.NeedsRehash(phc)
	if err != nil {
		t.Fatalf("needs rehash: %v", err)
	}
	if !needs {
		t.Fatal("fallback hash must always need rehash")
	}
}

func TestNeedsRehashOnParameterDrift(t *testing.T) {
	h := New()
	res, err := h.HashPHC([]byte("pw"), nil)
	if err != nil {
		t.Fatalf("hash phc: %v", err)
	}
	needs, err := h.NeedsRehash(res.String())
	if err != nil {
		t.Fatalf("needs rehash: %v", err)
	}
	if needs {
		t.Fatal("hash with current parameters flagged for rehash")
	}

	drifted := *res
	drifted.MemoryKiB = 32 * 1024
	weak := drifted.String()
	// Recompute the hash under the drifted parameters so the string parses.
	weakParsed, err := ParsePHC(weak)
	if err != nil {
		t.Fatalf("parse drifted: %v", err)
	}
	needs, err = h.NeedsRehash(weakParsed.String())
	if err != nil {
		t.Fatalf("needs rehash drifted: %v", err)
	}
	if !needs {
		t.Fatal("drifted parameters not flagged for rehash")
	}
}

// shortBackend violates the Backend contract by returning a 16-byte hash.
type shortBackend struct{}

func (shortBackend) Name() string { return AlgorithmArgon2id }

func (shortBackend) Hash(password, salt []byte, p Params) []byte {
	return make([]byte, 16)
}

func TestHashRejectsShortBackendOutput(t *testing.T) {
	h, err := NewWithBackend(shortBackend{}, DefaultParams())
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}
	if _, err := h.Hash([]byte("pw"), nil); !errors.Is(err, cryptoerrors.ErrHashingFailed) {
		t.Fatalf("short backend output: got %v, want ErrHashingFailed", err)
	}
	if _, err := h.Verify([]byte("pw"), make([]byte, HashSize), make([]byte, SaltSize)); !errors.Is(err, cryptoerrors.ErrHashingFailed) {
		t.Fatalf("short backend output on verify: got %v, want ErrHashingFailed", err)
	}
}

func TestNewWithBackendEnforcesFloors(t *testing.T) {
	if _, err := NewWithBackend(NewPBKDF2Backend(), Params{Iterations: 100_000}); !errors.Is(err, cryptoerrors.ErrInvalidInput) {
		t.Fatalf("low iterations: expected invalid input, got %v", err)
	}
	if _, err := NewWithBackend(NewArgon2Backend(), Params{MemoryKiB: 1024, Time: 3, Parallelism: 4}); !errors.Is(err, cryptoerrors.ErrInvalidInput) {
		t.Fatalf("low memory: expected invalid input, got %v", err)
	}
}
