package hybrid

import (
	"bytes"
	"errors"
	"testing"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"

	"vettid/mobile-core/internal/aead"
	"vettid/mobile-core/internal/cryptoerrors"
	"vettid/mobile-core/internal/keys"
)

func recipientPair(t *testing.T) *keys.KeyPair {
	t.Helper()
	pair, err := keys.GenerateAgreementKeyPair()
	if err != nil {
		t.Fatalf("recipient pair: %v", err)
	}
	return pair
}

func TestEncryptDecryptPerDomain(t *testing.T) {
	box := New(nil)
	recipient := recipientPair(t)
	plaintext := []byte("credential presentation body")

	for _, domain := range []Domain{DomainVaultTransaction, DomainEnclavePIN, DomainSession} {
		payload, err := box.EncryptToPublicKey(plaintext, recipient.PublicKey, domain)
		if err != nil {
			t.Fatalf("encrypt under %q: %v", domain, err)
		}
		if len(payload.EphemeralPublicKey) != keys.KeySize {
			t.Fatalf("ephemeral key length %d", len(payload.EphemeralPublicKey))
		}
		if len(payload.Nonce) != aead.NonceSize {
			t.Fatalf("nonce length %d", len(payload.Nonce))
		}
		if len(payload.Tag) != aead.TagSize {
			t.Fatalf("tag length %d", len(payload.Tag))
		}
		got, err := box.Decrypt(payload, recipient.PrivateKey, domain)
		if err != nil {
			t.Fatalf("decrypt under %q: %v", domain, err)
		}
		if !bytes.Equal(got, plaintext) {
			t.Fatalf("round trip mismatch under %q", domain)
		}
	}
}

func TestDomainsDoNotCross(t *testing.T) {
	box := New(nil)
	recipient := recipientPair(t)

	payload, err := box.EncryptToPublicKey([]byte("pin change request"), recipient.PublicKey, DomainEnclavePIN)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := box.Decrypt(payload, recipient.PrivateKey, DomainVaultTransaction); !errors.Is(err, cryptoerrors.ErrAuthenticationFailed) {
		t.Fatalf("cross-domain decrypt: expected authentication failure, got %v", err)
	}
}

func TestDecryptWithWrongKeyFails(t *testing.T) {
	box := New(nil)
	recipient := recipientPair(t)
	other := recipientPair(t)

	payload, err := box.EncryptToPublicKey([]byte("payload"), recipient.PublicKey, DomainSession)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := box.Decrypt(payload, other.PrivateKey, DomainSession); !errors.Is(err, cryptoerrors.ErrAuthenticationFailed) {
		t.Fatalf("wrong key decrypt: expected authentication failure, got %v", err)
	}
}

func TestEncryptRejectsBadRecipientKey(t *testing.T) {
	box := New(nil)
	if _, err := box.EncryptToPublicKey([]byte("p"), make([]byte, keys.KeySize), DomainSession); !errors.Is(err, cryptoerrors.ErrInvalidPublicKey) {
		t.Fatalf("zero key: expected ErrInvalidPublicKey, got %v", err)
	}
	if _, err := box.EncryptToPublicKey([]byte("p"), make([]byte, 16), DomainSession); !errors.Is(err, cryptoerrors.ErrInvalidPublicKey) {
		t.Fatalf("short key: expected ErrInvalidPublicKey, got %v", err)
	}
	recipient := recipientPair(t)
	if _, err := box.EncryptToPublicKey([]byte("p"), recipient.PublicKey, ""); !errors.Is(err, cryptoerrors.ErrInvalidInput) {
		t.Fatalf("empty domain: expected invalid input, got %v", err)
	}
}

func TestDecryptRejectsBadInputs(t *testing.T) {
	box := New(nil)
	recipient := recipientPair(t)
	payload, err := box.EncryptToPublicKey([]byte("p"), recipient.PublicKey, DomainSession)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	if _, err := box.Decrypt(nil, recipient.PrivateKey, DomainSession); !errors.Is(err, cryptoerrors.ErrInvalidPayload) {
		t.Fatalf("nil payload: expected ErrInvalidPayload, got %v", err)
	}
	if _, err := box.Decrypt(payload, make([]byte, 16), DomainSession); !errors.Is(err, cryptoerrors.ErrInvalidPrivateKey) {
		t.Fatalf("short private key: expected ErrInvalidPrivateKey, got %v", err)
	}

	mangled := *payload
	mangled.EphemeralPublicKey = make([]byte, keys.KeySize)
	if _, err := box.Decrypt(&mangled, recipient.PrivateKey, DomainSession); !errors.Is(err, cryptoerrors.ErrInvalidPublicKey) {
		t.Fatalf("zero ephemeral key: expected ErrInvalidPublicKey, got %v", err)
	}
}

func TestEphemeralKeysAreFresh(t *testing.T) {
	box := New(nil)
	recipient := recipientPair(t)
	plaintext := []byte("same plaintext twice")

	first, err := box.EncryptToPublicKey(plaintext, recipient.PublicKey, DomainSession)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	second, err := box.EncryptToPublicKey(plaintext, recipient.PublicKey, DomainSession)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if bytes.Equal(first.EphemeralPublicKey, second.EphemeralPublicKey) {
		t.Fatal("ephemeral key reused across payloads")
	}
	if bytes.Equal(first.Ciphertext, second.Ciphertext) && len(first.Ciphertext) > 0 {
		t.Fatal("identical ciphertext for independent encryptions")
	}
}

func TestCombinedParseRoundTrip(t *testing.T) {
	box := New(nil)
	recipient := recipientPair(t)
	plaintext := []byte("wire format round trip")

	payload, err := box.EncryptToPublicKey(plaintext, recipient.PublicKey, DomainVaultTransaction)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	parsed, err := ParsePayload(payload.Combined())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got, err := box.Decrypt(parsed, recipient.PrivateKey, DomainVaultTransaction)
	if err != nil {
		t.Fatalf("decrypt parsed payload: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatal("parsed payload decrypted to different plaintext")
	}

	if _, err := ParsePayload(make([]byte, keys.KeySize+aead.NonceSize+aead.TagSize-1)); !errors.Is(err, cryptoerrors.ErrInvalidPayload) {
		t.Fatalf("short buffer: expected ErrInvalidPayload, got %v", err)
	}
}

func TestDecryptLegacyNoncePayload(t *testing.T) {
	box := New(nil)
	recipient := recipientPair(t)
	plaintext := []byte("sealed by an older sender")

	// A legacy sender sealed with the 12-byte-nonce cipher over the same
	// key schedule.
	eph, err := keys.GenerateAgreementKeyPair()
	if err != nil {
		t.Fatalf("ephemeral pair: %v", err)
	}
	key, err := deriveKey(eph.PrivateKey, recipient.PublicKey, DomainVaultTransaction)
	if err != nil {
		t.Fatalf("derive key: %v", err)
	}
	nonce, err := keys.RandomBytes(aead.LegacyNonceSize)
	if err != nil {
		t.Fatalf("nonce: %v", err)
	}
	legacy, err := chacha20poly1305.New(key)
	if err != nil {
		t.Fatalf("legacy cipher: %v", err)
	}
	combinedCT := legacy.Seal(nil, nonce, plaintext, nil)
	ciphertext, tag, err := aead.SplitTag(combinedCT)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	payload := &EncryptedPayload{
		EphemeralPublicKey: eph.PublicKey,
		Nonce:              nonce,
		Ciphertext:         ciphertext,
		Tag:                tag,
	}

	got, err := box.Decrypt(payload, recipient.PrivateKey, DomainVaultTransaction)
	if err != nil {
		t.Fatalf("decrypt legacy payload: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatal("legacy payload decrypted to different plaintext")
	}

	reparsed, err := ParseLegacyPayload(payload.Combined())
	if err != nil {
		t.Fatalf("parse legacy: %v", err)
	}
	if len(reparsed.Nonce) != aead.LegacyNonceSize {
		t.Fatalf("legacy parse nonce length %d", len(reparsed.Nonce))
	}
}

func TestBoxWorksWithDerivedEngine(t *testing.T) {
	recipient := recipientPair(t)
	plaintext := []byte("engine interchange")

	sealed, err := New(aead.NewDerivedCipher()).EncryptToPublicKey(plaintext, recipient.PublicKey, DomainSession)
	if err != nil {
		t.Fatalf("encrypt with derived engine: %v", err)
	}
	got, err := New(nil).Decrypt(sealed, recipient.PrivateKey, DomainSession)
	if err != nil {
		t.Fatalf("decrypt with native engine: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatal("engines disagree on payload bytes")
	}
}

func TestSharedSecretMatchesBothDirections(t *testing.T) {
	a := recipientPair(t)
	b := recipientPair(t)
	ab, err := curve25519.X25519(a.PrivateKey, b.PublicKey)
	if err != nil {
		t.Fatalf("a->b: %v", err)
	}
	ba, err := curve25519.X25519(b.PrivateKey, a.PublicKey)
	if err != nil {
		t.Fatalf("b->a: %v", err)
	}
	if !bytes.Equal(ab, ba) {
		t.Fatal("X25519 agreement mismatch")
	}
}

func TestEmptyPlaintextRoundTrip(t *testing.T) {
	box := New(nil)
	recipient := recipientPair(t)
	payload, err := box.EncryptToPublicKey(nil, recipient.PublicKey, DomainSession)
	if err != nil {
		t.Fatalf("encrypt empty: %v", err)
	}
	if len(payload.Ciphertext) != 0 {
		t.Fatalf("empty plaintext produced %d ciphertext bytes", len(payload.Ciphertext))
	}
	got, err := box.Decrypt(payload, recipient.PrivateKey, DomainSession)
	if err != nil {
		t.Fatalf("decrypt empty: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty plaintext, got %d bytes", len(got))
	}
}
