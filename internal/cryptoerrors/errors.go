// Package cryptoerrors defines the error kinds shared across the crypto
// packages. Every failure belongs to exactly one kind: ErrInvalidInput for
// arguments rejected before any primitive runs, ErrAuthenticationFailed for
// data that fails an integrity or authenticity check, ErrPrimitiveFailure for
// an underlying primitive or the entropy source misbehaving. Specific
// sentinels unwrap to their kind, so callers can match either level with
// errors.Is. None of the messages carry user-facing text or key material.
package cryptoerrors

import "errors"

// Kinds.
var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrPrimitiveFailure     = errors.New("crypto primitive failure")
)

// Specific failures, each tied to one kind.
var (
	ErrInvalidPublicKey  = New(ErrInvalidInput, "invalid public key")
	ErrInvalidPrivateKey = New(ErrInvalidInput, "invalid private key")
	ErrInvalidKeySize    = New(ErrInvalidInput, "invalid key size")
	ErrInvalidNonceSize  = New(ErrInvalidInput, "invalid nonce size")
	ErrInvalidSalt       = New(ErrInvalidInput, "invalid salt")
	ErrInvalidPayload    = New(ErrInvalidInput, "malformed encrypted payload")
	ErrInvalidPhrase     = New(ErrInvalidInput, "invalid recovery phrase")
	ErrUnsupportedHash   = New(ErrInvalidInput, "unsupported hash format")
	ErrKeyNotFound       = New(ErrInvalidInput, "key not found")

	ErrDecryptionFailed = New(ErrAuthenticationFailed, "decryption failed")
	ErrSignatureInvalid = New(ErrAuthenticationFailed, "signature verification failed")
	ErrChecksumMismatch = New(ErrAuthenticationFailed, "checksum mismatch")

	ErrHashingFailed  = New(ErrPrimitiveFailure, "hashing failed")
	ErrEntropyFailure = New(ErrPrimitiveFailure, "entropy source failure")
)

// Error pairs a specific failure with its kind.
type Error struct {
	kind error
	msg  string
}

// New returns an error whose errors.Is chain includes kind.
func New(kind error, msg string) error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

// Unwrap exposes the kind, so errors.Is(err, kind) holds for wrapped values.
func (e *Error) Unwrap() error { return e.kind }
