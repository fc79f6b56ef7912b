// Package models holds the records the crypto layer hands to calling
// layers. Persistence of these records lives outside this module.
package models

import "time"

// Identity is the local signing identity. The ID is the vett1 fingerprint
// of the signing public key; the private seed never leaves the key layer.
type Identity struct {
	ID               string    `json:"id"`
	SigningPublicKey []byte    `json:"signing_public_key"`
	CreatedAt        time.Time `json:"created_at"`
}

// Connection describes an established relationship. The symmetric key
// behind it stays in the injected key store and is never part of the record.
type Connection struct {
	ID              string    `json:"id"`
	PeerFingerprint string    `json:"peer_fingerprint"`
	CreatedAt       time.Time `json:"created_at"`
}
