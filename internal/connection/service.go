package connection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"vettid/mobile-core/internal/aead"
	"vettid/mobile-core/internal/keys"
	"vettid/mobile-core/internal/platform/metrics"
	"vettid/mobile-core/internal/platform/privacylog"
	"vettid/mobile-core/pkg/models"
)

// Revoker tells the remote side that a connection's key material is
// withdrawn. Implementations belong to the transport layer.
type Revoker interface {
	RevokeConnection(ctx context.Context, connectionID string) error
}

// ServiceConfig wires the service's collaborators. Store is required; the
// rest default to the native engine, slog.Default and no-ops.
type ServiceConfig struct {
	Store   KeyStore
	Cipher  aead.Cipher
	Revoker Revoker
	Logger  *slog.Logger
	Metrics *metrics.Recorder
}

// Service manages connection keys through the injected store. It holds no
// key material of its own; every operation fetches from the store and wipes
// its working copy.
type Service struct {
	store   KeyStore
	cipher  aead.Cipher
	revoker Revoker
	log     *slog.Logger
	metrics *metrics.Recorder
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("connection: key store is required")
	}
	if cfg.Cipher == nil {
		cfg.Cipher = aead.NewCipher()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	// All service logging passes through the sanitizer; connection ids are
	// fingerprinted and anything secret-shaped is dropped.
	logger := slog.New(privacylog.WrapHandler(cfg.Logger.Handler()))
	return &Service{
		store:   cfg.Store,
		cipher:  cfg.Cipher,
		revoker: cfg.Revoker,
		log:     logger,
		metrics: cfg.Metrics,
	}, nil
}

// Establish derives the connection key from our private key and the peer's
// public key, persists it under connectionID and returns the record for the
// calling layer to store. Re-establishing an existing id overwrites the key.
func (s *Service) Establish(connectionID string, privateKey, peerPublicKey []byte) (models.Connection, error) {
	start := time.Now()
	conn, err := s.establish(connectionID, privateKey, peerPublicKey)
	s.metrics.Observe("connection_establish", start, err)
	return conn, err
}

func (s *Service) establish(connectionID string, privateKey, peerPublicKey []byte) (models.Connection, error) {
	secret, err := DeriveSharedSecret(privateKey, peerPublicKey)
	if err != nil {
		return models.Connection{}, err
	}
	defer keys.Zero(secret)

	key, err := DeriveConnectionKey(secret, connectionID)
	if err != nil {
		return models.Connection{}, err
	}
	defer keys.Zero(key)

	if err := s.store.Put(connectionID, key); err != nil {
		return models.Connection{}, fmt.Errorf("store connection key: %w", err)
	}
	s.log.Info("connection established", "connection_id", connectionID)
	return models.Connection{
		ID:              connectionID,
		PeerFingerprint: keys.Fingerprint(peerPublicKey),
		CreatedAt:       time.Now().UTC(),
	}, nil
}

// EncryptForConnection seals plaintext under the stored key for
// connectionID. The returned ciphertext carries the tag; the nonce travels
// alongside it.
func (s *Service) EncryptForConnection(connectionID string, plaintext []byte) (nonce, ciphertext []byte, err error) {
	start := time.Now()
	defer func() { s.metrics.Observe("connection_encrypt", start, err) }()

	key, err := s.store.Get(connectionID)
	if err != nil {
		return nil, nil, err
	}
	defer keys.Zero(key)
	ciphertext, nonce, err = s.cipher.Seal(plaintext, key)
	if err != nil {
		return nil, nil, err
	}
	return nonce, ciphertext, nil
}

// DecryptFromConnection opens a message sealed by the peer on connectionID.
func (s *Service) DecryptFromConnection(connectionID string, nonce, ciphertext []byte) (plaintext []byte, err error) {
	start := time.Now()
	defer func() { s.metrics.Observe("connection_decrypt", start, err) }()

	key, err := s.store.Get(connectionID)
	if err != nil {
		return nil, err
	}
	defer keys.Zero(key)
	return s.cipher.Open(ciphertext, key, nonce)
}

// Revoke withdraws a connection. The remote revoker is best effort: its
// failure is reported but never blocks deleting the local key.
func (s *Service) Revoke(ctx context.Context, connectionID string) error {
	start := time.Now()
	var remoteErr error
	if s.revoker != nil {
		if err := s.revoker.RevokeConnection(ctx, connectionID); err != nil {
			remoteErr = fmt.Errorf("remote revoke: %w", err)
			s.log.Warn("remote revoke failed, deleting local key anyway",
				"connection_id", connectionID, "error", err.Error())
		}
	}
	if err := s.store.Delete(connectionID); err != nil {
		err = errors.Join(remoteErr, fmt.Errorf("delete connection key: %w", err))
		s.metrics.Observe("connection_revoke", start, err)
		return err
	}
	s.log.Info("connection revoked", "connection_id", connectionID)
	s.metrics.Observe("connection_revoke", start, remoteErr)
	return remoteErr
}
