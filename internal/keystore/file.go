package keystore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"vettid/mobile-core/internal/connection"
	"vettid/mobile-core/internal/cryptoerrors"
	"vettid/mobile-core/internal/keys"
)

// FileStore keeps connection keys in one encrypted file. The envelope key is
// derived from the passphrase once at open with the parameters recorded in
// the file; every save seals the whole map with a fresh nonce and replaces
// the file atomically.
type FileStore struct {
	mu     sync.Mutex
	path   string
	key    []byte
	salt   []byte
	params kdfParams
	cache  map[string][]byte
}

var _ connection.KeyStore = (*FileStore)(nil)

// OpenFile loads the store at path, creating a fresh one when the file does
// not exist. A wrong passphrase on an existing file surfaces as an
// authentication failure.
func OpenFile(path string, passphrase []byte) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("empty store path: %w", cryptoerrors.ErrInvalidInput)
	}
	if len(passphrase) == 0 {
		return nil, fmt.Errorf("empty passphrase: %w", cryptoerrors.ErrInvalidInput)
	}

	s := &FileStore{path: path, cache: make(map[string][]byte)}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		salt, err := keys.RandomBytes(envelopeSaltSize)
		if err != nil {
			return nil, err
		}
		s.salt = salt
		s.params = defaultKDFParams
		s.key = deriveEnvelopeKey(passphrase, salt, s.params)
	case err != nil:
		return nil, fmt.Errorf("read key store: %w", err)
	default:
		env, err := parseEnvelope(data)
		if err != nil {
			return nil, err
		}
		key := deriveEnvelopeKey(passphrase, env.Salt, env.params())
		plain, err := env.open(key)
		if err != nil {
			keys.Zero(key)
			return nil, err
		}
		if err := json.Unmarshal(plain, &s.cache); err != nil {
			keys.Zero(key)
			keys.Zero(plain)
			return nil, fmt.Errorf("decode key map: %w", cryptoerrors.ErrInvalidPayload)
		}
		keys.Zero(plain)
		s.key = key
		s.salt = append([]byte(nil), env.Salt...)
		s.params = env.params()
	}
	return s, nil
}

func (s *FileStore) Put(connectionID string, key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.cache[connectionID]; ok {
		keys.Zero(old)
	}
	s.cache[connectionID] = append([]byte(nil), key...)
	return s.persistLocked()
}

func (s *FileStore) Get(connectionID string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.cache[connectionID]
	if !ok {
		return nil, cryptoerrors.ErrKeyNotFound
	}
	return append([]byte(nil), key...), nil
}

func (s *FileStore) Delete(connectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.cache[connectionID]
	if !ok {
		return nil
	}
	keys.Zero(key)
	delete(s.cache, connectionID)
	return s.persistLocked()
}

// Close wipes the cached envelope key and every cached connection key. The
// store is unusable afterwards.
func (s *FileStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys.Zero(s.key)
	s.key = nil
	for id, key := range s.cache {
		keys.Zero(key)
		delete(s.cache, id)
	}
}

func (s *FileStore) persistLocked() error {
	if s.key == nil {
		return fmt.Errorf("store closed: %w", cryptoerrors.ErrInvalidInput)
	}
	plain, err := json.Marshal(s.cache)
	if err != nil {
		return fmt.Errorf("encode key map: %w", err)
	}
	sealed, err := sealEnvelope(s.key, s.salt, s.params, plain)
	keys.Zero(plain)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, sealed, 0o600); err != nil {
		return fmt.Errorf("write key store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace key store: %w", err)
	}
	return nil
}
