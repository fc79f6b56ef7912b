// Package keystore provides the connection.KeyStore implementations the app
// can inject: a process-local map and an encrypted file. The crypto core
// itself never touches storage directly.
package keystore

import (
	"sync"

	"vettid/mobile-core/internal/connection"
	"vettid/mobile-core/internal/cryptoerrors"
	"vettid/mobile-core/internal/keys"
)

// Memory keeps connection keys in process memory. Keys are copied on the way
// in and out and wiped on delete.
type Memory struct {
	mu   sync.RWMutex
	keys map[string][]byte
}

var _ connection.KeyStore = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{keys: make(map[string][]byte)}
}

func (m *Memory) Put(connectionID string, key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.keys[connectionID]; ok {
		keys.Zero(old)
	}
	m.keys[connectionID] = append([]byte(nil), key...)
	return nil
}

func (m *Memory) Get(connectionID string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	key, ok := m.keys[connectionID]
	if !ok {
		return nil, cryptoerrors.ErrKeyNotFound
	}
	return append([]byte(nil), key...), nil
}

func (m *Memory) Delete(connectionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if key, ok := m.keys[connectionID]; ok {
		keys.Zero(key)
		delete(m.keys, connectionID)
	}
	return nil
}

// Wipe clears every stored key.
func (m *Memory) Wipe() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, key := range m.keys {
		keys.Zero(key)
		delete(m.keys, id)
	}
}
