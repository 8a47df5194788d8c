package storage

import (
	"encoding/json"
	"sync"

	"github.com/cuemby/ksm/pkg/crypto"
	"github.com/cuemby/ksm/pkg/kerr"
)

const component = "storage"

// MemoryStore keeps the configuration map in RAM. Safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[ConfigKey]string
}

// NewMemoryStore creates an empty in-memory configuration store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[ConfigKey]string)}
}

// NewMemoryStoreFromConfig creates an in-memory store from either a JSON
// object or a base64-encoded JSON object. Base64 is detected by attempting
// decode-then-parse; when that fails the input is parsed as plain JSON.
func NewMemoryStoreFromConfig(config string) (*MemoryStore, error) {
	if config == "" {
		return NewMemoryStore(), nil
	}

	raw := []byte(config)
	if decoded, err := crypto.Base64ToBytes(config); err == nil {
		var probe map[string]string
		if json.Unmarshal(decoded, &probe) == nil {
			raw = decoded
		}
	}

	values, err := parseConfigJSON(raw)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{values: values}, nil
}

func parseConfigJSON(raw []byte) (map[ConfigKey]string, error) {
	var parsed map[string]string
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, kerr.Wrap(kerr.KindConfig, component, err, "failed to parse configuration JSON")
	}
	values := make(map[ConfigKey]string, len(parsed))
	for k, v := range parsed {
		key := ConfigKey(k)
		if !IsKnownKey(key) {
			return nil, kerr.New(kerr.KindConfig, component, "unknown configuration key %q", k)
		}
		values[key] = v
	}
	return values, nil
}

func (m *MemoryStore) Get(key ConfigKey) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[key]
}

func (m *MemoryStore) Set(key ConfigKey, value string) error {
	if !IsKnownKey(key) {
		return kerr.New(kerr.KindConfig, component, "unknown configuration key %q", key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Delete(key ConfigKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *MemoryStore) DeleteAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = make(map[ConfigKey]string)
	return nil
}

func (m *MemoryStore) Contains(key ConfigKey) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[key] != ""
}

func (m *MemoryStore) IsEmpty() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values) == 0
}

func (m *MemoryStore) ReadAll() map[ConfigKey]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[ConfigKey]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

func (m *MemoryStore) SaveAll(values map[ConfigKey]string) error {
	for k := range values {
		if !IsKnownKey(k) {
			return kerr.New(kerr.KindConfig, component, "unknown configuration key %q", k)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = make(map[ConfigKey]string, len(values))
	for k, v := range values {
		m.values[k] = v
	}
	return nil
}
