package storage

// ConfigKey names one of the well-known client configuration keys
type ConfigKey string

const (
	KeyHostname          ConfigKey = "hostname"
	KeyClientID          ConfigKey = "clientId"
	KeyClientKey         ConfigKey = "clientKey"
	KeyAppKey            ConfigKey = "appKey"
	KeyPrivateKey        ConfigKey = "privateKey"
	KeyServerPublicKeyID ConfigKey = "serverPublicKeyId"
	KeyOwnerPublicKey    ConfigKey = "appOwnerPublicKey"
	KeyBindingToken      ConfigKey = "bat"
	KeyBindingKey        ConfigKey = "bindingKey"
)

// knownKeys is the full set of keys a configuration may hold. A persisted
// configuration containing anything else fails to load.
var knownKeys = map[ConfigKey]bool{
	KeyHostname:          true,
	KeyClientID:          true,
	KeyClientKey:         true,
	KeyAppKey:            true,
	KeyPrivateKey:        true,
	KeyServerPublicKeyID: true,
	KeyOwnerPublicKey:    true,
	KeyBindingToken:      true,
	KeyBindingKey:        true,
}

// IsKnownKey reports whether key is one of the nine configuration keys
func IsKnownKey(key ConfigKey) bool {
	return knownKeys[key]
}

// Store defines the interface for client configuration storage.
// Implemented by MemoryStore and FileStore.
type Store interface {
	// Get returns the value for key, or "" when absent
	Get(key ConfigKey) string

	// Set stores value under key, persisting synchronously
	Set(key ConfigKey, value string) error

	// Delete removes key, persisting synchronously
	Delete(key ConfigKey) error

	// DeleteAll removes every key
	DeleteAll() error

	// Contains reports whether key is present with a non-empty value
	Contains(key ConfigKey) bool

	// IsEmpty reports whether the store holds no keys
	IsEmpty() bool

	// ReadAll returns a copy of the full key map
	ReadAll() map[ConfigKey]string

	// SaveAll replaces the full key map
	SaveAll(values map[ConfigKey]string) error
}
