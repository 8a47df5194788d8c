package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cuemby/ksm/pkg/kerr"
	"github.com/cuemby/ksm/pkg/log"
)

const (
	// DefaultConfigFile is the config file name used when none is given
	DefaultConfigFile = "client-config.json"

	// EnvSkipMode disables permission hardening when set to TRUE
	EnvSkipMode = "KSM_CONFIG_SKIP_MODE"

	// EnvSkipModeWarning silences the loose-permission warning when set
	EnvSkipModeWarning = "KSM_CONFIG_SKIP_MODE_WARNING"
)

// fileLocks serializes saves per absolute path. Two stores pointing at
// the same file from one process share the same mutex; cross-process
// coordination is out of scope.
var (
	fileLocksMu sync.Mutex
	fileLocks   = make(map[string]*sync.Mutex)
)

func lockForPath(path string) *sync.Mutex {
	fileLocksMu.Lock()
	defer fileLocksMu.Unlock()
	if mu, ok := fileLocks[path]; ok {
		return mu
	}
	mu := &sync.Mutex{}
	fileLocks[path] = mu
	return mu
}

func skipModeEnabled() bool {
	return strings.EqualFold(os.Getenv(EnvSkipMode), "TRUE")
}

func skipModeWarningEnabled() bool {
	return strings.EqualFold(os.Getenv(EnvSkipModeWarning), "TRUE")
}

// FileStore persists the configuration map to a single JSON file. Every
// mutation flushes synchronously under a process-local per-path mutex.
type FileStore struct {
	path string
	mu   *sync.Mutex
}

// NewFileStore opens (or creates) the configuration file at path. A
// missing file is created atomically as an empty JSON object with
// owner-only permissions on POSIX systems.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		path = DefaultConfigFile
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, kerr.Wrap(kerr.KindConfig, component, err, "failed to resolve config path")
	}

	fs := &FileStore{path: abs, mu: lockForPath(abs)}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if _, err := os.Stat(abs); os.IsNotExist(err) {
		if err := fs.writeLocked(map[ConfigKey]string{}); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, kerr.Wrap(kerr.KindConfig, component, err, "failed to stat config file")
	} else {
		checkPermissions(abs)
		// validate on open so a corrupt file fails fast
		if _, err := fs.readLocked(); err != nil {
			return nil, err
		}
	}
	return fs, nil
}

// Path returns the absolute path of the backing file
func (f *FileStore) Path() string {
	return f.path
}

// writeLocked atomically replaces the file contents. Caller holds f.mu.
func (f *FileStore) writeLocked(values map[ConfigKey]string) error {
	data, err := json.MarshalIndent(values, "", "    ")
	if err != nil {
		return kerr.Wrap(kerr.KindSerialization, component, err, "failed to marshal configuration")
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".ksm-config-*")
	if err != nil {
		return kerr.Wrap(kerr.KindConfig, component, err, "failed to create temp config file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return kerr.Wrap(kerr.KindConfig, component, err, "failed to write config file")
	}
	if err := tmp.Close(); err != nil {
		return kerr.Wrap(kerr.KindConfig, component, err, "failed to close config file")
	}
	if !skipModeEnabled() {
		if err := hardenPermissions(tmpName); err != nil {
			return err
		}
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return kerr.Wrap(kerr.KindConfig, component, err, "failed to replace config file")
	}
	return nil
}

// readLocked loads and validates the file contents. Caller holds f.mu.
func (f *FileStore) readLocked() (map[ConfigKey]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, kerr.Wrap(kerr.KindConfig, component, err, "failed to read config file")
	}
	if len(data) == 0 {
		return map[ConfigKey]string{}, nil
	}
	return parseConfigJSON(data)
}

func (f *FileStore) Get(key ConfigKey) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.readLocked()
	if err != nil {
		logger := log.WithComponent(component)
		logger.Error().Err(err).Msg("failed to read config file")
		return ""
	}
	return values[key]
}

func (f *FileStore) Set(key ConfigKey, value string) error {
	if !IsKnownKey(key) {
		return kerr.New(kerr.KindConfig, component, "unknown configuration key %q", key)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.readLocked()
	if err != nil {
		return err
	}
	values[key] = value
	return f.writeLocked(values)
}

func (f *FileStore) Delete(key ConfigKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.readLocked()
	if err != nil {
		return err
	}
	delete(values, key)
	return f.writeLocked(values)
}

func (f *FileStore) DeleteAll() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writeLocked(map[ConfigKey]string{})
}

func (f *FileStore) Contains(key ConfigKey) bool {
	return f.Get(key) != ""
}

func (f *FileStore) IsEmpty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.readLocked()
	if err != nil {
		return true
	}
	return len(values) == 0
}

func (f *FileStore) ReadAll() map[ConfigKey]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.readLocked()
	if err != nil {
		logger := log.WithComponent(component)
		logger.Error().Err(err).Msg("failed to read config file")
		return map[ConfigKey]string{}
	}
	return values
}

func (f *FileStore) SaveAll(values map[ConfigKey]string) error {
	for k := range values {
		if !IsKnownKey(k) {
			return kerr.New(kerr.KindConfig, component, "unknown configuration key %q", k)
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writeLocked(values)
}
