package storage

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/cuemby/ksm/pkg/kerr"
)

// DefaultCacheFile is the offline cache file name used when none is given
const DefaultCacheFile = "ksm-cache.bin"

// CacheStorage holds the last successful get_secret response for offline
// replay. The stored value is transmission_key || ciphertext, so whoever
// can read the cache can decrypt it; it gets the same permissions as the
// config file.
type CacheStorage interface {
	// SaveCachedValue replaces the cached response
	SaveCachedValue(data []byte) error

	// GetCachedValue returns the cached response, or an error when none
	// has been stored
	GetCachedValue() ([]byte, error)

	// Purge removes the cached response
	Purge() error
}

// FileCache stores the cached response in a single file
type FileCache struct {
	path string
	mu   *sync.Mutex
}

// NewFileCache creates a file-backed cache at path (DefaultCacheFile when
// empty)
func NewFileCache(path string) (*FileCache, error) {
	if path == "" {
		path = DefaultCacheFile
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, kerr.Wrap(kerr.KindConfig, component, err, "failed to resolve cache path")
	}
	return &FileCache{path: abs, mu: lockForPath(abs)}, nil
}

func (c *FileCache) SaveCachedValue(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if data == nil {
		data = []byte{}
	}
	tmp, err := os.CreateTemp(filepath.Dir(c.path), ".ksm-cache-*")
	if err != nil {
		return kerr.Wrap(kerr.KindConfig, component, err, "failed to create temp cache file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return kerr.Wrap(kerr.KindConfig, component, err, "failed to write cache file")
	}
	if err := tmp.Close(); err != nil {
		return kerr.Wrap(kerr.KindConfig, component, err, "failed to close cache file")
	}
	if !skipModeEnabled() {
		if err := hardenPermissions(tmpName); err != nil {
			return err
		}
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		return kerr.Wrap(kerr.KindConfig, component, err, "failed to replace cache file")
	}
	return nil
}

func (c *FileCache) GetCachedValue() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, kerr.Wrap(kerr.KindConfig, component, err, "no cached response available")
	}
	return data, nil
}

func (c *FileCache) Purge() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return kerr.Wrap(kerr.KindConfig, component, err, "failed to remove cache file")
	}
	return nil
}
