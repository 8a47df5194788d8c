package storage

import (
	"github.com/cuemby/ksm/pkg/kerr"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketCache = []byte("cache")

	keyLastResponse = []byte("last_response")
)

// BoltCache stores the cached response in a bbolt database. Useful when
// an application already keeps its state in bolt and wants the offline
// cache in the same file.
type BoltCache struct {
	db *bolt.DB
}

// NewBoltCache opens (or creates) a bbolt-backed cache at dbPath
func NewBoltCache(dbPath string) (*BoltCache, error) {
	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, kerr.Wrap(kerr.KindConfig, component, err, "failed to open cache database")
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketCache)
		return err
	})
	if err != nil {
		db.Close()
		return nil, kerr.Wrap(kerr.KindConfig, component, err, "failed to create cache bucket")
	}

	return &BoltCache{db: db}, nil
}

// Close closes the database
func (c *BoltCache) Close() error {
	return c.db.Close()
}

func (c *BoltCache) SaveCachedValue(data []byte) error {
	err := c.db.Update(func(tx *bolt.Tx) error {
		if data == nil {
			data = []byte{}
		}
		return tx.Bucket(bucketCache).Put(keyLastResponse, data)
	})
	if err != nil {
		return kerr.Wrap(kerr.KindConfig, component, err, "failed to save cached response")
	}
	return nil
}

func (c *BoltCache) GetCachedValue() ([]byte, error) {
	var out []byte
	err := c.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketCache).Get(keyLastResponse)
		if data == nil {
			return kerr.New(kerr.KindConfig, component, "no cached response available")
		}
		out = append([]byte{}, data...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BoltCache) Purge() error {
	err := c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCache).Delete(keyLastResponse)
	})
	if err != nil {
		return kerr.Wrap(kerr.KindConfig, component, err, "failed to purge cache")
	}
	return nil
}
