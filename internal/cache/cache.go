// Package cache is a boltdb-backed store for resolver run results, keyed by
// the digest.HashInputs of the run that produced them, grounded on the
// teacher's source_cache_bolt.go (same open/bucket/get/put shape, applied
// here to whole resolution outputs instead of per-source metadata). A
// go-flock file lock guards the on-disk bolt file against concurrent
// resolver processes, since bolt itself only protects against concurrent
// opens from the same process.
package cache

import (
	"os"
	"path/filepath"
	"time"

	"github.com/boltdb/bolt"
	flock "github.com/theckman/go-flock"
	"github.com/pkg/errors"
)

var resultsBucket = []byte("results")

// Cache wraps a bolt.DB file plus the flock guarding exclusive access to it.
type Cache struct {
	db   *bolt.DB
	lock *flock.Flock
	path string
}

// Open opens (creating if necessary) a Cache rooted at dir, taking an
// exclusive flock on dir/cache.lock for the lifetime of the Cache.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating cache dir %s", dir)
	}

	lock := flock.NewFlock(filepath.Join(dir, "cache.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, errors.Wrap(err, "acquiring cache lock")
	}
	if !locked {
		return nil, errors.New("cache is locked by another process")
	}

	path := filepath.Join(dir, "resolve-cache.db")
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		lock.Unlock()
		return nil, errors.Wrapf(err, "opening bolt cache %s", path)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(resultsBucket)
		return err
	}); err != nil {
		db.Close()
		lock.Unlock()
		return nil, errors.Wrap(err, "initializing results bucket")
	}

	return &Cache{db: db, lock: lock, path: path}, nil
}

// Close releases the bolt file and the flock.
func (c *Cache) Close() error {
	err := c.db.Close()
	if unlockErr := c.lock.Unlock(); unlockErr != nil && err == nil {
		err = unlockErr
	}
	return err
}

// Get returns the cached bytes for digest, and whether an entry existed.
func (c *Cache) Get(digest string) ([]byte, bool, error) {
	var out []byte
	err := c.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(resultsBucket).Get([]byte(digest))
		if v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	return out, out != nil, err
}

// Put stores data under digest, overwriting any existing entry.
func (c *Cache) Put(digest string, data []byte) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(resultsBucket).Put([]byte(digest), data)
	})
}
