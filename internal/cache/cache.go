// Package cache provides a persistent file-based cache of content fingerprints.
package cache

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/ivoronin/dupecopy/internal/types"
)

const (
	bucketName = "fingerprints"
	digestSize = 32
)

// Cache provides persistent caching of file fingerprints using BoltDB.
// Implements self-cleaning: each run creates a new database, only used entries survive.
type Cache struct {
	readDB  *bolt.DB // Existing cache (read-only)
	writeDB *bolt.DB // New cache (write) - BoltDB locks this file
	path    string   // Final path (for atomic swap)
	enabled bool
}

// Open opens existing cache for reading and creates new cache for writing.
// BoltDB's built-in file locking on .new file prevents concurrent instances.
// Returns disabled cache if path is empty.
func Open(path string) (*Cache, error) {
	if path == "" {
		return &Cache{enabled: false}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	c := &Cache{path: path, enabled: true}
	var err error

	if _, statErr := os.Stat(path); statErr == nil {
		c.readDB, err = bolt.Open(path, 0o600, &bolt.Options{
			ReadOnly: true,
			Timeout:  1 * time.Second,
		})
		if err != nil {
			// Can't open existing - continue without read cache
			c.readDB = nil
		}
	}

	newPath := path + ".new"
	c.writeDB, err = bolt.Open(newPath, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("create new cache (locked by another instance?): %w", err)
	}

	if err := c.writeDB.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	}); err != nil {
		_ = c.Close()
		return nil, err
	}

	return c, nil
}

// Enabled reports whether the cache is backed by a file.
func (c *Cache) Enabled() bool { return c != nil && c.enabled }

// Close closes both databases and atomically replaces old with new.
// Only replaces if write database closed successfully to avoid data loss.
func (c *Cache) Close() error {
	var errs []error
	if c.readDB != nil {
		if err := c.readDB.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.writeDB != nil {
		if err := c.writeDB.Close(); err != nil {
			errs = append(errs, err)
		} else if err := os.Rename(c.path+".new", c.path); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

const keyVersion byte = 2 // Increment when key format changes

// makeKey builds deterministic byte key for BoltDB lookup.
// Key = ver(1) + path + NUL + fileSize(8) + ino(8) + mtime(8)
func makeKey(fi *types.FileInfo) []byte {
	buf := new(bytes.Buffer)
	buf.WriteByte(keyVersion)
	buf.WriteString(fi.Path)
	buf.WriteByte(0)
	_ = binary.Write(buf, binary.BigEndian, fi.Size)
	_ = binary.Write(buf, binary.BigEndian, fi.Ino)
	_ = binary.Write(buf, binary.BigEndian, fi.ModTime.UnixNano())
	return buf.Bytes()
}

// Lookup retrieves a cached fingerprint.
// Key = (path, fileSize, ino, mtime) - any change = cache miss.
// On HIT: copies entry to writeDB (self-cleaning).
// Returns ("", nil) if not found, ("", err) on read error.
func (c *Cache) Lookup(fi *types.FileInfo) (types.Fingerprint, error) {
	if !c.Enabled() || c.readDB == nil {
		return "", nil
	}

	var digest []byte
	err := c.readDB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return nil
		}
		data := b.Get(makeKey(fi))
		if len(data) == digestSize {
			digest = make([]byte, digestSize)
			copy(digest, data)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("cache lookup: %w", err)
	}

	if digest == nil {
		return "", nil
	}

	fp := types.Fingerprint(hex.EncodeToString(digest))
	_ = c.Store(fi, fp)

	return fp, nil
}

// Store saves a fingerprint to the new database.
// Fingerprints that do not decode to a full digest are ignored.
func (c *Cache) Store(fi *types.FileInfo, fp types.Fingerprint) error {
	if !c.Enabled() || c.writeDB == nil {
		return nil
	}
	digest, err := hex.DecodeString(string(fp))
	if err != nil || len(digest) != digestSize {
		return nil
	}

	err = c.writeDB.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		return b.Put(makeKey(fi), digest)
	})
	if err != nil {
		return fmt.Errorf("cache store: %w", err)
	}
	return nil
}
