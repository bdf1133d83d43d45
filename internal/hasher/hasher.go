// Package hasher computes content fingerprints for files.
//
// A fingerprint is the BLAKE3-256 digest of the full file content, rendered as
// lowercase hex. The file is streamed through a fresh accumulator in fixed
// BlockSize reads, so memory use is bounded regardless of file size.
package hasher

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"

	"github.com/ivoronin/dupecopy/internal/cache"
	"github.com/ivoronin/dupecopy/internal/types"
)

// BlockSize is the read buffer size used while hashing (4MB).
const BlockSize = 4 << 20

// HashFile computes the fingerprint of the file at path.
// Errors are wrapped with the path and the failing step (open or read).
func HashFile(path string) (types.Fingerprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	return hashReader(path, f)
}

func hashReader(path string, r io.Reader) (types.Fingerprint, error) {
	h := blake3.New()
	buf := make([]byte, BlockSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return types.Fingerprint(hex.EncodeToString(h.Sum(nil))), nil
}

// Hasher fingerprints files, consulting an optional persistent cache first.
type Hasher struct {
	cache *cache.Cache
}

// New creates a Hasher. Pass nil (or a disabled cache) to always read files.
func New(c *cache.Cache) *Hasher {
	return &Hasher{cache: c}
}

// Hash returns the fingerprint of the file at path.
//
// With a cache enabled, the file is stat'ed first and a cache hit on
// (path, size, inode, mtime) skips reading the content entirely.
// Cache read failures fall back to hashing.
func (h *Hasher) Hash(path string) (types.Fingerprint, error) {
	if !h.cache.Enabled() {
		return HashFile(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	fi := types.NewFileInfo(path, info)

	if fp, err := h.cache.Lookup(fi); err == nil && fp != "" {
		return fp, nil
	}

	fp, err := hashReader(path, f)
	if err != nil {
		return "", err
	}
	_ = h.cache.Store(fi, fp)
	return fp, nil
}
