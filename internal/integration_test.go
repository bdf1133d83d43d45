//go:build unix

package internal

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/ivoronin/dupecopy/internal/cache"
	"github.com/ivoronin/dupecopy/internal/hasher"
	"github.com/ivoronin/dupecopy/internal/indexer"
	"github.com/ivoronin/dupecopy/internal/migrator"
	"github.com/ivoronin/dupecopy/internal/paths"
)

// =============================================================================
// Section 1: Full Pipeline Integration Tests
// =============================================================================

// TestFullPipelineUniqueContent tests that after a run every distinct content
// of the source appears exactly once at the destination, byte-identical, at
// the mirrored path of the first source file carrying it.
func TestFullPipelineUniqueContent(t *testing.T) {
	src, dst := t.TempDir(), filepath.Join(t.TempDir(), "out")

	// 5 distinct contents spread over 40 files in 4 directories.
	for i := 0; i < 40; i++ {
		dir := filepath.Join(src, fmt.Sprintf("d%d", i%4))
		writeFile(t, filepath.Join(dir, fmt.Sprintf("f%02d.jpg", i)), bytes.Repeat([]byte{byte(i % 5)}, 1000+i%5))
	}

	st := runPipeline(t, src, dst, "")
	if st.Seen != 40 || st.Copied != 5 || st.Duplicates != 35 {
		t.Fatalf("Seen/Copied/Duplicates = %d/%d/%d, want 40/5/35", st.Seen, st.Copied, st.Duplicates)
	}

	byContent := make(map[string][]string)
	walkFiles(t, dst, func(path string, data []byte) {
		byContent[string(data)] = append(byContent[string(data)], path)

		rel, _ := filepath.Rel(dst, path)
		srcData, err := os.ReadFile(filepath.Join(src, rel))
		if err != nil {
			t.Errorf("%s has no source counterpart: %v", rel, err)
		} else if !bytes.Equal(srcData, data) {
			t.Errorf("%s differs from its source", rel)
		}
	})

	if len(byContent) != 5 {
		t.Errorf("expected 5 distinct contents at destination, got %d", len(byContent))
	}
	for _, ps := range byContent {
		if len(ps) != 1 {
			t.Errorf("content copied %d times: %v", len(ps), ps)
		}
	}

	// d0 is walked first and holds f00..f36 in steps of 4: contents 0,4,3,2,1.
	for _, name := range []string{"f00.jpg", "f04.jpg", "f08.jpg", "f12.jpg", "f16.jpg"} {
		if _, err := os.Stat(filepath.Join(dst, "d0", name)); err != nil {
			t.Errorf("expected first occurrence d0/%s at destination: %v", name, err)
		}
	}
}

// TestFullPipelineIdempotentWithCache tests repeated runs with a fingerprint cache.
func TestFullPipelineIdempotentWithCache(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	cacheFile := filepath.Join(t.TempDir(), "fp.db")
	writeFile(t, filepath.Join(src, "a", "1.jpg"), []byte("one"))
	writeFile(t, filepath.Join(src, "b", "2.jpg"), []byte("two"))
	writeFile(t, filepath.Join(src, "b", "2-copy.jpg"), []byte("two"))

	first := runPipeline(t, src, dst, cacheFile)
	if first.Copied != 2 {
		t.Fatalf("first run copied %d, want 2", first.Copied)
	}

	for i := 0; i < 2; i++ {
		again := runPipeline(t, src, dst, cacheFile)
		if again.Copied != 0 || again.Duplicates != 3 {
			t.Errorf("run %d: Copied/Duplicates = %d/%d, want 0/3", i+2, again.Copied, again.Duplicates)
		}
	}
}

// TestFullPipelineGrowingSource tests that new source content added between
// runs is copied while old content is not.
func TestFullPipelineGrowingSource(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(src, "old.jpg"), []byte("old"))
	runPipeline(t, src, dst, "")

	writeFile(t, filepath.Join(src, "new", "new.jpg"), []byte("new"))
	writeFile(t, filepath.Join(src, "new", "old-again.jpg"), []byte("old"))

	st := runPipeline(t, src, dst, "")
	if st.Copied != 1 || st.Duplicates != 2 {
		t.Errorf("Copied/Duplicates = %d/%d, want 1/2", st.Copied, st.Duplicates)
	}
	if _, err := os.Stat(filepath.Join(dst, "new", "new.jpg")); err != nil {
		t.Errorf("new content not copied: %v", err)
	}
}

// =============================================================================
// Helper Functions
// =============================================================================

// runPipeline runs guard → index → migrate like the CLI does.
func runPipeline(t *testing.T, src, dst, cacheFile string) migrator.Stats {
	t.Helper()
	if err := paths.CheckOverlap(src, dst); err != nil {
		t.Fatalf("CheckOverlap: %v", err)
	}

	c, err := cache.Open(cacheFile)
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}
	defer func() { _ = c.Close() }()
	h := hasher.New(c)

	errCh := make(chan error, 100)
	idx, _ := indexer.New(dst, h, false, errCh).Run()
	st := migrator.New(migrator.Options{Source: src, Destination: dst, Index: idx, Hasher: h, ErrCh: errCh}).Run()

	close(errCh)
	for err := range errCh {
		t.Errorf("unexpected error: %v", err)
	}
	return st
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func walkFiles(t *testing.T, root string, fn func(path string, data []byte)) {
	t.Helper()
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.Type().IsRegular() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		fn(path, data)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}
