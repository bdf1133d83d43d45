package migrator

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivoronin/dupecopy/internal/types"
)

func TestCopyFile(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src.bin")
	dst := filepath.Join(root, "dst.bin")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o644))

	n, err := CopyFile(src, dst)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got))
	assert.Empty(t, stagingFiles(t, root))
}

func TestCopyFileKeepsStagingNamedFile(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src.bin")
	dst := filepath.Join(root, "dst.bin")
	require.NoError(t, os.WriteFile(src, []byte("short"), 0o644))
	require.NoError(t, os.WriteFile(dst+types.StagingSuffix, []byte("not ours"), 0o644))

	_, err := CopyFile(src, dst)
	require.NoError(t, err)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "short", string(got))

	kept, err := os.ReadFile(dst + types.StagingSuffix)
	require.NoError(t, err)
	assert.Equal(t, "not ours", string(kept))
	assert.Empty(t, stagingFiles(t, root))
}

func TestCopyFileRefusesExisting(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src.bin")
	dst := filepath.Join(root, "dst.bin")
	require.NoError(t, os.WriteFile(src, []byte("new"), 0o644))
	require.NoError(t, os.WriteFile(dst, []byte("old"), 0o644))

	_, err := CopyFile(src, dst)
	assert.True(t, errors.Is(err, ErrDestinationExists), "got %v", err)

	got, _ := os.ReadFile(dst)
	assert.Equal(t, "old", string(got))
}

func TestCopyFileMissingSource(t *testing.T) {
	root := t.TempDir()
	dst := filepath.Join(root, "dst.bin")

	_, err := CopyFile(filepath.Join(root, "missing"), dst)
	require.Error(t, err)
	assert.NoFileExists(t, dst)
	assert.Empty(t, stagingFiles(t, root))
}

func TestCopyFileMissingParent(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src.bin")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	_, err := CopyFile(src, filepath.Join(root, "no", "such", "dir", "dst.bin"))
	assert.Error(t, err)
}

func TestResultString(t *testing.T) {
	tests := []struct {
		r    Result
		want string
	}{
		{Result{Source: "/s/a", Destination: "/d/a", Action: ActionCopied, Bytes: 2048}, "copied /s/a -> /d/a (2.0 KiB)"},
		{Result{Source: "/s/a", Destination: "/d/a", Action: ActionCopied, DryRun: true}, "would copy /s/a -> /d/a (0 B)"},
		{Result{Source: "/s/b", Destination: "/d/a", Action: ActionDuplicate}, "duplicate /s/b (same content as /d/a)"},
		{Result{Source: "/s/l", Action: ActionSymlink}, "skipped symlink /s/l"},
		{Result{Source: "/s/f", Action: ActionNonRegular}, "skipped non-regular /s/f"},
		{Result{Source: "/s/e", Action: ActionFailed, Err: errors.New("boom")}, "failed /s/e: boom"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.r.String())
	}
}

// stagingFiles lists hidden staging files left in dir.
func stagingFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, ".*"+types.StagingSuffix))
	require.NoError(t, err)
	return matches
}
