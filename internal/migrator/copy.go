package migrator

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ivoronin/dupecopy/internal/hasher"
	"github.com/ivoronin/dupecopy/internal/types"
)

// ErrDestinationExists is returned when the copy target is already taken.
var ErrDestinationExists = errors.New("destination already exists")

// CopyFile copies the bytes of src to dst and returns the number of bytes written.
//
// The data is staged in a uniquely named hidden file next to dst, synced,
// given the source's permission bits and modification time, then renamed into
// place, so dst never exists in a partially written state. The staging file is
// created exclusively; no existing file, dst included, is ever replaced.
func CopyFile(src, dst string) (int64, error) {
	if _, err := os.Lstat(dst); err == nil {
		return 0, fmt.Errorf("%s: %w", dst, ErrDestinationExists)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return 0, err
	}

	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return 0, err
	}

	out, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*"+types.StagingSuffix)
	if err != nil {
		return 0, err
	}
	tmp := out.Name()

	n, err := io.CopyBuffer(out, in, make([]byte, hasher.BlockSize))
	if err == nil {
		err = out.Sync()
	}
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(tmp, info.Mode().Perm())
	}
	if err == nil {
		err = os.Chtimes(tmp, info.ModTime(), info.ModTime())
	}
	if err == nil {
		err = os.Rename(tmp, dst)
	}
	if err != nil {
		_ = os.Remove(tmp) // cleanup on failure
		return n, err
	}
	return n, nil
}
