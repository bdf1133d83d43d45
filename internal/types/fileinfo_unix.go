//go:build unix

package types

import (
	"os"
	"syscall"
)

// NewFileInfo creates FileInfo from os.FileInfo and path.
func NewFileInfo(path string, info os.FileInfo) *FileInfo {
	fi := &FileInfo{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		fi.Dev = uint64(stat.Dev) //nolint:unconvert // platform-dependent type
		fi.Ino = stat.Ino
	}
	return fi
}
