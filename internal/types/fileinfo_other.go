//go:build !unix

package types

import "os"

// NewFileInfo creates FileInfo from os.FileInfo and path.
// Device and inode are left zero where the platform does not expose them.
func NewFileInfo(path string, info os.FileInfo) *FileInfo {
	return &FileInfo{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
}
