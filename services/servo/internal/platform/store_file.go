//go:build !tinygo

package platform

import (
	"os"
	"path/filepath"
)

// FileStore keeps the block in a file, replaced atomically on write.
type FileStore struct {
	Path string
}

func (s FileStore) Read(buf []byte) bool {
	b, err := os.ReadFile(s.Path)
	if err != nil || len(b) != len(buf) {
		return false
	}
	copy(buf, b)
	return true
}

func (s FileStore) Write(buf []byte) bool {
	tmp, err := os.CreateTemp(filepath.Dir(s.Path), ".servo-*")
	if err != nil {
		return false
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		return false
	}
	if err := tmp.Close(); err != nil {
		return false
	}
	return os.Rename(tmp.Name(), s.Path) == nil
}
