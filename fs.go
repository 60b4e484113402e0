package svg2png

import (
	"os"
	"path/filepath"
)

// File permissions for created outputs.
const (
	dirPerm  = 0o750
	filePerm = 0o644
)

// FS abstracts file access so batches can run against any byte store.
type FS interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte) error
	ReadDir(path string) ([]os.DirEntry, error)
}

// Compile-time interface check
var _ FS = osFS{}

// osFS is the production FS backed by the local filesystem. WriteFile
// creates missing parent directories.
type osFS struct{}

func (osFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path) // #nosec G304 -- caller-provided batch input
}

func (osFS) WriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return err
		}
	}
	// #nosec G306 -- raster outputs are meant to be readable
	return os.WriteFile(path, data, filePerm)
}

func (osFS) ReadDir(path string) ([]os.DirEntry, error) {
	return os.ReadDir(path)
}
