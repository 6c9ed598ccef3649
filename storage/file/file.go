// Package file implements storage.Backend as a single file on disk, the
// default backend (spec §6.4) and the direct Go-native analogue of the
// teacher's database/file.FileDatabase.
package file

import (
	"fmt"
	"os"
)

// Backend stores the blob as one file on disk.
type Backend struct {
	path string
}

// New returns a Backend reading and writing path.
func New(path string) *Backend {
	return &Backend{path: path}
}

func (b *Backend) Load() ([]byte, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("file: load %s: %w", b.path, err)
	}
	return data, nil
}

func (b *Backend) Save(blob []byte) error {
	tmp := b.path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o600); err != nil {
		return fmt.Errorf("file: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, b.path); err != nil {
		return fmt.Errorf("file: rename %s to %s: %w", tmp, b.path, err)
	}
	return nil
}

func (b *Backend) Close() error { return nil }
