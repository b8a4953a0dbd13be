package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/chazu/bfcloud/vm"
	"github.com/chazu/bfcloud/vm/wire"
)

// ErrSnapshotMissing indicates a snapshot file that should exist does not.
var ErrSnapshotMissing = errors.New("snapshot file missing")

// Files stores one CBOR snapshot file per instance under Root.
type Files struct {
	Root string
}

// NewFiles creates a file store rooted at root.
func NewFiles(root string) *Files {
	return &Files{Root: root}
}

// Allocate creates an empty, uniquely named snapshot file and returns its
// path.
func (f *Files) Allocate() (string, error) {
	if err := os.MkdirAll(f.Root, 0755); err != nil {
		return "", fmt.Errorf("creating storage root: %w", err)
	}
	for {
		path := filepath.Join(f.Root, fmt.Sprintf("vm_%s.cbor", uuid.New()))
		if len(path) > MaxStoredAtLength {
			return "", fmt.Errorf("snapshot path %q longer than %d bytes", path, MaxStoredAtLength)
		}
		file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err != nil {
			if os.IsExist(err) {
				continue
			}
			return "", fmt.Errorf("allocating snapshot file: %w", err)
		}
		file.Close()
		return path, nil
	}
}

// Save writes the snapshot of m to path, which must already exist.
func (f *Files) Save(path string, m *vm.VM) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrSnapshotMissing, path)
		}
		return err
	}
	data, err := wire.EncodeVM(m)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	// Snapshot files are replaced atomically.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// Load reads and restores the VM stored at path.
func (f *Files) Load(path string) (*vm.VM, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSnapshotMissing, path)
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	m, err := wire.DecodeVM(data)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return m, nil
}

// Remove deletes the snapshot at path. A missing file is not an error.
func (f *Files) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing snapshot: %w", err)
	}
	return nil
}
