// Package storage provides the storage medium every file component works against.
//
// Two drivers are available:
//   - "os": the local filesystem (default)
//   - "memory": an in-process tree, used by tests and throwaway dev servers
//
// The engine relies only on the medium's own atomic primitives (Rename, Mkdir);
// nothing in this package adds locking on top of them.
package storage

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
)

const (
	DriverOS     = "os"
	DriverMemory = "memory"
)

// Medium is the filesystem abstraction injected into every component:
// Stat, Open/OpenFile, Mkdir/MkdirAll, Rename, Remove/RemoveAll.
type Medium = afero.Fs

var ErrUnknownDriver = errors.New("unknown storage driver")

// New returns a medium for the named driver and makes sure root exists on it.
func New(driver, root string) (Medium, error) {
	var m Medium
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverOS:
		m = afero.NewOsFs()
	case DriverMemory:
		m = afero.NewMemMapFs()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	if err := m.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root %s: %w", root, err)
	}
	return m, nil
}

// Exists reports whether name is present on m. Errors other than
// "not exist" are returned so callers can tell a miss from a fault.
func Exists(m Medium, name string) (bool, error) {
	_, err := m.Stat(name)
	if err == nil {
		return true, nil
	}
	if IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

func IsExist(err error) bool {
	return errors.Is(err, os.ErrExist)
}

// ReadDir lists name sorted by filename.
func ReadDir(m Medium, name string) ([]os.FileInfo, error) {
	return afero.ReadDir(m, name)
}
