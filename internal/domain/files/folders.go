package files

import (
	"fmt"
	"strings"

	"filevault/internal/storage"
)

// Mutator creates folders. A name collision is a hard conflict; it is
// never renamed.
type Mutator struct {
	medium   storage.Medium
	resolver *Resolver
}

func NewMutator(medium storage.Medium, resolver *Resolver) *Mutator {
	return &Mutator{medium: medium, resolver: resolver}
}

// CreateFolder makes parent (and its ancestors) if needed, then creates
// parent/name exclusively.
func (m *Mutator) CreateFolder(tenant, parent, name string) (Entry, error) {
	name, err := validateFolderName(name)
	if err != nil {
		return Entry{}, err
	}
	dir, err := m.resolver.Resolve(tenant, parent)
	if err != nil {
		return Entry{}, err
	}
	target, err := m.resolver.Join(dir, name)
	if err != nil {
		return Entry{}, err
	}

	if err := m.medium.MkdirAll(dir.Abs, 0o755); err != nil {
		return Entry{}, fmt.Errorf("%w: create parent %s: %w", ErrInternal, dir.Rel, err)
	}
	if err := m.medium.Mkdir(target.Abs, 0o755); err != nil {
		if storage.IsExist(err) {
			return Entry{}, ErrAlreadyExists
		}
		return Entry{}, fmt.Errorf("%w: mkdir %s: %w", ErrInternal, target.Rel, err)
	}

	info, err := m.medium.Stat(target.Abs)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: stat %s: %w", ErrInternal, target.Rel, err)
	}
	return newEntry(target.Rel, info), nil
}

func validateFolderName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.Contains(name, "..") || !isSingleSegment(name) {
		return "", ErrInvalidName
	}
	return name, nil
}
