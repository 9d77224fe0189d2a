package files

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"filevault/internal/storage"
)

// Lister enumerates directory contents. Nothing is cached; every call
// reads the medium again.
type Lister struct {
	medium   storage.Medium
	resolver *Resolver
}

func NewLister(medium storage.Medium, resolver *Resolver) *Lister {
	return &Lister{medium: medium, resolver: resolver}
}

// List returns the entries of dir, folders first, then by name.
// A missing directory lists as empty. The trash container is created on
// demand when asked for and is hidden from the tenant root listing.
func (l *Lister) List(tenant, dir string) ([]Entry, error) {
	loc, err := l.resolver.Resolve(tenant, dir)
	if err != nil {
		return nil, err
	}

	if loc.Rel == l.resolver.TrashName() {
		if err := l.medium.MkdirAll(loc.Abs, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create trash: %w", ErrInternal, err)
		}
	}

	info, err := l.medium.Stat(loc.Abs)
	if err != nil {
		if storage.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("%w: stat %s: %w", ErrInternal, loc.Rel, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a file", ErrInvalidPath, loc.Rel)
	}

	infos, err := storage.ReadDir(l.medium, loc.Abs)
	if err != nil {
		if storage.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("%w: read dir %s: %w", ErrInternal, loc.Rel, err)
	}

	entries := make([]Entry, 0, len(infos))
	for _, fi := range infos {
		if fi == nil {
			continue
		}
		if loc.IsRoot() && fi.Name() == l.resolver.TrashName() {
			continue
		}
		entries = append(entries, newEntry(path.Join(loc.Rel, fi.Name()), fi))
	}

	sortEntries(entries)
	return entries, nil
}

// Stat returns a single entry.
func (l *Lister) Stat(tenant, rel string) (Entry, error) {
	loc, err := l.resolver.Resolve(tenant, rel)
	if err != nil {
		return Entry{}, err
	}
	if loc.IsRoot() {
		return Entry{}, ErrInvalidPath
	}
	info, err := l.medium.Stat(loc.Abs)
	if err != nil {
		if storage.IsNotExist(err) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, fmt.Errorf("%w: stat %s: %w", ErrInternal, loc.Rel, err)
	}
	return newEntry(loc.Rel, info), nil
}

func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.IsFolder() != b.IsFolder() {
			return a.IsFolder()
		}
		an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
		if an != bn {
			return an < bn
		}
		return a.Name < b.Name
	})
}
