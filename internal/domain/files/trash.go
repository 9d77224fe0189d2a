package files

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"filevault/internal/storage"
)

const DefaultTrashRenameAttempts = 10000

// ExistsFunc probes a medium path. It is swapped out in tests to simulate
// collisions without populating the trash.
type ExistsFunc func(abs string) (bool, error)

// TrashManager moves entries into the tenant's trash container and purges
// entries already inside it. No ledger is kept: an entry is "trashed"
// exactly when its path lies under the container.
type TrashManager struct {
	medium      storage.Medium
	resolver    *Resolver
	exists      ExistsFunc
	maxAttempts int
}

func NewTrashManager(medium storage.Medium, resolver *Resolver, maxAttempts int) *TrashManager {
	if maxAttempts <= 0 {
		maxAttempts = DefaultTrashRenameAttempts
	}
	return &TrashManager{
		medium:      medium,
		resolver:    resolver,
		maxAttempts: maxAttempts,
		exists: func(abs string) (bool, error) {
			return storage.Exists(medium, abs)
		},
	}
}

// WithExistsProbe replaces the probe used while picking a free trash name.
func (t *TrashManager) WithExistsProbe(fn ExistsFunc) *TrashManager {
	t.exists = fn
	return t
}

// Remove soft-deletes rel, or permanently deletes it when it already lives
// in the trash.
func (t *TrashManager) Remove(tenant, rel string) (RemoveResult, error) {
	loc, err := t.resolver.Resolve(tenant, rel)
	if err != nil {
		return RemoveResult{}, err
	}
	if loc.IsRoot() || loc.Rel == t.resolver.TrashName() {
		return RemoveResult{}, ErrInvalidPath
	}

	info, err := t.medium.Stat(loc.Abs)
	if err != nil {
		if storage.IsNotExist(err) {
			return RemoveResult{}, ErrNotFound
		}
		return RemoveResult{}, fmt.Errorf("%w: stat %s: %w", ErrInternal, loc.Rel, err)
	}

	if t.resolver.InTrash(loc) {
		if info.IsDir() {
			err = t.medium.RemoveAll(loc.Abs)
		} else {
			err = t.medium.Remove(loc.Abs)
		}
		if err != nil {
			if storage.IsNotExist(err) {
				return RemoveResult{}, ErrNotFound
			}
			return RemoveResult{}, fmt.Errorf("%w: purge %s: %w", ErrInternal, loc.Rel, err)
		}
		return RemoveResult{Path: loc.Rel, Permanent: true}, nil
	}

	trash, err := t.resolver.Trash(tenant)
	if err != nil {
		return RemoveResult{}, err
	}
	if err := t.medium.MkdirAll(trash.Abs, 0o755); err != nil {
		return RemoveResult{}, fmt.Errorf("%w: create trash: %w", ErrInternal, err)
	}

	dst, err := t.freeName(trash, loc.Name())
	if err != nil {
		return RemoveResult{}, err
	}

	// A single rename is the atomicity boundary; there is a narrow window
	// between freeName's probe and this call.
	if err := t.medium.Rename(loc.Abs, dst.Abs); err != nil {
		if storage.IsNotExist(err) {
			return RemoveResult{}, ErrNotFound
		}
		return RemoveResult{}, fmt.Errorf("%w: move %s to trash: %w", ErrInternal, loc.Rel, err)
	}

	return RemoveResult{Path: loc.Rel, TrashPath: dst.Rel}, nil
}

// freeName returns the first of name, name_1.ext, name_2.ext, ... that is
// not taken inside dir.
func (t *TrashManager) freeName(dir Location, name string) (Location, error) {
	for i := 0; i < t.maxAttempts; i++ {
		candidate, err := t.resolver.Join(dir, suffixedName(name, i))
		if err != nil {
			return Location{}, err
		}
		taken, err := t.exists(candidate.Abs)
		if err != nil {
			return Location{}, fmt.Errorf("%w: probe %s: %w", ErrInternal, candidate.Rel, err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return Location{}, fmt.Errorf("%w: no free trash name for %q after %d attempts", ErrInternal, name, t.maxAttempts)
}

// suffixedName inserts _n before the extension. n == 0 returns name as is.
// Dotfiles without a further extension get the suffix appended.
func suffixedName(name string, n int) string {
	if n == 0 {
		return name
	}
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if stem == "" {
		stem, ext = name, ""
	}
	return stem + "_" + strconv.Itoa(n) + ext
}
