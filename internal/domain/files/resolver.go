package files

import (
	"path"
	"path/filepath"
	"strings"
)

// TrashDirName is the reserved trash container at the top of every tenant root.
// The lister hides it and the trash manager moves entries into it.
const TrashDirName = ".trash"

// Location is a resolved, validated place inside one tenant root.
type Location struct {
	Tenant string
	// Rel is tenant-relative and slash-separated; "" is the tenant root.
	Rel string
	// Abs is the medium path.
	Abs string
}

func (l Location) Name() string {
	if l.Rel == "" {
		return ""
	}
	return path.Base(l.Rel)
}

func (l Location) IsRoot() bool { return l.Rel == "" }

// Resolver maps (tenant, relative path) to a Location under the tenant root.
// It never touches the medium.
type Resolver struct {
	root      string
	trashName string
}

func NewResolver(root, trashName string) *Resolver {
	if trashName == "" {
		trashName = TrashDirName
	}
	return &Resolver{root: filepath.Clean(root), trashName: trashName}
}

func (r *Resolver) TrashName() string { return r.trashName }

// TenantRoot returns the medium path of a tenant's root directory.
func (r *Resolver) TenantRoot(tenant string) (string, error) {
	if strings.TrimSpace(tenant) == "" {
		return "", ErrTenantRequired
	}
	if !isSingleSegment(tenant) {
		return "", ErrInvalidPath
	}
	return filepath.Join(r.root, tenant), nil
}

// Resolve validates rel and returns its location inside the tenant root.
// Rejected before any normalization: ".." segments, a leading "/" or "\",
// drive prefixes such as "C:", and NUL bytes.
func (r *Resolver) Resolve(tenant, rel string) (Location, error) {
	tenantRoot, err := r.TenantRoot(tenant)
	if err != nil {
		return Location{}, err
	}

	if strings.ContainsRune(rel, 0) {
		return Location{}, ErrInvalidPath
	}
	slashed := strings.ReplaceAll(rel, `\`, "/")
	if strings.HasPrefix(slashed, "/") || hasDrivePrefix(slashed) {
		return Location{}, ErrInvalidPath
	}
	for _, seg := range strings.Split(slashed, "/") {
		if seg == ".." {
			return Location{}, ErrInvalidPath
		}
	}

	clean := strings.TrimPrefix(path.Clean("/"+slashed), "/")
	abs := filepath.Join(tenantRoot, filepath.FromSlash(clean))
	if !within(tenantRoot, abs) {
		return Location{}, ErrInvalidPath
	}

	return Location{Tenant: tenant, Rel: clean, Abs: abs}, nil
}

// Join resolves name inside dir. name must be a single segment.
func (r *Resolver) Join(dir Location, name string) (Location, error) {
	if !isSingleSegment(name) {
		return Location{}, ErrInvalidName
	}
	return r.Resolve(dir.Tenant, path.Join(dir.Rel, name))
}

// Trash returns the location of the tenant's trash container.
func (r *Resolver) Trash(tenant string) (Location, error) {
	return r.Resolve(tenant, r.trashName)
}

// InTrash reports whether l is the trash container or lies inside it.
func (r *Resolver) InTrash(l Location) bool {
	return l.Rel == r.trashName || strings.HasPrefix(l.Rel, r.trashName+"/")
}

func within(root, p string) bool {
	if p == root {
		return true
	}
	return strings.HasPrefix(p, root+string(filepath.Separator))
}

func hasDrivePrefix(p string) bool {
	if len(p) < 2 || p[1] != ':' {
		return false
	}
	c := p[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isSingleSegment(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, "/\\\x00")
}
