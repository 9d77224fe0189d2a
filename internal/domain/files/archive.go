package files

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/flate"

	"filevault/internal/storage"
)

const (
	DefaultMaxArchiveFiles     = 100
	DefaultMaxArchiveFileSize  = 100 << 20
	DefaultMaxArchiveTotalSize = 500 << 20
)

type ArchiveLimits struct {
	MaxFiles     int
	MaxFileSize  int64
	MaxTotalSize int64
}

func (l ArchiveLimits) withDefaults() ArchiveLimits {
	if l.MaxFiles <= 0 {
		l.MaxFiles = DefaultMaxArchiveFiles
	}
	if l.MaxFileSize <= 0 {
		l.MaxFileSize = DefaultMaxArchiveFileSize
	}
	if l.MaxTotalSize <= 0 {
		l.MaxTotalSize = DefaultMaxArchiveTotalSize
	}
	return l
}

// Archive is a finished zip held in memory.
type Archive struct {
	Data     []byte
	Name     string
	Included []string
	Skipped  []string
}

// Exporter bundles selected files into a flat zip.
type Exporter struct {
	medium   storage.Medium
	resolver *Resolver
	limits   ArchiveLimits
}

func NewExporter(medium storage.Medium, resolver *Resolver, limits ArchiveLimits) *Exporter {
	return &Exporter{medium: medium, resolver: resolver, limits: limits.withDefaults()}
}

// Export zips paths. Every path must be qualified with the caller's tenant
// ("<tenant>/docs/a.txt"); one bad path fails the whole request. Missing,
// unreadable, oversized and directory members are skipped.
func (e *Exporter) Export(tenant string, paths []string) (*Archive, error) {
	if strings.TrimSpace(tenant) == "" {
		return nil, ErrTenantRequired
	}
	if len(paths) == 0 {
		return nil, ErrNoFilesProvided
	}
	if len(paths) > e.limits.MaxFiles {
		return nil, fmt.Errorf("%w: %d requested, limit is %d", ErrTooManyFiles, len(paths), e.limits.MaxFiles)
	}

	locs := make([]Location, 0, len(paths))
	for _, p := range paths {
		loc, err := e.resolveQualified(tenant, p)
		if err != nil {
			return nil, err
		}
		locs = append(locs, loc)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestSpeed)
	})

	archive := &Archive{Included: []string{}, Skipped: []string{}}
	used := make(map[string]bool, len(locs))
	var total int64

	for _, loc := range locs {
		size, err := e.addMember(zw, loc, used)
		if err != nil {
			if isSkip(err) {
				log.Printf("archive_member_skipped tenant=%s path=%q reason=%q", tenant, loc.Rel, err.Error())
				archive.Skipped = append(archive.Skipped, loc.Rel)
				continue
			}
			return nil, err
		}
		archive.Included = append(archive.Included, loc.Rel)

		total += size
		if total > e.limits.MaxTotalSize {
			return nil, fmt.Errorf("%w: %s exceeds %s", ErrTotalSizeExceeded,
				humanize.IBytes(uint64(total)), humanize.IBytes(uint64(e.limits.MaxTotalSize)))
		}
	}

	if len(archive.Included) == 0 {
		return nil, ErrNoValidFiles
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: finish archive: %w", ErrInternal, err)
	}

	archive.Data = buf.Bytes()
	archive.Name = archiveName(archive.Included)
	return archive, nil
}

func (e *Exporter) resolveQualified(tenant, p string) (Location, error) {
	rest, ok := strings.CutPrefix(p, tenant+"/")
	if !ok || rest == "" {
		return Location{}, fmt.Errorf("%w: %q is not under the caller's tenant", ErrInvalidPath, p)
	}
	return e.resolver.Resolve(tenant, rest)
}

type skipError struct{ reason string }

func (s skipError) Error() string { return s.reason }

func isSkip(err error) bool {
	_, ok := err.(skipError)
	return ok
}

// addMember writes one file under its (deduplicated) basename and returns
// its size. Per-member problems come back as skipError.
func (e *Exporter) addMember(zw *zip.Writer, loc Location, used map[string]bool) (int64, error) {
	if loc.IsRoot() {
		return 0, skipError{"is a directory"}
	}
	info, err := e.medium.Stat(loc.Abs)
	if err != nil {
		if storage.IsNotExist(err) {
			return 0, skipError{"not found"}
		}
		return 0, skipError{"unreadable: " + err.Error()}
	}
	if info.IsDir() {
		return 0, skipError{"is a directory"}
	}
	if info.Size() > e.limits.MaxFileSize {
		return 0, skipError{"larger than " + humanize.IBytes(uint64(e.limits.MaxFileSize))}
	}

	f, err := e.medium.Open(loc.Abs)
	if err != nil {
		return 0, skipError{"unreadable: " + err.Error()}
	}
	defer f.Close()

	name := uniqueMemberName(loc.Name(), used)
	hdr := &zip.FileHeader{Name: name, Method: zip.Deflate, Modified: info.ModTime()}
	hdr.SetMode(info.Mode())
	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return 0, fmt.Errorf("%w: add %s: %w", ErrInternal, name, err)
	}
	n, err := io.Copy(w, f)
	if err != nil {
		// The entry header is already written, so the archive cannot be salvaged.
		return 0, fmt.Errorf("%w: copy %s: %w", ErrInternal, loc.Rel, err)
	}
	return n, nil
}

func uniqueMemberName(name string, used map[string]bool) string {
	for i := 0; ; i++ {
		candidate := suffixedName(name, i)
		if !used[candidate] {
			used[candidate] = true
			return candidate
		}
	}
}

func archiveName(included []string) string {
	if len(included) == 1 {
		return baseName(included[0]) + ".zip"
	}
	return "files.zip"
}

func baseName(rel string) string {
	if i := strings.LastIndex(rel, "/"); i >= 0 {
		return rel[i+1:]
	}
	return rel
}
