package files

import (
	"errors"
	"fmt"
	"io"
	"log"
	"path"
	"strings"

	"github.com/google/uuid"

	"filevault/internal/storage"
)

// Ingestor persists uploaded byte streams under a target directory.
// An existing file at the same path is overwritten.
type Ingestor struct {
	medium   storage.Medium
	resolver *Resolver
}

func NewIngestor(medium storage.Medium, resolver *Resolver) *Ingestor {
	return &Ingestor{medium: medium, resolver: resolver}
}

// Ingest writes every item under targetDir. Item failures are recorded in
// the result and do not stop the batch; only tenant, target and empty-batch
// problems fail the whole call.
func (in *Ingestor) Ingest(tenant, targetDir string, items []UploadItem) (*UploadResult, error) {
	dir, err := in.resolver.Resolve(tenant, targetDir)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNoFilesProvided
	}

	res := &UploadResult{
		Uploaded: make([]UploadSummary, 0, len(items)),
		Failed:   []UploadFailure{},
	}
	for _, item := range items {
		sum, err := in.ingestOne(dir, item)
		if err != nil {
			log.Printf("upload_item_failed tenant=%s dir=%q name=%q error=%v", tenant, dir.Rel, item.Name, err)
			res.Failed = append(res.Failed, UploadFailure{Name: item.Name, Code: Code(err)})
			continue
		}
		res.Uploaded = append(res.Uploaded, sum)
	}
	return res, nil
}

func (in *Ingestor) ingestOne(dir Location, item UploadItem) (UploadSummary, error) {
	subDir, base, err := splitUploadName(item.Name)
	if err != nil {
		return UploadSummary{}, err
	}
	parent, err := in.resolver.Resolve(dir.Tenant, path.Join(dir.Rel, subDir))
	if err != nil {
		return UploadSummary{}, err
	}
	target, err := in.resolver.Join(parent, base)
	if err != nil {
		return UploadSummary{}, err
	}
	// Only the trash manager may write into the trash container.
	if in.resolver.InTrash(parent) || in.resolver.InTrash(target) {
		return UploadSummary{}, fmt.Errorf("%w: %s is reserved", ErrInvalidPath, in.resolver.TrashName())
	}

	if info, err := in.medium.Stat(target.Abs); err == nil && info.IsDir() {
		return UploadSummary{}, ErrIsDirectory
	}
	if err := in.medium.MkdirAll(parent.Abs, 0o755); err != nil {
		return UploadSummary{}, fmt.Errorf("%w: create %s: %w", ErrInternal, parent.Rel, err)
	}

	if item.Open == nil {
		return UploadSummary{}, fmt.Errorf("%w: item %q has no content", ErrInternal, item.Name)
	}
	src, err := item.Open()
	if err != nil {
		return UploadSummary{}, fmt.Errorf("%w: open upload %q: %w", ErrInternal, item.Name, err)
	}
	defer src.Close()

	n, err := in.writeAtomically(parent, target, src)
	if err != nil {
		return UploadSummary{}, err
	}
	return UploadSummary{Name: base, Size: n, Path: target.Rel}, nil
}

// writeAtomically streams into a hidden sibling and renames it over the
// target so readers never see a partial file.
func (in *Ingestor) writeAtomically(parent, target Location, src io.Reader) (int64, error) {
	tmp, err := in.resolver.Join(parent, ".upload-"+uuid.NewString()+".part")
	if err != nil {
		return 0, err
	}
	f, err := in.medium.Create(tmp.Abs)
	if err != nil {
		return 0, fmt.Errorf("%w: create %s: %w", ErrInternal, tmp.Rel, err)
	}

	n, copyErr := io.Copy(f, src)
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = in.medium.Remove(tmp.Abs)
		return 0, fmt.Errorf("%w: write %s: %w", ErrInternal, target.Rel, err)
	}

	if err := in.medium.Rename(tmp.Abs, target.Abs); err != nil {
		_ = in.medium.Remove(tmp.Abs)
		return 0, fmt.Errorf("%w: rename into %s: %w", ErrInternal, target.Rel, err)
	}
	return n, nil
}

// splitUploadName separates a folder-upload name into its relative
// directory and basename. Backslashes count as separators.
func splitUploadName(name string) (dir, base string, err error) {
	name = strings.ReplaceAll(strings.TrimSpace(name), `\`, "/")
	if name == "" {
		return "", "", ErrInvalidName
	}
	if strings.HasPrefix(name, "/") || hasDrivePrefix(name) {
		return "", "", ErrInvalidPath
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == ".." {
			return "", "", ErrInvalidPath
		}
	}
	dir, base = path.Split(name)
	if !isSingleSegment(base) {
		return "", "", ErrInvalidName
	}
	return strings.TrimSuffix(dir, "/"), base, nil
}
