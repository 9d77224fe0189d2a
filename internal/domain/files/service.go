package files

import (
	"context"
	"path"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"filevault/internal/storage"
)

var tracer = otel.Tracer("filevault/files")

// Change actions reported to observers after a successful mutation.
const (
	ActionFolderCreated = "folder_created"
	ActionTrashed       = "trashed"
	ActionPurged        = "purged"
	ActionUploaded      = "uploaded"
	ActionArchived      = "archived"
)

type Change struct {
	Tenant string
	Action string
	Path   string
	Size   int64
	At     time.Time
}

// Observer is told about completed mutations. It must not block and its
// failures never affect the operation.
type Observer interface {
	FileChanged(ctx context.Context, c Change)
}

type Options struct {
	Root                string
	TrashName           string
	TrashRenameAttempts int
	CacheMaxAge         time.Duration
	Archive             ArchiveLimits
}

// Service is the tenant-isolated file engine. Every call resolves its
// paths through the same Resolver before touching the medium.
type Service struct {
	resolver  *Resolver
	lister    *Lister
	mutator   *Mutator
	trash     *TrashManager
	content   *ContentServer
	ingestor  *Ingestor
	exporter  *Exporter
	observers []Observer
	now       func() time.Time
}

func NewService(medium storage.Medium, opts Options, observers ...Observer) *Service {
	r := NewResolver(opts.Root, opts.TrashName)
	return &Service{
		resolver:  r,
		lister:    NewLister(medium, r),
		mutator:   NewMutator(medium, r),
		trash:     NewTrashManager(medium, r, opts.TrashRenameAttempts),
		content:   NewContentServer(medium, r, opts.CacheMaxAge),
		ingestor:  NewIngestor(medium, r),
		exporter:  NewExporter(medium, r, opts.Archive),
		observers: observers,
		now:       time.Now,
	}
}

func (s *Service) Resolver() *Resolver { return s.resolver }

func (s *Service) Trash() *TrashManager { return s.trash }

func (s *Service) List(ctx context.Context, tenant, dir string) ([]Entry, error) {
	_, span := startSpan(ctx, "files.list", tenant, dir)
	defer span.End()

	entries, err := s.lister.List(tenant, dir)
	recordErr(span, err)
	span.SetAttributes(attribute.Int("files.count", len(entries)))
	return entries, err
}

func (s *Service) Stat(ctx context.Context, tenant, rel string) (Entry, error) {
	_, span := startSpan(ctx, "files.stat", tenant, rel)
	defer span.End()

	e, err := s.lister.Stat(tenant, rel)
	recordErr(span, err)
	return e, err
}

func (s *Service) CreateFolder(ctx context.Context, tenant, parent, name string) (Entry, error) {
	ctx, span := startSpan(ctx, "files.create_folder", tenant, parent)
	defer span.End()

	e, err := s.mutator.CreateFolder(tenant, parent, name)
	recordErr(span, err)
	if err == nil {
		s.notify(ctx, tenant, ActionFolderCreated, e.Path, 0)
	}
	return e, err
}

func (s *Service) Remove(ctx context.Context, tenant, rel string) (RemoveResult, error) {
	ctx, span := startSpan(ctx, "files.remove", tenant, rel)
	defer span.End()

	res, err := s.trash.Remove(tenant, rel)
	recordErr(span, err)
	if err != nil {
		return res, err
	}
	span.SetAttributes(attribute.Bool("files.permanent", res.Permanent))
	if res.Permanent {
		s.notify(ctx, tenant, ActionPurged, res.Path, 0)
	} else {
		s.notify(ctx, tenant, ActionTrashed, res.Path, 0)
	}
	return res, nil
}

func (s *Service) Read(ctx context.Context, tenant, rel string) (*Content, error) {
	_, span := startSpan(ctx, "files.read", tenant, rel)
	defer span.End()

	c, err := s.content.Read(tenant, rel)
	recordErr(span, err)
	if c != nil {
		span.SetAttributes(attribute.Int64("files.size", c.Size))
	}
	return c, err
}

func (s *Service) Upload(ctx context.Context, tenant, dir string, items []UploadItem) (*UploadResult, error) {
	ctx, span := startSpan(ctx, "files.upload", tenant, dir)
	defer span.End()
	span.SetAttributes(attribute.Int("files.items", len(items)))

	res, err := s.ingestor.Ingest(tenant, dir, items)
	recordErr(span, err)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("files.uploaded", len(res.Uploaded)),
		attribute.Int("files.failed", len(res.Failed)),
	)
	for _, u := range res.Uploaded {
		s.notify(ctx, tenant, ActionUploaded, u.Path, u.Size)
	}
	return res, nil
}

func (s *Service) Export(ctx context.Context, tenant string, paths []string) (*Archive, error) {
	ctx, span := startSpan(ctx, "files.export", tenant, "")
	defer span.End()
	span.SetAttributes(attribute.Int("files.requested", len(paths)))

	a, err := s.exporter.Export(tenant, paths)
	recordErr(span, err)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("files.included", len(a.Included)),
		attribute.Int("files.skipped", len(a.Skipped)),
		attribute.Int("files.archive_bytes", len(a.Data)),
	)
	s.notify(ctx, tenant, ActionArchived, commonParent(a.Included), int64(len(a.Data)))
	return a, nil
}

// commonParent returns the deepest directory containing every path; "" is
// the tenant root.
func commonParent(paths []string) string {
	var common []string
	for i, p := range paths {
		dir := strings.Split(path.Dir(p), "/")
		if dir[0] == "." {
			return ""
		}
		if i == 0 {
			common = dir
			continue
		}
		n := 0
		for n < len(common) && n < len(dir) && common[n] == dir[n] {
			n++
		}
		common = common[:n]
		if n == 0 {
			return ""
		}
	}
	return strings.Join(common, "/")
}

func (s *Service) notify(ctx context.Context, tenant, action, path string, size int64) {
	c := Change{Tenant: tenant, Action: action, Path: path, Size: size, At: s.now().UTC()}
	for _, o := range s.observers {
		o.FileChanged(ctx, c)
	}
}

func startSpan(ctx context.Context, name, tenant, path string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("files.tenant", tenant),
		attribute.String("files.path", path),
	))
}

func recordErr(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, Code(err))
}
