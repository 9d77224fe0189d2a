package files

import (
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"filevault/internal/storage"
)

const DefaultContentType = "application/octet-stream"

var contentTypes = map[string]string{
	// images
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".bmp":  "image/bmp",
	".ico":  "image/x-icon",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".avif": "image/avif",
	".heic": "image/heic",
	// video
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".mkv":  "video/x-matroska",
	// audio
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
	".m4a":  "audio/mp4",
	// documents
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".odt":  "application/vnd.oasis.opendocument.text",
	".rtf":  "application/rtf",
	// archives
	".zip": "application/zip",
	".gz":  "application/gzip",
	".tar": "application/x-tar",
	".7z":  "application/x-7z-compressed",
	".rar": "application/vnd.rar",
	// text and code
	".txt":  "text/plain; charset=utf-8",
	".md":   "text/markdown; charset=utf-8",
	".csv":  "text/csv; charset=utf-8",
	".html": "text/html; charset=utf-8",
	".htm":  "text/html; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".js":   "text/javascript; charset=utf-8",
	".json": "application/json",
	".xml":  "application/xml",
	".yaml": "application/yaml",
	".yml":  "application/yaml",
}

// ContentTypeFor looks the extension up in the static table.
func ContentTypeFor(name string) string {
	if ct, ok := contentTypes[strings.ToLower(path.Ext(name))]; ok {
		return ct
	}
	return DefaultContentType
}

// Content is an open stored file plus the metadata a transport needs to
// set its headers. The caller must Close it.
type Content struct {
	io.ReadSeekCloser
	Name        string
	ContentType string
	Size        int64
	ModTime     time.Time
	CacheMaxAge time.Duration
}

// Disposition builds a Content-Disposition value. The filename* parameter
// carries the percent-encoded UTF-8 name; filename keeps an ASCII fallback.
func (c *Content) Disposition(attachment bool) string {
	kind := "inline"
	if attachment {
		kind = "attachment"
	}
	return fmt.Sprintf(`%s; filename="%s"; filename*=UTF-8''%s`, kind, asciiFallback(c.Name), extValue(c.Name))
}

// CacheControl is the suggested Cache-Control value.
func (c *Content) CacheControl() string {
	if c.CacheMaxAge <= 0 {
		return "private, no-cache"
	}
	return fmt.Sprintf("private, max-age=%d", int(c.CacheMaxAge.Seconds()))
}

// extValue percent-encodes every byte outside RFC 5987 attr-char.
func extValue(name string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(name); i++ {
		c := name[i]
		if isAttrChar(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isAttrChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	return strings.IndexByte("!#$&+-.^_`|~", c) >= 0
}

func asciiFallback(name string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e || r == '"' || r == '\\' {
			return '_'
		}
		return r
	}, name)
}

// ContentServer opens single stored files for reading.
type ContentServer struct {
	medium      storage.Medium
	resolver    *Resolver
	cacheMaxAge time.Duration
}

func NewContentServer(medium storage.Medium, resolver *Resolver, cacheMaxAge time.Duration) *ContentServer {
	return &ContentServer{medium: medium, resolver: resolver, cacheMaxAge: cacheMaxAge}
}

func (s *ContentServer) Read(tenant, rel string) (*Content, error) {
	loc, err := s.resolver.Resolve(tenant, rel)
	if err != nil {
		return nil, err
	}

	info, err := s.medium.Stat(loc.Abs)
	if err != nil {
		if storage.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: stat %s: %w", ErrInternal, loc.Rel, err)
	}
	if info.IsDir() {
		return nil, ErrIsDirectory
	}

	f, err := s.medium.Open(loc.Abs)
	if err != nil {
		if storage.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: open %s: %w", ErrInternal, loc.Rel, err)
	}

	return &Content{
		ReadSeekCloser: f,
		Name:           loc.Name(),
		ContentType:    ContentTypeFor(loc.Name()),
		Size:           info.Size(),
		ModTime:        info.ModTime().UTC(),
		CacheMaxAge:    s.cacheMaxAge,
	}, nil
}
