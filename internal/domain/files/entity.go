package files

import (
	"io"
	"os"
	"path"
	"time"
)

type Kind string

const (
	KindFile   Kind = "file"
	KindFolder Kind = "folder"
)

// Entry is a file or folder inside a tenant root. ID and Path are the same
// tenant-relative, slash-separated path.
type Entry struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Type     Kind      `json:"type"`
	Size     *int64    `json:"size,omitempty"`
	Modified time.Time `json:"modified"`
	Path     string    `json:"path"`
}

func (e Entry) IsFolder() bool { return e.Type == KindFolder }

func newEntry(rel string, info os.FileInfo) Entry {
	e := Entry{
		ID:       rel,
		Name:     path.Base(rel),
		Type:     KindFile,
		Modified: info.ModTime().UTC(),
		Path:     rel,
	}
	if info.IsDir() {
		e.Type = KindFolder
		return e
	}
	size := info.Size()
	e.Size = &size
	return e
}

// UploadItem is one incoming byte stream. Name may embed a relative
// sub-path when a whole folder is uploaded ("images/thumbs/a.png").
type UploadItem struct {
	Name string
	Open func() (io.ReadCloser, error)
}

type UploadSummary struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Path string `json:"path"`
}

type UploadFailure struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type UploadResult struct {
	Uploaded []UploadSummary `json:"uploaded"`
	Failed   []UploadFailure `json:"failed"`
}

// RemoveResult tells the caller which lifecycle step a remove performed.
type RemoveResult struct {
	Path      string `json:"path"`
	Permanent bool   `json:"permanent"`
	TrashPath string `json:"trash_path,omitempty"`
}
