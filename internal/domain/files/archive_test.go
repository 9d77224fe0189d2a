package files

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readZip(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	out := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		out[f.Name] = string(b)
	}
	return out
}

func TestExporter_SkipsMissingMembers(t *testing.T) {
	m := newTestMedium()
	writeFile(t, m, "t", "existing.txt", "here")
	e := NewExporter(m, newTestResolver(), ArchiveLimits{})

	a, err := e.Export("t", []string{"t/existing.txt", "t/missing.txt"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"existing.txt": "here"}, readZip(t, a.Data))
	assert.Equal(t, []string{"existing.txt"}, a.Included)
	assert.Equal(t, []string{"missing.txt"}, a.Skipped)
	assert.Equal(t, "existing.txt.zip", a.Name)
}

func TestExporter_OnlyMissingFails(t *testing.T) {
	e := NewExporter(newTestMedium(), newTestResolver(), ArchiveLimits{})
	_, err := e.Export("t", []string{"t/missing.txt"})
	assert.ErrorIs(t, err, ErrNoValidFiles)
}

func TestExporter_FlattensAndDeduplicates(t *testing.T) {
	m := newTestMedium()
	writeFile(t, m, "t", "a/report.txt", "A")
	writeFile(t, m, "t", "b/report.txt", "B")
	writeFile(t, m, "t", "b/deep/photo.jpg", "P")
	writeFile(t, m, "t", "folder/inside.txt", "skip me")

	a, err := NewExporter(m, newTestResolver(), ArchiveLimits{}).Export("t", []string{
		"t/a/report.txt", "t/b/report.txt", "t/b/deep/photo.jpg", "t/folder",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"report.txt":   "A",
		"report_1.txt": "B",
		"photo.jpg":    "P",
	}, readZip(t, a.Data))
	assert.Equal(t, []string{"folder"}, a.Skipped)
	assert.Equal(t, "files.zip", a.Name)
}

func TestExporter_TenantPrefixRequired(t *testing.T) {
	m := newTestMedium()
	writeFile(t, m, "t", "ok.txt", "ok")
	writeFile(t, m, "other", "secret.txt", "s")
	e := NewExporter(m, newTestResolver(), ArchiveLimits{})

	for _, paths := range [][]string{
		{"t/ok.txt", "other/secret.txt"},
		{"ok.txt"},
		{"t/ok.txt", "t/../other/secret.txt"},
		{"/t/ok.txt"},
		{"t/"},
	} {
		_, err := e.Export("t", paths)
		assert.ErrorIs(t, err, ErrInvalidPath, strings.Join(paths, ","))
	}
}

func TestExporter_Limits(t *testing.T) {
	m := newTestMedium()
	writeFile(t, m, "t", "a.bin", strings.Repeat("a", 600))
	writeFile(t, m, "t", "b.bin", strings.Repeat("b", 600))
	writeFile(t, m, "t", "huge.bin", strings.Repeat("h", 2000))
	r := newTestResolver()

	_, err := NewExporter(m, r, ArchiveLimits{MaxFiles: 2}).Export("t", []string{"t/a.bin", "t/b.bin", "t/c.bin"})
	assert.ErrorIs(t, err, ErrTooManyFiles)

	_, err = NewExporter(m, r, ArchiveLimits{MaxTotalSize: 1000}).Export("t", []string{"t/a.bin", "t/b.bin"})
	assert.ErrorIs(t, err, ErrTotalSizeExceeded)

	a, err := NewExporter(m, r, ArchiveLimits{MaxFileSize: 1000}).Export("t", []string{"t/a.bin", "t/huge.bin"})
	require.NoError(t, err)
	assert.Equal(t, []string{"huge.bin"}, a.Skipped)

	_, err = NewExporter(m, r, ArchiveLimits{}).Export("t", nil)
	assert.ErrorIs(t, err, ErrNoFilesProvided)

	_, err = NewExporter(m, r, ArchiveLimits{}).Export("", []string{"t/a.bin"})
	assert.ErrorIs(t, err, ErrTenantRequired)
}

func TestExporter_UsesDeflate(t *testing.T) {
	m := newTestMedium()
	writeFile(t, m, "t", "big.txt", strings.Repeat("compress me ", 1000))

	a, err := NewExporter(m, newTestResolver(), ArchiveLimits{}).Export("t", []string{"t/big.txt"})
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(a.Data), int64(len(a.Data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	assert.Equal(t, zip.Deflate, zr.File[0].Method)
	assert.Less(t, zr.File[0].CompressedSize64, zr.File[0].UncompressedSize64)
}
