package files

import (
	"bytes"
	"io"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const testRoot = "/data"

func newTestMedium() afero.Fs {
	m := afero.NewMemMapFs()
	_ = m.MkdirAll(testRoot, 0o755)
	return m
}

func newTestResolver() *Resolver {
	return NewResolver(testRoot, TrashDirName)
}

func writeFile(t *testing.T, m afero.Fs, tenant, rel, body string) {
	t.Helper()
	abs := filepath.Join(testRoot, tenant, filepath.FromSlash(rel))
	require.NoError(t, m.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, afero.WriteFile(m, abs, []byte(body), 0o644))
}

func exists(m afero.Fs, tenant, rel string) bool {
	ok, _ := afero.Exists(m, filepath.Join(testRoot, tenant, filepath.FromSlash(rel)))
	return ok
}

func item(name, body string) UploadItem {
	return UploadItem{Name: name, Open: func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewBufferString(body)), nil
	}}
}
