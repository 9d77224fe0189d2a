package storage

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_MemoryCreatesRoot(t *testing.T) {
	m, err := New(DriverMemory, "/srv/files")
	require.NoError(t, err)

	ok, err := Exists(m, "/srv/files")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNew_OSUsesTempDir(t *testing.T) {
	root := t.TempDir() + "/nested/root"
	m, err := New("OS", root)
	require.NoError(t, err)

	info, err := m.Stat(root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New("s3", "/x")
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestExists_Missing(t *testing.T) {
	m := afero.NewMemMapFs()
	ok, err := Exists(m, "/nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsExist_MkdirTwice(t *testing.T) {
	m := afero.NewMemMapFs()
	require.NoError(t, m.Mkdir("/a", 0o755))

	err := m.Mkdir("/a", 0o755)
	require.Error(t, err)
	assert.True(t, IsExist(err))
}
