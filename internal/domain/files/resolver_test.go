package files

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_RejectsEscapes(t *testing.T) {
	r := newTestResolver()
	bad := []string{
		"..",
		"../b/secret.txt",
		"docs/../../b",
		"docs/..",
		`..\b`,
		`docs\..\..\b`,
		"/etc/passwd",
		`\windows`,
		"C:/Windows",
		"c:secret",
		"a\x00b",
	}
	for _, p := range bad {
		t.Run(p, func(t *testing.T) {
			_, err := r.Resolve("tenant-a", p)
			assert.ErrorIs(t, err, ErrInvalidPath)
		})
	}
}

func TestResolver_Normalizes(t *testing.T) {
	r := newTestResolver()
	cases := [][2]string{
		{"", ""},
		{".", ""},
		{"docs", "docs"},
		{"docs//2024///a.txt", "docs/2024/a.txt"},
		{"./docs/./a.txt", "docs/a.txt"},
		{"docs/", "docs"},
		{`docs\sub\a.txt`, "docs/sub/a.txt"},
	}
	for _, tc := range cases {
		in, want := tc[0], tc[1]
		loc, err := r.Resolve("tenant-a", in)
		require.NoError(t, err, in)
		assert.Equal(t, want, loc.Rel, in)
		assert.Equal(t, filepath.Join(testRoot, "tenant-a", filepath.FromSlash(want)), loc.Abs, in)
	}
}

func TestResolver_TenantRequired(t *testing.T) {
	r := newTestResolver()
	_, err := r.Resolve("", "docs")
	assert.ErrorIs(t, err, ErrTenantRequired)
	_, err = r.Resolve("   ", "docs")
	assert.ErrorIs(t, err, ErrTenantRequired)
}

func TestResolver_RejectsMalformedTenant(t *testing.T) {
	r := newTestResolver()
	for _, tenant := range []string{"..", "a/b", `a\b`, "."} {
		_, err := r.Resolve(tenant, "docs")
		assert.ErrorIs(t, err, ErrInvalidPath, tenant)
	}
}

func TestResolver_StaysInsideTenantRoot(t *testing.T) {
	r := newTestResolver()
	inputs := []string{"", "a", "a/b/c", "./x", "x//y", ".trash/a"}
	for _, in := range inputs {
		loc, err := r.Resolve("tenant-a", in)
		require.NoError(t, err)
		root := filepath.Join(testRoot, "tenant-a")
		assert.True(t, loc.Abs == root || strings.HasPrefix(loc.Abs, root+string(filepath.Separator)), in)
		assert.False(t, strings.HasPrefix(loc.Abs, filepath.Join(testRoot, "tenant-b")), in)
	}
}

func TestResolver_SiblingTenantPrefix(t *testing.T) {
	r := newTestResolver()
	// "tenant-ab" shares a string prefix with "tenant-a" but is a different root.
	loc, err := r.Resolve("tenant-a", "x")
	require.NoError(t, err)
	assert.False(t, within(filepath.Join(testRoot, "tenant-ab"), loc.Abs))
}

func TestResolver_InTrash(t *testing.T) {
	r := newTestResolver()
	cases := []struct {
		in   string
		want bool
	}{
		{".trash", true},
		{".trash/a.txt", true},
		{".trashcan", false},
		{"docs/.trash", false},
		{"docs/a.txt", false},
	}
	for _, tc := range cases {
		loc, err := r.Resolve("t", tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, r.InTrash(loc), tc.in)
	}
}

func TestResolver_Join(t *testing.T) {
	r := newTestResolver()
	dir, err := r.Resolve("t", "docs")
	require.NoError(t, err)

	loc, err := r.Join(dir, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "docs/a.txt", loc.Rel)

	for _, name := range []string{"", ".", "..", "a/b", `a\b`} {
		_, err := r.Join(dir, name)
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
}
