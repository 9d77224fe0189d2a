package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type folderReq struct {
	Path string `validate:"relpath"`
	Name string `validate:"required,entryname"`
}

func TestValidate_EntryName(t *testing.T) {
	cases := []struct {
		name  string
		input string
		ok    bool
	}{
		{"plain", "photos", true},
		{"with dot", "v1.2", true},
		{"empty", "", false},
		{"padded", " photos ", true},
		{"blank", "   ", false},
		{"slash", "a/b", false},
		{"backslash", `a\b`, false},
		{"parent", "..", false},
		{"embedded parent", "a..b", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			errs := Validate(folderReq{Name: tc.input})
			if tc.ok {
				assert.Nil(t, errs)
			} else {
				assert.Contains(t, errs, "Name")
			}
		})
	}
}

func TestValidate_RelPath(t *testing.T) {
	assert.Nil(t, Validate(folderReq{Path: "docs/2024", Name: "x"}))
	assert.Equal(t, "relpath", Validate(folderReq{Path: "/etc", Name: "x"})["Path"])
}
