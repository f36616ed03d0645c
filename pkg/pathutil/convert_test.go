package pathutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/standardbeagle/refscope/internal/types"
)

func TestToRelative(t *testing.T) {
	root := filepath.FromSlash("/home/user/project")

	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "inside root", path: filepath.FromSlash("/home/user/project/src/main.c"), want: filepath.FromSlash("src/main.c")},
		{name: "outside root", path: filepath.FromSlash("/other/location/file.c"), want: filepath.FromSlash("/other/location/file.c")},
		{name: "already relative", path: filepath.FromSlash("src/main.c"), want: filepath.FromSlash("src/main.c")},
		{name: "empty path", path: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToRelative(tt.path, root))
		})
	}

	assert.Equal(t, filepath.FromSlash("/a/b.c"), ToRelative(filepath.FromSlash("/a/b.c"), ""))
}

func TestToRelativeRefs(t *testing.T) {
	root := filepath.FromSlash("/proj")
	refs := []types.ReferenceInfo{
		{Position: types.Position{Path: filepath.FromSlash("/proj/a.c"), Line: 1}},
		{Position: types.Position{Path: filepath.FromSlash("/elsewhere/b.c"), Line: 2}},
	}

	converted := ToRelativeRefs(refs, root)
	assert.Equal(t, "a.c", converted[0].Position.Path)
	assert.Equal(t, filepath.FromSlash("/elsewhere/b.c"), converted[1].Position.Path)

	// Originals untouched.
	assert.Equal(t, filepath.FromSlash("/proj/a.c"), refs[0].Position.Path)
}

func TestToRelativeEdit(t *testing.T) {
	root := filepath.FromSlash("/proj")
	edit := types.NewWorkspaceEdit()
	edit.Add(types.TextEdit{Position: types.Position{Path: filepath.FromSlash("/proj/x.c")}, Length: 1, NewText: "y"})

	rel := ToRelativeEdit(edit, root)
	assert.Len(t, rel.Edits["x.c"], 1)
	assert.Equal(t, 1, edit.Size())
}
