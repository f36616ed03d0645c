// Package pathutil converts between absolute and relative paths.
//
// The engine reports reference positions with absolute paths; everything
// user-facing prints them relative to the project root for readability.
// Conversions happen at output boundaries only, internal state stays
// absolute.
package pathutil

import (
	"path/filepath"
	"strings"

	"github.com/standardbeagle/refscope/internal/types"
)

// ToRelative converts an absolute path to relative based on a root
// directory. Falls back to the original path if the conversion fails,
// the path is already relative, or the file lives outside the root.
func ToRelative(absPath, rootDir string) string {
	if absPath == "" || rootDir == "" {
		return absPath
	}
	if !filepath.IsAbs(absPath) {
		return absPath
	}

	absPath = filepath.Clean(absPath)
	rootDir = filepath.Clean(rootDir)

	relPath, err := filepath.Rel(rootDir, absPath)
	if err != nil {
		return absPath
	}
	// Outside the root the absolute path is clearer.
	if strings.HasPrefix(relPath, "..") {
		return absPath
	}
	return relPath
}

// ToRelativeRefs rewrites reference paths relative to rootDir. The
// original slice is left untouched.
func ToRelativeRefs(refs []types.ReferenceInfo, rootDir string) []types.ReferenceInfo {
	if len(refs) == 0 || rootDir == "" {
		return refs
	}

	converted := make([]types.ReferenceInfo, len(refs))
	copy(converted, refs)
	for i := range converted {
		converted[i].Position.Path = ToRelative(converted[i].Position.Path, rootDir)
	}
	return converted
}

// ToRelativeEdit rewrites the file keys of a workspace edit relative to
// rootDir, for display. Returns a new edit; positions inside are not
// modified.
func ToRelativeEdit(edit *types.WorkspaceEdit, rootDir string) *types.WorkspaceEdit {
	if edit == nil || rootDir == "" {
		return edit
	}

	out := types.NewWorkspaceEdit()
	for path, edits := range edit.Edits {
		out.Edits[ToRelative(path, rootDir)] = edits
	}
	return out
}
