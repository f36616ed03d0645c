package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/standardbeagle/refscope/internal/types"
)

// printWorkspaceEdit writes the edit set grouped per file, one line per
// edit, files in stable order.
func printWorkspaceEdit(edit *types.WorkspaceEdit) {
	paths := make([]string, 0, len(edit.Edits))
	for path := range edit.Edits {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		edits := edit.Edits[path]
		fmt.Printf("%s (%d)\n", path, len(edits))
		for _, e := range edits {
			fmt.Printf("  %d:%d -> %s\n", e.Position.Line+1, e.Position.Character+1, e.NewText)
		}
	}
}

// applyWorkspaceEdit rewrites the touched files in place. Edits within
// one line are applied right-to-left so earlier positions stay valid.
func applyWorkspaceEdit(edit *types.WorkspaceEdit) error {
	for path, edits := range edit.Edits {
		if err := applyFileEdits(path, edits); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

func applyFileEdits(path string, edits []types.TextEdit) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	lines := strings.Split(string(content), "\n")

	ordered := append([]types.TextEdit(nil), edits...)
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i].Position, ordered[j].Position
		if a.Line != b.Line {
			return a.Line > b.Line
		}
		return a.Character > b.Character
	})

	for _, e := range ordered {
		if e.Position.Line < 0 || e.Position.Line >= len(lines) {
			return fmt.Errorf("edit at %s outside file", e.Position)
		}
		line := lines[e.Position.Line]
		start := e.Position.Character
		end := start + e.Length
		if start < 0 || end > len(line) {
			return fmt.Errorf("edit at %s outside line", e.Position)
		}
		lines[e.Position.Line] = line[:start] + e.NewText + line[end:]
	}

	return os.WriteFile(path, []byte(strings.Join(lines, "\n")), info.Mode().Perm())
}
