package display

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/refscope/internal/types"
	"github.com/standardbeagle/refscope/pkg/pathutil"
)

// TextView is the writer-backed ResultsView used by the CLI. It filters
// references through include/exclude globs, prints paths relative to
// the project root, renders flat or grouped by file, and skips redraws
// whose rendered output is identical to the previous one.
type TextView struct {
	w       io.Writer
	root    string
	include []string
	exclude []string

	mu       sync.Mutex
	lastHash uint64
	waiting  bool
}

// NewTextView creates a text view writing to w. Paths are shown
// relative to root when possible. Include and exclude are doublestar
// glob patterns applied to reference file paths; an empty include list
// admits everything.
func NewTextView(w io.Writer, root string, include, exclude []string) *TextView {
	return &TextView{w: w, root: root, include: include, exclude: exclude}
}

// ShowResults renders the result set. Consecutive identical renders are
// suppressed so frequent low-signal updates do not repaint the screen.
func (v *TextView) ShowResults(result types.SearchResult, groupByFile bool) {
	// Relativize before filtering so configured globs match the paths
	// the user actually sees.
	refs := v.filter(pathutil.ToRelativeRefs(result.Refs, v.root))

	var rendered string
	if groupByFile {
		rendered = formatGrouped(refs, result.Finished)
	} else {
		rendered = formatFlat(refs, result.Finished)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	h := xxhash.Sum64String(rendered)
	if h == v.lastHash {
		return
	}
	v.lastHash = h
	v.waiting = false
	fmt.Fprint(v.w, rendered)
}

// ShowWaiting prints the waiting banner once per search.
func (v *TextView) ShowWaiting() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.waiting {
		return
	}
	v.waiting = true
	v.lastHash = 0
	fmt.Fprintln(v.w, "Searching...")
}

// Hide clears view state; the next ShowResults always renders.
func (v *TextView) Hide() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.waiting = false
	v.lastHash = 0
}

// RefreshIfIdle is a no-op for the text view; a panel UI would redraw here.
func (v *TextView) RefreshIfIdle() {}

// filter applies include/exclude globs to reference paths.
func (v *TextView) filter(refs []types.ReferenceInfo) []types.ReferenceInfo {
	if len(v.include) == 0 && len(v.exclude) == 0 {
		return refs
	}

	out := make([]types.ReferenceInfo, 0, len(refs))
	for _, ref := range refs {
		if !v.admits(ref.Position.Path) {
			continue
		}
		out = append(out, ref)
	}
	return out
}

func (v *TextView) admits(path string) bool {
	if len(v.include) > 0 {
		matched := false
		for _, pattern := range v.include {
			if ok, err := doublestar.Match(pattern, path); err == nil && ok {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, pattern := range v.exclude {
		if ok, err := doublestar.Match(pattern, path); err == nil && ok {
			return false
		}
	}
	return true
}

func formatFlat(refs []types.ReferenceInfo, finished bool) string {
	var sb strings.Builder
	for _, ref := range refs {
		fmt.Fprintf(&sb, "%s  [%s]  %s\n", ref.Position, ref.Type.DisplayName(), ref.Text)
	}
	writeSummary(&sb, len(refs), finished)
	return sb.String()
}

func formatGrouped(refs []types.ReferenceInfo, finished bool) string {
	byFile := make(map[string][]types.ReferenceInfo)
	for _, ref := range refs {
		byFile[ref.Position.Path] = append(byFile[ref.Position.Path], ref)
	}

	files := make([]string, 0, len(byFile))
	for f := range byFile {
		files = append(files, f)
	}
	sort.Strings(files)

	var sb strings.Builder
	for _, f := range files {
		group := byFile[f]
		fmt.Fprintf(&sb, "%s (%d)\n", f, len(group))
		for _, ref := range group {
			fmt.Fprintf(&sb, "  %d:%d  [%s]  %s\n",
				ref.Position.Line+1, ref.Position.Character+1, ref.Type.DisplayName(), ref.Text)
		}
	}
	writeSummary(&sb, len(refs), finished)
	return sb.String()
}

func writeSummary(sb *strings.Builder, count int, finished bool) {
	if finished {
		fmt.Fprintf(sb, "%d reference(s)\n", count)
	} else {
		fmt.Fprintf(sb, "%d reference(s) so far...\n", count)
	}
}
