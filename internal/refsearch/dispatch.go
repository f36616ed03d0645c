package refsearch

import (
	"sync"

	"github.com/standardbeagle/refscope/internal/debug"
	"github.com/standardbeagle/refscope/internal/display"
	"github.com/standardbeagle/refscope/internal/types"
)

// ResultDispatcher routes finished results either into a structured
// rename edit or into the display collaborators, and fires the optional
// refresh hook exactly once per finished result.
type ResultDispatcher struct {
	views display.ResultsView

	mu        sync.Mutex
	refreshed bool
}

// NewResultDispatcher creates a dispatcher over the display collaborators.
func NewResultDispatcher(views display.ResultsView) *ResultDispatcher {
	return &ResultDispatcher{views: views}
}

// Reset re-arms the refresh guard; the coordinator calls it whenever a
// new search takes ownership.
func (d *ResultDispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.refreshed = false
}

// DispatchLocations presents a find/peek/call-hierarchy result. On an
// actually finished, non-preview completion with nothing else pending,
// the refresh hook fires, and only once however fast successive
// completions arrive.
func (d *ResultDispatcher) DispatchLocations(result types.SearchResult, mode types.SearchKind, groupByFile, morePending bool) {
	if result.Canceled {
		// A canceled search leaves no list worth presenting.
		d.views.Hide()
		return
	}

	d.views.ShowResults(result, groupByFile)

	if !result.Finished || mode == types.SearchKindPeek || morePending {
		return
	}

	d.mu.Lock()
	already := d.refreshed
	d.refreshed = true
	d.mu.Unlock()
	if already {
		return
	}

	debug.LogSearch("refreshing idle view after finished %s\n", mode)
	d.views.RefreshIfIdle()
}

// BuildRenameEdit turns a terminal rename result into a workspace edit.
// A canceled rename yields an empty edit so the host editor sees "no
// changes" instead of an error dialog. Only confirmed references are
// renamed; the matched span length sizes each replacement.
func (d *ResultDispatcher) BuildRenameEdit(result types.SearchResult, newName string) *types.WorkspaceEdit {
	edit := types.NewWorkspaceEdit()
	if result.Canceled {
		return edit
	}

	for _, ref := range result.ConfirmedRefs() {
		edit.Add(types.TextEdit{
			Position: ref.Position,
			Length:   result.MatchLen,
			NewText:  newName,
		})
	}
	return edit
}
