// Package display holds the presentation collaborators the coordinator
// talks to: a results view and a progress sink. Calls into this package
// never propagate failures back into the coordinator.
package display

import "github.com/standardbeagle/refscope/internal/types"

// ResultsView receives reference results for presentation.
type ResultsView interface {
	// ShowResults presents the (possibly incremental) result set,
	// grouped per file when groupByFile is set.
	ShowResults(result types.SearchResult, groupByFile bool)

	// ShowWaiting indicates a search has started and results are coming.
	ShowWaiting()

	// Hide clears any waiting or partial presentation.
	Hide()

	// RefreshIfIdle asks an attached UI collaborator to refresh itself;
	// a no-op when none is attached.
	RefreshIfIdle()
}

// ProgressSink is the cancellable progress indicator. Show hands over
// an onCancel callback the sink invokes when the user cancels.
type ProgressSink interface {
	Show(title string, onCancel func())
	Report(increment float64, message string)
	Done()
}

// NopView is a ResultsView that discards everything. Useful as the
// default collaborator and in tests.
type NopView struct{}

func (NopView) ShowResults(types.SearchResult, bool) {}
func (NopView) ShowWaiting()                         {}
func (NopView) Hide()                                {}
func (NopView) RefreshIfIdle()                       {}

// NopSink is a ProgressSink that discards everything.
type NopSink struct{}

func (NopSink) Show(string, func())    {}
func (NopSink) Report(float64, string) {}
func (NopSink) Done()                  {}
