package refsearch

import "github.com/standardbeagle/refscope/internal/types"

// Observer receives coordinator lifecycle events. Callbacks run on the
// coordinator's notification paths and must not block.
type Observer interface {
	// OnProgress fires for every accepted progress snapshot.
	OnProgress(generation uint64, snapshot types.ProgressSnapshot)

	// OnResult fires for every accepted result, incremental or terminal.
	OnResult(generation uint64, result types.SearchResult)

	// OnModeChanged fires when the active mode changes, including the
	// reset to None after a terminal result.
	OnModeChanged(mode types.SearchKind)
}
