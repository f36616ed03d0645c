package refsearch

import (
	"context"
	"sync"

	"github.com/standardbeagle/refscope/internal/protocol"
	"github.com/standardbeagle/refscope/internal/types"
)

// recordingView captures every call the coordinator makes into the
// results view.
type recordingView struct {
	mu       sync.Mutex
	results  []types.SearchResult
	grouped  []bool
	waiting  int
	hidden   int
	refreshs int
}

func (v *recordingView) ShowResults(result types.SearchResult, groupByFile bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.results = append(v.results, result)
	v.grouped = append(v.grouped, groupByFile)
}

func (v *recordingView) ShowWaiting() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.waiting++
}

func (v *recordingView) Hide() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.hidden++
}

func (v *recordingView) RefreshIfIdle() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.refreshs++
}

func (v *recordingView) refreshCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.refreshs
}

func (v *recordingView) hideCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.hidden
}

func (v *recordingView) waitingCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.waiting
}

func (v *recordingView) shownResults() []types.SearchResult {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]types.SearchResult(nil), v.results...)
}

type sinkReport struct {
	increment float64
	message   string
}

// recordingSink captures progress indicator traffic and lets tests
// trigger the user-cancel callback.
type recordingSink struct {
	mu       sync.Mutex
	titles   []string
	reports  []sinkReport
	done     int
	onCancel func()
}

func (s *recordingSink) Show(title string, onCancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.titles = append(s.titles, title)
	s.onCancel = onCancel
}

func (s *recordingSink) Report(increment float64, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, sinkReport{increment: increment, message: message})
}

func (s *recordingSink) Done() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done++
}

func (s *recordingSink) cancel() {
	s.mu.Lock()
	fn := s.onCancel
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (s *recordingSink) showCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.titles)
}

func (s *recordingSink) doneCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

func (s *recordingSink) allReports() []sinkReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sinkReport(nil), s.reports...)
}

type sentSearch struct {
	id      protocol.RequestID
	kind    types.SearchKind
	pos     types.Position
	newName string
}

type sentCancel struct {
	id     protocol.RequestID
	source types.CancellationSource
}

// fakeClient stands in for the engine connection. Tests drive the
// coordinator's handler methods directly to play the engine's side.
type fakeClient struct {
	mu      sync.Mutex
	nextID  protocol.RequestID
	sends   []sentSearch
	cancels []sentCancel
	sendErr error
}

func (f *fakeClient) SendSearch(_ context.Context, kind types.SearchKind, pos types.Position, newName string) (protocol.RequestID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return 0, f.sendErr
	}
	f.nextID++
	f.sends = append(f.sends, sentSearch{id: f.nextID, kind: kind, pos: pos, newName: newName})
	return f.nextID, nil
}

func (f *fakeClient) CancelSearch(id protocol.RequestID, source types.CancellationSource) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels = append(f.cancels, sentCancel{id: id, source: source})
	return nil
}

func (f *fakeClient) sendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sends)
}

func (f *fakeClient) cancelCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cancels)
}

func (f *fakeClient) sentSearches() []sentSearch {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentSearch(nil), f.sends...)
}

func (f *fakeClient) sentCancels() []sentCancel {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentCancel(nil), f.cancels...)
}
