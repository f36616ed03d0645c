package refsearch

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/standardbeagle/refscope/internal/debug"
	"github.com/standardbeagle/refscope/internal/display"
	"github.com/standardbeagle/refscope/internal/sched"
	"github.com/standardbeagle/refscope/internal/types"
)

// Progress weighting: lexing accounts for the first 25 percentage
// points, confirmation for the rest; a file mid-confirmation counts
// half. These values are load-bearing for compatibility with the
// reference behavior and must not drift.
const (
	progressLexShare      = 25.0
	progressConfirmWeight = 0.5
	progressMax           = 100.0
)

// searchingMessage is shown before any targets are known.
const searchingMessage = "Searching files"

// ProgressReporter drives the cancellable progress indicator for one
// search at a time. The indicator appears only after a delay, so fast
// searches never flash it, and refreshes are throttled to the poll
// interval with low-signal updates suppressed.
type ProgressReporter struct {
	sink  display.ProgressSink
	delay time.Duration
	poll  time.Duration

	mu            sync.Mutex
	active        bool
	shown         bool
	mode          types.SearchKind
	snapshot      types.ProgressSnapshot
	haveSnapshot  bool
	forced        bool
	lastIncrement float64
	lastMessage   string
	delayed       *sched.Delayed
	poller        *sched.Poller

	// cancelIssued has its own synchronization: the sink invokes the
	// cancel callback from UI goroutines that must not contend with
	// the reporter lock.
	cancelIssued atomic.Bool
	onCancel     func()
}

// NewProgressReporter creates a reporter over the sink. The reference
// behavior uses a 2000ms delay and a 1000ms poll interval.
func NewProgressReporter(sink display.ProgressSink, delay, poll time.Duration) *ProgressReporter {
	return &ProgressReporter{sink: sink, delay: delay, poll: poll}
}

// Begin arms the reporter for a new search. onCancel is invoked at most
// once, when the user cancels through the indicator.
func (r *ProgressReporter) Begin(mode types.SearchKind, onCancel func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.endLocked()

	r.active = true
	r.mode = mode
	r.snapshot = types.ProgressSnapshot{}
	r.haveSnapshot = false
	r.forced = false
	r.lastIncrement = -1
	r.lastMessage = ""
	r.cancelIssued.Store(false)
	r.onCancel = onCancel

	r.poller = sched.NewPoller(r.poll, r.tick)
	r.delayed = sched.NewDelayed(r.delay, r.show)
	debug.LogProgress("armed for %s (delay %s)\n", mode, r.delay)
}

// Update records the latest snapshot; the UI picks it up on the next tick.
func (r *ProgressReporter) Update(snapshot types.ProgressSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return
	}
	r.snapshot = snapshot
	r.haveSnapshot = true
}

// ForceUpdate makes the next tick report even if the increment did not grow.
func (r *ProgressReporter) ForceUpdate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.forced = true
}

// End tears the reporter down: both scheduled tasks are canceled and the
// indicator, if it ever appeared, is dismissed. Idempotent; reachable
// from every teardown path.
func (r *ProgressReporter) End() {
	r.mu.Lock()
	delayed, poller := r.delayed, r.poller
	wasShown := r.shown
	r.active = false
	r.shown = false
	r.delayed = nil
	r.poller = nil
	r.onCancel = nil
	r.mu.Unlock()

	if delayed != nil {
		delayed.Cancel()
	}
	if poller != nil {
		poller.Stop()
	}
	if wasShown {
		r.sink.Done()
	}
}

// endLocked drops task references while already holding the lock; Begin
// uses it to replace a previous search's tasks. Cancellation happens
// outside the lock in End for the normal paths.
func (r *ProgressReporter) endLocked() {
	if r.delayed != nil {
		r.delayed.Cancel()
		r.delayed = nil
	}
	if r.poller != nil {
		poller := r.poller
		r.poller = nil
		go poller.Stop()
	}
	if r.shown {
		r.shown = false
		defer r.sink.Done()
	}
}

// show runs when the delay elapses: the search is still going, so the
// indicator becomes visible and the refresh poller starts. The poller
// starts only after Show returns; a sink never sees a Report before
// its Show.
func (r *ProgressReporter) show() {
	r.mu.Lock()
	if !r.active || r.shown {
		r.mu.Unlock()
		return
	}
	r.shown = true
	r.forced = true
	title := progressTitle(r.mode)
	r.mu.Unlock()

	r.sink.Show(title, r.userCancel)
	debug.LogProgress("indicator shown: %s\n", title)

	// The search may have torn down while the indicator was being
	// presented; dismiss it rather than leaving it stranded.
	r.mu.Lock()
	if !r.active {
		r.mu.Unlock()
		r.sink.Done()
		return
	}
	if r.poller != nil {
		r.poller.Start()
	}
	r.mu.Unlock()
}

// userCancel issues a single User-tagged cancellation. The guard keeps
// later ticks (or repeated UI events) from re-issuing it.
func (r *ProgressReporter) userCancel() {
	if r.cancelIssued.Swap(true) {
		return
	}
	r.mu.Lock()
	fn := r.onCancel
	r.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// tick recomputes progress and reports only a material change: a forced
// recompute, an increment strictly greater than the last reported one,
// or new message text.
func (r *ProgressReporter) tick() {
	r.mu.Lock()
	if !r.active || !r.shown {
		r.mu.Unlock()
		return
	}

	increment, message := computeProgress(r.snapshot)
	if !r.haveSnapshot {
		increment, message = 0, searchingMessage
	}

	material := r.forced || increment > r.lastIncrement || message != r.lastMessage
	if !material {
		r.mu.Unlock()
		return
	}
	r.forced = false

	// Progress never moves backwards within one search.
	if increment < r.lastIncrement {
		increment = r.lastIncrement
	}
	r.lastIncrement = increment
	r.lastMessage = message
	r.mu.Unlock()

	r.sink.Report(increment, message)
}

// Shown reports whether the indicator is currently visible.
func (r *ProgressReporter) Shown() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shown
}

// computeProgress turns a snapshot into the weighted increment and the
// status message. The formula must match the reference behavior:
//
//	finishedLexing = total − waitingToLex − lexing
//	totalToParse   = total − finishedWithoutConfirming
//	increment      = lexProgress·25 + parseProgress·75
//
// where parseProgress counts a file mid-confirmation at half weight.
func computeProgress(s types.ProgressSnapshot) (float64, string) {
	totalToLex := s.TargetCount
	if totalToLex == 0 {
		return 0, searchingMessage
	}

	finishedLexing := totalToLex - s.Status.WaitingToLex - s.Status.Lexing
	totalToParse := totalToLex - s.Status.FinishedWithoutConfirming

	lexProgress := float64(finishedLexing) / float64(totalToLex)

	var parseProgress float64
	if totalToParse > 0 {
		parseProgress = (float64(s.Status.ConfirmingReferences)*progressConfirmWeight +
			float64(s.Status.FinishedConfirming)) / float64(totalToParse)
	} else {
		// Every target finished without needing confirmation.
		parseProgress = 1
	}

	increment := lexProgress*progressLexShare + parseProgress*(progressMax-progressLexShare)

	var message string
	if s.Status.FinishedConfirming == 0 && finishedLexing < totalToLex {
		message = fmt.Sprintf("%d/%d files searched", finishedLexing, totalToLex)
	} else {
		message = fmt.Sprintf("%d/%d files confirmed", s.Status.FinishedConfirming, totalToParse)
	}
	return increment, message
}

func progressTitle(mode types.SearchKind) string {
	switch mode {
	case types.SearchKindRename:
		return "Finding rename locations"
	case types.SearchKindCallHierarchy:
		return "Building call hierarchy"
	default:
		return "Finding references"
	}
}
