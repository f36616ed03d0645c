// Package refsearch implements the client-side coordinator for
// long-running, cancellable symbol searches issued against the external
// analysis engine: request lifecycle, the single-owner invariant,
// throttled progress reporting, and the cancellation chain that settles
// superseded callers.
package refsearch

import (
	"context"
	"sync"
	"time"

	"github.com/standardbeagle/refscope/internal/debug"
	"github.com/standardbeagle/refscope/internal/display"
	"github.com/standardbeagle/refscope/internal/protocol"
	"github.com/standardbeagle/refscope/internal/types"
)

// ServiceClient is the outbound contract to the analysis engine.
// *protocol.Client satisfies it; tests substitute a fake.
type ServiceClient interface {
	SendSearch(ctx context.Context, kind types.SearchKind, pos types.Position, newName string) (protocol.RequestID, error)
	CancelSearch(id protocol.RequestID, source types.CancellationSource) error
}

// Config carries the coordinator's timing constants.
type Config struct {
	ProgressDelay time.Duration // before the progress indicator may appear
	ProgressPoll  time.Duration // indicator refresh throttle
	PeekWindow    time.Duration // viewport-shrink window classifying Peek
}

// DefaultCoordinatorConfig returns the reference timing values.
func DefaultCoordinatorConfig() Config {
	return Config{
		ProgressDelay: 2000 * time.Millisecond,
		ProgressPoll:  1000 * time.Millisecond,
		PeekWindow:    1000 * time.Millisecond,
	}
}

// outcome settles one caller's wait.
type outcome struct {
	refs []types.ReferenceInfo
	edit *types.WorkspaceEdit
	err  error
}

// pendingRequest is one caller-side logical search. Identity (pointer)
// detects staleness; the generation orders it against other requests.
type pendingRequest struct {
	generation uint64
	kind       types.SearchKind // as requested, before classification
	pos        types.Position
	newName    string

	done      chan outcome // buffered; receives exactly one outcome
	settled   bool         // guarded by the coordinator lock
	abandoned bool         // caller gave up (context canceled)
}

// Coordinator owns the lifecycle of a single logical search at a time.
// Overlapping requests from the host are tolerated: the newest wins,
// everything older is settled with an empty result. One instance serves
// one workspace session; there is no ambient global state.
type Coordinator struct {
	client     ServiceClient
	views      display.ResultsView
	classifier *ModeClassifier
	reporter   *ProgressReporter
	dispatcher *ResultDispatcher
	queue      *CancellationQueue

	mu          sync.Mutex
	generation  uint64
	active      *pendingRequest
	activeID    protocol.RequestID
	started     bool // saw the Started notification for the active search
	mode        types.SearchKind
	snapshot    types.ProgressSnapshot
	groupByFile bool
	observers   []Observer
}

// NewCoordinator wires a coordinator over the engine client and the
// display collaborators.
func NewCoordinator(client ServiceClient, views display.ResultsView, sink display.ProgressSink, cfg Config) *Coordinator {
	if cfg.ProgressDelay == 0 {
		cfg.ProgressDelay = DefaultCoordinatorConfig().ProgressDelay
	}
	if cfg.ProgressPoll == 0 {
		cfg.ProgressPoll = DefaultCoordinatorConfig().ProgressPoll
	}
	if cfg.PeekWindow == 0 {
		cfg.PeekWindow = DefaultCoordinatorConfig().PeekWindow
	}

	return &Coordinator{
		client:     client,
		views:      views,
		classifier: NewModeClassifier(cfg.PeekWindow),
		reporter:   NewProgressReporter(sink, cfg.ProgressDelay, cfg.ProgressPoll),
		dispatcher: NewResultDispatcher(views),
		queue:      NewCancellationQueue(),
	}
}

// AddObserver registers a lifecycle observer.
func (c *Coordinator) AddObserver(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, o)
}

// RecordVisibleRange forwards a viewport length to the classifier.
func (c *Coordinator) RecordVisibleRange(length int) {
	c.classifier.RecordVisibleRange(length)
}

// SetGroupByFile updates the presentation preference for subsequent
// renders and forces a progress recompute (counters changed on screen).
func (c *Coordinator) SetGroupByFile(group bool) {
	c.mu.Lock()
	c.groupByFile = group
	c.mu.Unlock()
	c.reporter.ForceUpdate()
}

// GroupByFile returns the current presentation preference.
func (c *Coordinator) GroupByFile() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.groupByFile
}

// Mode returns the currently active operating mode (None when idle).
func (c *Coordinator) Mode() types.SearchKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Find resolves all references to the symbol at pos. Superseded or
// canceled searches resolve with an empty list, never an error; only
// transport failures surface.
func (c *Coordinator) Find(ctx context.Context, pos types.Position) ([]types.ReferenceInfo, error) {
	return c.locations(ctx, types.SearchKindFind, pos)
}

// CallHierarchy resolves the call sites of the symbol at pos.
func (c *Coordinator) CallHierarchy(ctx context.Context, pos types.Position) ([]types.ReferenceInfo, error) {
	return c.locations(ctx, types.SearchKindCallHierarchy, pos)
}

// Rename computes the edit set renaming the symbol at pos to newName.
// A canceled or superseded rename resolves with an empty edit set.
func (c *Coordinator) Rename(ctx context.Context, pos types.Position, newName string) (*types.WorkspaceEdit, error) {
	p := c.start(types.SearchKindRename, pos, newName)

	select {
	case o := <-p.done:
		if o.err != nil {
			return nil, o.err
		}
		if o.edit == nil {
			return types.NewWorkspaceEdit(), nil
		}
		return o.edit, nil
	case <-ctx.Done():
		c.abandon(p, types.CancelProviderToken)
		return types.NewWorkspaceEdit(), nil
	}
}

func (c *Coordinator) locations(ctx context.Context, kind types.SearchKind, pos types.Position) ([]types.ReferenceInfo, error) {
	p := c.start(kind, pos, "")

	select {
	case o := <-p.done:
		return o.refs, o.err
	case <-ctx.Done():
		c.abandon(p, types.CancelProviderToken)
		return nil, nil
	}
}

// start creates the next-generation request and either issues it
// immediately or, when another search owns the slot, cancels the owner
// and queues this request behind its teardown.
func (c *Coordinator) start(kind types.SearchKind, pos types.Position, newName string) *pendingRequest {
	c.mu.Lock()
	c.generation++
	p := &pendingRequest{
		generation: c.generation,
		kind:       kind,
		pos:        pos,
		newName:    newName,
		done:       make(chan outcome, 1),
	}

	if c.active != nil {
		supersededID := c.activeID
		c.queue.Enqueue(PendingCancellation{
			Generation: p.generation,
			Reject:     func() { c.settle(p, outcome{}) },
			Resume:     func() { c.issue(p) },
		})
		c.mu.Unlock()

		debug.LogSearch("generation %d supersedes request %d\n", p.generation, supersededID)
		if err := c.client.CancelSearch(supersededID, types.CancelNewRequest); err != nil {
			debug.LogSearch("cancel of superseded request failed: %v\n", err)
		}
		return p
	}

	c.issueLocked(p)
	c.mu.Unlock()
	return p
}

// issue dispatches a queued request once the previous owner is gone.
func (c *Coordinator) issue(p *pendingRequest) {
	c.mu.Lock()
	c.issueLocked(p)
	c.mu.Unlock()
}

func (c *Coordinator) issueLocked(p *pendingRequest) {
	if p.abandoned || p.settled {
		return
	}

	// Another search may have claimed the slot while this request sat
	// in the cancellation queue: a caller that started during the
	// previous owner's result dispatch, before the queue resolved. The
	// newer intent keeps the slot; the stale resume settles empty. An
	// older owner is forced out with a synthetic cancel instead; with a
	// well-behaved queue that second case never fires.
	if c.active != nil {
		if c.active.generation > p.generation {
			debug.LogSearch("generation %d resumed stale, rejecting\n", p.generation)
			c.settleLocked(p, outcome{})
			return
		}
		prev := c.active
		debug.LogSearch("synthetic cancel of generation %d\n", prev.generation)
		c.teardownLocked()
		c.settleLocked(prev, outcome{})
	}

	id, err := c.client.SendSearch(context.Background(), p.kind, p.pos, p.newName)
	if err != nil {
		c.settleLocked(p, outcome{err: err})
		return
	}

	c.active = p
	c.activeID = id
	c.started = false
	c.mode = types.SearchKindNone
	c.snapshot = types.ProgressSnapshot{} // hard counter reset for the new lifetime
	c.dispatcher.Reset()
	debug.LogSearch("generation %d issued as request %d (%s)\n", p.generation, id, p.kind)
}

// CancelActive asks the engine to stop the current search. The engine
// still owes a terminal result; ownership is released only when it
// arrives.
func (c *Coordinator) CancelActive(source types.CancellationSource) {
	c.mu.Lock()
	id := c.activeID
	hasActive := c.active != nil
	c.mu.Unlock()

	if !hasActive {
		return
	}
	debug.LogCancel(source, "canceling active request %d\n", id)
	if err := c.client.CancelSearch(id, source); err != nil {
		debug.LogCancel(source, "cancel failed: %v\n", err)
	}
}

// abandon settles a caller that stopped waiting (context canceled) and,
// if its search is in flight, asks the engine to stop it.
func (c *Coordinator) abandon(p *pendingRequest, source types.CancellationSource) {
	c.mu.Lock()
	p.abandoned = true
	wasActive := c.active == p
	id := c.activeID
	c.settleLocked(p, outcome{})
	c.mu.Unlock()

	if wasActive {
		debug.LogCancel(source, "caller abandoned request %d\n", id)
		if err := c.client.CancelSearch(id, source); err != nil {
			debug.LogCancel(source, "cancel failed: %v\n", err)
		}
	}
}

// OnProgress implements protocol.Handler. Notifications whose id does
// not match the active request are dropped silently: they belong to a
// search that has already been superseded.
func (c *Coordinator) OnProgress(id protocol.RequestID, snapshot types.ProgressSnapshot) {
	c.mu.Lock()
	if c.active == nil || id != c.activeID {
		c.mu.Unlock()
		return
	}

	gen := c.active.generation
	first := !c.started && snapshot.Phase == types.PhaseStarted
	if first {
		c.started = true
		c.mode = c.classifier.Classify(c.active.kind)
		mode := c.mode

		// First Started: reset the views and arm the delayed indicator.
		c.views.ShowWaiting()
		c.reporter.Begin(mode, func() { c.CancelActive(types.CancelUser) })
		debug.LogSearch("generation %d classified as %s\n", gen, mode)
	}
	mode := c.mode
	c.snapshot = snapshot
	c.reporter.Update(snapshot)
	c.mu.Unlock()

	if first {
		c.notifyModeChanged(mode)
	}
	c.notifyProgress(gen, snapshot)
}

// OnResult implements protocol.Handler. Terminal results tear the
// active search down before dispatching; non-terminal results are
// display updates only.
func (c *Coordinator) OnResult(id protocol.RequestID, result types.SearchResult) {
	c.mu.Lock()
	if c.active == nil || id != c.activeID {
		c.mu.Unlock()
		return
	}

	p := c.active
	gen := p.generation
	mode := c.mode
	if mode == types.SearchKindNone {
		// Terminal before Started; fall back to the requested kind.
		mode = c.classifier.Classify(p.kind)
	}
	groupByFile := c.groupByFile

	if !result.Terminal() {
		c.mu.Unlock()
		if p.kind != types.SearchKindRename {
			c.dispatcher.DispatchLocations(result, mode, groupByFile, !c.queue.Empty())
		}
		c.notifyResult(gen, result)
		return
	}

	// Teardown precedes dispatch so nothing new can begin while the
	// finished search still owns the slot.
	c.teardownLocked()
	c.mu.Unlock()

	c.notifyModeChanged(types.SearchKindNone)
	debug.LogSearch("generation %d terminal: finished=%t canceled=%t refs=%d\n",
		gen, result.Finished, result.Canceled, len(result.Refs))

	if p.kind == types.SearchKindRename {
		c.settle(p, outcome{edit: c.dispatcher.BuildRenameEdit(result, p.newName)})
	} else {
		c.dispatcher.DispatchLocations(result, mode, groupByFile, !c.queue.Empty())
		refs := result.Refs
		if result.Canceled {
			refs = nil
		}
		c.settle(p, outcome{refs: refs})
	}
	c.notifyResult(gen, result)

	// Follow the cancellation chain: reject everything but the newest
	// queued intent, then let it run.
	c.queue.ResolveActive()
}

// teardownLocked releases the ownership slot. Idempotent: a second call
// for the same search finds nothing to release.
func (c *Coordinator) teardownLocked() {
	c.reporter.End()
	c.active = nil
	c.activeID = 0
	c.started = false
	c.snapshot = types.ProgressSnapshot{}
	c.mode = types.SearchKindNone
}

func (c *Coordinator) settle(p *pendingRequest, o outcome) {
	c.mu.Lock()
	c.settleLocked(p, o)
	c.mu.Unlock()
}

func (c *Coordinator) settleLocked(p *pendingRequest, o outcome) {
	if p.settled {
		return
	}
	p.settled = true
	p.done <- o
}

func (c *Coordinator) snapshotObservers() []Observer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Observer(nil), c.observers...)
}

func (c *Coordinator) notifyProgress(gen uint64, s types.ProgressSnapshot) {
	for _, o := range c.snapshotObservers() {
		o.OnProgress(gen, s)
	}
}

func (c *Coordinator) notifyResult(gen uint64, r types.SearchResult) {
	for _, o := range c.snapshotObservers() {
		o.OnResult(gen, r)
	}
}

func (c *Coordinator) notifyModeChanged(mode types.SearchKind) {
	for _, o := range c.snapshotObservers() {
		o.OnModeChanged(mode)
	}
}
