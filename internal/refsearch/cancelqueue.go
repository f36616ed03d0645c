package refsearch

import (
	"sync"

	"github.com/standardbeagle/refscope/internal/debug"
)

// PendingCancellation holds the settlement callbacks for a request that
// was superseded before the previous search finished tearing down.
// Reject settles the caller with a neutral empty result; Resume issues
// the caller's own search.
type PendingCancellation struct {
	Generation uint64
	Reject     func()
	Resume     func()
}

// CancellationQueue collects pending cancellations while a superseded
// search is still finishing. When the active search terminally
// completes, only the most recently queued intent actually executes;
// every earlier entry is rejected, in FIFO order, so no caller is left
// hanging.
type CancellationQueue struct {
	mu      sync.Mutex
	entries []PendingCancellation
}

// NewCancellationQueue creates an empty queue.
func NewCancellationQueue() *CancellationQueue {
	return &CancellationQueue{}
}

// Enqueue adds a pending cancellation.
func (q *CancellationQueue) Enqueue(p PendingCancellation) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append(q.entries, p)
	debug.LogSearch("queued cancellation for generation %d (depth %d)\n", p.Generation, len(q.entries))
}

// FlushOne pops the oldest entry and runs its reject. Returns false if
// the queue was empty.
func (q *CancellationQueue) FlushOne() bool {
	q.mu.Lock()
	if len(q.entries) == 0 {
		q.mu.Unlock()
		return false
	}
	oldest := q.entries[0]
	q.entries = q.entries[1:]
	q.mu.Unlock()

	oldest.Reject()
	return true
}

// ResolveActive settles the queue when the active search has terminally
// completed: every entry except the newest is rejected in FIFO order,
// then the newest entry's resume runs. Only the most recent user intent
// executes; superseded callers still get their promises settled.
func (q *CancellationQueue) ResolveActive() {
	q.mu.Lock()
	entries := q.entries
	q.entries = nil
	q.mu.Unlock()

	if len(entries) == 0 {
		return
	}

	for _, p := range entries[:len(entries)-1] {
		debug.LogSearch("rejecting superseded generation %d\n", p.Generation)
		p.Reject()
	}

	survivor := entries[len(entries)-1]
	debug.LogSearch("resuming generation %d\n", survivor.Generation)
	survivor.Resume()
}

// Len returns the current queue depth.
func (q *CancellationQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Empty reports whether no cancellations are pending.
func (q *CancellationQueue) Empty() bool {
	return q.Len() == 0
}
