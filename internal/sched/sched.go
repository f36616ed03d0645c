// Package sched provides the two cancellable scheduled-task shapes the
// search coordinator needs: a one-shot delay and a repeating poller.
// Both own exactly one goroutine, and cancellation is safe to call from
// every teardown path any number of times.
package sched

import (
	"sync"
	"time"
)

// Delayed runs fn once after the configured delay unless canceled first.
type Delayed struct {
	timer *time.Timer
	mu    sync.Mutex
	done  bool
}

// NewDelayed schedules fn to run after d. The returned task can be
// canceled; cancellation after the function has fired is a no-op.
func NewDelayed(d time.Duration, fn func()) *Delayed {
	t := &Delayed{}
	t.timer = time.AfterFunc(d, func() {
		t.mu.Lock()
		if t.done {
			t.mu.Unlock()
			return
		}
		t.done = true
		t.mu.Unlock()
		fn()
	})
	return t
}

// Cancel stops the task if it has not fired yet. Idempotent.
func (t *Delayed) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return
	}
	t.done = true
	t.timer.Stop()
}

// Fired reports whether the function ran (or cancellation won the race).
func (t *Delayed) Fired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}

// Poller runs fn on a fixed interval until stopped.
type Poller struct {
	interval time.Duration
	fn       func()

	mu      sync.Mutex
	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool
}

// NewPoller creates a poller; it does not start ticking until Start.
func NewPoller(interval time.Duration, fn func()) *Poller {
	return &Poller{interval: interval, fn: fn}
}

// Start begins ticking. Starting an already-running poller is a no-op.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.running = true
	p.stopCh = make(chan struct{})

	p.wg.Add(1)
	go p.run(p.stopCh)
}

func (p *Poller) run(stopCh chan struct{}) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.fn()
		case <-stopCh:
			return
		}
	}
}

// Stop halts ticking and waits for the goroutine to exit. Idempotent;
// stopping a never-started poller is a no-op.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopCh)
	p.mu.Unlock()

	p.wg.Wait()
}

// Running reports whether the poller is currently ticking.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}
