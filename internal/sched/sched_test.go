package sched

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDelayedFires(t *testing.T) {
	fired := make(chan struct{})
	d := NewDelayed(10*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("delayed task never fired")
	}
	assert.True(t, d.Fired())
}

func TestDelayedCancelBeforeFire(t *testing.T) {
	var fired atomic.Bool
	d := NewDelayed(50*time.Millisecond, func() { fired.Store(true) })
	d.Cancel()

	time.Sleep(120 * time.Millisecond)
	assert.False(t, fired.Load(), "canceled task must not fire")
}

func TestDelayedCancelIdempotent(t *testing.T) {
	d := NewDelayed(time.Hour, func() {})
	d.Cancel()
	d.Cancel()
	d.Cancel()
	assert.True(t, d.Fired())
}

func TestDelayedCancelAfterFire(t *testing.T) {
	fired := make(chan struct{})
	d := NewDelayed(5*time.Millisecond, func() { close(fired) })
	<-fired

	// No observable effect beyond the first completion
	d.Cancel()
	d.Cancel()
}

func TestPollerTicks(t *testing.T) {
	var ticks atomic.Int64
	p := NewPoller(10*time.Millisecond, func() { ticks.Add(1) })
	p.Start()
	defer p.Stop()

	assert.Eventually(t, func() bool { return ticks.Load() >= 3 },
		time.Second, 5*time.Millisecond)
}

func TestPollerStopIdempotent(t *testing.T) {
	p := NewPoller(5*time.Millisecond, func() {})
	p.Start()
	p.Stop()
	p.Stop()
	p.Stop()
	assert.False(t, p.Running())
}

func TestPollerStopWithoutStart(t *testing.T) {
	p := NewPoller(time.Millisecond, func() {})
	p.Stop()
	assert.False(t, p.Running())
}

func TestPollerNoTicksAfterStop(t *testing.T) {
	var ticks atomic.Int64
	p := NewPoller(5*time.Millisecond, func() { ticks.Add(1) })
	p.Start()

	assert.Eventually(t, func() bool { return ticks.Load() >= 1 },
		time.Second, time.Millisecond)
	p.Stop()

	after := ticks.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, ticks.Load(), "no ticks may arrive after Stop returns")
}

func TestPollerRestart(t *testing.T) {
	var ticks atomic.Int64
	p := NewPoller(5*time.Millisecond, func() { ticks.Add(1) })

	p.Start()
	assert.Eventually(t, func() bool { return ticks.Load() >= 1 }, time.Second, time.Millisecond)
	p.Stop()

	first := ticks.Load()
	p.Start()
	assert.Eventually(t, func() bool { return ticks.Load() > first }, time.Second, time.Millisecond)
	p.Stop()
}
