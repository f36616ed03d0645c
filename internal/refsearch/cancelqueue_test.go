package refsearch

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCancellationQueueResolveActive(t *testing.T) {
	q := NewCancellationQueue()

	var order []string
	entry := func(gen uint64) PendingCancellation {
		return PendingCancellation{
			Generation: gen,
			Reject:     func() { order = append(order, fmt.Sprintf("reject-%d", gen)) },
			Resume:     func() { order = append(order, fmt.Sprintf("resume-%d", gen)) },
		}
	}

	q.Enqueue(entry(2))
	q.Enqueue(entry(3))
	q.Enqueue(entry(4))
	assert.Equal(t, 3, q.Len())

	q.ResolveActive()

	// Older intents rejected oldest-first, only the newest runs.
	assert.Equal(t, []string{"reject-2", "reject-3", "resume-4"}, order)
	assert.True(t, q.Empty())
}

func TestCancellationQueueResolveActiveEmpty(t *testing.T) {
	q := NewCancellationQueue()
	q.ResolveActive() // must not panic
	assert.True(t, q.Empty())
}

func TestCancellationQueueResolveActiveSingle(t *testing.T) {
	q := NewCancellationQueue()

	resumed := false
	q.Enqueue(PendingCancellation{
		Generation: 2,
		Reject:     func() { t.Error("sole entry must not be rejected") },
		Resume:     func() { resumed = true },
	})

	q.ResolveActive()
	assert.True(t, resumed)
}

func TestCancellationQueueFlushOne(t *testing.T) {
	q := NewCancellationQueue()

	var rejected []uint64
	for gen := uint64(1); gen <= 2; gen++ {
		gen := gen
		q.Enqueue(PendingCancellation{
			Generation: gen,
			Reject:     func() { rejected = append(rejected, gen) },
			Resume:     func() {},
		})
	}

	assert.True(t, q.FlushOne())
	assert.Equal(t, []uint64{1}, rejected)
	assert.Equal(t, 1, q.Len())

	assert.True(t, q.FlushOne())
	assert.False(t, q.FlushOne())
	assert.Equal(t, []uint64{1, 2}, rejected)
}
