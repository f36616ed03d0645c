package engine

import (
	"context"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/refscope/internal/protocol"
	"github.com/standardbeagle/refscope/internal/types"
)

type nopHandler struct {
	mu      sync.Mutex
	results int
}

func (h *nopHandler) OnProgress(protocol.RequestID, types.ProgressSnapshot) {}

func (h *nopHandler) OnResult(protocol.RequestID, types.SearchResult) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.results++
}

func TestLaunchEmptyCommand(t *testing.T) {
	_, err := Launch(context.Background(), nil, &nopHandler{})
	assert.Error(t, err)
}

func TestLaunchMissingBinary(t *testing.T) {
	_, err := Launch(context.Background(), []string{"refscope-engine-does-not-exist"}, &nopHandler{})
	assert.Error(t, err)
}

func TestLaunchAndClose(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses cat as a stand-in engine")
	}

	// cat echoes stdin to stdout and exits on stdin close, which is
	// enough to exercise the full pipe/shutdown path.
	proc, err := Launch(context.Background(), []string{"cat"}, &nopHandler{})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- proc.Close() }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not reap the engine process")
	}

	// Idempotent
	assert.NoError(t, proc.Close())
}
