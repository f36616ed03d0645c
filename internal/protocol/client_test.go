package protocol

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/refscope/internal/types"
)

type recordingHandler struct {
	mu       sync.Mutex
	progress []RequestID
	results  []RequestID
	last     types.SearchResult
}

func (h *recordingHandler) OnProgress(id RequestID, s types.ProgressSnapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.progress = append(h.progress, id)
}

func (h *recordingHandler) OnResult(id RequestID, r types.SearchResult) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.results = append(h.results, id)
	h.last = r
}

func (h *recordingHandler) resultIDs() []RequestID {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]RequestID(nil), h.results...)
}

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	params, err := json.Marshal(StartParams{Kind: types.SearchKindFind, Position: types.Position{Path: "a.cpp", Line: 3}})
	require.NoError(t, err)

	out := &message{Method: MethodStart, ID: 12, Params: params}
	require.NoError(t, writeFrame(&buf, out))

	in, err := readFrame(bufio.NewReader(&buf))
	require.NoError(t, err)
	assert.Equal(t, MethodStart, in.Method)
	assert.Equal(t, RequestID(12), in.ID)

	var got StartParams
	require.NoError(t, json.Unmarshal(in.Params, &got))
	assert.Equal(t, types.SearchKindFind, got.Kind)
	assert.Equal(t, "a.cpp", got.Position.Path)
}

func TestReadFrameMissingHeader(t *testing.T) {
	r := bufio.NewReader(bytes.NewBufferString("X-Other: 1\r\n\r\n{}"))
	_, err := readFrame(r)
	assert.Error(t, err)
}

func TestReadFrameMalformedLength(t *testing.T) {
	r := bufio.NewReader(bytes.NewBufferString("Content-Length: nope\r\n\r\n{}"))
	_, err := readFrame(r)
	assert.Error(t, err)
}

// pipePair gives the test an engine-side handle to a client transport.
func pipePair() (clientSide, engineSide net.Conn) {
	return net.Pipe()
}

func TestSendSearchAssignsMonotonicIDs(t *testing.T) {
	clientConn, engineConn := pipePair()
	defer engineConn.Close()

	c := NewClient(clientConn, &recordingHandler{})
	defer c.Close()

	// Drain engine side so writes don't block on the pipe.
	seen := make(chan *message, 16)
	go func() {
		reader := bufio.NewReader(engineConn)
		for {
			msg, err := readFrame(reader)
			if err != nil {
				return
			}
			seen <- msg
		}
	}()

	id1, err := c.SendSearch(t.Context(), types.SearchKindFind, types.Position{Path: "a.cpp"}, "")
	require.NoError(t, err)
	id2, err := c.SendSearch(t.Context(), types.SearchKindRename, types.Position{Path: "a.cpp"}, "x1")
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	// Hello precedes the first search exactly once.
	first := <-seen
	assert.Equal(t, MethodHello, first.Method)
	var hello HelloParams
	require.NoError(t, json.Unmarshal(first.Params, &hello))
	assert.Equal(t, c.Session(), hello.Session)

	start1 := <-seen
	assert.Equal(t, MethodStart, start1.Method)
	assert.Equal(t, id1, start1.ID)

	start2 := <-seen
	assert.Equal(t, MethodStart, start2.Method)
	assert.Equal(t, id2, start2.ID)
	var sp StartParams
	require.NoError(t, json.Unmarshal(start2.Params, &sp))
	assert.Equal(t, "x1", sp.NewName)
}

func TestCancelSearchCarriesSource(t *testing.T) {
	clientConn, engineConn := pipePair()
	defer engineConn.Close()

	c := NewClient(clientConn, &recordingHandler{})
	defer c.Close()

	seen := make(chan *message, 4)
	go func() {
		reader := bufio.NewReader(engineConn)
		for {
			msg, err := readFrame(reader)
			if err != nil {
				return
			}
			seen <- msg
		}
	}()

	require.NoError(t, c.CancelSearch(7, types.CancelUser))

	msg := <-seen
	assert.Equal(t, MethodCancel, msg.Method)
	assert.Equal(t, RequestID(7), msg.ID)
	var cp CancelParams
	require.NoError(t, json.Unmarshal(msg.Params, &cp))
	assert.Equal(t, types.CancelUser, cp.Source)
}

func TestRunDispatchesNotifications(t *testing.T) {
	clientConn, engineConn := pipePair()

	h := &recordingHandler{}
	c := NewClient(clientConn, h)

	runDone := make(chan error, 1)
	go func() { runDone <- c.Run() }()

	// Engine pushes a progress notification then a terminal result.
	progress, _ := json.Marshal(ProgressParams{Snapshot: types.ProgressSnapshot{Phase: types.PhaseStarted}})
	require.NoError(t, writeFrame(engineConn, &message{Method: MethodProgress, ID: 3, Params: progress}))

	result, _ := json.Marshal(ResultParams{Result: types.SearchResult{Finished: true}})
	require.NoError(t, writeFrame(engineConn, &message{Method: MethodResult, ID: 3, Params: result}))

	assert.Eventually(t, func() bool {
		ids := h.resultIDs()
		return len(ids) == 1 && ids[0] == RequestID(3)
	}, time.Second, 5*time.Millisecond)

	// Closing the engine side ends Run cleanly.
	engineConn.Close()
	select {
	case err := <-runDone:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after transport close")
	}
	c.Close()
}

func TestRunIgnoresUnknownMethods(t *testing.T) {
	clientConn, engineConn := pipePair()

	h := &recordingHandler{}
	c := NewClient(clientConn, h)
	runDone := make(chan error, 1)
	go func() { runDone <- c.Run() }()

	require.NoError(t, writeFrame(engineConn, &message{Method: "engine/heartbeat"}))
	result, _ := json.Marshal(ResultParams{Result: types.SearchResult{Finished: true}})
	require.NoError(t, writeFrame(engineConn, &message{Method: MethodResult, ID: 1, Params: result}))

	assert.Eventually(t, func() bool { return len(h.resultIDs()) == 1 },
		time.Second, 5*time.Millisecond)

	engineConn.Close()
	<-runDone
	c.Close()
}

func TestCloseIdempotent(t *testing.T) {
	clientConn, engineConn := pipePair()
	defer engineConn.Close()

	c := NewClient(clientConn, &recordingHandler{})
	require.NoError(t, c.Close())
	assert.Equal(t, c.Close(), c.Close())
}
