package protocol

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/standardbeagle/refscope/internal/debug"
	rferrors "github.com/standardbeagle/refscope/internal/errors"
	"github.com/standardbeagle/refscope/internal/types"
)

// Handler consumes inbound engine notifications. Implementations must
// tolerate notifications for ids they no longer care about.
type Handler interface {
	OnProgress(id RequestID, snapshot types.ProgressSnapshot)
	OnResult(id RequestID, result types.SearchResult)
}

// Client is the outbound half of the engine channel plus the inbound
// dispatch loop. One Client serves one session.
type Client struct {
	conn    io.ReadWriteCloser
	handler Handler
	session string

	writeMu sync.Mutex
	nextID  atomic.Uint64
	said    atomic.Bool // hello sent

	closeOnce sync.Once
	closeErr  error
}

// NewClient wraps a transport. The handler receives every inbound
// notification until the transport closes.
func NewClient(conn io.ReadWriteCloser, handler Handler) *Client {
	return &Client{
		conn:    conn,
		handler: handler,
		session: uuid.NewString(),
	}
}

// Session returns the session id sent in the hello exchange.
func (c *Client) Session() string {
	return c.session
}

// SendSearch dispatches a search request and returns its opaque id.
func (c *Client) SendSearch(ctx context.Context, kind types.SearchKind, pos types.Position, newName string) (RequestID, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := c.sayHello(); err != nil {
		return 0, err
	}

	id := RequestID(c.nextID.Add(1))
	params, err := json.Marshal(StartParams{Kind: kind, Position: pos, NewName: newName})
	if err != nil {
		return 0, rferrors.NewTransportError("encode start", err)
	}

	debug.LogProtocol("-> %s id=%d kind=%s %s\n", MethodStart, id, kind, pos)
	if err := c.write(&message{Method: MethodStart, ID: id, Params: params}); err != nil {
		return 0, rferrors.NewTransportError("send start", err)
	}
	return id, nil
}

// CancelSearch asks the engine to stop the identified search. The
// engine still owes a terminal result (or cancellation ack) for the id;
// cancellation is cooperative, not immediate.
func (c *Client) CancelSearch(id RequestID, source types.CancellationSource) error {
	params, err := json.Marshal(CancelParams{Source: source})
	if err != nil {
		return rferrors.NewTransportError("encode cancel", err)
	}

	debug.LogCancel(source, "-> %s id=%d\n", MethodCancel, id)
	if err := c.write(&message{Method: MethodCancel, ID: id, Params: params}); err != nil {
		return rferrors.NewTransportError("send cancel", err)
	}
	return nil
}

func (c *Client) sayHello() error {
	if c.said.Swap(true) {
		return nil
	}
	params, err := json.Marshal(HelloParams{Session: c.session, Client: "refscope"})
	if err != nil {
		return rferrors.NewTransportError("encode hello", err)
	}
	if err := c.write(&message{Method: MethodHello, Params: params}); err != nil {
		return rferrors.NewTransportError("send hello", err)
	}
	return nil
}

func (c *Client) write(msg *message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return writeFrame(c.conn, msg)
}

// Run reads and dispatches inbound notifications until the transport
// closes. A clean EOF returns nil; anything else is a TransportError.
func (c *Client) Run() error {
	reader := bufio.NewReader(c.conn)
	for {
		msg, err := readFrame(reader)
		if err != nil {
			// EOF and locally-closed pipes are orderly shutdown, not
			// transport failure.
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) || errors.Is(err, fs.ErrClosed) {
				return nil
			}
			return rferrors.NewTransportError("read", err)
		}
		c.dispatch(msg)
	}
}

func (c *Client) dispatch(msg *message) {
	switch msg.Method {
	case MethodProgress:
		var p ProgressParams
		if err := json.Unmarshal(msg.Params, &p); err != nil {
			debug.LogProtocol("dropping malformed progress for id=%d: %v\n", msg.ID, err)
			return
		}
		debug.LogProtocol("<- %s id=%d phase=%s\n", MethodProgress, msg.ID, p.Snapshot.Phase)
		c.handler.OnProgress(msg.ID, p.Snapshot)
	case MethodResult:
		var p ResultParams
		if err := json.Unmarshal(msg.Params, &p); err != nil {
			debug.LogProtocol("dropping malformed result for id=%d: %v\n", msg.ID, err)
			return
		}
		debug.LogProtocol("<- %s id=%d finished=%t canceled=%t refs=%d\n",
			MethodResult, msg.ID, p.Result.Finished, p.Result.Canceled, len(p.Result.Refs))
		c.handler.OnResult(msg.ID, p.Result)
	default:
		// Unknown notifications are ignored so newer engines can add
		// methods without breaking older clients.
		debug.LogProtocol("ignoring unknown method %q\n", msg.Method)
	}
}

// Close shuts the transport down. Safe to call more than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
