// Package protocol implements the framed JSON request/notification
// channel between the client and the external analysis engine. The
// transport is content-agnostic: any io.ReadWriteCloser works, in
// practice the engine subprocess's stdio.
//
// Outbound traffic is requests (search/start, search/cancel); inbound
// traffic is notifications (search/progress, search/result). Every
// message carries the opaque request id it belongs to so consumers can
// discard messages for requests they no longer own.
package protocol

import (
	"encoding/json"

	"github.com/standardbeagle/refscope/internal/types"
)

// RequestID is the opaque identity of one dispatched search. IDs are
// issued monotonically by the client; the engine echoes them back on
// every notification.
type RequestID uint64

// Protocol method names
const (
	MethodHello    = "session/hello"
	MethodStart    = "search/start"
	MethodCancel   = "search/cancel"
	MethodProgress = "search/progress"
	MethodResult   = "search/result"
)

// message is the wire envelope for both directions.
type message struct {
	Method string          `json:"method"`
	ID     RequestID       `json:"id,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
}

// HelloParams opens a session; the engine scopes request ids to it.
type HelloParams struct {
	Session string `json:"session"`
	Client  string `json:"client"`
}

// StartParams asks the engine to begin a search.
type StartParams struct {
	Kind     types.SearchKind `json:"kind"`
	Position types.Position   `json:"position"`
	NewName  string           `json:"newName,omitempty"`
}

// CancelParams asks the engine to stop a search. The source tag is
// diagnostic; the engine treats all cancellations identically.
type CancelParams struct {
	Source types.CancellationSource `json:"source"`
}

// ProgressParams carries one phase snapshot for an in-flight search.
type ProgressParams struct {
	Snapshot types.ProgressSnapshot `json:"snapshot"`
}

// ResultParams carries an incremental or terminal search result.
type ResultParams struct {
	Result types.SearchResult `json:"result"`
}
