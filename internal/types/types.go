// Package types holds the shared value types for the reference-search
// client: positions, reference classifications, search kinds, progress
// snapshots and the rename edit shapes. Everything here is plain data;
// behavior lives in the packages that consume it.
package types

import "fmt"

// SearchKind identifies which logical operation a search represents.
type SearchKind int

const (
	SearchKindNone SearchKind = iota
	SearchKindFind
	SearchKindPeek
	SearchKindRename
	SearchKindCallHierarchy
)

// String returns the string representation of a SearchKind
func (k SearchKind) String() string {
	switch k {
	case SearchKindNone:
		return "None"
	case SearchKindFind:
		return "Find"
	case SearchKindPeek:
		return "Peek"
	case SearchKindRename:
		return "Rename"
	case SearchKindCallHierarchy:
		return "CallHierarchy"
	default:
		return fmt.Sprintf("SearchKind(%d)", int(k))
	}
}

// IsExplicit reports whether the kind bypasses peek-vs-find classification.
// Rename and call hierarchy invocations always carry their kind; only
// find-like invocations need the viewport heuristic.
func (k SearchKind) IsExplicit() bool {
	return k == SearchKindRename || k == SearchKindCallHierarchy
}

// ReferenceType classifies a candidate match reported by the analysis
// engine. The set is closed; the engine never reports values outside it.
type ReferenceType int

const (
	ReferenceTypeConfirmed ReferenceType = iota
	ReferenceTypeConfirmationInProgress
	ReferenceTypeComment
	ReferenceTypeString
	ReferenceTypeInactive
	ReferenceTypeCannotConfirm
	ReferenceTypeNotAReference
)

// String returns the string representation of a ReferenceType
func (t ReferenceType) String() string {
	switch t {
	case ReferenceTypeConfirmed:
		return "Confirmed"
	case ReferenceTypeConfirmationInProgress:
		return "ConfirmationInProgress"
	case ReferenceTypeComment:
		return "Comment"
	case ReferenceTypeString:
		return "String"
	case ReferenceTypeInactive:
		return "Inactive"
	case ReferenceTypeCannotConfirm:
		return "CannotConfirm"
	case ReferenceTypeNotAReference:
		return "NotAReference"
	default:
		return fmt.Sprintf("ReferenceType(%d)", int(t))
	}
}

// DisplayName returns the user-facing tag shown next to a reference.
func (t ReferenceType) DisplayName() string {
	switch t {
	case ReferenceTypeConfirmed:
		return "Confirmed reference"
	case ReferenceTypeConfirmationInProgress:
		return "Confirmation in progress"
	case ReferenceTypeComment:
		return "Comment reference"
	case ReferenceTypeString:
		return "String reference"
	case ReferenceTypeInactive:
		return "Inactive reference"
	case ReferenceTypeCannotConfirm:
		return "Cannot confirm reference"
	case ReferenceTypeNotAReference:
		return "Not a reference"
	default:
		return "Unknown reference"
	}
}

// Position is a zero-based location inside a file.
type Position struct {
	Path      string `json:"path"`
	Line      int    `json:"line"`
	Character int    `json:"character"`
}

// String returns file:line:col with one-based line and column, the way
// results are printed.
func (p Position) String() string {
	return fmt.Sprintf("%s:%d:%d", p.Path, p.Line+1, p.Character+1)
}

// ReferenceInfo is a single candidate reference produced by the engine.
// Read-only to this client.
type ReferenceInfo struct {
	Position Position      `json:"position"`
	Text     string        `json:"text"`
	Type     ReferenceType `json:"type"`
}

// SearchResult is the engine's (possibly incremental) answer to a
// search. Finished marks the terminal result for a request; Canceled
// marks a terminal cancellation acknowledgement. A result with neither
// flag set is a display-update only.
type SearchResult struct {
	Refs     []ReferenceInfo `json:"refs"`
	MatchLen int             `json:"matchLen"`
	Finished bool            `json:"finished"`
	Canceled bool            `json:"canceled"`
}

// Terminal reports whether this result ends the request's lifetime.
func (r SearchResult) Terminal() bool {
	return r.Finished || r.Canceled
}

// ConfirmedRefs returns only the references the engine verified as
// genuine symbol uses.
func (r SearchResult) ConfirmedRefs() []ReferenceInfo {
	out := make([]ReferenceInfo, 0, len(r.Refs))
	for _, ref := range r.Refs {
		if ref.Type == ReferenceTypeConfirmed {
			out = append(out, ref)
		}
	}
	return out
}

// CancellationSource tags where a cancellation request originated.
// Purely diagnostic; handling is identical regardless of source.
type CancellationSource int

const (
	CancelNewRequest CancellationSource = iota
	CancelProviderToken
	CancelLanguageServer
	CancelUser
)

// String returns the string representation of a CancellationSource
func (s CancellationSource) String() string {
	switch s {
	case CancelNewRequest:
		return "NewRequest"
	case CancelProviderToken:
		return "ProviderToken"
	case CancelLanguageServer:
		return "LanguageServer"
	case CancelUser:
		return "User"
	default:
		return fmt.Sprintf("CancellationSource(%d)", int(s))
	}
}
