package types

import "fmt"

// SearchPhase is the coarse lifecycle stage of one search as reported
// by the engine. Notifications for a request arrive in the order
// Started, (ProcessingSource | ProcessingTargets)*, Finished.
type SearchPhase int

const (
	PhaseStarted SearchPhase = iota
	PhaseProcessingSource
	PhaseProcessingTargets
	PhaseFinished
)

// String returns the string representation of a SearchPhase
func (p SearchPhase) String() string {
	switch p {
	case PhaseStarted:
		return "Started"
	case PhaseProcessingSource:
		return "ProcessingSource"
	case PhaseProcessingTargets:
		return "ProcessingTargets"
	case PhaseFinished:
		return "Finished"
	default:
		return fmt.Sprintf("SearchPhase(%d)", int(p))
	}
}

// TargetStatus holds the per-target sub-phase counters the engine
// reports while it works through candidate files. Counters are
// monotonic within one request's lifetime; a new request resets them.
type TargetStatus struct {
	WaitingToLex              int `json:"waitingToLex"`
	Lexing                    int `json:"lexing"`
	WaitingToParse            int `json:"waitingToParse"`
	Parsing                   int `json:"parsing"`
	ConfirmingReferences      int `json:"confirmingReferences"`
	FinishedWithoutConfirming int `json:"finishedWithoutConfirming"`
	FinishedConfirming        int `json:"finishedConfirming"`
}

// ProgressSnapshot is the engine's view of an in-flight search at one
// point in time. Written by the protocol layer, read by the progress
// reporter.
type ProgressSnapshot struct {
	Phase       SearchPhase  `json:"phase"`
	TargetCount int          `json:"targetCount"`
	Status      TargetStatus `json:"status"`
}
