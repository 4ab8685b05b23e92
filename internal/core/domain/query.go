package domain

import "time"

// QueryState is a stage of the per-request state machine.
type QueryState int

// Query states in pipeline order.
const (
	QueryReceived QueryState = iota
	QueryRetrieving
	QueryAssembling
	QueryGenerating
	QueryCompleted
	QueryFailed
)

// String returns the state name.
func (s QueryState) String() string {
	switch s {
	case QueryReceived:
		return "received"
	case QueryRetrieving:
		return "retrieving"
	case QueryAssembling:
		return "assembling"
	case QueryGenerating:
		return "generating"
	case QueryCompleted:
		return "completed"
	case QueryFailed:
		return "failed"
	default:
		return unknownDescription
	}
}

// IsTerminal returns true for Completed and Failed.
func (s QueryState) IsTerminal() bool {
	return s == QueryCompleted || s == QueryFailed
}

// CanTransition reports whether moving from s to next is allowed.
// Requests only move forward one stage at a time, or fail from any
// non-terminal stage.
func (s QueryState) CanTransition(next QueryState) bool {
	if s.IsTerminal() {
		return false
	}
	if next == QueryFailed {
		return true
	}
	return next == s+1
}

// Answer is the reply to one query.
type Answer struct {
	// RequestID identifies the request in logs.
	RequestID string `json:"request_id"`

	// Text is the generated answer.
	Text string `json:"response"`

	// Sources are the chunks the answer was grounded on.
	Sources RetrievalResult `json:"-"`

	// Attempts is the number of generator calls made.
	Attempts int `json:"attempts"`

	// Duration is the end-to-end latency.
	Duration time.Duration `json:"-"`
}
