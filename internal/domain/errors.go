package domain

import "errors"

var (
	// ErrInvalidVariable means the belief store was asked about a
	// variable it does not track. A configuration defect; never retried.
	ErrInvalidVariable = errors.New("unknown belief variable")

	// ErrEmptyCandidateSet means a protocol filtered away every skill
	// and no fallback exists. Indicates a misconfigured catalog.
	ErrEmptyCandidateSet = errors.New("empty candidate set")

	// ErrAgentEscalated is the circuit breaker. Terminal for the
	// episode; it must propagate to the orchestrator.
	ErrAgentEscalated = errors.New("agent escalated")
)
