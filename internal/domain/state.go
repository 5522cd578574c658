package domain

// CriticalState is one of the fixed meta-cognitive conditions the
// monitor can resolve per tick. Exactly one is active per tick.
type CriticalState string

const (
	StateFlow       CriticalState = "flow"
	StatePanic      CriticalState = "panic"
	StateScarcity   CriticalState = "scarcity"
	StateDeadlock   CriticalState = "deadlock"
	StateNovelty    CriticalState = "novelty"
	StateHubris     CriticalState = "hubris"
	StateEscalation CriticalState = "escalation"
)

// AgentState is the fixed-shape snapshot of recent history consumed by
// the critical state monitor. It is rebuilt fresh each tick from the
// agent's running buffers and is never independently mutated.
type AgentState struct {
	Entropy          float64   `json:"entropy"`
	History          []string  `json:"history"`
	StepsRemaining   int64     `json:"steps_remaining"`
	DistanceEstimate float64   `json:"distance_estimate"`
	Rewards          []float64 `json:"rewards"`
	PredictionError  float64   `json:"prediction_error"`
}
