package service

// The critical state monitor: five independent detectors evaluated
// every tick, folded by a fixed priority order, with two-tick
// hysteresis before any non-flow state engages. Escalation is not a
// detector; it is raised by the EscalationTracker and arbitrated above
// everything else by the arbiter.

import (
	"github.com/calegray/brainstem/internal/domain"
)

// detector is one pure rule over the agent state snapshot. Detectors
// never see each other's results; priority is resolved by the order of
// the detectors slice alone.
type detector struct {
	state domain.CriticalState
	fires func(domain.AgentState, domain.Tuning) bool
}

// Priority order: Scarcity > Panic > Deadlock > Novelty > Hubris.
// Escalation sits above Scarcity but is raised by the tracker, and
// Flow is the default when nothing fires.
var detectors = []detector{
	{domain.StateScarcity, scarcityFires},
	{domain.StatePanic, panicFires},
	{domain.StateDeadlock, deadlockFires},
	{domain.StateNovelty, noveltyFires},
	{domain.StateHubris, hubrisFires},
}

// scarcityFires: not enough budget left to reach the goal at the
// current pace.
func scarcityFires(s domain.AgentState, t domain.Tuning) bool {
	return float64(s.StepsRemaining) < s.DistanceEstimate*t.ScarcityFactor
}

// panicFires: belief is near-maximal uncertainty.
func panicFires(s domain.AgentState, t domain.Tuning) bool {
	return s.Entropy > t.PanicEntropy
}

// deadlockFires: the last four history entries form a period-2 cycle
// (A,B,A,B). Longer cycles are intentionally not recognized.
func deadlockFires(s domain.AgentState, t domain.Tuning) bool {
	n := len(s.History)
	w := t.DeadlockWindow
	if n < w || w < 4 {
		return false
	}
	tail := s.History[n-w:]
	return tail[0] == tail[2] && tail[1] == tail[3] && tail[0] != tail[1]
}

// noveltyFires: the last transition sharply violated the agent's model.
func noveltyFires(s domain.AgentState, t domain.Tuning) bool {
	return s.PredictionError > t.NoveltyThreshold
}

// hubrisFires: a long success streak with near-zero uncertainty.
func hubrisFires(s domain.AgentState, t domain.Tuning) bool {
	if s.Entropy >= t.HubrisEntropyCeiling {
		return false
	}
	if len(s.Rewards) < t.HubrisStreak {
		return false
	}
	for _, r := range s.Rewards[len(s.Rewards)-t.HubrisStreak:] {
		if r <= t.HubrisRewardFloor {
			return false
		}
	}
	return true
}

// Evaluation carries one tick's monitor output. Resolved is the state
// whose protocol applies this tick; Raw is the unfiltered detector
// winner, kept for the hysteresis check on the next tick.
type Evaluation struct {
	Resolved domain.CriticalState
	Raw      domain.CriticalState
}

// Monitor owns the hysteresis memory. Evaluate is read-only; the
// arbiter calls Commit only when a tick fully completes, so a failed
// tick leaves the monitor unchanged.
type Monitor struct {
	tuning domain.Tuning
	last   domain.CriticalState
}

func NewMonitor(tuning domain.Tuning) *Monitor {
	return &Monitor{tuning: tuning, last: domain.StateFlow}
}

// Evaluate runs every detector, picks the highest-priority winner, and
// applies hysteresis: a non-flow state engages only when the same
// detector also won on the previous tick. A single-tick blip resolves
// to Flow.
func (m *Monitor) Evaluate(state domain.AgentState) Evaluation {
	raw := domain.StateFlow
	for _, d := range detectors {
		if d.fires(state, m.tuning) {
			raw = d.state
			break
		}
	}

	resolved := domain.StateFlow
	if raw != domain.StateFlow && raw == m.last {
		resolved = raw
	}

	return Evaluation{Resolved: resolved, Raw: raw}
}

// Commit records the tick's raw detector result for the next
// hysteresis check.
func (m *Monitor) Commit(e Evaluation) {
	m.last = e.Raw
}

// Reset returns the monitor to its initial Flow state.
func (m *Monitor) Reset() {
	m.last = domain.StateFlow
}
