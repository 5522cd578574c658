package service

import (
	"fmt"

	"github.com/calegray/brainstem/internal/domain"
)

// EscalationTracker is the fail-safe circuit breaker: a rolling window
// of recently resolved critical states plus a latch. Once tripped it
// stays tripped until Reset, so escalation is monotonic for the
// episode.
type EscalationTracker struct {
	tuning  domain.Tuning
	recent  []domain.CriticalState
	tripped bool
	reason  string
}

func NewEscalationTracker(tuning domain.Tuning) *EscalationTracker {
	return &EscalationTracker{tuning: tuning}
}

// Record appends a resolved state to the rolling window.
func (t *EscalationTracker) Record(s domain.CriticalState) {
	t.recent = append(t.recent, s)
	if over := len(t.recent) - t.tuning.TrackerWindow; over > 0 {
		t.recent = t.recent[over:]
	}
}

// Check evaluates the escalation rules against the window and the
// remaining step budget. The first trip latches.
func (t *EscalationTracker) Check(stepsRemaining int64) (string, bool) {
	if t.tripped {
		return t.reason, true
	}

	switch {
	case stepsRemaining < t.tuning.MinStepsRemaining:
		t.trip(fmt.Sprintf("step budget exhausted (%d remaining)", stepsRemaining))
	case t.countRecent(domain.StatePanic, t.tuning.PanicEscalationWindow) >= t.tuning.PanicEscalationCount:
		t.trip(fmt.Sprintf("panic resolved %d times in the last %d ticks",
			t.tuning.PanicEscalationCount, t.tuning.PanicEscalationWindow))
	case t.countRecent(domain.StateDeadlock, t.tuning.TrackerWindow) >= t.tuning.DeadlockEscalationCount:
		t.trip(fmt.Sprintf("deadlock resolved %d times in the last %d ticks",
			t.tuning.DeadlockEscalationCount, t.tuning.TrackerWindow))
	}

	return t.reason, t.tripped
}

// ShouldEscalate reports whether the circuit breaker is (or becomes)
// tripped for the given budget.
func (t *EscalationTracker) ShouldEscalate(stepsRemaining int64) bool {
	_, tripped := t.Check(stepsRemaining)
	return tripped
}

// Reset clears the window and the latch. Only the external
// orchestrator resets an escalated agent.
func (t *EscalationTracker) Reset() {
	t.recent = nil
	t.tripped = false
	t.reason = ""
}

// States returns a copy of the rolling window, oldest first.
func (t *EscalationTracker) States() []domain.CriticalState {
	out := make([]domain.CriticalState, len(t.recent))
	copy(out, t.recent)
	return out
}

func (t *EscalationTracker) trip(reason string) {
	t.tripped = true
	t.reason = reason
}

func (t *EscalationTracker) countRecent(s domain.CriticalState, lastN int) int {
	start := len(t.recent) - lastN
	if start < 0 {
		start = 0
	}
	n := 0
	for _, st := range t.recent[start:] {
		if st == s {
			n++
		}
	}
	return n
}
