package service

import (
	"fmt"

	"github.com/calegray/brainstem/internal/domain"
)

// BeliefStore holds one scalar probability per tracked world variable.
// Updates are a deterministic lookup table (observation kind -> target
// probability), not a full Bayesian posterior, and are clamped so a
// belief never reaches exactly 0 or 1.
type BeliefStore struct {
	tuning domain.Tuning
	ps     map[string]float64
}

// NewBeliefStore seeds the store with initial probabilities. Initial
// values are clamped to the same conservative range as updates.
func NewBeliefStore(initial map[string]float64, tuning domain.Tuning) *BeliefStore {
	ps := make(map[string]float64, len(initial))
	for v, p := range initial {
		ps[v] = clamp(p, tuning.BeliefFloor, tuning.BeliefCeiling)
	}
	return &BeliefStore{tuning: tuning, ps: ps}
}

// Get returns the current probability for a variable.
func (b *BeliefStore) Get(variable string) (float64, error) {
	p, ok := b.ps[variable]
	if !ok {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidVariable, variable)
	}
	return p, nil
}

// Has reports whether the variable is tracked.
func (b *BeliefStore) Has(variable string) bool {
	_, ok := b.ps[variable]
	return ok
}

// Update applies an observation to a variable and returns the new
// probability. Ambiguous or unrecognized observations leave the belief
// unchanged.
func (b *BeliefStore) Update(variable string, obs domain.Observation) (float64, error) {
	p, ok := b.ps[variable]
	if !ok {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidVariable, variable)
	}

	switch obs {
	case domain.ObservationConfirmedTrue:
		p = b.tuning.ConfirmedTrueTarget
	case domain.ObservationConfirmedFalse:
		p = b.tuning.ConfirmedFalseTarget
	default:
		// Ambiguous: no evidence either way.
		return p, nil
	}

	p = clamp(p, b.tuning.BeliefFloor, b.tuning.BeliefCeiling)
	b.ps[variable] = p
	return p, nil
}

// Snapshot returns a copy of all tracked beliefs.
func (b *BeliefStore) Snapshot() map[string]float64 {
	out := make(map[string]float64, len(b.ps))
	for v, p := range b.ps {
		out[v] = p
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
