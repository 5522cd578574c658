package service

import (
	"fmt"

	"github.com/calegray/brainstem/internal/domain"
	"go.uber.org/zap"
)

// Decision is the outcome of one completed tick.
type Decision struct {
	SkillName string                 `json:"skill_name"`
	State     domain.CriticalState   `json:"state"`
	Scores    []domain.ScoringResult `json:"scores"`
}

// Arbiter ties scorer, monitor and tracker into one action selection
// per tick. A tick either fully completes (skill chosen, monitor and
// tracker committed) or fully fails with monitor and tracker untouched.
type Arbiter struct {
	monitor *Monitor
	tuning  domain.Tuning
	logger  *zap.Logger
}

func NewArbiter(monitor *Monitor, tuning domain.Tuning, logger *zap.Logger) *Arbiter {
	return &Arbiter{monitor: monitor, tuning: tuning, logger: logger}
}

// Select picks the highest-scoring skill under the active protocol.
// Ties within epsilon go to the skill declared earliest in the catalog.
func (a *Arbiter) Select(catalog domain.SkillCatalog, beliefs *BeliefStore, state domain.AgentState, tracker *EscalationTracker) (*Decision, error) {
	if reason, tripped := tracker.Check(state.StepsRemaining); tripped {
		a.logger.Warn("escalation circuit breaker tripped", zap.String("reason", reason))
		return nil, fmt.Errorf("%w: %s", domain.ErrAgentEscalated, reason)
	}

	eval := a.monitor.Evaluate(state)

	candidates, weights, err := a.applyProtocol(eval.Resolved, catalog, state)
	if err != nil {
		return nil, err
	}

	scores := make([]domain.ScoringResult, 0, len(candidates))
	best := -1
	for i, s := range candidates {
		p := neutralP
		if s.Variable != "" {
			p, err = beliefs.Get(s.Variable)
			if err != nil {
				return nil, err
			}
		}

		r := ScoreSkill(s, p, weights)
		scores = append(scores, r)

		// Strictly-greater comparison keeps the earliest skill on ties.
		if best < 0 || r.Total > scores[best].Total+a.tuning.Epsilon {
			best = i
		}
	}
	if best < 0 {
		return nil, domain.ErrEmptyCandidateSet
	}

	a.monitor.Commit(eval)
	tracker.Record(eval.Resolved)

	a.logger.Debug("skill selected",
		zap.String("skill", scores[best].SkillName),
		zap.String("critical_state", string(eval.Resolved)),
		zap.Float64("total", scores[best].Total),
	)

	return &Decision{
		SkillName: scores[best].SkillName,
		State:     eval.Resolved,
		Scores:    scores,
	}, nil
}

// applyProtocol transforms the candidate set and scoring weights for
// the active critical state. Pure with respect to shared configuration:
// weights are returned as a fresh value, never mutated in place.
func (a *Arbiter) applyProtocol(state domain.CriticalState, catalog domain.SkillCatalog, snap domain.AgentState) (domain.SkillCatalog, domain.ScoringWeights, error) {
	w := a.tuning.Weights

	switch state {
	case domain.StateFlow:
		return catalog, w, nil

	case domain.StatePanic:
		// Restrict to the designated safe subset.
		var safe domain.SkillCatalog
		for _, s := range catalog {
			if s.Cost < a.tuning.SafetyCostCeiling {
				safe = append(safe, s)
			}
		}
		if len(safe) == 0 {
			return nil, w, fmt.Errorf("%w: no skill below safety cost ceiling %v",
				domain.ErrEmptyCandidateSet, a.tuning.SafetyCostCeiling)
		}
		return safe, w, nil

	case domain.StateScarcity:
		// Pure goal-seeking for this tick only.
		return catalog, a.tuning.ScarcityWeights, nil

	case domain.StateDeadlock:
		candidates := excludeRecent(catalog, snap.History, a.tuning.DeadlockWindow)
		if len(candidates) == 0 {
			lru, ok := leastRecentlyUsed(catalog, snap.History)
			if !ok {
				return nil, w, fmt.Errorf("%w: deadlock filter removed every skill",
					domain.ErrEmptyCandidateSet)
			}
			candidates = domain.SkillCatalog{lru}
		}
		return candidates, w, nil

	case domain.StateNovelty:
		w.Beta = a.tuning.Weights.Beta * a.tuning.NoveltyBetaMultiplier
		return catalog, w, nil

	case domain.StateHubris:
		if w.Beta < a.tuning.HubrisBetaFloor {
			w.Beta = a.tuning.HubrisBetaFloor
		}
		return catalog, w, nil
	}

	return catalog, w, nil
}

// excludeRecent drops every skill present in the last n history
// entries, forcing selection of an unexplored skill.
func excludeRecent(catalog domain.SkillCatalog, history []string, n int) domain.SkillCatalog {
	start := len(history) - n
	if start < 0 {
		start = 0
	}
	recent := make(map[string]struct{}, n)
	for _, name := range history[start:] {
		recent[name] = struct{}{}
	}

	var out domain.SkillCatalog
	for _, s := range catalog {
		if _, seen := recent[s.Name]; !seen {
			out = append(out, s)
		}
	}
	return out
}

// leastRecentlyUsed returns the catalog skill whose most recent use is
// oldest; skills never used at all win outright. Ties go to catalog
// order.
func leastRecentlyUsed(catalog domain.SkillCatalog, history []string) (domain.Skill, bool) {
	if len(catalog) == 0 {
		return domain.Skill{}, false
	}

	lastUse := func(name string) int {
		for i := len(history) - 1; i >= 0; i-- {
			if history[i] == name {
				return i
			}
		}
		return -1
	}

	best := 0
	bestUse := lastUse(catalog[0].Name)
	for i := 1; i < len(catalog); i++ {
		if use := lastUse(catalog[i].Name); use < bestUse {
			best, bestUse = i, use
		}
	}
	return catalog[best], true
}
