package service

import (
	"context"
	"fmt"
	"time"

	"github.com/calegray/brainstem/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AgentConfig is everything needed to start one episode.
type AgentConfig struct {
	EpisodeID        uuid.UUID
	GoalVariable     string
	InitialBeliefs   map[string]float64
	Catalog          domain.SkillCatalog
	StepBudget       int64
	DistanceEstimate float64
	Tuning           domain.Tuning
}

// Agent is the single owner of all per-episode mutable state: belief
// store, history buffers, escalation tracker and monitor memory. It is
// purely synchronous; one tick is one Decide followed by one Observe,
// and nothing here is safe for concurrent use.
type Agent struct {
	episodeID    uuid.UUID
	goalVariable string
	tuning       domain.Tuning

	beliefs *BeliefStore
	catalog domain.SkillCatalog
	history *historyBuffer
	rewards *rewardBuffer
	tracker *EscalationTracker
	arbiter *Arbiter

	stepsRemaining  int64
	distance        float64
	predictionError float64
	stepIndex       int
	pending         *Decision

	traces domain.TraceStore
	logger *zap.Logger
}

// NewAgent validates the configuration and builds a fresh agent in the
// Flow state. traces may be nil; trace emission is best-effort.
func NewAgent(cfg AgentConfig, traces domain.TraceStore, logger *zap.Logger) (*Agent, error) {
	if err := cfg.Catalog.Validate(); err != nil {
		return nil, fmt.Errorf("invalid skill catalog: %w", err)
	}
	if cfg.GoalVariable == "" {
		return nil, fmt.Errorf("goal variable is required")
	}
	if _, ok := cfg.InitialBeliefs[cfg.GoalVariable]; !ok {
		return nil, fmt.Errorf("%w: goal variable %q has no initial belief",
			domain.ErrInvalidVariable, cfg.GoalVariable)
	}
	beliefs := NewBeliefStore(cfg.InitialBeliefs, cfg.Tuning)
	for _, s := range cfg.Catalog {
		if s.Variable != "" && !beliefs.Has(s.Variable) {
			return nil, fmt.Errorf("%w: skill %q binds untracked variable %q",
				domain.ErrInvalidVariable, s.Name, s.Variable)
		}
	}
	if cfg.StepBudget <= 0 {
		return nil, fmt.Errorf("step budget must be positive")
	}

	monitor := NewMonitor(cfg.Tuning)
	return &Agent{
		episodeID:      cfg.EpisodeID,
		goalVariable:   cfg.GoalVariable,
		tuning:         cfg.Tuning,
		beliefs:        beliefs,
		catalog:        cfg.Catalog,
		history:        newHistoryBuffer(cfg.Tuning.HistoryWindow),
		rewards:        newRewardBuffer(cfg.Tuning.HistoryWindow),
		tracker:        NewEscalationTracker(cfg.Tuning),
		arbiter:        NewArbiter(monitor, cfg.Tuning, logger),
		stepsRemaining: cfg.StepBudget,
		distance:       cfg.DistanceEstimate,
		traces:         traces,
		logger:         logger,
	}, nil
}

// Snapshot rebuilds the monitor's fixed-shape input from the running
// buffers. Entropy is always the goal variable's.
func (a *Agent) Snapshot() domain.AgentState {
	p, _ := a.beliefs.Get(a.goalVariable)
	return domain.AgentState{
		Entropy:          Entropy(p),
		History:          a.history.values(),
		StepsRemaining:   a.stepsRemaining,
		DistanceEstimate: a.distance,
		Rewards:          a.rewards.values(),
		PredictionError:  a.predictionError,
	}
}

// Decide runs one decision tick. On escalation the returned error
// wraps domain.ErrAgentEscalated and every later call fails the same
// way until the orchestrator resets the agent.
func (a *Agent) Decide(ctx context.Context) (*Decision, error) {
	if a.pending != nil {
		return nil, fmt.Errorf("decision for %q is awaiting an observation", a.pending.SkillName)
	}

	d, err := a.arbiter.Select(a.catalog, a.beliefs, a.Snapshot(), a.tracker)
	if err != nil {
		return nil, err
	}

	a.pending = d
	return d, nil
}

// Outcome is the environment's feedback for the last decided skill.
type Outcome struct {
	Observation     domain.Observation
	Reward          float64
	PredictionError float64
	// DistanceEstimate, when set, replaces the agent's current
	// distance-to-goal estimate.
	DistanceEstimate *float64
}

// Observe closes the tick: updates the belief for the executed skill's
// variable, appends to the history and reward buffers, decrements the
// step budget, and emits a trace event. The trace log is best-effort;
// an unavailable sink never fails the tick.
func (a *Agent) Observe(ctx context.Context, o Outcome) (*domain.Belief, error) {
	if a.pending == nil {
		return nil, fmt.Errorf("no pending decision to observe")
	}

	skill, _ := a.catalog.Get(a.pending.SkillName)
	variable := skill.Variable
	if variable == "" {
		variable = a.goalVariable
	}

	pBefore, err := a.beliefs.Get(variable)
	if err != nil {
		return nil, err
	}
	pAfter, err := a.beliefs.Update(variable, o.Observation)
	if err != nil {
		return nil, err
	}

	a.history.push(skill.Name)
	a.rewards.push(o.Reward)
	a.stepsRemaining--
	a.predictionError = clamp(o.PredictionError, 0, 1)
	if o.DistanceEstimate != nil {
		a.distance = *o.DistanceEstimate
	}

	a.emitTrace(ctx, skill.Name, o.Observation, pBefore, pAfter, a.pending.State)

	a.stepIndex++
	a.pending = nil
	return &domain.Belief{Variable: variable, P: pAfter}, nil
}

// Reset clears the escalation latch and the monitor memory so the
// orchestrator can reuse the agent after a fatal signal.
func (a *Agent) Reset(stepBudget int64) {
	a.tracker.Reset()
	a.arbiter.monitor.Reset()
	a.stepsRemaining = stepBudget
	a.pending = nil
}

func (a *Agent) EpisodeID() uuid.UUID        { return a.episodeID }
func (a *Agent) StepIndex() int              { return a.stepIndex }
func (a *Agent) StepsRemaining() int64       { return a.stepsRemaining }
func (a *Agent) Beliefs() map[string]float64 { return a.beliefs.Snapshot() }

func (a *Agent) emitTrace(ctx context.Context, skillName string, obs domain.Observation, pBefore, pAfter float64, state domain.CriticalState) {
	if a.traces == nil {
		return
	}

	ev := &domain.TraceEvent{
		ID:                  uuid.New(),
		EpisodeID:           a.episodeID,
		StepIndex:           a.stepIndex,
		SkillName:           skillName,
		Observation:         obs,
		PBefore:             pBefore,
		PAfter:              pAfter,
		ActiveCriticalState: state,
		CreatedAt:           time.Now(),
	}
	if err := a.traces.Append(ctx, ev); err != nil {
		a.logger.Warn("failed to append trace event",
			zap.String("episode_id", a.episodeID.String()),
			zap.Int("step_index", a.stepIndex),
			zap.Error(err))
	}
}
