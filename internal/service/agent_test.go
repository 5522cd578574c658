package service

import (
	"context"
	"errors"
	"testing"

	"github.com/calegray/brainstem/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

// traceRecorder is an in-memory trace sink for agent tests.
type traceRecorder struct {
	events []domain.TraceEvent
	fail   bool
}

func (r *traceRecorder) Append(_ context.Context, ev *domain.TraceEvent) error {
	if r.fail {
		return errors.New("trace sink unavailable")
	}
	r.events = append(r.events, *ev)
	return nil
}

func (r *traceRecorder) ListByEpisode(_ context.Context, _ uuid.UUID) ([]domain.TraceEvent, error) {
	return append([]domain.TraceEvent(nil), r.events...), nil
}

func doorCatalog() domain.SkillCatalog {
	return domain.SkillCatalog{
		{Name: "peek_door", Cost: 1.0, InfoCoefficient: 1.0, Variable: "door_locked"},
		{Name: "try_door", Cost: 1.5, GoalCoefficient: 3.5, Variable: "door_locked", FavorableWhenFalse: true},
		{Name: "climb_window", Cost: 2.0, GoalCoefficient: 4.0, Variable: "window_blocked", FavorableWhenFalse: true},
	}
}

func doorAgent(t *testing.T, traces domain.TraceStore, budget int64) *Agent {
	t.Helper()
	a, err := NewAgent(AgentConfig{
		EpisodeID:    uuid.New(),
		GoalVariable: "door_locked",
		InitialBeliefs: map[string]float64{
			"door_locked":    0.5,
			"window_blocked": 0.25,
		},
		Catalog:          doorCatalog(),
		StepBudget:       budget,
		DistanceEstimate: 2,
		Tuning:           domain.DefaultTuning(),
	}, traces, testLogger())
	if err != nil {
		t.Fatalf("new agent: %v", err)
	}
	return a
}

func TestAgent_LockedRoomEpisode(t *testing.T) {
	ctx := context.Background()
	traces := &traceRecorder{}
	agent := doorAgent(t, traces, 20)

	// Tick 1: maximum uncertainty about the door, so sensing wins.
	d, err := agent.Decide(ctx)
	if err != nil {
		t.Fatalf("tick 1 decide: %v", err)
	}
	if d.SkillName != "peek_door" {
		t.Fatalf("tick 1: chose %q, want peek_door", d.SkillName)
	}
	if d.State != domain.StateFlow {
		t.Fatalf("tick 1: state %s, want flow", d.State)
	}

	belief, err := agent.Observe(ctx, Outcome{
		Observation:     domain.ObservationConfirmedFalse,
		Reward:          0.5,
		PredictionError: 0.2,
	})
	if err != nil {
		t.Fatalf("tick 1 observe: %v", err)
	}
	if belief.Variable != "door_locked" || belief.P != 0.15 {
		t.Fatalf("tick 1: belief %s=%v, want door_locked=0.15", belief.Variable, belief.P)
	}

	// Tick 2: the door is almost surely unlocked; trying it now beats
	// both the window and another peek.
	d, err = agent.Decide(ctx)
	if err != nil {
		t.Fatalf("tick 2 decide: %v", err)
	}
	if d.SkillName != "try_door" {
		t.Fatalf("tick 2: chose %q, want try_door", d.SkillName)
	}

	if agent.StepsRemaining() != 19 {
		t.Fatalf("steps remaining = %d, want 19", agent.StepsRemaining())
	}
	if agent.StepIndex() != 1 {
		t.Fatalf("step index = %d, want 1", agent.StepIndex())
	}

	if len(traces.events) != 1 {
		t.Fatalf("%d trace events, want 1", len(traces.events))
	}
	ev := traces.events[0]
	if ev.SkillName != "peek_door" || ev.StepIndex != 0 {
		t.Fatalf("trace event %+v: wrong skill or step", ev)
	}
	if ev.PBefore != 0.5 || ev.PAfter != 0.15 {
		t.Fatalf("trace p %v -> %v, want 0.5 -> 0.15", ev.PBefore, ev.PAfter)
	}
	if ev.ActiveCriticalState != domain.StateFlow {
		t.Fatalf("trace state %s, want flow", ev.ActiveCriticalState)
	}
}

func TestAgent_ExhaustedBudgetEscalates(t *testing.T) {
	ctx := context.Background()
	agent := doorAgent(t, nil, 3)

	for i := 0; i < 2; i++ {
		if _, err := agent.Decide(ctx); err != nil {
			t.Fatalf("tick %d decide: %v", i+1, err)
		}
		if _, err := agent.Observe(ctx, Outcome{Observation: domain.ObservationAmbiguous}); err != nil {
			t.Fatalf("tick %d observe: %v", i+1, err)
		}
	}

	// One step left is below the minimum viable budget.
	_, err := agent.Decide(ctx)
	if !errors.Is(err, domain.ErrAgentEscalated) {
		t.Fatalf("expected ErrAgentEscalated, got %v", err)
	}

	// Escalation is terminal until the orchestrator resets the agent.
	if _, err := agent.Decide(ctx); !errors.Is(err, domain.ErrAgentEscalated) {
		t.Fatalf("second decide after escalation: got %v", err)
	}
}

func TestAgent_SustainedPanicEscalates(t *testing.T) {
	ctx := context.Background()

	agent, err := NewAgent(AgentConfig{
		EpisodeID:        uuid.New(),
		GoalVariable:     "goal_reached",
		InitialBeliefs:   map[string]float64{"goal_reached": 0.5},
		Catalog:          domain.SkillCatalog{{Name: "wander", Cost: 0.5, GoalCoefficient: 1.0}},
		StepBudget:       20,
		DistanceEstimate: 2,
		Tuning:           domain.DefaultTuning(),
	}, nil, testLogger())
	if err != nil {
		t.Fatalf("new agent: %v", err)
	}

	// Ambiguous observations keep the goal belief at 0.5, so entropy
	// stays maximal and panic resolves on every tick after the first.
	for i := 0; i < 4; i++ {
		d, err := agent.Decide(ctx)
		if err != nil {
			t.Fatalf("tick %d decide: %v", i+1, err)
		}
		want := domain.StatePanic
		if i == 0 {
			want = domain.StateFlow
		}
		if d.State != want {
			t.Fatalf("tick %d: state %s, want %s", i+1, d.State, want)
		}
		if _, err := agent.Observe(ctx, Outcome{Observation: domain.ObservationAmbiguous}); err != nil {
			t.Fatalf("tick %d observe: %v", i+1, err)
		}
	}

	// Three panic resolutions in the last five ticks trip the breaker.
	_, err = agent.Decide(ctx)
	if !errors.Is(err, domain.ErrAgentEscalated) {
		t.Fatalf("expected ErrAgentEscalated, got %v", err)
	}
}

func TestAgent_TickProtocol(t *testing.T) {
	ctx := context.Background()
	agent := doorAgent(t, nil, 20)

	if _, err := agent.Observe(ctx, Outcome{Observation: domain.ObservationAmbiguous}); err == nil {
		t.Fatal("observe without a pending decision should fail")
	}

	if _, err := agent.Decide(ctx); err != nil {
		t.Fatalf("decide: %v", err)
	}
	if _, err := agent.Decide(ctx); err == nil {
		t.Fatal("second decide without an observation should fail")
	}
}

func TestAgent_TraceSinkFailureDoesNotFailTick(t *testing.T) {
	ctx := context.Background()
	agent := doorAgent(t, &traceRecorder{fail: true}, 20)

	if _, err := agent.Decide(ctx); err != nil {
		t.Fatalf("decide: %v", err)
	}
	if _, err := agent.Observe(ctx, Outcome{Observation: domain.ObservationConfirmedTrue}); err != nil {
		t.Fatalf("observe with failing trace sink: %v", err)
	}
	if agent.StepsRemaining() != 19 {
		t.Fatalf("tick did not complete: %d steps remaining", agent.StepsRemaining())
	}
}

func TestAgent_ResetClearsEscalation(t *testing.T) {
	ctx := context.Background()
	agent := doorAgent(t, nil, 1)

	if _, err := agent.Decide(ctx); !errors.Is(err, domain.ErrAgentEscalated) {
		t.Fatalf("expected escalation on a one-step budget, got %v", err)
	}

	agent.Reset(10)
	if _, err := agent.Decide(ctx); err != nil {
		t.Fatalf("decide after reset: %v", err)
	}
	if agent.StepsRemaining() != 10 {
		t.Fatalf("steps remaining = %d, want 10", agent.StepsRemaining())
	}
}

func TestNewAgent_Validation(t *testing.T) {
	base := func() AgentConfig {
		return AgentConfig{
			EpisodeID:        uuid.New(),
			GoalVariable:     "goal",
			InitialBeliefs:   map[string]float64{"goal": 0.5},
			Catalog:          domain.SkillCatalog{{Name: "act", Cost: 1.0}},
			StepBudget:       10,
			DistanceEstimate: 1,
			Tuning:           domain.DefaultTuning(),
		}
	}

	cases := []struct {
		name   string
		mutate func(*AgentConfig)
	}{
		{"empty catalog", func(c *AgentConfig) { c.Catalog = nil }},
		{"missing goal variable", func(c *AgentConfig) { c.GoalVariable = "" }},
		{"goal variable without belief", func(c *AgentConfig) { c.GoalVariable = "elsewhere" }},
		{"skill binds untracked variable", func(c *AgentConfig) {
			c.Catalog = domain.SkillCatalog{{Name: "act", Cost: 1.0, Variable: "ghost"}}
		}},
		{"non-positive budget", func(c *AgentConfig) { c.StepBudget = 0 }},
		{"duplicate skill names", func(c *AgentConfig) {
			c.Catalog = domain.SkillCatalog{{Name: "act", Cost: 1.0}, {Name: "act", Cost: 2.0}}
		}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := base()
			c.mutate(&cfg)
			if _, err := NewAgent(cfg, nil, testLogger()); err == nil {
				t.Fatal("expected a validation error")
			}
		})
	}
}
