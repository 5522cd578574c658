package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/calegray/brainstem/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrSessionNotFound means no live agent exists for the episode id.
var ErrSessionNotFound = errors.New("session not found")

// session pairs a live agent with its own lock. Each agent's full state
// is exclusively owned by one request at a time; there is no sharing
// across sessions, so no further locking is needed inside the core.
type session struct {
	mu         sync.Mutex
	agent      *Agent
	lastActive time.Time
}

// SessionService is the registry of live agents, one per active
// episode. Episode records and trace events are persisted through the
// store interfaces; the in-memory agent is the source of truth for
// live state.
type SessionService struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*session

	episodes domain.EpisodeStore
	traces   domain.TraceStore
	tuning   domain.Tuning
	logger   *zap.Logger
}

func NewSessionService(episodes domain.EpisodeStore, traces domain.TraceStore, tuning domain.Tuning, logger *zap.Logger) *SessionService {
	return &SessionService{
		sessions: make(map[uuid.UUID]*session),
		episodes: episodes,
		traces:   traces,
		tuning:   tuning,
		logger:   logger,
	}
}

// StartEpisodeInput is the catalog-loading collaborator's payload.
type StartEpisodeInput struct {
	Name             string
	GoalVariable     string
	Beliefs          map[string]float64
	Catalog          domain.SkillCatalog
	StepBudget       int64
	DistanceEstimate float64
}

// StartEpisode persists an episode record and registers a fresh agent.
func (s *SessionService) StartEpisode(ctx context.Context, in StartEpisodeInput) (*domain.Episode, error) {
	episode := &domain.Episode{
		ID:           uuid.New(),
		Name:         in.Name,
		GoalVariable: in.GoalVariable,
		StepBudget:   in.StepBudget,
		Status:       domain.EpisodeActive,
	}

	agent, err := NewAgent(AgentConfig{
		EpisodeID:        episode.ID,
		GoalVariable:     in.GoalVariable,
		InitialBeliefs:   in.Beliefs,
		Catalog:          in.Catalog,
		StepBudget:       in.StepBudget,
		DistanceEstimate: in.DistanceEstimate,
		Tuning:           s.tuning,
	}, s.traces, s.logger)
	if err != nil {
		return nil, err
	}

	if err := s.episodes.Create(ctx, episode); err != nil {
		return nil, fmt.Errorf("create episode: %w", err)
	}

	s.mu.Lock()
	s.sessions[episode.ID] = &session{agent: agent, lastActive: time.Now()}
	s.mu.Unlock()

	s.logger.Info("episode started",
		zap.String("episode_id", episode.ID.String()),
		zap.String("goal_variable", in.GoalVariable),
		zap.Int64("step_budget", in.StepBudget),
		zap.Int("skills", len(in.Catalog)))

	return episode, nil
}

// Decide runs one decision tick for the episode. On escalation the
// episode record is marked terminal and the error propagates.
func (s *SessionService) Decide(ctx context.Context, episodeID uuid.UUID) (*Decision, error) {
	sess, err := s.get(episodeID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastActive = time.Now()

	d, err := sess.agent.Decide(ctx)
	if errors.Is(err, domain.ErrAgentEscalated) {
		s.markEscalated(ctx, episodeID, err.Error())
	}
	return d, err
}

// Observe feeds the environment's outcome back into the episode.
func (s *SessionService) Observe(ctx context.Context, episodeID uuid.UUID, o Outcome) (*domain.Belief, error) {
	sess, err := s.get(episodeID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastActive = time.Now()

	return sess.agent.Observe(ctx, o)
}

// Beliefs returns the episode's current belief snapshot.
func (s *SessionService) Beliefs(episodeID uuid.UUID) (map[string]float64, int64, error) {
	sess, err := s.get(episodeID)
	if err != nil {
		return nil, 0, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.agent.Beliefs(), sess.agent.StepsRemaining(), nil
}

// Trace returns the persisted trace events for the episode.
func (s *SessionService) Trace(ctx context.Context, episodeID uuid.UUID) ([]domain.TraceEvent, error) {
	return s.traces.ListByEpisode(ctx, episodeID)
}

// GetEpisode returns the durable episode record.
func (s *SessionService) GetEpisode(ctx context.Context, episodeID uuid.UUID) (*domain.Episode, error) {
	return s.episodes.GetByID(ctx, episodeID)
}

// EndEpisode marks the episode completed and evicts the live agent.
func (s *SessionService) EndEpisode(ctx context.Context, episodeID uuid.UUID) error {
	s.mu.Lock()
	sess, ok := s.sessions[episodeID]
	delete(s.sessions, episodeID)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	// Escalated episodes keep their terminal status.
	sess.mu.Lock()
	defer sess.mu.Unlock()
	episode, err := s.episodes.GetByID(ctx, episodeID)
	if err == nil && episode.Status == domain.EpisodeActive {
		if err := s.episodes.UpdateStatus(ctx, episodeID, domain.EpisodeCompleted, ""); err != nil {
			return fmt.Errorf("update episode status: %w", err)
		}
	}

	s.logger.Info("episode ended", zap.String("episode_id", episodeID.String()))
	return nil
}

// EvictIdle drops sessions inactive for longer than maxIdle and returns
// how many were removed. The episode records stay; only the live agents
// are evicted.
func (s *SessionService) EvictIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := sess.lastActive.Before(cutoff)
		sess.mu.Unlock()
		if idle {
			delete(s.sessions, id)
			evicted++
		}
	}
	return evicted
}

// LiveSessions reports how many agents are currently registered.
func (s *SessionService) LiveSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionService) get(episodeID uuid.UUID) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[episodeID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *SessionService) markEscalated(ctx context.Context, episodeID uuid.UUID, reason string) {
	if err := s.episodes.UpdateStatus(ctx, episodeID, domain.EpisodeEscalated, reason); err != nil {
		s.logger.Error("failed to mark episode escalated",
			zap.String("episode_id", episodeID.String()),
			zap.Error(err))
	}
}
