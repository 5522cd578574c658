package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/calegray/brainstem/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockEpisodeStore struct {
	mock.Mock
}

func (m *MockEpisodeStore) Create(ctx context.Context, e *domain.Episode) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockEpisodeStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Episode, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Episode), args.Error(1)
}

func (m *MockEpisodeStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.EpisodeStatus, reason string) error {
	args := m.Called(ctx, id, status, reason)
	return args.Error(0)
}

type MockTraceStore struct {
	mock.Mock
}

func (m *MockTraceStore) Append(ctx context.Context, ev *domain.TraceEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

func (m *MockTraceStore) ListByEpisode(ctx context.Context, episodeID uuid.UUID) ([]domain.TraceEvent, error) {
	args := m.Called(ctx, episodeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TraceEvent), args.Error(1)
}

func newTestSessionService(episodes *MockEpisodeStore, traces *MockTraceStore) *SessionService {
	return NewSessionService(episodes, traces, domain.DefaultTuning(), testLogger())
}

func lockedRoomInput() StartEpisodeInput {
	return StartEpisodeInput{
		Name:         "locked room",
		GoalVariable: "door_locked",
		Beliefs: map[string]float64{
			"door_locked":    0.5,
			"window_blocked": 0.25,
		},
		Catalog:          doorCatalog(),
		StepBudget:       20,
		DistanceEstimate: 2,
	}
}

func TestSessionService_EpisodeLifecycle(t *testing.T) {
	ctx := context.Background()
	episodes := new(MockEpisodeStore)
	traces := new(MockTraceStore)
	svc := newTestSessionService(episodes, traces)

	episodes.On("Create", mock.Anything, mock.AnythingOfType("*domain.Episode")).Return(nil)
	traces.On("Append", mock.Anything, mock.AnythingOfType("*domain.TraceEvent")).Return(nil)

	episode, err := svc.StartEpisode(ctx, lockedRoomInput())
	require.NoError(t, err)
	assert.Equal(t, domain.EpisodeActive, episode.Status)
	assert.Equal(t, 1, svc.LiveSessions())

	d, err := svc.Decide(ctx, episode.ID)
	require.NoError(t, err)
	assert.Equal(t, "peek_door", d.SkillName)

	belief, err := svc.Observe(ctx, episode.ID, Outcome{
		Observation:     domain.ObservationConfirmedFalse,
		Reward:          0.5,
		PredictionError: 0.2,
	})
	require.NoError(t, err)
	assert.Equal(t, "door_locked", belief.Variable)
	assert.InDelta(t, 0.15, belief.P, 1e-9)

	beliefs, stepsRemaining, err := svc.Beliefs(episode.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.15, beliefs["door_locked"], 1e-9)
	assert.Equal(t, int64(19), stepsRemaining)

	episodes.AssertExpectations(t)
	traces.AssertExpectations(t)
}

func TestSessionService_UnknownEpisode(t *testing.T) {
	ctx := context.Background()
	svc := newTestSessionService(new(MockEpisodeStore), new(MockTraceStore))

	_, err := svc.Decide(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = svc.Observe(ctx, uuid.New(), Outcome{Observation: domain.ObservationAmbiguous})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, _, err = svc.Beliefs(uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionService_EscalationMarksEpisode(t *testing.T) {
	ctx := context.Background()
	episodes := new(MockEpisodeStore)
	traces := new(MockTraceStore)
	svc := newTestSessionService(episodes, traces)

	episodes.On("Create", mock.Anything, mock.AnythingOfType("*domain.Episode")).Return(nil)
	traces.On("Append", mock.Anything, mock.AnythingOfType("*domain.TraceEvent")).Return(nil)

	in := lockedRoomInput()
	in.StepBudget = 3
	episode, err := svc.StartEpisode(ctx, in)
	require.NoError(t, err)

	episodes.On("UpdateStatus", mock.Anything, episode.ID, domain.EpisodeEscalated, mock.AnythingOfType("string")).Return(nil)

	for i := 0; i < 2; i++ {
		_, err := svc.Decide(ctx, episode.ID)
		require.NoError(t, err)
		_, err = svc.Observe(ctx, episode.ID, Outcome{Observation: domain.ObservationAmbiguous})
		require.NoError(t, err)
	}

	_, err = svc.Decide(ctx, episode.ID)
	assert.ErrorIs(t, err, domain.ErrAgentEscalated)

	episodes.AssertExpectations(t)
}

func TestSessionService_EndEpisode(t *testing.T) {
	ctx := context.Background()
	episodes := new(MockEpisodeStore)
	traces := new(MockTraceStore)
	svc := newTestSessionService(episodes, traces)

	episodes.On("Create", mock.Anything, mock.AnythingOfType("*domain.Episode")).Return(nil)

	episode, err := svc.StartEpisode(ctx, lockedRoomInput())
	require.NoError(t, err)

	episodes.On("GetByID", mock.Anything, episode.ID).Return(&domain.Episode{
		ID:     episode.ID,
		Status: domain.EpisodeActive,
	}, nil)
	episodes.On("UpdateStatus", mock.Anything, episode.ID, domain.EpisodeCompleted, "").Return(nil)

	require.NoError(t, svc.EndEpisode(ctx, episode.ID))
	assert.Equal(t, 0, svc.LiveSessions())

	// The live agent is gone; ending again is a miss.
	err = svc.EndEpisode(ctx, episode.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	episodes.AssertExpectations(t)
}

func TestSessionService_EndEscalatedEpisodeKeepsStatus(t *testing.T) {
	ctx := context.Background()
	episodes := new(MockEpisodeStore)
	traces := new(MockTraceStore)
	svc := newTestSessionService(episodes, traces)

	episodes.On("Create", mock.Anything, mock.AnythingOfType("*domain.Episode")).Return(nil)

	episode, err := svc.StartEpisode(ctx, lockedRoomInput())
	require.NoError(t, err)

	// Terminal status stays; no UpdateStatus expectation is registered.
	episodes.On("GetByID", mock.Anything, episode.ID).Return(&domain.Episode{
		ID:     episode.ID,
		Status: domain.EpisodeEscalated,
	}, nil)

	require.NoError(t, svc.EndEpisode(ctx, episode.ID))
	episodes.AssertExpectations(t)
}

func TestSessionService_Trace(t *testing.T) {
	ctx := context.Background()
	episodes := new(MockEpisodeStore)
	traces := new(MockTraceStore)
	svc := newTestSessionService(episodes, traces)

	id := uuid.New()
	want := []domain.TraceEvent{{EpisodeID: id, SkillName: "peek_door"}}
	traces.On("ListByEpisode", mock.Anything, id).Return(want, nil)

	got, err := svc.Trace(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSessionService_EvictIdle(t *testing.T) {
	ctx := context.Background()
	episodes := new(MockEpisodeStore)
	traces := new(MockTraceStore)
	svc := newTestSessionService(episodes, traces)

	episodes.On("Create", mock.Anything, mock.AnythingOfType("*domain.Episode")).Return(nil)

	_, err := svc.StartEpisode(ctx, lockedRoomInput())
	require.NoError(t, err)

	// A generous TTL keeps the fresh session alive.
	assert.Equal(t, 0, svc.EvictIdle(time.Hour))
	assert.Equal(t, 1, svc.LiveSessions())

	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, 1, svc.EvictIdle(time.Millisecond))
	assert.Equal(t, 0, svc.LiveSessions())
}

func TestSessionService_CreateFailureDoesNotRegisterSession(t *testing.T) {
	ctx := context.Background()
	episodes := new(MockEpisodeStore)
	traces := new(MockTraceStore)
	svc := newTestSessionService(episodes, traces)

	episodes.On("Create", mock.Anything, mock.AnythingOfType("*domain.Episode")).Return(errors.New("db down"))

	_, err := svc.StartEpisode(ctx, lockedRoomInput())
	require.Error(t, err)
	assert.Equal(t, 0, svc.LiveSessions())
}
