package store

import (
	"context"
	"time"

	"github.com/calegray/brainstem/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TraceStore struct {
	db *pgxpool.Pool
}

func NewTraceStore(db *pgxpool.Pool) *TraceStore {
	return &TraceStore{db: db}
}

func (s *TraceStore) Append(ctx context.Context, ev *domain.TraceEvent) error {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO trace_events (
			id, episode_id, step_index, skill_name, observation,
			p_before, p_after, active_critical_state, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		ev.ID, ev.EpisodeID, ev.StepIndex, ev.SkillName, ev.Observation,
		ev.PBefore, ev.PAfter, ev.ActiveCriticalState, ev.CreatedAt,
	)
	return err
}

func (s *TraceStore) ListByEpisode(ctx context.Context, episodeID uuid.UUID) ([]domain.TraceEvent, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, episode_id, step_index, skill_name, observation,
			p_before, p_after, active_critical_state, created_at
		FROM trace_events WHERE episode_id = $1
		ORDER BY step_index ASC`,
		episodeID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.TraceEvent
	for rows.Next() {
		var ev domain.TraceEvent
		if err := rows.Scan(
			&ev.ID, &ev.EpisodeID, &ev.StepIndex, &ev.SkillName, &ev.Observation,
			&ev.PBefore, &ev.PAfter, &ev.ActiveCriticalState, &ev.CreatedAt,
		); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
