package store

import (
	"context"
	"errors"

	"github.com/calegray/brainstem/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EpisodeStore struct {
	db *pgxpool.Pool
}

func NewEpisodeStore(db *pgxpool.Pool) *EpisodeStore {
	return &EpisodeStore{db: db}
}

func (s *EpisodeStore) Create(ctx context.Context, e *domain.Episode) error {
	if e.Status == "" {
		e.Status = domain.EpisodeActive
	}

	return s.db.QueryRow(ctx,
		`INSERT INTO episodes (id, name, goal_variable, step_budget, status, escalation_reason)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		e.ID, e.Name, e.GoalVariable, e.StepBudget, e.Status, e.EscalationReason,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
}

func (s *EpisodeStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Episode, error) {
	e := &domain.Episode{}
	err := s.db.QueryRow(ctx,
		`SELECT id, name, goal_variable, step_budget, status, escalation_reason, created_at, updated_at
		FROM episodes WHERE id = $1`,
		id,
	).Scan(&e.ID, &e.Name, &e.GoalVariable, &e.StepBudget, &e.Status, &e.EscalationReason, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (s *EpisodeStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.EpisodeStatus, reason string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE episodes SET status = $2, escalation_reason = $3, updated_at = now() WHERE id = $1`,
		id, status, reason,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
