package domain

import (
	"context"

	"github.com/google/uuid"
)

type EpisodeStore interface {
	Create(ctx context.Context, e *Episode) error
	GetByID(ctx context.Context, id uuid.UUID) (*Episode, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status EpisodeStatus, reason string) error
}

type TraceStore interface {
	Append(ctx context.Context, ev *TraceEvent) error
	ListByEpisode(ctx context.Context, episodeID uuid.UUID) ([]TraceEvent, error)
}
