package domain

import (
	"time"

	"github.com/google/uuid"
)

type EpisodeStatus string

const (
	EpisodeActive    EpisodeStatus = "active"
	EpisodeCompleted EpisodeStatus = "completed"
	EpisodeEscalated EpisodeStatus = "escalated"
)

// Episode is the durable record of one agent run.
type Episode struct {
	ID               uuid.UUID     `json:"id"`
	Name             string        `json:"name"`
	GoalVariable     string        `json:"goal_variable"`
	StepBudget       int64         `json:"step_budget"`
	Status           EpisodeStatus `json:"status"`
	EscalationReason string        `json:"escalation_reason,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}
