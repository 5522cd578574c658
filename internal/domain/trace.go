package domain

import (
	"time"

	"github.com/google/uuid"
)

// TraceEvent is emitted once per completed tick to the external event
// log. The core never blocks on the log being available.
type TraceEvent struct {
	ID                  uuid.UUID     `json:"id"`
	EpisodeID           uuid.UUID     `json:"episode_id"`
	StepIndex           int           `json:"step_index"`
	SkillName           string        `json:"skill_name"`
	Observation         Observation   `json:"observation"`
	PBefore             float64       `json:"p_before"`
	PAfter              float64       `json:"p_after"`
	ActiveCriticalState CriticalState `json:"active_critical_state"`
	CreatedAt           time.Time     `json:"created_at"`
}
