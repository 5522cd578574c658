package handlers

import (
	"errors"
	"net/http"

	"github.com/calegray/brainstem/internal/domain"
	"github.com/calegray/brainstem/internal/service"
)

// TraceHandler exposes episode introspection: live beliefs and the
// persisted trace log.
type TraceHandler struct {
	sessions *service.SessionService
}

func NewTraceHandler(sessions *service.SessionService) *TraceHandler {
	return &TraceHandler{sessions: sessions}
}

// Beliefs handles GET /v1/episodes/{id}/beliefs.
func (h *TraceHandler) Beliefs(w http.ResponseWriter, r *http.Request) {
	id, ok := episodeID(w, r)
	if !ok {
		return
	}

	beliefs, stepsRemaining, err := h.sessions.Beliefs(id)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "no live session for episode")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"beliefs":         beliefs,
		"steps_remaining": stepsRemaining,
	})
}

// Trace handles GET /v1/episodes/{id}/trace.
func (h *TraceHandler) Trace(w http.ResponseWriter, r *http.Request) {
	id, ok := episodeID(w, r)
	if !ok {
		return
	}

	events, err := h.sessions.Trace(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if events == nil {
		events = []domain.TraceEvent{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}
