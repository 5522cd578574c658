package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/calegray/brainstem/internal/domain"
	"github.com/calegray/brainstem/internal/service"
)

// DecisionHandler exposes the per-tick decide/observe cycle.
type DecisionHandler struct {
	sessions *service.SessionService
}

func NewDecisionHandler(sessions *service.SessionService) *DecisionHandler {
	return &DecisionHandler{sessions: sessions}
}

// Decide handles POST /v1/episodes/{id}/decide.
func (h *DecisionHandler) Decide(w http.ResponseWriter, r *http.Request) {
	id, ok := episodeID(w, r)
	if !ok {
		return
	}

	decision, err := h.sessions.Decide(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			writeError(w, http.StatusNotFound, "no live session for episode")
		case errors.Is(err, domain.ErrAgentEscalated):
			// Terminal for the episode; the orchestrator must stop.
			writeJSON(w, http.StatusConflict, map[string]string{
				"status": string(domain.EpisodeEscalated),
				"error":  err.Error(),
			})
		case errors.Is(err, domain.ErrEmptyCandidateSet),
			errors.Is(err, domain.ErrInvalidVariable):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, decision)
}

type observeRequest struct {
	Observation      domain.Observation `json:"observation"`
	Reward           float64            `json:"reward"`
	PredictionError  float64            `json:"prediction_error"`
	DistanceEstimate *float64           `json:"distance_estimate,omitempty"`
}

// Observe handles POST /v1/episodes/{id}/observe.
func (h *DecisionHandler) Observe(w http.ResponseWriter, r *http.Request) {
	id, ok := episodeID(w, r)
	if !ok {
		return
	}

	var req observeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Observation == "" {
		writeError(w, http.StatusBadRequest, "observation is required")
		return
	}

	belief, err := h.sessions.Observe(r.Context(), id, service.Outcome{
		Observation:      req.Observation,
		Reward:           req.Reward,
		PredictionError:  req.PredictionError,
		DistanceEstimate: req.DistanceEstimate,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			writeError(w, http.StatusNotFound, "no live session for episode")
		case errors.Is(err, domain.ErrInvalidVariable):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, belief)
}
