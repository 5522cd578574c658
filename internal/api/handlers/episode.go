package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/calegray/brainstem/internal/domain"
	"github.com/calegray/brainstem/internal/service"
	"github.com/calegray/brainstem/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// EpisodeHandler manages episode lifecycle endpoints.
type EpisodeHandler struct {
	sessions *service.SessionService
}

func NewEpisodeHandler(sessions *service.SessionService) *EpisodeHandler {
	return &EpisodeHandler{sessions: sessions}
}

type startEpisodeRequest struct {
	Name             string              `json:"name"`
	GoalVariable     string              `json:"goal_variable"`
	Beliefs          map[string]float64  `json:"beliefs"`
	Skills           domain.SkillCatalog `json:"skills"`
	StepBudget       int64               `json:"step_budget"`
	DistanceEstimate float64             `json:"distance_estimate"`
}

// Start handles POST /v1/episodes.
func (h *EpisodeHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startEpisodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.GoalVariable == "" {
		writeError(w, http.StatusBadRequest, "goal_variable is required")
		return
	}
	if len(req.Beliefs) == 0 {
		writeError(w, http.StatusBadRequest, "beliefs are required")
		return
	}
	if req.StepBudget <= 0 {
		writeError(w, http.StatusBadRequest, "step_budget must be positive")
		return
	}

	episode, err := h.sessions.StartEpisode(r.Context(), service.StartEpisodeInput{
		Name:             req.Name,
		GoalVariable:     req.GoalVariable,
		Beliefs:          req.Beliefs,
		Catalog:          req.Skills,
		StepBudget:       req.StepBudget,
		DistanceEstimate: req.DistanceEstimate,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, episode)
}

// GetByID handles GET /v1/episodes/{id}.
func (h *EpisodeHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := episodeID(w, r)
	if !ok {
		return
	}

	episode, err := h.sessions.GetEpisode(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "episode not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, episode)
}

// End handles DELETE /v1/episodes/{id}.
func (h *EpisodeHandler) End(w http.ResponseWriter, r *http.Request) {
	id, ok := episodeID(w, r)
	if !ok {
		return
	}

	if err := h.sessions.EndEpisode(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "no live session for episode")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ended"})
}

// episodeID extracts and parses the {id} URL parameter.
func episodeID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid episode id")
		return uuid.Nil, false
	}
	return id, true
}
