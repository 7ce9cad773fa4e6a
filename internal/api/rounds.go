package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mazelab/mazelab/internal/identity"
	"github.com/mazelab/mazelab/internal/llm"
	"github.com/mazelab/mazelab/internal/recommend"
	"github.com/mazelab/mazelab/internal/store"
)

// RoundHandler handles session listing and round advancement.
type RoundHandler struct {
	*Handler
	defaultModel string
}

// NewRoundHandler creates a new round handler.
func NewRoundHandler(base *Handler, defaultModel string) *RoundHandler {
	return &RoundHandler{Handler: base, defaultModel: defaultModel}
}

// RegisterRoutes registers session and round routes.
func (h *RoundHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/experiments/{id}/sessions", h.ListSessions)
	r.Post("/api/experiments/{id}/rounds", h.AdvanceRound)
}

// ListSessions returns all sessions of an experiment in round order.
func (h *RoundHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	experimentID := chi.URLParam(r, "id")

	exp, err := h.store.GetExperiment(r.Context(), experimentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			Error(w, http.StatusNotFound, "experiment not found")
			return
		}
		slog.Error("Failed to get experiment", "error", err, "experiment_id", experimentID)
		Error(w, http.StatusInternalServerError, "failed to get experiment")
		return
	}
	if exp.UserID != userID {
		Error(w, http.StatusForbidden, "not your experiment")
		return
	}

	sessions, err := h.store.ListSessionsByExperiment(r.Context(), experimentID)
	if err != nil {
		slog.Error("Failed to list sessions", "error", err, "experiment_id", experimentID)
		Error(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}

	JSON(w, http.StatusOK, sessions)
}

// AdvanceRound runs the next round for an experiment: round 1 seeds the feed
// from the personal library, later rounds run the full pipeline. Only one
// round per experiment may be in flight.
func (h *RoundHandler) AdvanceRound(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	experimentID := chi.URLParam(r, "id")

	var req struct {
		Model string `json:"model"`
	}
	// An empty body means defaults.
	_ = decode(r, &req)
	if req.Model == "" {
		req.Model = h.defaultModel
	}

	exp, err := h.store.GetExperiment(r.Context(), experimentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			Error(w, http.StatusNotFound, "experiment not found")
			return
		}
		slog.Error("Failed to get experiment", "error", err, "experiment_id", experimentID)
		Error(w, http.StatusInternalServerError, "failed to get experiment")
		return
	}
	if exp.UserID != userID {
		Error(w, http.StatusForbidden, "not your experiment")
		return
	}

	session, err := h.recommender.AdvanceRound(r.Context(), recommend.RoundRequest{
		ExperimentID: experimentID,
		Model:        req.Model,
	})
	if err != nil {
		var insufficient *recommend.InsufficientLibraryError
		var modelErr *llm.ModelError
		switch {
		case errors.Is(err, recommend.ErrRoundInFlight):
			Error(w, http.StatusConflict, "round_in_progress")
		case errors.As(err, &insufficient):
			Error(w, http.StatusUnprocessableEntity, insufficient.Error())
		case errors.Is(err, recommend.ErrEmptyCandidatePool):
			Error(w, http.StatusUnprocessableEntity, "no candidates available for this round")
		case errors.As(err, &modelErr):
			slog.Error("Round failed at model stage", "error", err, "experiment_id", experimentID, "stage", modelErr.Stage)
			Error(w, http.StatusBadGateway, "model stage failed: "+modelErr.Stage)
		default:
			slog.Error("Round failed", "error", err, "experiment_id", experimentID)
			Error(w, http.StatusInternalServerError, "round failed")
		}
		return
	}

	JSON(w, http.StatusCreated, session)
}
