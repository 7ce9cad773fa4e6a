package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mazelab/mazelab/internal/domain"
	"github.com/mazelab/mazelab/internal/identity"
	"github.com/mazelab/mazelab/internal/store"
)

// ExperimentHandler handles experiment lifecycle endpoints.
type ExperimentHandler struct {
	*Handler
}

// NewExperimentHandler creates a new experiment handler.
func NewExperimentHandler(base *Handler) *ExperimentHandler {
	return &ExperimentHandler{Handler: base}
}

// RegisterRoutes registers experiment routes.
func (h *ExperimentHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/experiments", h.List)
	r.Post("/api/experiments", h.Create)
	r.Get("/api/experiments/{id}", h.Get)
	r.Put("/api/experiments/{id}", h.Update)
	r.Post("/api/experiments/{id}/activate", h.Activate)
	r.Delete("/api/experiments/{id}", h.Delete)
}

// List returns the caller's experiments.
func (h *ExperimentHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	experiments, err := h.store.ListExperimentsByUser(r.Context(), userID)
	if err != nil {
		slog.Error("Failed to list experiments", "error", err, "user_id", userID)
		Error(w, http.StatusInternalServerError, "failed to list experiments")
		return
	}

	JSON(w, http.StatusOK, experiments)
}

// Get returns one experiment if it belongs to the caller.
func (h *ExperimentHandler) Get(w http.ResponseWriter, r *http.Request) {
	exp, ok := h.ownedExperiment(w, r)
	if !ok {
		return
	}
	JSON(w, http.StatusOK, exp)
}

// Create starts a new experiment for the caller. A newly created experiment
// becomes the active one; the store deactivates any sibling.
func (h *ExperimentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	var req struct {
		Name           string                `json:"name"`
		Mode           domain.ExperimentMode `json:"mode"`
		StrategyPrompt string                `json:"customStrategyPrompt"`
		ContentPrompt  string                `json:"customContentPrompt"`
	}
	if err := decode(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		Error(w, http.StatusBadRequest, "name is required")
		return
	}
	switch req.Mode {
	case domain.ModeSolo, domain.ModeCommunity:
	case "":
		req.Mode = domain.ModeSolo
	default:
		Error(w, http.StatusBadRequest, "mode must be solo or community")
		return
	}

	exp := &domain.Experiment{
		ID:             "exp-" + uuid.NewString(),
		UserID:         userID,
		Name:           req.Name,
		Active:         true,
		Mode:           req.Mode,
		StartedAt:      time.Now(),
		StrategyPrompt: req.StrategyPrompt,
		ContentPrompt:  req.ContentPrompt,
	}

	if err := h.store.SaveExperiment(r.Context(), exp); err != nil {
		slog.Error("Failed to create experiment", "error", err, "user_id", userID)
		Error(w, http.StatusInternalServerError, "failed to create experiment")
		return
	}

	slog.Info("Experiment created", "experiment_id", exp.ID, "user_id", userID, "mode", exp.Mode)
	JSON(w, http.StatusCreated, exp)
}

// Update changes an experiment's name and prompt overrides.
func (h *ExperimentHandler) Update(w http.ResponseWriter, r *http.Request) {
	exp, ok := h.ownedExperiment(w, r)
	if !ok {
		return
	}

	var req struct {
		Name           *string `json:"name"`
		StrategyPrompt *string `json:"customStrategyPrompt"`
		ContentPrompt  *string `json:"customContentPrompt"`
	}
	if err := decode(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			Error(w, http.StatusBadRequest, "name cannot be empty")
			return
		}
		exp.Name = *req.Name
	}
	if req.StrategyPrompt != nil {
		exp.StrategyPrompt = *req.StrategyPrompt
	}
	if req.ContentPrompt != nil {
		exp.ContentPrompt = *req.ContentPrompt
	}

	if err := h.store.SaveExperiment(r.Context(), exp); err != nil {
		slog.Error("Failed to update experiment", "error", err, "experiment_id", exp.ID)
		Error(w, http.StatusInternalServerError, "failed to update experiment")
		return
	}

	JSON(w, http.StatusOK, exp)
}

// Activate makes this experiment the caller's active one.
func (h *ExperimentHandler) Activate(w http.ResponseWriter, r *http.Request) {
	exp, ok := h.ownedExperiment(w, r)
	if !ok {
		return
	}

	exp.Active = true
	if err := h.store.SaveExperiment(r.Context(), exp); err != nil {
		slog.Error("Failed to activate experiment", "error", err, "experiment_id", exp.ID)
		Error(w, http.StatusInternalServerError, "failed to activate experiment")
		return
	}

	JSON(w, http.StatusOK, exp)
}

// Delete removes an experiment and everything scoped to it.
func (h *ExperimentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	exp, ok := h.ownedExperiment(w, r)
	if !ok {
		return
	}

	if h.recommender.InFlight(exp.ID) {
		Error(w, http.StatusConflict, "a round is in flight for this experiment")
		return
	}

	if err := h.store.DeleteExperiment(r.Context(), exp.ID); err != nil {
		slog.Error("Failed to delete experiment", "error", err, "experiment_id", exp.ID)
		Error(w, http.StatusInternalServerError, "failed to delete experiment")
		return
	}

	slog.Info("Experiment deleted", "experiment_id", exp.ID)
	JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *ExperimentHandler) ownedExperiment(w http.ResponseWriter, r *http.Request) (*domain.Experiment, bool) {
	userID := identity.UserIDFromContext(r.Context())

	exp, err := h.store.GetExperiment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			Error(w, http.StatusNotFound, "experiment not found")
			return nil, false
		}
		slog.Error("Failed to get experiment", "error", err)
		Error(w, http.StatusInternalServerError, "failed to get experiment")
		return nil, false
	}
	if exp.UserID != userID {
		Error(w, http.StatusForbidden, "not your experiment")
		return nil, false
	}
	return exp, true
}
