package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mazelab/mazelab/internal/domain"
	"github.com/mazelab/mazelab/internal/identity"
	"github.com/mazelab/mazelab/internal/store"
)

// InteractionHandler handles explicit feedback endpoints.
type InteractionHandler struct {
	*Handler
}

// NewInteractionHandler creates a new interaction handler.
func NewInteractionHandler(base *Handler) *InteractionHandler {
	return &InteractionHandler{Handler: base}
}

// RegisterRoutes registers interaction routes.
func (h *InteractionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/interactions", h.Create)
	r.Get("/api/experiments/{id}/interactions", h.ListByExperiment)
}

// Create appends one explicit interaction row. Clients send it when the user
// closes an article; shown-but-unopened articles get their skip rows from the
// orchestrator, never from here.
func (h *InteractionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	var interaction domain.Interaction
	if err := decode(r, &interaction); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if interaction.ArticleID == "" || interaction.ExperimentID == "" || interaction.SessionID == "" {
		Error(w, http.StatusBadRequest, "articleId, experimentId and sessionId are required")
		return
	}

	interaction.ID = "int-" + uuid.NewString()
	interaction.UserID = userID
	if interaction.Timestamp.IsZero() {
		interaction.Timestamp = time.Now()
	}

	// Snapshot the article so later edits or deletion cannot rewrite the
	// recorded context.
	if interaction.ArticleContext.Title == "" {
		article, err := h.store.GetArticle(r.Context(), interaction.ArticleID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				Error(w, http.StatusNotFound, "article not found")
				return
			}
			slog.Error("Failed to snapshot article", "error", err, "article_id", interaction.ArticleID)
			Error(w, http.StatusInternalServerError, "failed to record interaction")
			return
		}
		interaction.ArticleContext = domain.ArticleContext{
			Title:   article.Title,
			Tags:    article.Tags,
			Summary: article.Summary,
		}
	}

	if err := h.store.AppendInteraction(r.Context(), &interaction); err != nil {
		slog.Error("Failed to append interaction", "error", err, "user_id", userID)
		Error(w, http.StatusInternalServerError, "failed to record interaction")
		return
	}

	JSON(w, http.StatusCreated, interaction)
}

// ListByExperiment returns every interaction of an experiment in append order.
func (h *InteractionHandler) ListByExperiment(w http.ResponseWriter, r *http.Request) {
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

	interactions, err := h.store.ListInteractionsByExperiment(r.Context(), experimentID)
	if err != nil {
		slog.Error("Failed to list interactions", "error", err, "experiment_id", experimentID)
		Error(w, http.StatusInternalServerError, "failed to list interactions")
		return
	}

	JSON(w, http.StatusOK, interactions)
}
