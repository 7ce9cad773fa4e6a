package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mazelab/mazelab/internal/recommend"
)

// PromptHandler exposes the global pipeline task prompts.
type PromptHandler struct {
	*Handler
}

// NewPromptHandler creates a new prompt handler.
func NewPromptHandler(base *Handler) *PromptHandler {
	return &PromptHandler{Handler: base}
}

// RegisterRoutes registers prompt configuration routes.
func (h *PromptHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/config/prompts", h.Get)
	r.Put("/api/config/prompts", h.Save)
}

type promptsPayload struct {
	StrategyPrompt string `json:"strategyPrompt"`
	ContentPrompt  string `json:"contentPrompt"`
}

// Get returns the global task prompts, falling back to the built-in defaults
// when nothing has been saved.
func (h *PromptHandler) Get(w http.ResponseWriter, r *http.Request) {
	strategy, content, err := h.store.GetPrompts(r.Context())
	if err != nil {
		slog.Error("Failed to load prompts", "error", err)
		Error(w, http.StatusInternalServerError, "failed to load prompts")
		return
	}
	if strategy == "" {
		strategy = recommend.DefaultStrategyTask
	}
	if content == "" {
		content = recommend.DefaultContentTask
	}

	JSON(w, http.StatusOK, promptsPayload{StrategyPrompt: strategy, ContentPrompt: content})
}

// Save stores the global task prompts.
func (h *PromptHandler) Save(w http.ResponseWriter, r *http.Request) {
	var payload promptsPayload
	if err := decode(r, &payload); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.store.SavePrompts(r.Context(), payload.StrategyPrompt, payload.ContentPrompt); err != nil {
		slog.Error("Failed to save prompts", "error", err)
		Error(w, http.StatusInternalServerError, "failed to save prompts")
		return
	}

	JSON(w, http.StatusOK, payload)
}
