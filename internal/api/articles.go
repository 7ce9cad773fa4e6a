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

// ArticleHandler handles library management endpoints.
type ArticleHandler struct {
	*Handler
}

// NewArticleHandler creates a new article handler.
func NewArticleHandler(base *Handler) *ArticleHandler {
	return &ArticleHandler{Handler: base}
}

// RegisterRoutes registers article routes.
func (h *ArticleHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/articles", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/public", h.ListPublic)
		r.Get("/recycled", h.ListRecycled)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		r.Post("/{id}/restore", h.Restore)
	})
}

// List returns the caller's personal library for an experiment.
func (h *ArticleHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	experimentID := r.URL.Query().Get("experimentId")
	if experimentID == "" {
		Error(w, http.StatusBadRequest, "experimentId is required")
		return
	}

	articles, err := h.store.ListArticles(r.Context(), store.ArticleFilter{
		LibraryType:  domain.LibraryPersonal,
		OwnerID:      userID,
		ExperimentID: experimentID,
	})
	if err != nil {
		slog.Error("Failed to list personal library", "error", err, "user_id", userID, "experiment_id", experimentID)
		Error(w, http.StatusInternalServerError, "failed to list articles")
		return
	}

	JSON(w, http.StatusOK, articles)
}

// ListPublic returns the shared community pool.
func (h *ArticleHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	articles, err := h.store.ListArticles(r.Context(), store.ArticleFilter{
		LibraryType: domain.LibraryCommunity,
		VisibleOnly: true,
	})
	if err != nil {
		slog.Error("Failed to list community pool", "error", err)
		Error(w, http.StatusInternalServerError, "failed to list articles")
		return
	}

	JSON(w, http.StatusOK, articles)
}

// ListRecycled returns the caller's soft-deleted articles.
func (h *ArticleHandler) ListRecycled(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	articles, err := h.store.ListArticles(r.Context(), store.ArticleFilter{
		OwnerID:     userID,
		DeletedOnly: true,
	})
	if err != nil {
		slog.Error("Failed to list recycled articles", "error", err, "user_id", userID)
		Error(w, http.StatusInternalServerError, "failed to list articles")
		return
	}

	JSON(w, http.StatusOK, articles)
}

// Get returns a single article.
func (h *ArticleHandler) Get(w http.ResponseWriter, r *http.Request) {
	article, err := h.store.GetArticle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			Error(w, http.StatusNotFound, "article not found")
			return
		}
		slog.Error("Failed to get article", "error", err)
		Error(w, http.StatusInternalServerError, "failed to get article")
		return
	}

	JSON(w, http.StatusOK, article)
}

// Create stores a new article in the caller's personal library, or in the
// community pool when isPublic is set.
func (h *ArticleHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	var article domain.Article
	if err := decode(r, &article); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(article.Title) == "" {
		Error(w, http.StatusBadRequest, "title is required")
		return
	}

	if article.ID == "" {
		article.ID = "art-" + uuid.NewString()
	}
	if article.Source == "" {
		article.Source = domain.SourceManual
	}
	article.CreatedAt = time.Now()
	article.DeletedAt = nil

	if article.IsPublic {
		article.LibraryType = domain.LibraryCommunity
		article.OwnerID = ""
		article.ExperimentID = ""
	} else {
		article.LibraryType = domain.LibraryPersonal
		article.OwnerID = userID
		if article.ExperimentID == "" {
			Error(w, http.StatusBadRequest, "experiment_id is required for personal articles")
			return
		}
	}

	if err := h.store.SaveArticle(r.Context(), &article); err != nil {
		slog.Error("Failed to save article", "error", err, "user_id", userID)
		Error(w, http.StatusInternalServerError, "failed to save article")
		return
	}

	JSON(w, http.StatusCreated, article)
}

// Update replaces an existing article's mutable fields.
func (h *ArticleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	existing, ok := h.ownedArticle(w, r, id)
	if !ok {
		return
	}

	var update domain.Article
	if err := decode(r, &update); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Identity, ownership and lifecycle fields are immutable here.
	update.ID = existing.ID
	update.LibraryType = existing.LibraryType
	update.OwnerID = existing.OwnerID
	update.ExperimentID = existing.ExperimentID
	update.CreatedAt = existing.CreatedAt
	update.DeletedAt = existing.DeletedAt

	if err := h.store.SaveArticle(r.Context(), &update); err != nil {
		slog.Error("Failed to update article", "error", err, "article_id", id)
		Error(w, http.StatusInternalServerError, "failed to update article")
		return
	}

	JSON(w, http.StatusOK, update)
}

// Delete soft-deletes an article into the recycle bin.
func (h *ArticleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, ok := h.ownedArticle(w, r, id); !ok {
		return
	}

	if err := h.store.SoftDeleteArticle(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			Error(w, http.StatusNotFound, "article not found")
			return
		}
		slog.Error("Failed to delete article", "error", err, "article_id", id)
		Error(w, http.StatusInternalServerError, "failed to delete article")
		return
	}

	JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Restore brings a soft-deleted article back into its library.
func (h *ArticleHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, ok := h.ownedArticle(w, r, id); !ok {
		return
	}

	if err := h.store.RestoreArticle(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			Error(w, http.StatusNotFound, "article not found")
			return
		}
		slog.Error("Failed to restore article", "error", err, "article_id", id)
		Error(w, http.StatusInternalServerError, "failed to restore article")
		return
	}

	JSON(w, http.StatusOK, map[string]string{"status": "restored"})
}

// ownedArticle loads an article and rejects writes to another user's
// personal-library entries.
func (h *ArticleHandler) ownedArticle(w http.ResponseWriter, r *http.Request, id string) (*domain.Article, bool) {
	userID := identity.UserIDFromContext(r.Context())

	article, err := h.store.GetArticle(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			Error(w, http.StatusNotFound, "article not found")
			return nil, false
		}
		slog.Error("Failed to get article", "error", err, "article_id", id)
		Error(w, http.StatusInternalServerError, "failed to get article")
		return nil, false
	}
	if article.LibraryType == domain.LibraryPersonal && article.OwnerID != userID {
		Error(w, http.StatusForbidden, "not your article")
		return nil, false
	}
	return article, true
}
