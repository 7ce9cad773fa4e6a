// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"errors"

	"github.com/mazelab/mazelab/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ArticleFilter narrows ListArticles results. Zero values mean "no filter".
// Soft-deleted articles are excluded unless DeletedOnly is set.
type ArticleFilter struct {
	LibraryType  domain.LibraryType
	ExperimentID string
	OwnerID      string
	// VisibleOnly additionally keeps only public articles.
	VisibleOnly bool
	// DeletedOnly inverts the deletion filter: only soft-deleted articles
	// (the recycle bin view).
	DeletedOnly bool
}

// ArticleStore persists normalized content records.
type ArticleStore interface {
	// SaveArticle inserts or replaces an article.
	SaveArticle(ctx context.Context, a *domain.Article) error

	// GetArticle retrieves an article by id, ErrNotFound if absent.
	GetArticle(ctx context.Context, id string) (*domain.Article, error)

	// ListArticles returns articles matching the filter, newest first.
	ListArticles(ctx context.Context, f ArticleFilter) ([]domain.Article, error)

	// ArticlesByIDs returns the subset of ids that exist and are not
	// soft-deleted, in the order the ids were given.
	ArticlesByIDs(ctx context.Context, ids []string) ([]domain.Article, error)

	// SoftDeleteArticle marks an article deleted without removing it.
	SoftDeleteArticle(ctx context.Context, id string) error

	// RestoreArticle clears the soft-delete mark.
	RestoreArticle(ctx context.Context, id string) error
}

// InteractionStore is the append-only engagement log.
type InteractionStore interface {
	// AppendInteraction persists one interaction row. Rows are never
	// mutated or deleted afterwards.
	AppendInteraction(ctx context.Context, i *domain.Interaction) error

	// ListInteractionsByExperiment returns all rows for an experiment in
	// insertion order.
	ListInteractionsByExperiment(ctx context.Context, experimentID string) ([]domain.Interaction, error)
}

// SessionStore is the append-only record of generated rounds.
type SessionStore interface {
	// AppendSession persists one immutable session batch.
	AppendSession(ctx context.Context, s *domain.Session) error

	// ListSessionsByExperiment returns sessions ordered by roundIndex.
	ListSessionsByExperiment(ctx context.Context, experimentID string) ([]domain.Session, error)
}

// ExperimentStore persists experiments and enforces the single-active
// invariant.
type ExperimentStore interface {
	// SaveExperiment inserts or updates an experiment. Saving an active
	// experiment deactivates every other experiment of the same user in
	// the same transaction.
	SaveExperiment(ctx context.Context, e *domain.Experiment) error

	// GetExperiment retrieves an experiment by id, ErrNotFound if absent.
	GetExperiment(ctx context.Context, id string) (*domain.Experiment, error)

	// ListExperimentsByUser returns the user's experiments, newest first.
	ListExperimentsByUser(ctx context.Context, userID string) ([]domain.Experiment, error)

	// DeleteExperiment removes the experiment and cascades to its
	// sessions, interactions and personal-library articles.
	DeleteExperiment(ctx context.Context, id string) error
}

// ConfigStore holds the global default task prompts.
type ConfigStore interface {
	// GetPrompts returns the global strategy and content task prompts.
	// Empty strings mean no override has been saved.
	GetPrompts(ctx context.Context) (strategy, content string, err error)

	// SavePrompts stores the global task prompts.
	SavePrompts(ctx context.Context, strategy, content string) error
}

// Store aggregates every persistence concern behind one handle.
type Store interface {
	ArticleStore
	InteractionStore
	SessionStore
	ExperimentStore
	ConfigStore

	// Ping verifies connectivity.
	Ping(ctx context.Context) error

	// Close closes the underlying database.
	Close() error
}
