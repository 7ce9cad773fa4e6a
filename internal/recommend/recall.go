package recommend

import (
	"context"
	"fmt"

	"github.com/mazelab/mazelab/internal/domain"
	"github.com/mazelab/mazelab/internal/store"
)

// DefaultCandidateLimit bounds the candidate set handed to the selection
// stage.
const DefaultCandidateLimit = 50

// Recall samples a bounded candidate set from the requested library.
// Personal recall is scoped to one user and experiment; community recall is
// global. Only public, non-deleted articles qualify. The qualifying pool is
// shuffled unweighted and truncated to limit; fewer qualifying articles than
// limit is not an error.
func Recall(ctx context.Context, articles store.ArticleStore, userID string, limit int, lib domain.LibraryType, experimentID string, shuffle func(n int, swap func(i, j int))) ([]domain.CandidateItem, error) {
	if limit <= 0 {
		limit = DefaultCandidateLimit
	}

	filter := store.ArticleFilter{LibraryType: lib}
	if lib == domain.LibraryPersonal {
		if userID == "" || experimentID == "" {
			return nil, fmt.Errorf("personal recall requires user and experiment ids")
		}
		filter.OwnerID = userID
		filter.ExperimentID = experimentID
	} else {
		// Community recall only draws from publicly visible articles.
		filter.VisibleOnly = true
	}

	pool, err := articles.ListArticles(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("recall from %s library: %w", lib, err)
	}

	shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	if len(pool) > limit {
		pool = pool[:limit]
	}

	out := make([]domain.CandidateItem, len(pool))
	for i := range pool {
		out[i] = pool[i].Candidate()
	}
	return out, nil
}
