package domain

import (
	"time"

	"github.com/google/uuid"
)

// Highlight is a quoted span the user annotated while reading.
type Highlight struct {
	Quote   string `json:"quote"`
	Comment string `json:"comment,omitempty"`
}

// ArticleContext is a denormalized snapshot of the article at interaction
// time. It is kept verbatim even if the article later changes.
type ArticleContext struct {
	Title   string   `json:"title"`
	Tags    []string `json:"tags"`
	Summary string   `json:"summary,omitempty"`
}

// Interaction records one user's engagement with one article within one
// session. Rows are append-only: explicit rows are written when the user
// closes an article, implicit-skip rows are synthesized by the orchestrator
// when the next round begins.
type Interaction struct {
	ID           string `json:"id"`
	UserID       string `json:"userId"`
	ArticleID    string `json:"articleId"`
	ExperimentID string `json:"experimentId"`
	SessionID    string `json:"sessionId"`

	// Clicked false means the article was shown but never opened.
	Clicked bool `json:"clicked"`
	// DwellTime is seconds spent reading.
	DwellTime float64 `json:"dwellTime"`
	// ScrollDepth is the furthest read fraction, 0.0 to 1.0.
	ScrollDepth float64 `json:"scrollDepth"`

	Liked      bool        `json:"liked"`
	Favorited  bool        `json:"favorited"`
	Comment    string      `json:"comment,omitempty"`
	Highlights []Highlight `json:"highlights,omitempty"`

	Timestamp      time.Time      `json:"timestamp"`
	ArticleContext ArticleContext `json:"articleContext"`
}

// NewSkipInteraction synthesizes the implicit-feedback row for an article
// that was shown in a session but never opened.
func NewSkipInteraction(userID, experimentID, sessionID string, article Article, now time.Time) Interaction {
	return Interaction{
		ID:           "skip-" + uuid.NewString(),
		UserID:       userID,
		ArticleID:    article.ID,
		ExperimentID: experimentID,
		SessionID:    sessionID,
		Clicked:      false,
		DwellTime:    0,
		ScrollDepth:  0,
		Timestamp:    now,
		ArticleContext: ArticleContext{
			Title:   article.Title,
			Tags:    article.Tags,
			Summary: article.Summary,
		},
	}
}
