// Package domain contains core domain types for the recommendation platform.
package domain

import (
	"time"
)

// ArticleSource identifies how a content unit entered the system.
type ArticleSource string

const (
	SourceManual   ArticleSource = "manual"
	SourceImported ArticleSource = "imported"
	SourceCrawled  ArticleSource = "crawled"
)

// LibraryType classifies which pool an article belongs to.
type LibraryType string

const (
	// LibraryPersonal articles are scoped to one user and one experiment.
	LibraryPersonal LibraryType = "personal"
	// LibraryCommunity articles are shared across all users.
	LibraryCommunity LibraryType = "community"
)

// MediaType distinguishes entries in an article's media list.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// Media is one ordered entry in an article's media list.
type Media struct {
	Type MediaType `json:"type"`
	URL  string    `json:"url"`
}

// Author holds display information about an article's author.
type Author struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// Article is a normalized content unit. Articles are created by content
// acquisition or manual entry and are only ever soft-deleted and restored,
// never hard-deleted.
type Article struct {
	ID            string        `json:"id"`
	Source        ArticleSource `json:"source"`
	Title         string        `json:"title"`
	Content       string        `json:"content"`
	// Description is the raw source text before any normalization; Summary
	// is the condensed form shown in listings.
	Description   string        `json:"desc,omitempty"`
	Summary       string        `json:"summary"`
	Media         []Media       `json:"media,omitempty"`
	Author        Author        `json:"author"`
	Category      string        `json:"category,omitempty"`
	Tags          []string      `json:"tags"`
	LikedCount    int           `json:"liked_count"`
	FavoriteCount int           `json:"favorite_count"`
	CommentCount  int           `json:"comment_count"`
	IsPublic      bool          `json:"isPublic"`
	DeletedAt     *time.Time    `json:"deletedAt,omitempty"`
	OwnerID       string        `json:"ownerId,omitempty"`
	LibraryType   LibraryType   `json:"library_type"`
	// ExperimentID scopes a personal-library article to one experiment.
	// Empty for community articles.
	ExperimentID string    `json:"experiment_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Deleted reports whether the article has been soft-deleted.
func (a *Article) Deleted() bool {
	return a.DeletedAt != nil
}

// Visible reports whether the article may appear in public listings and
// candidate recall: public and not soft-deleted.
func (a *Article) Visible() bool {
	return a.IsPublic && !a.Deleted()
}

// CandidateItem is the minimal projection of an article handed to the
// content-selection model. It deliberately carries no engagement counters.
type CandidateItem struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// Candidate projects the article into its recall form. Content preference
// order is raw description, then full content, then summary.
func (a *Article) Candidate() CandidateItem {
	content := a.Description
	if content == "" {
		content = a.Content
	}
	if content == "" {
		content = a.Summary
	}
	return CandidateItem{
		ID:      a.ID,
		Title:   a.Title,
		Content: content,
		Tags:    a.Tags,
	}
}
