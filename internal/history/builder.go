// Package history reconstructs per-session interaction traces for use as
// model context.
package history

import (
	"fmt"
	"math"
	"sort"

	"github.com/mazelab/mazelab/internal/domain"
)

// MaxSessions bounds how many history-bearing sessions are injected into a
// prompt.
const MaxSessions = 3

// Action labels understood by the prompt preambles.
const (
	ActionClicked = "CLICKED_AND_VIEWED"
	ActionSkipped = "SKIPPED_IN_FEED"
)

// ArticleTrace is the per-entry article metadata exposed to the model. The
// content is looked up fresh from the article store, not the interaction
// snapshot, so later edits and summaries flow into the history.
type ArticleTrace struct {
	Title    string   `json:"title"`
	Category string   `json:"category,omitempty"`
	Tags     []string `json:"tags"`
	Content  string   `json:"content"`
}

// Flags exposes the explicit engagement signals of one interaction.
type Flags struct {
	Liked     bool    `json:"liked"`
	Favorited bool    `json:"favorited"`
	Comment   *string `json:"comment"`
}

// Behavior describes what the user did with one shown article.
type Behavior struct {
	Action           string  `json:"action"`
	TimeSpentSeconds float64 `json:"time_spent_seconds"`
	ReadPercentage   string  `json:"read_percentage"`
	Interactions     Flags   `json:"interactions"`
}

// Entry pairs an article with the user's behavior on it.
type Entry struct {
	ArticleContext ArticleTrace `json:"article_context"`
	UserBehavior   Behavior     `json:"user_behavior"`
}

// SessionTrace is one session's ordered interaction trace.
type SessionTrace struct {
	SessionID    string  `json:"session_id"`
	Interactions []Entry `json:"interactions"`
}

// Build turns the full interaction log of an experiment into a bounded,
// ordered sequence of per-session traces.
//
// Within each session, entries follow the display position of the article in
// that session's original list, not the interaction timestamp. This preserves
// the user's scan path: a run of skips after position K is a signal that
// timestamp ordering would destroy. Interactions whose article cannot be
// located in the display list fall back to timestamp order and sort last.
//
// Sessions with zero interactions are dropped; only the most recent
// MaxSessions history-bearing sessions are returned.
func Build(interactions []domain.Interaction, sessions []domain.Session, articles []domain.Article) []SessionTrace {
	if len(interactions) == 0 {
		return nil
	}

	articleByID := make(map[string]domain.Article, len(articles))
	for _, a := range articles {
		articleByID[a.ID] = a
	}

	bySession := make(map[string][]domain.Interaction)
	for _, i := range interactions {
		bySession[i.SessionID] = append(bySession[i.SessionID], i)
	}

	var traces []SessionTrace
	for _, sess := range sessions {
		ints := bySession[sess.SessionID]
		if len(ints) == 0 {
			continue
		}

		position := make(map[string]int, len(sess.Articles))
		for idx, a := range sess.Articles {
			position[a.ID] = idx
		}

		sort.SliceStable(ints, func(a, b int) bool {
			posA, okA := position[ints[a].ArticleID]
			posB, okB := position[ints[b].ArticleID]
			switch {
			case okA && okB:
				return posA < posB
			case !okA && !okB:
				return ints[a].Timestamp.Before(ints[b].Timestamp)
			default:
				// Unmatched entries sort last.
				return okA
			}
		})

		entries := make([]Entry, len(ints))
		for idx, i := range ints {
			entries[idx] = buildEntry(i, articleByID)
		}

		traces = append(traces, SessionTrace{
			SessionID:    sess.SessionID,
			Interactions: entries,
		})
	}

	if len(traces) > MaxSessions {
		traces = traces[len(traces)-MaxSessions:]
	}
	return traces
}

func buildEntry(i domain.Interaction, articleByID map[string]domain.Article) Entry {
	content := "content unavailable"
	category := ""
	if a, ok := articleByID[i.ArticleID]; ok {
		category = a.Category
		switch {
		case a.Summary != "":
			content = a.Summary
		case a.Description != "":
			content = a.Description
		case a.Content != "":
			content = a.Content
		}
	}

	action := ActionSkipped
	readPct := "0%"
	if i.Clicked {
		action = ActionClicked
		readPct = fmt.Sprintf("%d%%", int(math.Round(i.ScrollDepth*100)))
	}

	var comment *string
	if i.Comment != "" {
		c := i.Comment
		comment = &c
	}

	return Entry{
		ArticleContext: ArticleTrace{
			Title:    i.ArticleContext.Title,
			Category: category,
			Tags:     i.ArticleContext.Tags,
			Content:  content,
		},
		UserBehavior: Behavior{
			Action:           action,
			TimeSpentSeconds: i.DwellTime,
			ReadPercentage:   readPct,
			Interactions: Flags{
				Liked:     i.Liked,
				Favorited: i.Favorited,
				Comment:   comment,
			},
		},
	}
}
