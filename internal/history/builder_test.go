package history

import (
	"fmt"
	"testing"
	"time"

	"github.com/mazelab/mazelab/internal/domain"
)

func article(id, summary string) domain.Article {
	return domain.Article{ID: id, Title: "Title " + id, Summary: summary, Tags: []string{"tag-" + id}}
}

func interaction(sessionID, articleID string, clicked bool, ts time.Time) domain.Interaction {
	return domain.Interaction{
		ID:             "int-" + sessionID + "-" + articleID,
		UserID:         "user-1",
		ArticleID:      articleID,
		ExperimentID:   "exp-1",
		SessionID:      sessionID,
		Clicked:        clicked,
		Timestamp:      ts,
		ArticleContext: domain.ArticleContext{Title: "Title " + articleID, Tags: []string{"tag-" + articleID}},
	}
}

func TestBuildOrdersByDisplayPosition(t *testing.T) {
	now := time.Now()
	session := domain.Session{
		SessionID: "sess-1",
		Articles:  []domain.Article{article("a", ""), article("b", ""), article("c", "")},
	}

	// Interactions arrive in reverse display order with ascending timestamps.
	ints := []domain.Interaction{
		interaction("sess-1", "c", true, now),
		interaction("sess-1", "a", false, now.Add(time.Second)),
		interaction("sess-1", "b", true, now.Add(2*time.Second)),
	}

	traces := Build(ints, []domain.Session{session}, session.Articles)
	if len(traces) != 1 {
		t.Fatalf("Expected 1 trace, got %d", len(traces))
	}

	got := traces[0]
	if got.SessionID != "sess-1" {
		t.Errorf("Expected session sess-1, got %s", got.SessionID)
	}
	want := []string{"Title a", "Title b", "Title c"}
	for i, entry := range got.Interactions {
		if entry.ArticleContext.Title != want[i] {
			t.Errorf("Position %d: expected %q, got %q", i, want[i], entry.ArticleContext.Title)
		}
	}
}

func TestBuildUnmatchedEntriesSortLast(t *testing.T) {
	now := time.Now()
	session := domain.Session{
		SessionID: "sess-1",
		Articles:  []domain.Article{article("a", "")},
	}

	ints := []domain.Interaction{
		interaction("sess-1", "ghost-2", true, now.Add(2*time.Second)),
		interaction("sess-1", "ghost-1", true, now.Add(time.Second)),
		interaction("sess-1", "a", true, now.Add(3*time.Second)),
	}

	traces := Build(ints, []domain.Session{session}, session.Articles)
	got := traces[0].Interactions
	if got[0].ArticleContext.Title != "Title a" {
		t.Errorf("Expected display-listed article first, got %q", got[0].ArticleContext.Title)
	}
	// Unmatched entries keep timestamp order among themselves.
	if got[1].ArticleContext.Title != "Title ghost-1" || got[2].ArticleContext.Title != "Title ghost-2" {
		t.Errorf("Expected ghosts in timestamp order, got %q then %q",
			got[1].ArticleContext.Title, got[2].ArticleContext.Title)
	}
}

func TestBuildBoundsToMostRecentSessions(t *testing.T) {
	now := time.Now()
	var sessions []domain.Session
	var ints []domain.Interaction
	for i := 1; i <= 5; i++ {
		id := fmt.Sprintf("sess-%d", i)
		sessions = append(sessions, domain.Session{
			SessionID:  id,
			RoundIndex: i,
			Articles:   []domain.Article{article("a", "")},
		})
		ints = append(ints, interaction(id, "a", true, now.Add(time.Duration(i)*time.Minute)))
	}

	traces := Build(ints, sessions, []domain.Article{article("a", "")})
	if len(traces) != MaxSessions {
		t.Fatalf("Expected %d traces, got %d", MaxSessions, len(traces))
	}
	if traces[0].SessionID != "sess-3" || traces[2].SessionID != "sess-5" {
		t.Errorf("Expected most recent sessions, got %s..%s", traces[0].SessionID, traces[2].SessionID)
	}
}

func TestBuildDropsEmptySessions(t *testing.T) {
	sessions := []domain.Session{
		{SessionID: "sess-1", Articles: []domain.Article{article("a", "")}},
		{SessionID: "sess-2", Articles: []domain.Article{article("b", "")}},
	}
	ints := []domain.Interaction{interaction("sess-2", "b", true, time.Now())}

	traces := Build(ints, sessions, []domain.Article{article("b", "")})
	if len(traces) != 1 {
		t.Fatalf("Expected 1 trace, got %d", len(traces))
	}
	if traces[0].SessionID != "sess-2" {
		t.Errorf("Expected sess-2, got %s", traces[0].SessionID)
	}
}

func TestBuildEntryContent(t *testing.T) {
	session := domain.Session{SessionID: "sess-1", Articles: []domain.Article{article("a", "the summary")}}

	clicked := interaction("sess-1", "a", true, time.Now())
	clicked.ScrollDepth = 0.756
	clicked.DwellTime = 12.5
	clicked.Liked = true
	clicked.Comment = "nice"

	traces := Build([]domain.Interaction{clicked}, []domain.Session{session},
		[]domain.Article{article("a", "the summary")})
	entry := traces[0].Interactions[0]

	if entry.UserBehavior.Action != ActionClicked {
		t.Errorf("Expected %s, got %s", ActionClicked, entry.UserBehavior.Action)
	}
	if entry.UserBehavior.ReadPercentage != "76%" {
		t.Errorf("Expected rounded 76%%, got %s", entry.UserBehavior.ReadPercentage)
	}
	if entry.ArticleContext.Content != "the summary" {
		t.Errorf("Expected fresh summary content, got %q", entry.ArticleContext.Content)
	}
	if entry.UserBehavior.Interactions.Comment == nil || *entry.UserBehavior.Interactions.Comment != "nice" {
		t.Errorf("Expected comment pointer, got %v", entry.UserBehavior.Interactions.Comment)
	}

	skipped := interaction("sess-1", "missing", false, time.Now())
	traces = Build([]domain.Interaction{skipped}, []domain.Session{session}, nil)
	entry = traces[0].Interactions[0]
	if entry.UserBehavior.Action != ActionSkipped {
		t.Errorf("Expected %s, got %s", ActionSkipped, entry.UserBehavior.Action)
	}
	if entry.UserBehavior.ReadPercentage != "0%" {
		t.Errorf("Expected 0%% for skip, got %s", entry.UserBehavior.ReadPercentage)
	}
	if entry.ArticleContext.Content != "content unavailable" {
		t.Errorf("Expected placeholder content, got %q", entry.ArticleContext.Content)
	}
}
