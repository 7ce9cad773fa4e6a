package recommend

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mazelab/mazelab/internal/domain"
	"github.com/mazelab/mazelab/internal/llm"
	"github.com/mazelab/mazelab/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validStrategyJSON = `{
	"user_profile": {
		"interests_summary": "distributed systems",
		"behavior_patterns": "reads deeply, skips listicles",
		"engagement_level": "high"
	},
	"recommendation_strategy": {
		"personalization_ratio": 0.6,
		"exploration_ratio": 0.3,
		"serendipity_ratio": 0.1,
		"personalized_approach": "more consensus protocols",
		"exploration_approach": "adjacent infrastructure topics"
	},
	"detailed_reasoning": {
		"why_personalized": "stable interest cluster",
		"why_exploration": "two sessions of identical topics",
		"what_to_avoid": "introductory material"
	}
}`

func selectionJSON(ids ...string) string {
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = fmt.Sprintf("%q", id)
	}
	return fmt.Sprintf(`{"selected_article_ids": [%s], "reasoning": "test"}`, strings.Join(quoted, ", "))
}

// fakeLLM routes each prompt to a stage-specific response.
type fakeLLM struct {
	strategy  func() (string, error)
	selection func() (string, error)
}

func (f *fakeLLM) Generate(ctx context.Context, req llm.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.Contains(req.Prompt, "Candidate set") {
		return f.selection()
	}
	return f.strategy()
}

func newPipelineStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedExperiment(t *testing.T, s *store.SQLiteStore, libSize int) *domain.Experiment {
	t.Helper()
	ctx := context.Background()

	exp := &domain.Experiment{
		ID:        "exp-1",
		UserID:    "user-1",
		Name:      "test run",
		Active:    true,
		Mode:      domain.ModeSolo,
		StartedAt: time.Now(),
	}
	require.NoError(t, s.SaveExperiment(ctx, exp))

	base := time.Now().Add(-time.Hour)
	for i := 0; i < libSize; i++ {
		require.NoError(t, s.SaveArticle(ctx, &domain.Article{
			ID:           fmt.Sprintf("art-%02d", i),
			Source:       domain.SourceManual,
			Title:        fmt.Sprintf("Article %02d", i),
			Summary:      "summary",
			Tags:         []string{"go"},
			OwnerID:      exp.UserID,
			LibraryType:  domain.LibraryPersonal,
			ExperimentID: exp.ID,
			CreatedAt:    base.Add(time.Duration(i) * time.Second),
		}))
	}
	return exp
}

// noShuffle keeps recall in store order for deterministic assertions.
func noShuffle(n int, swap func(i, j int)) {}

func newTestRecommender(s *store.SQLiteStore, svc llm.Service) *Recommender {
	return New(s, svc, WithShuffle(noShuffle))
}

func TestColdStartSeedsFullLibrary(t *testing.T) {
	s := newPipelineStore(t)
	exp := seedExperiment(t, s, MinColdStartLibrary)

	// The model must not be consulted during cold start.
	svc := &fakeLLM{
		strategy:  func() (string, error) { return "", errors.New("unexpected model call") },
		selection: func() (string, error) { return "", errors.New("unexpected model call") },
	}
	r := newTestRecommender(s, svc)

	session, err := r.AdvanceRound(context.Background(), RoundRequest{ExperimentID: exp.ID, Model: "test-model"})
	require.NoError(t, err)
	assert.Equal(t, 1, session.RoundIndex)
	assert.Len(t, session.Articles, MinColdStartLibrary)
	require.NotNil(t, session.Strategy)
	assert.Equal(t, 0.0, session.Strategy.Recommendation.PersonalizationRatio)
	assert.Equal(t, 1.0, session.Strategy.Recommendation.ExplorationRatio)

	persisted, err := s.ListSessionsByExperiment(context.Background(), exp.ID)
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, session.SessionID, persisted[0].SessionID)
}

func TestColdStartRequiresMinimumLibrary(t *testing.T) {
	s := newPipelineStore(t)
	exp := seedExperiment(t, s, MinColdStartLibrary-1)
	r := newTestRecommender(s, &fakeLLM{})

	_, err := r.AdvanceRound(context.Background(), RoundRequest{ExperimentID: exp.ID, Model: "test-model"})
	var insufficient *InsufficientLibraryError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, MinColdStartLibrary-1, insufficient.Have)

	sessions, err := s.ListSessionsByExperiment(context.Background(), exp.ID)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func runColdStart(t *testing.T, r *Recommender, expID string) *domain.Session {
	t.Helper()
	session, err := r.AdvanceRound(context.Background(), RoundRequest{ExperimentID: expID, Model: "test-model"})
	require.NoError(t, err)
	require.Equal(t, 1, session.RoundIndex)
	return session
}

func TestWarmRoundSettlesSkipsAndSelects(t *testing.T) {
	s := newPipelineStore(t)
	exp := seedExperiment(t, s, MinColdStartLibrary)
	ctx := context.Background()

	svc := &fakeLLM{
		strategy:  func() (string, error) { return validStrategyJSON, nil },
		selection: func() (string, error) { return selectionJSON("art-03", "art-07", "art-11"), nil },
	}
	r := newTestRecommender(s, svc)
	first := runColdStart(t, r, exp.ID)

	// The user opened two articles; everything else was scrolled past.
	for _, id := range []string{"art-00", "art-05"} {
		article, err := s.GetArticle(ctx, id)
		require.NoError(t, err)
		require.NoError(t, s.AppendInteraction(ctx, &domain.Interaction{
			ID:           "int-" + id,
			UserID:       exp.UserID,
			ArticleID:    id,
			ExperimentID: exp.ID,
			SessionID:    first.SessionID,
			Clicked:      true,
			DwellTime:    30,
			ScrollDepth:  0.9,
			Timestamp:    time.Now(),
			ArticleContext: domain.ArticleContext{
				Title: article.Title,
				Tags:  article.Tags,
			},
		}))
	}

	session, err := r.AdvanceRound(ctx, RoundRequest{ExperimentID: exp.ID, Model: "test-model"})
	require.NoError(t, err)
	assert.Equal(t, 2, session.RoundIndex)
	assert.Equal(t, []string{"art-03", "art-07", "art-11"}, session.ArticleIDs())
	require.NotNil(t, session.Strategy)
	assert.Equal(t, 0.6, session.Strategy.Recommendation.PersonalizationRatio)
	assert.Equal(t, "high", session.Strategy.UserProfile.EngagementLevel)

	// Every shown-but-unopened article got exactly one skip row.
	interactions, err := s.ListInteractionsByExperiment(ctx, exp.ID)
	require.NoError(t, err)
	skips := 0
	for _, i := range interactions {
		if !i.Clicked {
			assert.Equal(t, first.SessionID, i.SessionID)
			assert.Zero(t, i.DwellTime)
			skips++
		}
	}
	assert.Equal(t, MinColdStartLibrary-2, skips)
}

func TestWarmRoundSettlesOnlyPreviousSession(t *testing.T) {
	s := newPipelineStore(t)
	exp := seedExperiment(t, s, MinColdStartLibrary)
	ctx := context.Background()

	svc := &fakeLLM{
		strategy:  func() (string, error) { return validStrategyJSON, nil },
		selection: func() (string, error) { return selectionJSON("art-01", "art-02"), nil },
	}
	r := newTestRecommender(s, svc)
	runColdStart(t, r, exp.ID)

	second, err := r.AdvanceRound(ctx, RoundRequest{ExperimentID: exp.ID, Model: "test-model"})
	require.NoError(t, err)

	before, err := s.ListInteractionsByExperiment(ctx, exp.ID)
	require.NoError(t, err)

	// Round 3 settles only session 2's articles, not session 1's again.
	third, err := r.AdvanceRound(ctx, RoundRequest{ExperimentID: exp.ID, Model: "test-model"})
	require.NoError(t, err)
	assert.Equal(t, 3, third.RoundIndex)

	after, err := s.ListInteractionsByExperiment(ctx, exp.ID)
	require.NoError(t, err)
	assert.Equal(t, len(before)+len(second.Articles), len(after))
}

func TestWarmRoundDeduplicatesSelection(t *testing.T) {
	s := newPipelineStore(t)
	exp := seedExperiment(t, s, MinColdStartLibrary)
	ctx := context.Background()

	svc := &fakeLLM{
		strategy:  func() (string, error) { return validStrategyJSON, nil },
		selection: func() (string, error) { return selectionJSON("art-03", "art-03", "art-07", "art-03"), nil },
	}
	r := newTestRecommender(s, svc)
	runColdStart(t, r, exp.ID)

	// A model can repeat an id; the feed keeps the first occurrence only.
	second, err := r.AdvanceRound(ctx, RoundRequest{ExperimentID: exp.ID, Model: "test-model"})
	require.NoError(t, err)
	assert.Equal(t, []string{"art-03", "art-07"}, second.ArticleIDs())

	// Settling the round synthesizes exactly one skip row per article.
	svc.selection = func() (string, error) { return selectionJSON("art-01"), nil }
	_, err = r.AdvanceRound(ctx, RoundRequest{ExperimentID: exp.ID, Model: "test-model"})
	require.NoError(t, err)

	interactions, err := s.ListInteractionsByExperiment(ctx, exp.ID)
	require.NoError(t, err)
	rows := make(map[string]int)
	for _, i := range interactions {
		if i.SessionID == second.SessionID {
			rows[i.ArticleID]++
		}
	}
	assert.Equal(t, map[string]int{"art-03": 1, "art-07": 1}, rows)
}

func TestSettleWritesOneRowPerShownArticle(t *testing.T) {
	s := newPipelineStore(t)
	exp := seedExperiment(t, s, MinColdStartLibrary)
	ctx := context.Background()
	r := newTestRecommender(s, &fakeLLM{})

	article, err := s.GetArticle(ctx, "art-00")
	require.NoError(t, err)

	// A feed that repeats an article still settles to a single skip row.
	prev := &domain.Session{
		SessionID:    "sess-dup",
		ExperimentID: exp.ID,
		Articles:     []domain.Article{*article, *article, *article},
	}
	require.NoError(t, r.settleImplicitFeedback(ctx, exp, prev, NewTrace(exp.ID)))

	interactions, err := s.ListInteractionsByExperiment(ctx, exp.ID)
	require.NoError(t, err)
	require.Len(t, interactions, 1)
	assert.Equal(t, "art-00", interactions[0].ArticleID)
	assert.False(t, interactions[0].Clicked)
}

func TestWarmRoundAbortsOnEmptyCandidatePool(t *testing.T) {
	s := newPipelineStore(t)
	exp := seedExperiment(t, s, MinColdStartLibrary)
	ctx := context.Background()

	svc := &fakeLLM{
		strategy:  func() (string, error) { return validStrategyJSON, nil },
		selection: func() (string, error) { return selectionJSON("art-01"), nil },
	}
	r := newTestRecommender(s, svc)
	runColdStart(t, r, exp.ID)

	// Switch to community mode with an empty community pool: recall has
	// nothing to offer and the round must fail rather than persist an
	// empty feed.
	exp.Mode = domain.ModeCommunity
	require.NoError(t, s.SaveExperiment(ctx, exp))

	_, err := r.AdvanceRound(ctx, RoundRequest{ExperimentID: exp.ID, Model: "test-model"})
	require.ErrorIs(t, err, ErrEmptyCandidatePool)

	sessions, err := s.ListSessionsByExperiment(ctx, exp.ID)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestWarmRoundFallsBackToRecallOrder(t *testing.T) {
	s := newPipelineStore(t)
	exp := seedExperiment(t, s, MinColdStartLibrary)
	ctx := context.Background()

	svc := &fakeLLM{
		strategy: func() (string, error) { return validStrategyJSON, nil },
		// Ids outside the candidate set are dropped, leaving nothing.
		selection: func() (string, error) { return selectionJSON("nope-1", "nope-2"), nil },
	}
	r := newTestRecommender(s, svc)
	runColdStart(t, r, exp.ID)

	session, err := r.AdvanceRound(ctx, RoundRequest{ExperimentID: exp.ID, Model: "test-model"})
	require.NoError(t, err)
	require.Len(t, session.Articles, FallbackCount)

	// Fallback articles come from the recall pool in order.
	library, err := s.ListArticles(ctx, store.ArticleFilter{
		LibraryType:  domain.LibraryPersonal,
		OwnerID:      exp.UserID,
		ExperimentID: exp.ID,
	})
	require.NoError(t, err)
	for i, a := range session.Articles {
		assert.Equal(t, library[i].ID, a.ID)
	}
}

func TestFailedRoundDoesNotConsumeIndex(t *testing.T) {
	s := newPipelineStore(t)
	exp := seedExperiment(t, s, MinColdStartLibrary)
	ctx := context.Background()

	fail := errors.New("model unavailable")
	svc := &fakeLLM{
		strategy:  func() (string, error) { return "", fail },
		selection: func() (string, error) { return selectionJSON("art-01"), nil },
	}
	r := newTestRecommender(s, svc)
	runColdStart(t, r, exp.ID)

	_, err := r.AdvanceRound(ctx, RoundRequest{ExperimentID: exp.ID, Model: "test-model"})
	var modelErr *llm.ModelError
	require.ErrorAs(t, err, &modelErr)
	assert.Equal(t, llm.KindRequest, modelErr.Kind)

	sessions, err := s.ListSessionsByExperiment(ctx, exp.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	// The retry gets the same round index.
	svc.strategy = func() (string, error) { return validStrategyJSON, nil }
	session, err := r.AdvanceRound(ctx, RoundRequest{ExperimentID: exp.ID, Model: "test-model"})
	require.NoError(t, err)
	assert.Equal(t, 2, session.RoundIndex)
}

func TestConcurrentRoundRejected(t *testing.T) {
	s := newPipelineStore(t)
	exp := seedExperiment(t, s, MinColdStartLibrary)
	ctx := context.Background()

	block := make(chan struct{})
	svc := &fakeLLM{
		strategy: func() (string, error) {
			<-block
			return validStrategyJSON, nil
		},
		selection: func() (string, error) { return selectionJSON("art-01"), nil },
	}
	r := newTestRecommender(s, svc)
	runColdStart(t, r, exp.ID)

	done := make(chan error, 1)
	go func() {
		_, err := r.AdvanceRound(ctx, RoundRequest{ExperimentID: exp.ID, Model: "test-model"})
		done <- err
	}()

	// Wait for the first round to hold the in-flight flag.
	require.Eventually(t, func() bool { return r.InFlight(exp.ID) }, time.Second, 5*time.Millisecond)

	_, err := r.AdvanceRound(ctx, RoundRequest{ExperimentID: exp.ID, Model: "test-model"})
	assert.ErrorIs(t, err, ErrRoundInFlight)

	close(block)
	require.NoError(t, <-done)
	assert.False(t, r.InFlight(exp.ID))
}

func TestNextRoundIndex(t *testing.T) {
	assert.Equal(t, 1, nextRoundIndex(nil))
	assert.Equal(t, 4, nextRoundIndex([]domain.Session{{RoundIndex: 1}, {RoundIndex: 2}, {RoundIndex: 3}}))
}
