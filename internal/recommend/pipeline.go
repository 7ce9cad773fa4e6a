package recommend

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mazelab/mazelab/internal/acquire"
	"github.com/mazelab/mazelab/internal/domain"
	"github.com/mazelab/mazelab/internal/history"
	"github.com/mazelab/mazelab/internal/llm"
	"github.com/mazelab/mazelab/internal/store"
)

const (
	// MinColdStartLibrary is the hard precondition on round 1: the
	// personal library must hold at least this many articles.
	MinColdStartLibrary = 20

	// FallbackCount is how many recall candidates fill the feed when the
	// selection stage returns no valid ids.
	FallbackCount = 5

	// candidateLowWater triggers search augmentation when recall returns
	// fewer candidates than this.
	candidateLowWater = 10

	searchKeywordLimit  = 5
	searchPerKeyword    = 3
	defaultStageTimeout = 2 * time.Minute
)

// ErrRoundInFlight is returned when a round for the experiment is already
// running.
var ErrRoundInFlight = errors.New("a round is already in flight for this experiment")

// ErrEmptyCandidatePool is returned when recall (plus augmentation) yields no
// candidates at all, so no feed could be built even by fallback.
var ErrEmptyCandidatePool = errors.New("candidate pool is empty")

// InsufficientLibraryError is the cold-start precondition failure: the
// personal library is too small to seed round 1.
type InsufficientLibraryError struct {
	Have int
	Need int
}

func (e *InsufficientLibraryError) Error() string {
	return fmt.Sprintf("cold start requires at least %d personal-library articles, have %d", e.Need, e.Have)
}

// Recommender orchestrates rounds: one state machine per experiment moving
// from cold start through repeatable warm rounds. Rounds for the same
// experiment are serialized; different experiments proceed independently.
type Recommender struct {
	store    store.Store
	llm      llm.Service
	searcher acquire.Searcher // optional

	stageTimeout time.Duration
	now          func() time.Time
	shuffle      func(n int, swap func(i, j int))

	mu       sync.Mutex
	inFlight map[string]bool
}

// Option customizes a Recommender.
type Option func(*Recommender)

// WithSearcher wires the optional content-acquisition collaborator used for
// search augmentation.
func WithSearcher(s acquire.Searcher) Option {
	return func(r *Recommender) { r.searcher = s }
}

// WithStageTimeout bounds each model call; a hang counts as a round failure.
func WithStageTimeout(d time.Duration) Option {
	return func(r *Recommender) {
		if d > 0 {
			r.stageTimeout = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Recommender) { r.now = now }
}

// WithShuffle overrides the recall shuffle.
func WithShuffle(shuffle func(n int, swap func(i, j int))) Option {
	return func(r *Recommender) { r.shuffle = shuffle }
}

// New creates a Recommender on top of the store and the model service.
func New(st store.Store, svc llm.Service, opts ...Option) *Recommender {
	r := &Recommender{
		store:        st,
		llm:          svc,
		stageTimeout: defaultStageTimeout,
		now:          time.Now,
		shuffle:      rand.Shuffle,
		inFlight:     make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RoundRequest asks for the next round of an experiment.
type RoundRequest struct {
	ExperimentID string
	// Model is the provider-specific model id used for both stages.
	Model string
}

// AdvanceRound runs one full round for the experiment and returns the newly
// persisted session. The round either fully succeeds or fully fails: on any
// error no session is appended and the round index is not consumed, so the
// next attempt retries with the same index.
func (r *Recommender) AdvanceRound(ctx context.Context, req RoundRequest) (*domain.Session, error) {
	if !r.acquire(req.ExperimentID) {
		return nil, ErrRoundInFlight
	}
	defer r.release(req.ExperimentID)

	exp, err := r.store.GetExperiment(ctx, req.ExperimentID)
	if err != nil {
		return nil, fmt.Errorf("load experiment: %w", err)
	}

	sessions, err := r.store.ListSessionsByExperiment(ctx, exp.ID)
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	roundIndex := nextRoundIndex(sessions)

	trace := NewTrace(exp.ID)
	trace.Logf("[Round %d] Starting recommendation round (mode=%s, model=%s)", roundIndex, exp.Mode, req.Model)

	if roundIndex == 1 {
		return r.coldStart(ctx, exp, trace)
	}
	return r.warmRound(ctx, exp, sessions, roundIndex, req.Model, trace)
}

// InFlight reports whether a round is currently running for the experiment.
func (r *Recommender) InFlight(experimentID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inFlight[experimentID]
}

func (r *Recommender) acquire(experimentID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inFlight[experimentID] {
		return false
	}
	r.inFlight[experimentID] = true
	return true
}

func (r *Recommender) release(experimentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inFlight, experimentID)
}

// nextRoundIndex derives the round counter strictly from stored sessions, so
// a failed append simply recomputes the same index on retry.
func nextRoundIndex(sessions []domain.Session) int {
	if len(sessions) == 0 {
		return 1
	}
	return sessions[len(sessions)-1].RoundIndex + 1
}

// coldStart seeds round 1 with the entire personal library. The model is
// never invoked; a fixed full-exploration strategy is persisted instead.
func (r *Recommender) coldStart(ctx context.Context, exp *domain.Experiment, trace *Trace) (*domain.Session, error) {
	library, err := r.store.ListArticles(ctx, store.ArticleFilter{
		LibraryType:  domain.LibraryPersonal,
		OwnerID:      exp.UserID,
		ExperimentID: exp.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("load personal library: %w", err)
	}

	if len(library) < MinColdStartLibrary {
		err := &InsufficientLibraryError{Have: len(library), Need: MinColdStartLibrary}
		trace.Logf("[ColdStart] ABORT: %v", err)
		return nil, err
	}

	trace.Logf("[ColdStart] Showing full personal library (%d articles)", len(library))

	session := &domain.Session{
		SessionID:    "sess-" + uuid.NewString(),
		ExperimentID: exp.ID,
		Strategy:     domain.ColdStartStrategy(),
		Articles:     library,
		Timestamp:    r.now(),
		RoundIndex:   1,
		Debug:        trace.Snapshot(),
	}
	if err := r.store.AppendSession(ctx, session); err != nil {
		return nil, fmt.Errorf("persist cold start session: %w", err)
	}
	return session, nil
}

func (r *Recommender) warmRound(ctx context.Context, exp *domain.Experiment, sessions []domain.Session, roundIndex int, model string, trace *Trace) (*domain.Session, error) {
	prev := sessions[len(sessions)-1]

	if err := r.settleImplicitFeedback(ctx, exp, &prev, trace); err != nil {
		return nil, err
	}

	// Reload so the settled skips are part of the history.
	interactions, err := r.store.ListInteractionsByExperiment(ctx, exp.ID)
	if err != nil {
		return nil, fmt.Errorf("load interactions: %w", err)
	}

	articles, err := r.store.ListArticles(ctx, store.ArticleFilter{})
	if err != nil {
		return nil, fmt.Errorf("load articles: %w", err)
	}

	hist := history.Build(interactions, sessions, articles)
	trace.Set(traceRawHistory, hist)
	trace.Logf("[History] Built evolutionary history: %d sessions", len(hist))

	library := exp.CandidateLibrary()
	candidates, err := Recall(ctx, r.store, exp.UserID, DefaultCandidateLimit, library, exp.ID, r.shuffle)
	if err != nil {
		return nil, fmt.Errorf("recall candidates: %w", err)
	}
	trace.Logf("[Recall] Retrieved %d candidates from %s library", len(candidates), library)

	candidates = r.augmentCandidates(ctx, exp, interactions, candidates, trace)
	if len(candidates) == 0 {
		trace.Logf("[Recall] ABORT: no candidates in %s library", library)
		return nil, ErrEmptyCandidatePool
	}

	strategyTask, contentTask, err := r.taskPrompts(ctx, exp)
	if err != nil {
		return nil, err
	}

	strategy, selection, err := r.runStages(ctx, hist, candidates, model, strategyTask, contentTask, trace)
	if err != nil {
		return nil, err
	}

	shown, err := r.hydrateSelection(ctx, selection, candidates, trace)
	if err != nil {
		return nil, err
	}

	session := &domain.Session{
		SessionID:    "sess-" + uuid.NewString(),
		ExperimentID: exp.ID,
		Strategy:     strategy,
		Articles:     shown,
		Timestamp:    r.now(),
		RoundIndex:   roundIndex,
		Debug:        trace.Snapshot(),
	}
	if err := r.store.AppendSession(ctx, session); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	trace.Logf("[Round %d] Complete: %d articles", roundIndex, len(shown))
	return session, nil
}

// settleImplicitFeedback synthesizes skip rows for every article of the
// previous session that got no explicit interaction from this user. It runs
// once per round transition and never re-settles older sessions.
func (r *Recommender) settleImplicitFeedback(ctx context.Context, exp *domain.Experiment, prev *domain.Session, trace *Trace) error {
	interactions, err := r.store.ListInteractionsByExperiment(ctx, exp.ID)
	if err != nil {
		return fmt.Errorf("load interactions for settlement: %w", err)
	}

	seen := make(map[string]bool)
	for _, i := range interactions {
		if i.SessionID == prev.SessionID && i.UserID == exp.UserID {
			seen[i.ArticleID] = true
		}
	}

	settled := 0
	for _, article := range prev.Articles {
		if seen[article.ID] {
			continue
		}
		skip := domain.NewSkipInteraction(exp.UserID, exp.ID, prev.SessionID, article, r.now())
		if err := r.store.AppendInteraction(ctx, &skip); err != nil {
			return fmt.Errorf("persist skip interaction: %w", err)
		}
		// One row per shown article, even if the stored feed somehow
		// repeats an id.
		seen[article.ID] = true
		settled++
	}

	trace.Logf("[Settle] Recorded %d skip interactions for session %s", settled, prev.SessionID)
	return nil
}

// augmentCandidates asks the acquisition collaborator for more articles when
// the pool is thin. Best-effort only: failures are logged and the round
// proceeds with the existing candidates.
func (r *Recommender) augmentCandidates(ctx context.Context, exp *domain.Experiment, interactions []domain.Interaction, candidates []domain.CandidateItem, trace *Trace) []domain.CandidateItem {
	if r.searcher == nil || len(candidates) >= candidateLowWater {
		return candidates
	}

	keywords := interestKeywords(interactions, searchKeywordLimit)
	if len(keywords) == 0 {
		return candidates
	}

	trace.Logf("[Search] Candidate pool thin (%d), searching %d keywords", len(candidates), len(keywords))
	found, err := r.searcher.Search(ctx, keywords, searchPerKeyword)
	if err != nil {
		trace.Logf("[Search] WARNING: acquisition failed, continuing without: %v", err)
		return candidates
	}

	library := exp.CandidateLibrary()
	added := 0
	for i := range found {
		a := found[i]
		a.LibraryType = library
		if library == domain.LibraryPersonal {
			a.OwnerID = exp.UserID
			a.ExperimentID = exp.ID
		}
		if err := r.store.SaveArticle(ctx, &a); err != nil {
			trace.Logf("[Search] WARNING: could not store %q: %v", a.Title, err)
			continue
		}
		candidates = append(candidates, a.Candidate())
		added++
	}
	trace.Logf("[Search] Added %d acquired articles to the candidate pool", added)
	return candidates
}

// interestKeywords extracts the most frequent tags of the user's recent
// interactions as search keywords.
func interestKeywords(interactions []domain.Interaction, limit int) []string {
	counts := make(map[string]int)
	order := make([]string, 0)
	recent := interactions
	if len(recent) > 20 {
		recent = recent[len(recent)-20:]
	}
	for _, i := range recent {
		for _, tag := range i.ArticleContext.Tags {
			if counts[tag] == 0 {
				order = append(order, tag)
			}
			counts[tag]++
		}
	}

	// Stable frequency sort: higher counts first, first-seen wins ties.
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && counts[order[j]] > counts[order[j-1]]; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}

	if len(order) > limit {
		order = order[:limit]
	}
	return order
}

// taskPrompts resolves the task sections: experiment override, then global
// config, then package defaults.
func (r *Recommender) taskPrompts(ctx context.Context, exp *domain.Experiment) (string, string, error) {
	strategyTask, contentTask := exp.StrategyPrompt, exp.ContentPrompt
	if strategyTask != "" && contentTask != "" {
		return strategyTask, contentTask, nil
	}

	globalStrategy, globalContent, err := r.store.GetPrompts(ctx)
	if err != nil {
		return "", "", fmt.Errorf("load global prompts: %w", err)
	}
	if strategyTask == "" {
		strategyTask = globalStrategy
	}
	if contentTask == "" {
		contentTask = globalContent
	}
	if strategyTask == "" {
		strategyTask = DefaultStrategyTask
	}
	if contentTask == "" {
		contentTask = DefaultContentTask
	}
	return strategyTask, contentTask, nil
}

// runStages executes the strategy and selection stages concurrently. The
// stages share only the read-only history; each writes nothing until both
// return. The first stage error aborts the round.
func (r *Recommender) runStages(ctx context.Context, hist []history.SessionTrace, candidates []domain.CandidateItem, model, strategyTask, contentTask string, trace *Trace) (*domain.Strategy, *Selection, error) {
	stageCtx, cancel := context.WithTimeout(ctx, r.stageTimeout)
	defer cancel()

	var (
		wg        sync.WaitGroup
		strategy  *domain.Strategy
		selection *Selection
		stratErr  error
		selErr    error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		strategy, stratErr = GenerateStrategy(stageCtx, r.llm, hist, model, strategyTask, trace)
	}()
	go func() {
		defer wg.Done()
		selection, selErr = SelectContent(stageCtx, r.llm, hist, candidates, model, contentTask, trace)
	}()
	wg.Wait()

	if stratErr != nil {
		return nil, nil, stratErr
	}
	if selErr != nil {
		return nil, nil, selErr
	}
	return strategy, selection, nil
}

// hydrateSelection turns selected ids into full article records, keeping
// only the first occurrence of ids that were actually in the candidate set.
// An empty result falls back to the first FallbackCount candidates in recall
// order: a round never silently produces an empty feed.
func (r *Recommender) hydrateSelection(ctx context.Context, selection *Selection, candidates []domain.CandidateItem, trace *Trace) ([]domain.Article, error) {
	candidateIDs := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		candidateIDs[c.ID] = true
	}

	valid := make([]string, 0, len(selection.SelectedArticleIDs))
	taken := make(map[string]bool, len(selection.SelectedArticleIDs))
	for _, id := range selection.SelectedArticleIDs {
		switch {
		case !candidateIDs[id]:
			trace.Logf("[Hydrate] Dropping id %s: not in candidate set", id)
		case taken[id]:
			trace.Logf("[Hydrate] Dropping id %s: duplicate selection", id)
		default:
			taken[id] = true
			valid = append(valid, id)
		}
	}

	articles, err := r.store.ArticlesByIDs(ctx, valid)
	if err != nil {
		return nil, fmt.Errorf("hydrate selection: %w", err)
	}

	if len(articles) == 0 {
		trace.Logf("[Fallback] Selection empty or invalid, using first %d candidates in recall order", FallbackCount)
		fallback := candidates
		if len(fallback) > FallbackCount {
			fallback = fallback[:FallbackCount]
		}
		ids := make([]string, len(fallback))
		for i, c := range fallback {
			ids[i] = c.ID
		}
		articles, err = r.store.ArticlesByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("hydrate fallback: %w", err)
		}
	}

	return articles, nil
}
