package recommend

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/mazelab/mazelab/internal/domain"
	"github.com/mazelab/mazelab/internal/history"
	"github.com/mazelab/mazelab/internal/llm"
)

const stageStrategy = "strategy"

// GenerateStrategy runs the strategy stage: one model call turning the
// evolutionary history into a user profile and a ratio-based strategy.
//
// The constructed prompt is recorded on the trace before the call, so it is
// observable even when the call fails. Parse or schema failures surface as a
// ModelError; there is no silent default.
func GenerateStrategy(ctx context.Context, svc llm.Service, hist []history.SessionTrace, model, task string, trace *Trace) (*domain.Strategy, error) {
	trace.Logf("[Strategy] Initializing strategy analysis...")

	prompt, err := BuildStrategyPrompt(hist, task)
	if err != nil {
		return nil, llm.NewModelError(stageStrategy, llm.KindRequest, err)
	}
	trace.Set(traceStrategyPrompt, prompt)

	trace.Logf("[Strategy] Sending request to model %s...", model)
	raw, err := svc.Generate(ctx, llm.Request{Model: model, Prompt: prompt})
	if err != nil {
		trace.Logf("[Strategy] ERROR: %v", err)
		return nil, llm.NewModelError(stageStrategy, llm.KindRequest, err)
	}
	if raw == "" {
		trace.Logf("[Strategy] ERROR: empty response")
		return nil, llm.NewModelError(stageStrategy, llm.KindEmpty, fmt.Errorf("response text is empty"))
	}
	trace.Set(traceStrategyResponse, raw)

	strategy, err := parseStrategy(raw)
	if err != nil {
		trace.Logf("[Strategy] ERROR: %v", err)
		return nil, err
	}

	trace.Logf("[Strategy] Response parsed: personalization=%.2f exploration=%.2f serendipity=%.2f",
		strategy.Recommendation.PersonalizationRatio,
		strategy.Recommendation.ExplorationRatio,
		strategy.Recommendation.SerendipityRatio)
	return strategy, nil
}

func parseStrategy(raw string) (*domain.Strategy, error) {
	cleaned := llm.ExtractJSON(raw)

	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &top); err != nil {
		return nil, llm.NewModelError(stageStrategy, llm.KindParse, fmt.Errorf("invalid JSON: %w", err))
	}
	for _, key := range []string{"user_profile", "recommendation_strategy", "detailed_reasoning"} {
		if _, ok := top[key]; !ok {
			return nil, llm.NewModelError(stageStrategy, llm.KindSchema, fmt.Errorf("missing required field %q", key))
		}
	}

	var mix map[string]json.RawMessage
	if err := json.Unmarshal(top["recommendation_strategy"], &mix); err != nil {
		return nil, llm.NewModelError(stageStrategy, llm.KindSchema, fmt.Errorf("recommendation_strategy is not an object: %w", err))
	}
	for _, key := range []string{"personalization_ratio", "exploration_ratio", "serendipity_ratio"} {
		if _, ok := mix[key]; !ok {
			return nil, llm.NewModelError(stageStrategy, llm.KindSchema, fmt.Errorf("missing required field recommendation_strategy.%q", key))
		}
	}

	var strategy domain.Strategy
	if err := json.Unmarshal([]byte(cleaned), &strategy); err != nil {
		return nil, llm.NewModelError(stageStrategy, llm.KindSchema, fmt.Errorf("decode strategy: %w", err))
	}
	return &strategy, nil
}
