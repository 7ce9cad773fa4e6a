package recommend

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/mazelab/mazelab/internal/domain"
	"github.com/mazelab/mazelab/internal/history"
)

// The preambles are fixed: they explain the log structure and the task
// framing to the model. Only the task section is caller-customizable, per
// experiment or via the global config.

const strategyPreamble = `You are an expert recommendation-system strategist.
Below is the complete interaction log of this user across their most recent recommendation sessions.

**Log structure:**
1. Sessions are listed in chronological order (Session 1 -> Session 2).
2. Within each session, interactions are ordered strictly by the position the article occupied in the feed, i.e. the order the user saw them.
   - The log therefore reflects the user's scan path from top to bottom.
   - Distinguish "CLICKED_AND_VIEWED" (opened and read) from "SKIPPED_IN_FEED" (scrolled past).
   - A run of consecutive SKIPPED entries suggests that region of the feed held no appeal.

**User interaction history (evolution across sessions):**
{{HISTORY}}`

const contentPreamble = `You are the ranking model of a recommendation system.
Your task is to pick the best-fitting articles for this user from the given candidate set, based on their interaction history.

**1. User interaction history (evolution across sessions):**
{{HISTORY}}

**2. Candidate set (metadata only):**
{{CANDIDATES}}`

// DefaultStrategyTask is the task section of the strategy prompt when
// neither the experiment nor the global config overrides it.
const DefaultStrategyTask = `**Analysis task:**
1. **Interest evolution (critical)**:
   - Track how the user's interests shift from one session to the next.
   - Did the previous strategy work? How did the user respond to the last round, especially items they engaged with heavily or commented on?
   - Identify the current drift (for example: from introductory toward expert material, or from one topic cluster toward another).

2. **Explicit feedback**:
   - A user comment is the highest-priority instruction. Likes or dislikes expressed there must shape the next strategy immediately.

3. **Next-round strategy**:
   - Decide the focus of the next session from the evolution analysis.
   - Set the personalization, exploration and serendipity ratios.

Output strict JSON with three objects: "user_profile" (interests_summary, behavior_patterns, engagement_level), "recommendation_strategy" (personalization_ratio, exploration_ratio, serendipity_ratio, personalized_approach, exploration_approach) and "detailed_reasoning" (why_personalized, why_exploration, what_to_avoid).`

// DefaultContentTask is the task section of the selection prompt when
// neither the experiment nor the global config overrides it.
const DefaultContentTask = `**Selection task:**
1. **Match**: compare each candidate against the user's latest interest profile.
2. **Apply the strategy**: respect the personalization/exploration balance. If the user explicitly rejected a kind of content, drop it from the candidates.
3. **Output**:
   - Pick the **5** best articles.
   - Return a JSON object with a "selected_article_ids" array containing only article id strings, chosen exclusively from the candidate set above, plus an optional "reasoning" string.

Output strict JSON.`

// BuildStrategyPrompt assembles the full strategy-stage prompt.
func BuildStrategyPrompt(hist []history.SessionTrace, task string) (string, error) {
	payload, err := marshalIndented(hist)
	if err != nil {
		return "", fmt.Errorf("serialize history: %w", err)
	}
	prompt := strings.Replace(strategyPreamble, "{{HISTORY}}", payload, 1)
	return prompt + "\n" + task, nil
}

// BuildContentPrompt assembles the full selection-stage prompt.
func BuildContentPrompt(hist []history.SessionTrace, candidates []domain.CandidateItem, task string) (string, error) {
	histPayload, err := marshalIndented(hist)
	if err != nil {
		return "", fmt.Errorf("serialize history: %w", err)
	}
	candPayload, err := marshalIndented(candidates)
	if err != nil {
		return "", fmt.Errorf("serialize candidates: %w", err)
	}
	prompt := strings.Replace(contentPreamble, "{{HISTORY}}", histPayload, 1)
	prompt = strings.Replace(prompt, "{{CANDIDATES}}", candPayload, 1)
	return prompt + "\n" + task, nil
}

func marshalIndented(v any) (string, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
