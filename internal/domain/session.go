package domain

import (
	"time"
)

// UserProfile is the model's summary of who the user is.
type UserProfile struct {
	InterestsSummary string `json:"interests_summary"`
	BehaviorPatterns string `json:"behavior_patterns"`
	EngagementLevel  string `json:"engagement_level"`
}

// StrategyMix is the ratio-based recommendation strategy for the next round.
type StrategyMix struct {
	PersonalizationRatio float64 `json:"personalization_ratio"`
	ExplorationRatio     float64 `json:"exploration_ratio"`
	SerendipityRatio     float64 `json:"serendipity_ratio"`
	PersonalizedApproach string  `json:"personalized_approach"`
	ExplorationApproach  string  `json:"exploration_approach"`
}

// StrategyReasoning is the model's free-text justification.
type StrategyReasoning struct {
	WhyPersonalized string `json:"why_personalized"`
	WhyExploration  string `json:"why_exploration"`
	WhatToAvoid     string `json:"what_to_avoid"`
}

// Strategy is the structured output of the strategy stage. The JSON field
// names are a de facto interface shared with existing trace tooling and must
// not change.
type Strategy struct {
	UserProfile       UserProfile       `json:"user_profile"`
	Recommendation    StrategyMix       `json:"recommendation_strategy"`
	DetailedReasoning StrategyReasoning `json:"detailed_reasoning"`
}

// ColdStartStrategy is the fixed strategy persisted with round 1, which
// never invokes the model: zero personalization, full exploration.
func ColdStartStrategy() *Strategy {
	return &Strategy{
		UserProfile: UserProfile{
			InterestsSummary: "Unknown. No interaction history yet.",
			BehaviorPatterns: "Cold start. The full personal library is shown unranked.",
			EngagementLevel:  "unknown",
		},
		Recommendation: StrategyMix{
			PersonalizationRatio: 0,
			ExplorationRatio:     1,
			SerendipityRatio:     0,
			PersonalizedApproach: "None. No signals to personalize on.",
			ExplorationApproach:  "Expose the entire seed library to collect first impressions.",
		},
		DetailedReasoning: StrategyReasoning{
			WhyPersonalized: "No history exists for this experiment.",
			WhyExploration:  "Every article must be shown once to bootstrap preference signals.",
			WhatToAvoid:     "Nothing is excluded during cold start.",
		},
	}
}

// DebugTrace captures everything needed to replay one round: ordered log
// lines, the raw history payload, both prompts and both raw model responses.
type DebugTrace struct {
	Logs             []string       `json:"logs,omitempty"`
	RawHistory       any            `json:"rawInteractions,omitempty"`
	StrategyPrompt   string         `json:"strategyPrompt,omitempty"`
	StrategyResponse string         `json:"strategyResponse,omitempty"`
	ContentPrompt    string         `json:"contentPrompt,omitempty"`
	ContentResponse  string         `json:"contentResponse,omitempty"`
	Fields           map[string]any `json:"fields,omitempty"`
}

// Session is one round's persisted output (a generated content batch).
// Sessions are immutable once appended; roundIndex starts at 1 and increases
// per experiment with no gaps.
type Session struct {
	SessionID    string      `json:"sessionId"`
	ExperimentID string      `json:"experimentId"`
	Strategy     *Strategy   `json:"strategy"`
	Articles     []Article   `json:"articles"`
	Timestamp    time.Time   `json:"timestamp"`
	RoundIndex   int         `json:"roundIndex"`
	Debug        *DebugTrace `json:"debug,omitempty"`
}

// ArticleIDs returns the session's article ids in display order.
func (s *Session) ArticleIDs() []string {
	ids := make([]string, len(s.Articles))
	for i, a := range s.Articles {
		ids[i] = a.ID
	}
	return ids
}
