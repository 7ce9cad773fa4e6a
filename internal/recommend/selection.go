package recommend

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/mazelab/mazelab/internal/domain"
	"github.com/mazelab/mazelab/internal/history"
	"github.com/mazelab/mazelab/internal/llm"
)

const stageSelection = "selection"

// Selection is the structured output of the content-selection stage.
type Selection struct {
	SelectedArticleIDs []string `json:"selected_article_ids"`
	Reasoning          string   `json:"reasoning,omitempty"`
}

// SelectContent runs the selection stage: one model call ranking the
// candidate set against the evolutionary history.
//
// The candidate-set constraint is prompt-level only; the orchestrator
// validates the returned ids against the candidates before hydrating.
func SelectContent(ctx context.Context, svc llm.Service, hist []history.SessionTrace, candidates []domain.CandidateItem, model, task string, trace *Trace) (*Selection, error) {
	trace.Logf("[Selection] Initializing ranking model...")

	prompt, err := BuildContentPrompt(hist, candidates, task)
	if err != nil {
		return nil, llm.NewModelError(stageSelection, llm.KindRequest, err)
	}
	trace.Set(traceContentPrompt, prompt)

	trace.Logf("[Selection] Sending candidate set (%d items)...", len(candidates))
	raw, err := svc.Generate(ctx, llm.Request{Model: model, Prompt: prompt})
	if err != nil {
		trace.Logf("[Selection] ERROR: %v", err)
		return nil, llm.NewModelError(stageSelection, llm.KindRequest, err)
	}
	if raw == "" {
		trace.Logf("[Selection] ERROR: empty response")
		return nil, llm.NewModelError(stageSelection, llm.KindEmpty, fmt.Errorf("response text is empty"))
	}
	trace.Set(traceContentResponse, raw)

	selection, err := parseSelection(raw)
	if err != nil {
		trace.Logf("[Selection] ERROR: %v", err)
		return nil, err
	}

	trace.Logf("[Selection] Model selected %d article ids", len(selection.SelectedArticleIDs))
	return selection, nil
}

func parseSelection(raw string) (*Selection, error) {
	cleaned := llm.ExtractJSON(raw)

	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &top); err != nil {
		return nil, llm.NewModelError(stageSelection, llm.KindParse, fmt.Errorf("invalid JSON: %w", err))
	}
	if _, ok := top["selected_article_ids"]; !ok {
		return nil, llm.NewModelError(stageSelection, llm.KindSchema, fmt.Errorf(`missing required field "selected_article_ids"`))
	}

	var selection Selection
	if err := json.Unmarshal([]byte(cleaned), &selection); err != nil {
		return nil, llm.NewModelError(stageSelection, llm.KindSchema, fmt.Errorf("decode selection: %w", err))
	}
	return &selection, nil
}
