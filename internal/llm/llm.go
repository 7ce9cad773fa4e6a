// Package llm abstracts the external language model collaborators.
package llm

import (
	"context"
	"fmt"
	"strings"
)

// ErrorKind classifies model failures for the round-abort taxonomy.
type ErrorKind string

const (
	// KindRequest covers network and API failures.
	KindRequest ErrorKind = "request"
	// KindEmpty means the model returned no content at all.
	KindEmpty ErrorKind = "empty"
	// KindParse means the response was not valid JSON.
	KindParse ErrorKind = "parse"
	// KindSchema means the JSON was missing required fields.
	KindSchema ErrorKind = "schema"
)

// ModelError is a first-class failure of a model call. Any ModelError is
// fatal to the round; retry policy is left to the caller.
type ModelError struct {
	Stage string
	Kind  ErrorKind
	Err   error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model error (%s, %s): %v", e.Stage, e.Kind, e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError wraps err as a ModelError for the given stage.
func NewModelError(stage string, kind ErrorKind, err error) *ModelError {
	return &ModelError{Stage: stage, Kind: kind, Err: err}
}

// Request is one structured-generation call.
type Request struct {
	// Model is the provider-specific model identifier.
	Model string
	// System is the optional system prompt.
	System string
	// Prompt is the user message. Prompts instruct the model to answer
	// with strict JSON; validation happens in the caller.
	Prompt string
}

// Service is the external model collaborator. Implementations must honor
// context cancellation so a hung call can be treated as a round failure.
type Service interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// ExtractJSON strips markdown code fences and surrounding prose from a model
// response, leaving the outermost JSON object. Models occasionally wrap JSON
// despite being told not to.
func ExtractJSON(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}
	return content
}
