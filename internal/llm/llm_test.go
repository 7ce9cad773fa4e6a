package llm

import (
	"errors"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain object",
			input: `{"a": 1}`,
			want:  `{"a": 1}`,
		},
		{
			name:  "json fence",
			input: "```json\n{\"a\": 1}\n```",
			want:  `{"a": 1}`,
		},
		{
			name:  "bare fence",
			input: "```\n{\"a\": 1}\n```",
			want:  `{"a": 1}`,
		},
		{
			name:  "surrounding prose",
			input: "Here is the result:\n{\"a\": 1}\nHope that helps!",
			want:  `{"a": 1}`,
		},
		{
			name:  "nested braces",
			input: `prefix {"a": {"b": 2}} suffix`,
			want:  `{"a": {"b": 2}}`,
		},
		{
			name:  "no object",
			input: "no json here",
			want:  "no json here",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSON(tt.input); got != tt.want {
				t.Errorf("ExtractJSON(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestModelErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewModelError("strategy", KindRequest, cause)

	if !errors.Is(err, cause) {
		t.Error("Expected ModelError to unwrap to its cause")
	}

	var modelErr *ModelError
	if !errors.As(error(err), &modelErr) {
		t.Fatal("Expected errors.As to match *ModelError")
	}
	if modelErr.Stage != "strategy" || modelErr.Kind != KindRequest {
		t.Errorf("Unexpected fields: stage=%s kind=%s", modelErr.Stage, modelErr.Kind)
	}
}
