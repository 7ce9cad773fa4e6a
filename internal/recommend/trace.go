// Package recommend implements the round-based recommendation pipeline.
package recommend

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/mazelab/mazelab/internal/domain"
)

// Debug trace keys shared with existing trace tooling.
const (
	traceStrategyPrompt   = "strategyPrompt"
	traceStrategyResponse = "strategyResponse"
	traceContentPrompt    = "contentPrompt"
	traceContentResponse  = "contentResponse"
	traceRawHistory       = "rawInteractions"
)

// Trace is an append-only, ordered log plus keyed debug fields for one
// round. It is safe for concurrent use by the pipeline stages and mirrors
// every log line to slog.
type Trace struct {
	experimentID string

	mu     sync.Mutex
	logs   []string
	fields map[string]any
}

// NewTrace creates an empty trace for one round of an experiment.
func NewTrace(experimentID string) *Trace {
	return &Trace{
		experimentID: experimentID,
		fields:       make(map[string]any),
	}
}

// Logf appends a formatted line to the ordered log.
func (t *Trace) Logf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)

	t.mu.Lock()
	t.logs = append(t.logs, line)
	t.mu.Unlock()

	slog.Info(line, "experiment_id", t.experimentID)
}

// Set records a keyed debug field, overwriting any previous value.
func (t *Trace) Set(key string, value any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fields[key] = value
}

// Snapshot freezes the trace into the persisted debug form. Well-known keys
// map onto their dedicated fields; anything else lands in Fields.
func (t *Trace) Snapshot() *domain.DebugTrace {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := &domain.DebugTrace{
		Logs: append([]string(nil), t.logs...),
	}
	extra := make(map[string]any)
	for k, v := range t.fields {
		switch k {
		case traceStrategyPrompt:
			out.StrategyPrompt, _ = v.(string)
		case traceStrategyResponse:
			out.StrategyResponse, _ = v.(string)
		case traceContentPrompt:
			out.ContentPrompt, _ = v.(string)
		case traceContentResponse:
			out.ContentResponse, _ = v.(string)
		case traceRawHistory:
			out.RawHistory = v
		default:
			extra[k] = v
		}
	}
	if len(extra) > 0 {
		out.Fields = extra
	}
	return out
}
