package domain

import (
	"time"
)

// ExperimentMode determines which library warm rounds draw candidates from.
type ExperimentMode string

const (
	// ModeSolo draws from the user's personal library.
	ModeSolo ExperimentMode = "solo"
	// ModeCommunity draws from the shared community pool.
	ModeCommunity ExperimentMode = "community"
)

// Experiment is a named recommendation run scoped to one user. At most one
// experiment per user is active at any time; the store enforces this on save.
type Experiment struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	Name      string         `json:"name"`
	Active    bool           `json:"active"`
	Mode      ExperimentMode `json:"mode"`
	StartedAt time.Time      `json:"startTimestamp"`

	// Optional per-experiment overrides for the pipeline task prompts.
	// Empty means the global defaults apply.
	StrategyPrompt string `json:"customStrategyPrompt,omitempty"`
	ContentPrompt  string `json:"customContentPrompt,omitempty"`
}

// CandidateLibrary maps the experiment mode to the library warm rounds
// recall from.
func (e *Experiment) CandidateLibrary() LibraryType {
	if e.Mode == ModeCommunity {
		return LibraryCommunity
	}
	return LibraryPersonal
}
