package models

import (
	"fmt"
	"time"
)

// MatchResult records a successful candidate match for one target during
// exhaustive search. Immutable once recorded.
type MatchResult struct {
	// Target identifies what the candidate was matched against.
	Target string `json:"target"`

	// Candidate is the value that produced a success outcome.
	Candidate string `json:"candidate"`

	// Attempts is how many candidates were tried for this target,
	// including the successful one.
	Attempts int `json:"attempts"`

	// Duration is how long the target took to match.
	Duration time.Duration `json:"duration"`

	// Timestamp is when the match was recorded.
	Timestamp time.Time `json:"timestamp"`
}

func (r MatchResult) String() string {
	return fmt.Sprintf("%s -> %s (tried %d candidates in %s)", r.Target, r.Candidate, r.Attempts, r.Duration.Round(time.Second))
}
