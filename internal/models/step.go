// Package models defines the core data model for menuflow: steps,
// sequences, session state, match results, and the event surface.
package models

import (
	"regexp"
	"time"

	"github.com/menuflow/menuflow/internal/extract"
	"github.com/menuflow/menuflow/internal/validation"
)

// MaxStepRetries bounds the per-step retry policy.
const MaxStepRetries = 5

// DefaultOutputVar is the extracted-data key used when a step has an
// extractor but no explicit output variable name.
const DefaultOutputVar = "extracted_data"

// Step describes one exchange within a sequence: wait for a response,
// validate it, optionally extract a value from it, then optionally send
// text. Steps are immutable once owned by a Sequence.
type Step struct {
	// Number is the 1-based position of the step within its sequence.
	Number int `json:"number"`

	// Description is a human-readable label for progress reporting.
	Description string `json:"description,omitempty"`

	// ExpectedPattern optionally names the regular expression the
	// response is expected to match. Informational; enforcement happens
	// through the Validator.
	ExpectedPattern string `json:"expected_pattern,omitempty"`

	// Send is the text delivered into the session after the response is
	// processed. May contain {{name}} placeholders resolved from the
	// sequence bindings and previously extracted data. Empty means the
	// step only observes.
	Send string `json:"send,omitempty"`

	// Timeout bounds the wait for this step's response.
	Timeout time.Duration `json:"timeout"`

	// Retries is the number of extra attempts after a failed one (0-5).
	Retries int `json:"retries"`

	// Validator optionally classifies the response; an invalid verdict
	// consumes an attempt.
	Validator validation.Validator `json:"-"`

	// Extractor optionally pulls a value out of the response. Extraction
	// failure never fails the step.
	Extractor extract.Extractor `json:"-"`

	// OutputVar names the extracted-data key this step produces. Only
	// meaningful when Extractor is set; empty selects DefaultOutputVar.
	OutputVar string `json:"output_var,omitempty"`
}

// placeholderPattern matches {{name}} tokens in send text.
var placeholderPattern = regexp.MustCompile(`\{\{([A-Za-z0-9_.-]+)\}\}`)

// Placeholders returns the variable names referenced by the step's send
// text, in order of first appearance.
func (s Step) Placeholders() []string {
	matches := placeholderPattern.FindAllStringSubmatch(s.Send, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, dup := seen[m[1]]; dup {
			continue
		}
		seen[m[1]] = struct{}{}
		names = append(names, m[1])
	}
	return names
}

// Validate checks the step configuration.
func (s Step) Validate() error {
	v := &ValidationErrors{}
	if s.Number < 1 {
		v.AddMessage("number", "step number must be positive")
	}
	if s.Timeout <= 0 {
		v.AddMessage("timeout", "step timeout must be positive")
	}
	if s.Retries < 0 || s.Retries > MaxStepRetries {
		v.AddMessage("retries", "retries must be between 0 and 5")
	}
	if s.ExpectedPattern != "" {
		if _, err := regexp.Compile(s.ExpectedPattern); err != nil {
			v.AddMessage("expected_pattern", "invalid pattern: "+err.Error())
		}
	}
	if s.OutputVar != "" && s.Extractor == nil {
		v.AddMessage("output_var", "output variable set but step has no extractor")
	}
	return v.Err()
}

// withNumber returns a copy of the step renumbered to n.
func (s Step) withNumber(n int) Step {
	s.Number = n
	return s
}
