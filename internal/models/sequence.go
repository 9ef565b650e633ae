package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultGlobalTimeout bounds a whole sequence run when the caller does not
// set one.
const DefaultGlobalTimeout = 30 * time.Second

// DefaultChannelSelector requests the platform's default channel.
const DefaultChannelSelector = -1

// Sequence is an ordered, validated plan of steps plus the initial dial
// code and variable bindings. Sequences are immutable once constructed;
// re-running one produces a fresh SessionState each time.
type Sequence struct {
	// ID uniquely identifies this sequence instance.
	ID string `json:"id"`

	// Name is a human-readable label.
	Name string `json:"name"`

	// Description optionally explains what the sequence does.
	Description string `json:"description,omitempty"`

	// DialCode is the initial code that opens the session.
	DialCode string `json:"dial_code"`

	// Steps are executed in order; ordinals are normalized to 1..N at
	// construction.
	Steps []Step `json:"steps"`

	// Variables bind {{name}} placeholders in step send text.
	Variables map[string]string `json:"variables,omitempty"`

	// GlobalTimeout bounds the entire run.
	GlobalTimeout time.Duration `json:"global_timeout"`

	// ChannelSelector picks which underlying channel carries the session.
	ChannelSelector int `json:"channel_selector"`

	// StopOnError stops the run at the first failed step when true;
	// otherwise failed steps are recorded and the run continues.
	StopOnError bool `json:"stop_on_error"`
}

// SequenceConfig carries the inputs for NewSequence. Zero values select
// defaults where noted.
type SequenceConfig struct {
	ID              string
	Name            string
	Description     string
	DialCode        string
	Steps           []Step
	Variables       map[string]string
	GlobalTimeout   time.Duration // default DefaultGlobalTimeout
	ChannelSelector int           // 0 is a real selector; use DefaultChannelSelector explicitly
	StopOnError     bool
}

// NewSequence builds an immutable Sequence. Steps are renumbered to the
// contiguous range 1..N in list order, matching the position they will
// execute in. The returned sequence has not yet been validated; call
// Validate before executing.
func NewSequence(cfg SequenceConfig) Sequence {
	id := cfg.ID
	if id == "" {
		id = "seq_" + uuid.New().String()
	}

	steps := make([]Step, len(cfg.Steps))
	for i, step := range cfg.Steps {
		steps[i] = step.withNumber(i + 1)
	}

	variables := make(map[string]string, len(cfg.Variables))
	for k, v := range cfg.Variables {
		variables[k] = v
	}

	timeout := cfg.GlobalTimeout
	if timeout <= 0 {
		timeout = DefaultGlobalTimeout
	}

	return Sequence{
		ID:              id,
		Name:            cfg.Name,
		Description:     cfg.Description,
		DialCode:        cfg.DialCode,
		Steps:           steps,
		Variables:       variables,
		GlobalTimeout:   timeout,
		ChannelSelector: cfg.ChannelSelector,
		StopOnError:     cfg.StopOnError,
	}
}

// StepCount returns the number of steps.
func (s Sequence) StepCount() int {
	return len(s.Steps)
}

// Validate checks the sequence configuration: a non-empty dial code, at
// least one step, contiguous step ordinals, valid individual steps, and
// every placeholder either bound or produced by an earlier step. It runs
// before execution begins; a failing result aborts the run without
// touching the channel.
func (s Sequence) Validate() error {
	v := &ValidationErrors{}

	if strings.TrimSpace(s.DialCode) == "" {
		v.AddMessage("dial_code", "initial dial code is required")
	}
	if len(s.Steps) == 0 {
		v.AddMessage("steps", "sequence must have at least one step")
	}

	produced := make(map[string]struct{}, len(s.Steps))
	for i, step := range s.Steps {
		field := fmt.Sprintf("steps[%d]", i)
		if step.Number != i+1 {
			v.AddMessage(field, fmt.Sprintf("step has ordinal %d, want %d", step.Number, i+1))
		}
		if err := step.Validate(); err != nil {
			v.AddMessage(field, err.Error())
		}

		for _, name := range step.Placeholders() {
			if _, bound := s.Variables[name]; bound {
				continue
			}
			if _, ok := produced[name]; ok {
				continue
			}
			v.AddMessage(field, fmt.Sprintf("step %d requires variable %q but it is not bound or produced earlier", i+1, name))
		}

		if step.Extractor != nil {
			name := step.OutputVar
			if name == "" {
				name = DefaultOutputVar
			}
			produced[name] = struct{}{}
		}
	}

	return v.Err()
}

// ResolveVariables substitutes {{name}} placeholders in template from the
// sequence bindings overlaid with extra (typically data extracted earlier
// in the run). Unknown placeholders are left untouched.
func (s Sequence) ResolveVariables(template string, extra map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(token string) string {
		name := placeholderPattern.FindStringSubmatch(token)[1]
		if value, ok := extra[name]; ok {
			return value
		}
		if value, ok := s.Variables[name]; ok {
			return value
		}
		return token
	})
}
