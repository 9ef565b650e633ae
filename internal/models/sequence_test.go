package models

import (
	"strings"
	"testing"
	"time"

	"github.com/menuflow/menuflow/internal/extract"
)

func step(send string) Step {
	return Step{Send: send, Timeout: 5 * time.Second}
}

func TestNewSequenceRenumbersSteps(t *testing.T) {
	seq := NewSequence(SequenceConfig{
		Name:     "test",
		DialCode: "*123#",
		Steps: []Step{
			{Number: 7, Send: "1", Timeout: time.Second},
			{Number: 2, Send: "2", Timeout: time.Second},
			{Send: "3", Timeout: time.Second},
		},
	})

	for i, s := range seq.Steps {
		if s.Number != i+1 {
			t.Fatalf("step %d has ordinal %d", i, s.Number)
		}
	}
	if seq.GlobalTimeout != DefaultGlobalTimeout {
		t.Fatalf("expected default global timeout, got %s", seq.GlobalTimeout)
	}
	if !strings.HasPrefix(seq.ID, "seq_") {
		t.Fatalf("expected generated id, got %q", seq.ID)
	}
}

func TestSequenceValidate(t *testing.T) {
	seq := NewSequence(SequenceConfig{
		Name:     "ok",
		DialCode: "*123#",
		Steps:    []Step{step("1"), step("2")},
	})
	if err := seq.Validate(); err != nil {
		t.Fatalf("expected valid sequence, got %v", err)
	}
}

func TestSequenceValidateRequiresDialCodeAndSteps(t *testing.T) {
	seq := NewSequence(SequenceConfig{Name: "empty"})
	err := seq.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "dial code") {
		t.Fatalf("expected dial code error, got %q", msg)
	}
	if !strings.Contains(msg, "at least one step") {
		t.Fatalf("expected steps error, got %q", msg)
	}
}

func TestSequenceValidateRejectsBrokenOrdinals(t *testing.T) {
	seq := Sequence{
		DialCode: "*123#",
		Steps:    []Step{{Number: 2, Timeout: time.Second}},
	}
	err := seq.Validate()
	if err == nil || !strings.Contains(err.Error(), "ordinal") {
		t.Fatalf("expected ordinal error, got %v", err)
	}
}

func TestSequenceValidateUnboundPlaceholder(t *testing.T) {
	seq := NewSequence(SequenceConfig{
		Name:     "vars",
		DialCode: "*123#",
		Steps:    []Step{step("{{pin}}")},
	})
	err := seq.Validate()
	if err == nil || !strings.Contains(err.Error(), "pin") {
		t.Fatalf("expected unbound placeholder error, got %v", err)
	}

	bound := NewSequence(SequenceConfig{
		Name:      "vars",
		DialCode:  "*123#",
		Steps:     []Step{step("{{pin}}")},
		Variables: map[string]string{"pin": "0000"},
	})
	if err := bound.Validate(); err != nil {
		t.Fatalf("expected bound placeholder to pass, got %v", err)
	}
}

func TestSequenceValidatePlaceholderProducedEarlier(t *testing.T) {
	seq := NewSequence(SequenceConfig{
		Name:     "produced",
		DialCode: "*123#",
		Steps: []Step{
			{Timeout: time.Second, Extractor: extract.FullResponse{}, OutputVar: "menu"},
			{Timeout: time.Second, Send: "{{menu}}"},
		},
	})
	if err := seq.Validate(); err != nil {
		t.Fatalf("expected produced placeholder to pass, got %v", err)
	}

	// The producing step coming later does not help.
	reversed := NewSequence(SequenceConfig{
		Name:     "late",
		DialCode: "*123#",
		Steps: []Step{
			{Timeout: time.Second, Send: "{{menu}}"},
			{Timeout: time.Second, Extractor: extract.FullResponse{}, OutputVar: "menu"},
		},
	})
	if err := reversed.Validate(); err == nil {
		t.Fatal("expected error for placeholder produced by a later step")
	}
}

func TestResolveVariables(t *testing.T) {
	seq := NewSequence(SequenceConfig{
		Name:      "resolve",
		DialCode:  "*123#",
		Steps:     []Step{step("1")},
		Variables: map[string]string{"pin": "0000", "lang": "1"},
	})

	got := seq.ResolveVariables("{{pin}}#{{lang}}", nil)
	if got != "0000#1" {
		t.Fatalf("expected bindings applied, got %q", got)
	}

	// Extracted data overrides static bindings.
	got = seq.ResolveVariables("{{pin}}", map[string]string{"pin": "9999"})
	if got != "9999" {
		t.Fatalf("expected extracted value to win, got %q", got)
	}

	// Unknown placeholders stay as written.
	got = seq.ResolveVariables("{{unknown}}", nil)
	if got != "{{unknown}}" {
		t.Fatalf("expected unknown placeholder untouched, got %q", got)
	}
}

func TestStepPlaceholders(t *testing.T) {
	s := Step{Send: "{{a}}-{{b}}-{{a}}"}
	got := s.Placeholders()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("expected deduplicated in-order names, got %v", got)
	}

	if got := (Step{Send: "plain"}).Placeholders(); got != nil {
		t.Fatalf("expected nil for no placeholders, got %v", got)
	}
}

func TestStepValidate(t *testing.T) {
	valid := Step{Number: 1, Timeout: time.Second, Retries: 3}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid step, got %v", err)
	}

	cases := []struct {
		name string
		step Step
		want string
	}{
		{"bad number", Step{Number: 0, Timeout: time.Second}, "number"},
		{"bad timeout", Step{Number: 1}, "timeout"},
		{"too many retries", Step{Number: 1, Timeout: time.Second, Retries: MaxStepRetries + 1}, "retries"},
		{"bad pattern", Step{Number: 1, Timeout: time.Second, ExpectedPattern: "(unclosed"}, "pattern"},
		{"output without extractor", Step{Number: 1, Timeout: time.Second, OutputVar: "x"}, "output"},
	}
	for _, tc := range cases {
		err := tc.step.Validate()
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: expected error containing %q, got %v", tc.name, tc.want, err)
		}
	}
}
