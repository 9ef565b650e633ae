package models

import (
	"strings"
	"testing"
	"time"
)

func testSequence(stepCount int) Sequence {
	steps := make([]Step, stepCount)
	for i := range steps {
		steps[i] = Step{Send: "1", Timeout: time.Second}
	}
	return NewSequence(SequenceConfig{Name: "test", DialCode: "*123#", Steps: steps})
}

func TestSessionLifecycle(t *testing.T) {
	s := NewSessionState(testSequence(2))

	if s.Status() != SessionStatusIdle {
		t.Fatalf("expected idle, got %s", s.Status())
	}
	if !strings.HasPrefix(s.SessionID(), "sess_") {
		t.Fatalf("expected generated session id, got %q", s.SessionID())
	}

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.Status() != SessionStatusRunning {
		t.Fatalf("expected running, got %s", s.Status())
	}
	if err := s.Start(); err == nil {
		t.Fatal("expected second Start to fail")
	}

	if err := s.Complete(); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if s.Status() != SessionStatusCompleted {
		t.Fatalf("expected completed, got %s", s.Status())
	}
	if !s.Status().Terminal() {
		t.Fatal("expected completed to be terminal")
	}
}

func TestSessionPauseResume(t *testing.T) {
	s := NewSessionState(testSequence(1))

	if err := s.Pause(); err == nil {
		t.Fatal("expected pausing an idle session to fail")
	}

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if s.Status() != SessionStatusPaused {
		t.Fatalf("expected paused, got %s", s.Status())
	}
	if err := s.Complete(); err == nil {
		t.Fatal("expected completing a paused session to fail")
	}
	if err := s.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if s.Status() != SessionStatusRunning {
		t.Fatalf("expected running after resume, got %s", s.Status())
	}
}

func TestSessionFailAndCancel(t *testing.T) {
	s := NewSessionState(testSequence(1))
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	s.Fail("boom", 1)
	if s.Status() != SessionStatusFailed {
		t.Fatalf("expected failed, got %s", s.Status())
	}
	if s.LastError() != "boom" || s.FailedAtStep() != 1 {
		t.Fatalf("unexpected failure record: %q at %d", s.LastError(), s.FailedAtStep())
	}

	// Terminal states are sticky.
	s.Cancel()
	if s.Status() != SessionStatusFailed {
		t.Fatalf("expected cancel after failure to be a no-op, got %s", s.Status())
	}

	c := NewSessionState(testSequence(1))
	c.Cancel()
	if c.Status() != SessionStatusCancelled {
		t.Fatalf("expected cancelled, got %s", c.Status())
	}
}

func TestSessionStepRecords(t *testing.T) {
	s := NewSessionState(testSequence(2))
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	s.StartStep(1)
	s.RecordResponse(1, "first screen")
	s.RecordRetry(1)
	s.StartStep(1) // retry must not reset the record
	s.RecordResponse(1, "first screen again")
	s.CompleteStep(1, 120*time.Millisecond)

	s.StartStep(2)
	s.RecordResponse(2, "second screen")
	s.FailStep(2, 80*time.Millisecond)

	records := s.StepRecords()
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	first := records[0]
	if !first.Success || first.Retries != 1 || first.Response != "first screen again" {
		t.Fatalf("unexpected first record %+v", first)
	}
	if records[1].Success {
		t.Fatal("expected second step to be recorded as failed")
	}

	if got := s.Responses(); len(got) != 3 {
		t.Fatalf("expected 3 responses, got %d", len(got))
	}
	last, ok := s.LastResponse()
	if !ok || last != "second screen" {
		t.Fatalf("unexpected last response %q", last)
	}

	if s.CompletedSteps() != 1 {
		t.Fatalf("expected 1 completed step, got %d", s.CompletedSteps())
	}
	if s.ProgressPercent() != 50 {
		t.Fatalf("expected 50%%, got %d", s.ProgressPercent())
	}
}

func TestSessionExtractedData(t *testing.T) {
	s := NewSessionState(testSequence(1))
	s.RecordExtracted("balance", "1500")

	value, ok := s.Extracted("balance")
	if !ok || value != "1500" {
		t.Fatalf("unexpected extracted value %q", value)
	}

	// Snapshot, not live map.
	snapshot := s.ExtractedData()
	snapshot["balance"] = "tampered"
	if value, _ := s.Extracted("balance"); value != "1500" {
		t.Fatalf("expected internal map untouched, got %q", value)
	}
}

func TestValidationErrors(t *testing.T) {
	v := &ValidationErrors{}
	if v.HasErrors() {
		t.Fatal("expected no errors initially")
	}
	if v.Err() != nil {
		t.Fatal("expected nil error when empty")
	}

	v.AddMessage("field_a", "first problem")
	v.AddMessage("field_b", "second problem")
	err := v.Err()
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "first problem") || !strings.Contains(msg, "second problem") {
		t.Fatalf("expected both messages, got %q", msg)
	}
}
