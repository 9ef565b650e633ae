package models

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the lifecycle state of one sequence run.
type SessionStatus string

const (
	SessionStatusIdle      SessionStatus = "idle"
	SessionStatusRunning   SessionStatus = "running"
	SessionStatusPaused    SessionStatus = "paused"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusFailed    SessionStatus = "failed"
	SessionStatusCancelled SessionStatus = "cancelled"
)

// Terminal reports whether the status is an end state.
func (s SessionStatus) Terminal() bool {
	switch s {
	case SessionStatusCompleted, SessionStatusFailed, SessionStatusCancelled:
		return true
	default:
		return false
	}
}

// StepRecord is the execution record of one step within a run.
type StepRecord struct {
	// StepNumber is the 1-based step ordinal.
	StepNumber int `json:"step_number"`

	// StartedAt is when the first attempt began.
	StartedAt time.Time `json:"started_at"`

	// CompletedAt is when the step finished, successfully or not.
	CompletedAt time.Time `json:"completed_at,omitempty"`

	// Duration is the wall-clock time spent on the step.
	Duration time.Duration `json:"duration"`

	// Response is the last response text observed for the step.
	Response string `json:"response,omitempty"`

	// Success reports whether the step eventually succeeded.
	Success bool `json:"success"`

	// Retries counts retry attempts consumed by the step.
	Retries int `json:"retries"`
}

// SessionState is the mutable execution record of one sequence run. It is
// written exclusively by the executor that owns it; external observers read
// snapshots.
type SessionState struct {
	mu sync.RWMutex

	sessionID string
	sequence  Sequence

	status      SessionStatus
	currentStep int
	startedAt   time.Time
	endedAt     time.Time

	records   map[int]*StepRecord
	order     []int
	responses []string
	extracted map[string]string

	lastError    string
	failedAtStep int
}

// NewSessionState creates the run record for one execution of seq.
func NewSessionState(seq Sequence) *SessionState {
	return &SessionState{
		sessionID: "sess_" + uuid.New().String(),
		sequence:  seq,
		status:    SessionStatusIdle,
		records:   make(map[int]*StepRecord),
		extracted: make(map[string]string),
	}
}

// SessionID returns the generated run identifier.
func (s *SessionState) SessionID() string {
	return s.sessionID
}

// Sequence returns the sequence this state belongs to.
func (s *SessionState) Sequence() Sequence {
	return s.sequence
}

// Status returns the current lifecycle status.
func (s *SessionState) Status() SessionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Start transitions IDLE -> RUNNING and stamps the start time.
func (s *SessionState) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != SessionStatusIdle {
		return fmt.Errorf("cannot start session in status %s", s.status)
	}
	s.status = SessionStatusRunning
	s.startedAt = time.Now().UTC()
	s.currentStep = 1
	return nil
}

// Complete transitions RUNNING -> COMPLETED.
func (s *SessionState) Complete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != SessionStatusRunning {
		return fmt.Errorf("cannot complete session in status %s", s.status)
	}
	s.status = SessionStatusCompleted
	s.endedAt = time.Now().UTC()
	return nil
}

// Fail transitions to FAILED from any non-terminal state. atStep is the
// 1-based step ordinal where the failure occurred, or 0 when not
// step-specific.
func (s *SessionState) Fail(reason string, atStep int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Terminal() {
		return
	}
	s.status = SessionStatusFailed
	s.lastError = reason
	s.failedAtStep = atStep
	s.endedAt = time.Now().UTC()
}

// Pause transitions RUNNING -> PAUSED.
func (s *SessionState) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != SessionStatusRunning {
		return fmt.Errorf("cannot pause session in status %s", s.status)
	}
	s.status = SessionStatusPaused
	return nil
}

// Resume transitions PAUSED -> RUNNING.
func (s *SessionState) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != SessionStatusPaused {
		return fmt.Errorf("cannot resume session in status %s", s.status)
	}
	s.status = SessionStatusRunning
	return nil
}

// Cancel transitions to CANCELLED from any non-terminal state.
func (s *SessionState) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Terminal() {
		return
	}
	s.status = SessionStatusCancelled
	s.endedAt = time.Now().UTC()
}

// StartStep records the beginning of a step attempt. Only the first
// attempt creates the record; retries reuse it.
func (s *SessionState) StartStep(stepNumber int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentStep = stepNumber
	if _, exists := s.records[stepNumber]; !exists {
		s.records[stepNumber] = &StepRecord{
			StepNumber: stepNumber,
			StartedAt:  time.Now().UTC(),
		}
		s.order = append(s.order, stepNumber)
	}
}

// RecordResponse appends the response observed for a step.
func (s *SessionState) RecordResponse(stepNumber int, response string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses = append(s.responses, response)
	if record, ok := s.records[stepNumber]; ok {
		record.Response = response
	}
}

// RecordRetry counts one retry attempt against a step.
func (s *SessionState) RecordRetry(stepNumber int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record, ok := s.records[stepNumber]; ok {
		record.Retries++
	}
}

// CompleteStep marks a step successful with its duration.
func (s *SessionState) CompleteStep(stepNumber int, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record, ok := s.records[stepNumber]; ok {
		record.Success = true
		record.Duration = duration
		record.CompletedAt = time.Now().UTC()
	}
}

// FailStep marks a step as having exhausted its attempts.
func (s *SessionState) FailStep(stepNumber int, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record, ok := s.records[stepNumber]; ok {
		record.Success = false
		record.Duration = duration
		record.CompletedAt = time.Now().UTC()
	}
}

// RecordExtracted stores an extracted value. Extracted data only grows
// during a run.
func (s *SessionState) RecordExtracted(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extracted[key] = value
}

// CurrentStep returns the 1-based ordinal of the step being executed.
func (s *SessionState) CurrentStep() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentStep
}

// CompletedSteps counts steps that finished successfully.
func (s *SessionState) CompletedSteps() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, record := range s.records {
		if record.Success {
			count++
		}
	}
	return count
}

// ProgressPercent returns completed steps over total as 0-100.
func (s *SessionState) ProgressPercent() int {
	total := s.sequence.StepCount()
	if total == 0 {
		return 0
	}
	return s.CompletedSteps() * 100 / total
}

// StepRecords returns copies of the per-step records in execution order.
func (s *SessionState) StepRecords() []StepRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]StepRecord, 0, len(s.order))
	for _, n := range s.order {
		out = append(out, *s.records[n])
	}
	return out
}

// StepRecord returns a copy of one step's record.
func (s *SessionState) StepRecord(stepNumber int) (StepRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[stepNumber]
	if !ok {
		return StepRecord{}, false
	}
	return *record, true
}

// Responses returns a copy of every response observed, in order.
func (s *SessionState) Responses() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.responses...)
}

// LastResponse returns the most recent response, if any.
func (s *SessionState) LastResponse() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.responses) == 0 {
		return "", false
	}
	return s.responses[len(s.responses)-1], true
}

// ExtractedData returns a copy of the extracted-data map.
func (s *SessionState) ExtractedData() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.extracted))
	for k, v := range s.extracted {
		out[k] = v
	}
	return out
}

// Extracted returns one extracted value by key.
func (s *SessionState) Extracted(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.extracted[key]
	return value, ok
}

// LastError returns the recorded failure reason, if any.
func (s *SessionState) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

// FailedAtStep returns the 1-based step ordinal the run failed at, or 0
// when the failure was not step-specific.
func (s *SessionState) FailedAtStep() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.failedAtStep
}

// StartedAt returns when the run began.
func (s *SessionState) StartedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.startedAt
}

// Duration returns the total run time: end minus start for finished runs,
// elapsed time for in-flight ones.
func (s *SessionState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.startedAt.IsZero() {
		return 0
	}
	if s.endedAt.IsZero() {
		return time.Since(s.startedAt)
	}
	return s.endedAt.Sub(s.startedAt)
}
