package models

import (
	"time"
)

// EventType categorizes events emitted during execution.
type EventType string

const (
	// Sequence lifecycle events
	EventTypeSequenceStarted   EventType = "sequence.started"
	EventTypeSequenceCompleted EventType = "sequence.completed"
	EventTypeSequenceFailed    EventType = "sequence.failed"
	EventTypeSequencePaused    EventType = "sequence.paused"
	EventTypeSequenceResumed   EventType = "sequence.resumed"
	EventTypeSequenceCancelled EventType = "sequence.cancelled"

	// Step events
	EventTypeStepStarted   EventType = "step.started"
	EventTypeStepCompleted EventType = "step.completed"
	EventTypeStepFailed    EventType = "step.failed"
	EventTypeStepRetrying  EventType = "step.retrying"
	EventTypeStepTimeout   EventType = "step.timeout"

	// Data events
	EventTypeProgressUpdated  EventType = "progress.updated"
	EventTypeDataExtracted    EventType = "data.extracted"
	EventTypeValidationFailed EventType = "validation.failed"

	// Batch events
	EventTypeBatchStarted           EventType = "batch.started"
	EventTypeBatchSequenceCompleted EventType = "batch.sequence_completed"
	EventTypeBatchSequenceFailed    EventType = "batch.sequence_failed"
	EventTypeBatchCompleted         EventType = "batch.completed"

	// Exhaustive-match events
	EventTypeMatchStarted           EventType = "match.started"
	EventTypeMatchTargetStarted     EventType = "match.target_started"
	EventTypeMatchCandidateTried    EventType = "match.candidate_tried"
	EventTypeMatchCandidateRejected EventType = "match.candidate_rejected"
	EventTypeMatchTargetMatched     EventType = "match.target_matched"
	EventTypeMatchTargetUnmatched   EventType = "match.target_unmatched"
	EventTypeMatchCompleted         EventType = "match.completed"
)

// Event is the single closed notification type delivered to subscribers.
// Data holds the payload struct matching the event type.
type Event struct {
	// Type categorizes the event.
	Type EventType `json:"type"`

	// Timestamp is when the event was emitted.
	Timestamp time.Time `json:"timestamp"`

	// SessionID identifies the run the event belongs to, when any.
	SessionID string `json:"session_id,omitempty"`

	// Data contains the event-specific payload.
	Data any `json:"data,omitempty"`
}

// NewEvent stamps an event with the current time.
func NewEvent(eventType EventType, sessionID string, data any) Event {
	return Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		SessionID: sessionID,
		Data:      data,
	}
}

// SequenceStartedData is the payload for sequence.started.
type SequenceStartedData struct {
	SequenceID   string `json:"sequence_id"`
	SequenceName string `json:"sequence_name"`
	TotalSteps   int    `json:"total_steps"`
}

// SequenceCompletedData is the payload for sequence.completed.
type SequenceCompletedData struct {
	ExtractedData map[string]string `json:"extracted_data,omitempty"`
	Duration      time.Duration     `json:"duration"`
}

// SequenceFailedData is the payload for sequence.failed. FailedAtStep is 0
// when the failure was not step-specific.
type SequenceFailedData struct {
	Reason       string `json:"reason"`
	FailedAtStep int    `json:"failed_at_step"`
}

// SequencePausedData is the payload for sequence.paused and
// sequence.resumed.
type SequencePausedData struct {
	CurrentStep int `json:"current_step"`
}

// SequenceCancelledData is the payload for sequence.cancelled.
type SequenceCancelledData struct {
	CancelledAtStep int `json:"cancelled_at_step"`
}

// StepStartedData is the payload for step.started.
type StepStartedData struct {
	StepNumber  int    `json:"step_number"`
	TotalSteps  int    `json:"total_steps"`
	Description string `json:"description,omitempty"`
}

// StepCompletedData is the payload for step.completed.
type StepCompletedData struct {
	StepNumber int           `json:"step_number"`
	Response   string        `json:"response,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// StepFailedData is the payload for step.failed.
type StepFailedData struct {
	StepNumber int    `json:"step_number"`
	Reason     string `json:"reason"`
	Attempts   int    `json:"attempts"`
}

// StepRetryingData is the payload for step.retrying.
type StepRetryingData struct {
	StepNumber int    `json:"step_number"`
	Attempt    int    `json:"attempt"`
	MaxRetries int    `json:"max_retries"`
	Reason     string `json:"reason,omitempty"`
}

// StepTimeoutData is the payload for step.timeout.
type StepTimeoutData struct {
	StepNumber int           `json:"step_number"`
	Timeout    time.Duration `json:"timeout"`
	WillRetry  bool          `json:"will_retry"`
}

// ProgressData is the payload for progress.updated.
type ProgressData struct {
	CompletedSteps int `json:"completed_steps"`
	TotalSteps     int `json:"total_steps"`
	Percent        int `json:"percent"`
}

// DataExtractedData is the payload for data.extracted.
type DataExtractedData struct {
	Key        string `json:"key"`
	Value      string `json:"value"`
	StepNumber int    `json:"step_number"`
}

// ValidationFailedData is the payload for validation.failed.
type ValidationFailedData struct {
	StepNumber int    `json:"step_number"`
	Response   string `json:"response,omitempty"`
	Reason     string `json:"reason"`
	WillRetry  bool   `json:"will_retry"`
}

// BatchStartedData is the payload for batch.started.
type BatchStartedData struct {
	TotalSequences int `json:"total_sequences"`
}

// BatchSequenceData is the payload for batch.sequence_completed and
// batch.sequence_failed.
type BatchSequenceData struct {
	Index         int               `json:"index"`
	Total         int               `json:"total"`
	SequenceID    string            `json:"sequence_id"`
	SequenceName  string            `json:"sequence_name,omitempty"`
	ExtractedData map[string]string `json:"extracted_data,omitempty"`
	Reason        string            `json:"reason,omitempty"`
}

// BatchCompletedData is the payload for batch.completed.
type BatchCompletedData struct {
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

// MatchStartedData is the payload for match.started.
type MatchStartedData struct {
	TotalTargets    int `json:"total_targets"`
	TotalCandidates int `json:"total_candidates"`
}

// MatchTargetStartedData is the payload for match.target_started.
type MatchTargetStartedData struct {
	Target       string `json:"target"`
	TargetIndex  int    `json:"target_index"`
	TotalTargets int    `json:"total_targets"`
}

// MatchCandidateData is the payload for match.candidate_tried and
// match.candidate_rejected.
type MatchCandidateData struct {
	Target    string `json:"target"`
	Candidate string `json:"candidate"`
	Attempt   int    `json:"attempt"`
	Reason    string `json:"reason,omitempty"`
}

// MatchTargetMatchedData is the payload for match.target_matched.
type MatchTargetMatchedData struct {
	Result MatchResult `json:"result"`
}

// MatchTargetUnmatchedData is the payload for match.target_unmatched.
type MatchTargetUnmatchedData struct {
	Target string `json:"target"`
	Reason string `json:"reason"`
}

// MatchCompletedData is the payload for match.completed.
type MatchCompletedData struct {
	Matched   int           `json:"matched"`
	Unmatched int           `json:"unmatched"`
	Duration  time.Duration `json:"duration"`
}
