// Package matcher drives exhaustive candidate search: for each target it
// probes the service with one candidate per session until the response
// classifies as success, then moves to the next target.
package matcher

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/menuflow/menuflow/internal/channel"
	"github.com/menuflow/menuflow/internal/classify"
	"github.com/menuflow/menuflow/internal/executor"
	"github.com/menuflow/menuflow/internal/extract"
	"github.com/menuflow/menuflow/internal/logging"
	"github.com/menuflow/menuflow/internal/models"
	"github.com/rs/zerolog"
)

// outcomeVar is the extracted-data key the probe's final response lands
// in.
const outcomeVar = "outcome"

// Config describes how probe sequences are built.
type Config struct {
	// DialCode opens each probe session.
	DialCode string

	// SelectOption is the menu choice sent on the first screen. Empty
	// selects "1".
	SelectOption string

	// ChannelSelector picks the underlying channel for probe sessions.
	ChannelSelector int

	// StepTimeout bounds each probe step's wait for a response. Zero
	// selects 8 seconds.
	StepTimeout time.Duration

	// ProbeTimeout bounds one whole probe session. Zero selects the
	// sequence default.
	ProbeTimeout time.Duration

	// Executor tunes probe execution timing.
	Executor executor.Config
}

func (c Config) withDefaults() Config {
	if c.SelectOption == "" {
		c.SelectOption = "1"
	}
	if c.StepTimeout <= 0 {
		c.StepTimeout = 8 * time.Second
	}
	return c
}

// Report is the outcome of one exhaustive search.
type Report struct {
	// Matches maps each matched target to its result.
	Matches map[string]models.MatchResult `json:"matches"`

	// Unmatched lists targets no candidate worked for, in input order.
	Unmatched []string `json:"unmatched,omitempty"`

	// Duration is the total search wall-clock time.
	Duration time.Duration `json:"duration"`
}

// ExhaustiveMatcher runs one probe session per (target, candidate) pair.
// Probes are strictly serial; the channel carries one session at a time.
type ExhaustiveMatcher struct {
	cfg        Config
	session    channel.Session
	classifier *classify.Classifier
	notifier   *executor.Notifier
	log        zerolog.Logger

	mu      sync.Mutex
	stopped bool
	current *executor.Executor
}

// New builds a matcher. A nil classifier selects the default keyword sets;
// the notifier may be nil.
func New(cfg Config, session channel.Session, classifier *classify.Classifier, notifier *executor.Notifier) *ExhaustiveMatcher {
	if classifier == nil {
		classifier = classify.Default()
	}
	return &ExhaustiveMatcher{
		cfg:        cfg.withDefaults(),
		session:    session,
		classifier: classifier,
		notifier:   notifier,
		log:        logging.Component("matcher"),
	}
}

// Stop aborts the in-flight probe and ends the search. Targets not yet
// matched are reported unmatched.
func (m *ExhaustiveMatcher) Stop() {
	m.mu.Lock()
	m.stopped = true
	current := m.current
	m.mu.Unlock()
	if current != nil {
		current.Cancel()
	}
	m.log.Info().Msg("matcher stop requested")
}

func (m *ExhaustiveMatcher) isStopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

// Run searches the candidate pool for every target in order. Each probe is
// a fresh session; a candidate whose probe fails or classifies as failure
// or ambiguous is rejected and the next one is tried without retrying.
func (m *ExhaustiveMatcher) Run(ctx context.Context, targets, pool []string) Report {
	start := time.Now()
	report := Report{Matches: make(map[string]models.MatchResult, len(targets))}

	m.log.Info().Int("targets", len(targets)).Int("pool", len(pool)).Msg("starting exhaustive search")
	m.notifier.Publish(models.NewEvent(models.EventTypeMatchStarted, "", models.MatchStartedData{
		TotalTargets:    len(targets),
		TotalCandidates: len(pool),
	}))

	for i, target := range targets {
		if m.isStopped() || ctx.Err() != nil {
			report.Unmatched = append(report.Unmatched, targets[i:]...)
			break
		}

		m.notifier.Publish(models.NewEvent(models.EventTypeMatchTargetStarted, "", models.MatchTargetStartedData{
			Target:       target,
			TargetIndex:  i + 1,
			TotalTargets: len(targets),
		}))

		result, ok := m.matchTarget(ctx, target, pool)
		if ok {
			report.Matches[target] = result
			m.log.Info().Str("target", target).Int("attempts", result.Attempts).Msg("target matched")
			m.notifier.Publish(models.NewEvent(models.EventTypeMatchTargetMatched, "", models.MatchTargetMatchedData{Result: result}))
			continue
		}
		report.Unmatched = append(report.Unmatched, target)
		m.log.Warn().Str("target", target).Msg("candidate pool exhausted without a match")
		m.notifier.Publish(models.NewEvent(models.EventTypeMatchTargetUnmatched, "", models.MatchTargetUnmatchedData{
			Target: target,
			Reason: "candidate pool exhausted",
		}))
	}

	report.Duration = time.Since(start)
	m.log.Info().
		Int("matched", len(report.Matches)).
		Int("unmatched", len(report.Unmatched)).
		Dur("duration", report.Duration).
		Msg("exhaustive search finished")
	m.notifier.Publish(models.NewEvent(models.EventTypeMatchCompleted, "", models.MatchCompletedData{
		Matched:   len(report.Matches),
		Unmatched: len(report.Unmatched),
		Duration:  report.Duration,
	}))
	return report
}

func (m *ExhaustiveMatcher) matchTarget(ctx context.Context, target string, pool []string) (models.MatchResult, bool) {
	targetStart := time.Now()

	for i, candidate := range pool {
		if m.isStopped() || ctx.Err() != nil {
			return models.MatchResult{}, false
		}

		m.notifier.Publish(models.NewEvent(models.EventTypeMatchCandidateTried, "", models.MatchCandidateData{
			Target:    target,
			Candidate: candidate,
			Attempt:   i + 1,
		}))

		outcome, reason := m.probe(ctx, target, candidate)
		if outcome == classify.OutcomeSuccess {
			return models.MatchResult{
				Target:    target,
				Candidate: candidate,
				Attempts:  i + 1,
				Duration:  time.Since(targetStart),
				Timestamp: time.Now().UTC(),
			}, true
		}

		m.notifier.Publish(models.NewEvent(models.EventTypeMatchCandidateRejected, "", models.MatchCandidateData{
			Target:    target,
			Candidate: candidate,
			Attempt:   i + 1,
			Reason:    reason,
		}))
	}
	return models.MatchResult{}, false
}

// probe runs one full session for a single candidate and classifies the
// final response.
func (m *ExhaustiveMatcher) probe(ctx context.Context, target, candidate string) (classify.Outcome, string) {
	seq := m.probeSequence(target, candidate)
	exec := executor.New(seq, m.session, m.notifier, m.cfg.Executor)

	m.mu.Lock()
	m.current = exec
	m.mu.Unlock()

	status, err := exec.Run(ctx)

	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()

	if err != nil {
		return classify.OutcomeAmbiguous, "probe could not start: " + err.Error()
	}
	if status != models.SessionStatusCompleted {
		reason := exec.State().LastError()
		if reason == "" {
			reason = "probe ended " + string(status)
		}
		return classify.OutcomeFailure, reason
	}

	outcome, ok := exec.State().Extracted(outcomeVar)
	if !ok {
		return classify.OutcomeAmbiguous, "probe captured no final response"
	}

	classification := m.classifier.Classify(outcome)
	reason := string(classification.Outcome)
	if len(classification.Matched) > 0 {
		reason += ": matched " + strings.Join(classification.Matched, ", ")
	}
	return classification.Outcome, reason
}

// probeSequence builds the four-step probe: pick the menu option, send the
// target, send the candidate, then capture the verdict screen.
func (m *ExhaustiveMatcher) probeSequence(target, candidate string) models.Sequence {
	timeout := m.cfg.StepTimeout
	return models.NewSequence(models.SequenceConfig{
		Name:     "probe " + target,
		DialCode: m.cfg.DialCode,
		Steps: []models.Step{
			{Description: "select menu option", Send: m.cfg.SelectOption, Timeout: timeout},
			{Description: "submit target", Send: target, Timeout: timeout},
			{Description: "submit candidate", Send: candidate, Timeout: timeout},
			{Description: "capture verdict", Timeout: timeout, Extractor: extract.FullResponse{}, OutputVar: outcomeVar},
		},
		GlobalTimeout:   m.cfg.ProbeTimeout,
		ChannelSelector: m.cfg.ChannelSelector,
	})
}
