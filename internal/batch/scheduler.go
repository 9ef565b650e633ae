// Package batch runs sequences one after another over a shared session
// channel, with a configurable delay between runs.
package batch

import (
	"context"
	"sync"
	"time"

	"github.com/menuflow/menuflow/internal/channel"
	"github.com/menuflow/menuflow/internal/executor"
	"github.com/menuflow/menuflow/internal/logging"
	"github.com/menuflow/menuflow/internal/models"
	"github.com/rs/zerolog"
)

// DefaultInterRunDelay separates consecutive runs when the caller does not
// choose a delay.
const DefaultInterRunDelay = 2 * time.Second

// Summary is the outcome of one batch run.
type Summary struct {
	// Succeeded counts sequences that completed.
	Succeeded int `json:"succeeded"`

	// Failed counts sequences that ended failed or cancelled.
	Failed int `json:"failed"`

	// Duration is the total batch wall-clock time.
	Duration time.Duration `json:"duration"`

	// Results holds the terminal session state of each run, in order.
	Results []*models.SessionState `json:"-"`
}

// Scheduler executes sequences strictly serially: the channel carries one
// session at a time, so the next run starts only after the previous one
// reaches a terminal state.
type Scheduler struct {
	session  channel.Session
	notifier *executor.Notifier
	execCfg  executor.Config
	delay    time.Duration
	log      zerolog.Logger

	mu      sync.Mutex
	stopped bool
}

// NewScheduler builds a scheduler over the given session. A delay of zero
// or less selects DefaultInterRunDelay. The notifier may be nil.
func NewScheduler(session channel.Session, notifier *executor.Notifier, execCfg executor.Config, delay time.Duration) *Scheduler {
	if delay <= 0 {
		delay = DefaultInterRunDelay
	}
	return &Scheduler{
		session:  session,
		notifier: notifier,
		execCfg:  execCfg,
		delay:    delay,
		log:      logging.Component("batch"),
	}
}

// Stop drains the pending queue: the in-flight sequence completes normally
// and the remaining ones are not started.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.log.Info().Msg("batch stop requested")
}

func (s *Scheduler) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// Run executes the sequences in order and returns the batch summary.
// Cancelling ctx cancels the in-flight run and skips the rest; Stop lets
// the in-flight run finish first.
func (s *Scheduler) Run(ctx context.Context, sequences []models.Sequence) Summary {
	start := time.Now()
	total := len(sequences)

	s.log.Info().Int("total", total).Msg("starting batch")
	s.notifier.Publish(models.NewEvent(models.EventTypeBatchStarted, "", models.BatchStartedData{
		TotalSequences: total,
	}))

	summary := Summary{}
	for i, seq := range sequences {
		if s.isStopped() || ctx.Err() != nil {
			s.log.Info().Int("remaining", total-i).Msg("batch stopped, skipping remaining sequences")
			break
		}
		if i > 0 {
			if !s.pause(ctx) {
				break
			}
		}

		exec := executor.New(seq, s.session, s.notifier, s.execCfg)
		status, err := exec.Run(ctx)
		if err != nil {
			s.log.Error().Err(err).Str("sequence", seq.Name).Msg("could not start sequence")
		}
		state := exec.State()
		summary.Results = append(summary.Results, state)

		data := models.BatchSequenceData{
			Index:        i + 1,
			Total:        total,
			SequenceID:   seq.ID,
			SequenceName: seq.Name,
		}
		if status == models.SessionStatusCompleted {
			summary.Succeeded++
			data.ExtractedData = state.ExtractedData()
			s.log.Info().Str("sequence", seq.Name).Int("index", i+1).Msg("sequence completed")
			s.notifier.Publish(models.NewEvent(models.EventTypeBatchSequenceCompleted, state.SessionID(), data))
		} else {
			summary.Failed++
			data.Reason = state.LastError()
			if data.Reason == "" {
				data.Reason = string(status)
			}
			s.log.Warn().Str("sequence", seq.Name).Str("status", string(status)).Str("reason", data.Reason).Msg("sequence did not complete")
			s.notifier.Publish(models.NewEvent(models.EventTypeBatchSequenceFailed, state.SessionID(), data))
		}
	}

	summary.Duration = time.Since(start)
	s.log.Info().
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Dur("duration", summary.Duration).
		Msg("batch finished")
	s.notifier.Publish(models.NewEvent(models.EventTypeBatchCompleted, "", models.BatchCompletedData{
		Succeeded: summary.Succeeded,
		Failed:    summary.Failed,
		Duration:  summary.Duration,
	}))
	return summary
}

// pause waits out the inter-run delay. Returns false when the wait was cut
// short by Stop or context cancellation.
func (s *Scheduler) pause(ctx context.Context) bool {
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-timer.C:
			return true
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if s.isStopped() {
				return false
			}
		}
	}
}
