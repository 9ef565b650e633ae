// Package executor runs a sequence against a live session channel: it
// drives the step loop, retry and timeout policy, pause, resume and
// cancellation, and publishes progress events along the way.
package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/menuflow/menuflow/internal/channel"
	"github.com/menuflow/menuflow/internal/logging"
	"github.com/menuflow/menuflow/internal/models"
	"github.com/rs/zerolog"
)

var (
	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("executor already started")

	errCancelled       = errors.New("execution cancelled")
	errGlobalTimeout   = errors.New("global timeout exceeded")
	errResponseTimeout = errors.New("timed out waiting for response")
	errResponsesClosed = errors.New("response stream closed")
)

// Config tunes executor timing. Zero values select the defaults.
type Config struct {
	// BringUpTimeout bounds how long the session may take to become
	// active after initiation.
	BringUpTimeout time.Duration

	// PollInterval is the cadence of cancellation and pause checkpoints
	// during waits.
	PollInterval time.Duration

	// RetryBaseDelay is the unit of the linear retry backoff: attempt k
	// waits (k-1) times this delay before running.
	RetryBaseDelay time.Duration
}

// DefaultConfig returns the standard executor timing.
func DefaultConfig() Config {
	return Config{
		BringUpTimeout: 5 * time.Second,
		PollInterval:   100 * time.Millisecond,
		RetryBaseDelay: time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.BringUpTimeout <= 0 {
		c.BringUpTimeout = d.BringUpTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = d.RetryBaseDelay
	}
	return c
}

// Executor owns one run of one sequence. Create with New, launch with
// Start, then observe through Done, State, and the notifier's events.
// Executors are single-use; re-running a sequence takes a new Executor.
type Executor struct {
	cfg      Config
	seq      models.Sequence
	session  channel.Session
	notifier *Notifier
	state    *models.SessionState
	log      zerolog.Logger

	mu        sync.Mutex
	cond      *sync.Cond
	paused    bool
	cancelled bool

	started bool
	startMu sync.Mutex
	done    chan struct{}

	// deadline bounds the whole run. Owned by the run goroutine; pause
	// time is credited back at checkpoints.
	deadline time.Time
}

// New builds an executor for one run of seq over the given session. The
// notifier may be nil when no events are wanted.
func New(seq models.Sequence, session channel.Session, notifier *Notifier, cfg Config) *Executor {
	state := models.NewSessionState(seq)
	e := &Executor{
		cfg:      cfg.withDefaults(),
		seq:      seq,
		session:  session,
		notifier: notifier,
		state:    state,
		log: logging.Component("executor").With().
			Str("session_id", state.SessionID()).
			Str("sequence", seq.Name).
			Logger(),
		done: make(chan struct{}),
	}
	e.cond = sync.NewCond(&e.mu)
	return e
}

// State returns the run's session state for observation.
func (e *Executor) State() *models.SessionState {
	return e.state
}

// Done is closed when the run reaches a terminal status.
func (e *Executor) Done() <-chan struct{} {
	return e.done
}

// Start launches the run on its own goroutine. Cancelling ctx cancels the
// run the same way Cancel does.
func (e *Executor) Start(ctx context.Context) error {
	e.startMu.Lock()
	defer e.startMu.Unlock()
	if e.started {
		return ErrAlreadyStarted
	}
	e.started = true
	go e.run(ctx)
	return nil
}

// Run executes the sequence synchronously and returns its terminal status.
func (e *Executor) Run(ctx context.Context) (models.SessionStatus, error) {
	if err := e.Start(ctx); err != nil {
		return e.state.Status(), err
	}
	<-e.done
	return e.state.Status(), nil
}

// Pause suspends execution at the next checkpoint. Only a running session
// can be paused; the in-flight operation is not interrupted.
func (e *Executor) Pause() error {
	if err := e.state.Pause(); err != nil {
		return err
	}
	e.mu.Lock()
	e.paused = true
	e.mu.Unlock()
	e.log.Info().Int("current_step", e.state.CurrentStep()).Msg("execution paused")
	e.publish(models.EventTypeSequencePaused, models.SequencePausedData{CurrentStep: e.state.CurrentStep()})
	return nil
}

// Resume continues a paused run from where it stopped.
func (e *Executor) Resume() error {
	if err := e.state.Resume(); err != nil {
		return err
	}
	e.mu.Lock()
	e.paused = false
	e.cond.Broadcast()
	e.mu.Unlock()
	e.log.Info().Int("current_step", e.state.CurrentStep()).Msg("execution resumed")
	e.publish(models.EventTypeSequenceResumed, models.SequencePausedData{CurrentStep: e.state.CurrentStep()})
	return nil
}

// Cancel requests cooperative cancellation. The run stops at its next
// checkpoint and the session is aborted; a paused run is woken and
// cancelled. Idempotent.
func (e *Executor) Cancel() {
	e.mu.Lock()
	if e.cancelled {
		e.mu.Unlock()
		return
	}
	e.cancelled = true
	e.cond.Broadcast()
	e.mu.Unlock()
	e.log.Info().Msg("cancellation requested")
}

func (e *Executor) run(ctx context.Context) {
	defer close(e.done)

	stop := context.AfterFunc(ctx, e.Cancel)
	defer stop()

	if err := e.seq.Validate(); err != nil {
		e.log.Error().Err(err).Msg("sequence validation failed")
		e.state.Fail(err.Error(), 0)
		e.publish(models.EventTypeSequenceFailed, models.SequenceFailedData{Reason: err.Error()})
		return
	}

	if err := e.state.Start(); err != nil {
		e.state.Fail(err.Error(), 0)
		e.publish(models.EventTypeSequenceFailed, models.SequenceFailedData{Reason: err.Error()})
		return
	}
	e.deadline = time.Now().Add(e.seq.GlobalTimeout)

	e.log.Info().Int("total_steps", e.seq.StepCount()).Str("dial_code", e.seq.DialCode).Msg("starting sequence")
	e.publish(models.EventTypeSequenceStarted, models.SequenceStartedData{
		SequenceID:   e.seq.ID,
		SequenceName: e.seq.Name,
		TotalSteps:   e.seq.StepCount(),
	})

	if err := e.bringUp(); err != nil {
		e.finishWithError(err, 0)
		return
	}

	for _, step := range e.seq.Steps {
		ok, err := e.runStep(step)
		if err != nil {
			e.finishWithError(err, step.Number)
			return
		}
		if !ok && e.seq.StopOnError {
			reason := fmt.Sprintf("step %d exhausted its attempts", step.Number)
			e.state.Fail(reason, step.Number)
			e.publish(models.EventTypeSequenceFailed, models.SequenceFailedData{Reason: reason, FailedAtStep: step.Number})
			e.session.Abort()
			return
		}
	}

	if err := e.state.Complete(); err != nil {
		e.log.Error().Err(err).Msg("could not mark session completed")
	}
	e.session.Abort()
	e.log.Info().Dur("duration", e.state.Duration()).Msg("sequence completed")
	e.publish(models.EventTypeSequenceCompleted, models.SequenceCompletedData{
		ExtractedData: e.state.ExtractedData(),
		Duration:      e.state.Duration(),
	})
}

// finishWithError maps a run-loop error to the terminal status it implies.
func (e *Executor) finishWithError(err error, atStep int) {
	e.session.Abort()
	if errors.Is(err, errCancelled) {
		e.state.Cancel()
		e.log.Info().Int("cancelled_at_step", atStep).Msg("sequence cancelled")
		e.publish(models.EventTypeSequenceCancelled, models.SequenceCancelledData{CancelledAtStep: atStep})
		return
	}
	e.state.Fail(err.Error(), atStep)
	e.log.Error().Err(err).Int("failed_at_step", atStep).Msg("sequence failed")
	e.publish(models.EventTypeSequenceFailed, models.SequenceFailedData{Reason: err.Error(), FailedAtStep: atStep})
}

// bringUp initiates the session and polls until it is active.
func (e *Executor) bringUp() error {
	if !e.session.Initiate(e.seq.DialCode, e.seq.ChannelSelector) {
		return fmt.Errorf("failed to initiate session with dial code %s", e.seq.DialCode)
	}
	deadline := time.Now().Add(e.cfg.BringUpTimeout)
	for !e.session.IsActive() {
		if time.Now().After(deadline) {
			return fmt.Errorf("session did not become active within %s", e.cfg.BringUpTimeout)
		}
		if err := e.sleep(e.cfg.PollInterval); err != nil {
			return err
		}
	}
	return nil
}

// runStep executes one step to success or attempt exhaustion. It returns
// false with a nil error when attempts ran out, and a non-nil error only
// for cancellation, global timeout, or a closed response stream.
func (e *Executor) runStep(step models.Step) (bool, error) {
	e.state.StartStep(step.Number)
	e.publish(models.EventTypeStepStarted, models.StepStartedData{
		StepNumber:  step.Number,
		TotalSteps:  e.seq.StepCount(),
		Description: step.Description,
	})

	stepLog := e.log.With().Int("step", step.Number).Logger()
	attempts := 1 + step.Retries
	start := time.Now()
	lastReason := ""

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := e.checkpoint(); err != nil {
			return false, err
		}
		if attempt > 1 {
			e.state.RecordRetry(step.Number)
			stepLog.Warn().Int("attempt", attempt).Str("reason", lastReason).Msg("retrying step")
			e.publish(models.EventTypeStepRetrying, models.StepRetryingData{
				StepNumber: step.Number,
				Attempt:    attempt,
				MaxRetries: step.Retries,
				Reason:     lastReason,
			})
			if err := e.sleep(e.cfg.RetryBaseDelay * time.Duration(attempt-1)); err != nil {
				return false, err
			}
		}

		response, err := e.waitResponse(step.Timeout)
		switch {
		case errors.Is(err, errResponseTimeout):
			lastReason = fmt.Sprintf("no response within %s", step.Timeout)
			stepLog.Warn().Dur("timeout", step.Timeout).Msg("step timed out waiting for response")
			e.publish(models.EventTypeStepTimeout, models.StepTimeoutData{
				StepNumber: step.Number,
				Timeout:    step.Timeout,
				WillRetry:  attempt < attempts,
			})
			continue
		case err != nil:
			return false, err
		}

		e.state.RecordResponse(step.Number, response)

		if step.Validator != nil {
			if result := step.Validator.Validate(response); !result.Valid {
				lastReason = result.Reason
				stepLog.Warn().Str("reason", result.Reason).Msg("response failed validation")
				e.publish(models.EventTypeValidationFailed, models.ValidationFailedData{
					StepNumber: step.Number,
					Response:   response,
					Reason:     result.Reason,
					WillRetry:  attempt < attempts,
				})
				continue
			}
		}

		// Extraction is best-effort: a miss is logged but never consumes
		// an attempt.
		if step.Extractor != nil {
			result := step.Extractor.Extract(response)
			if result.Found {
				key := step.OutputVar
				if key == "" {
					key = models.DefaultOutputVar
				}
				e.state.RecordExtracted(key, result.Value)
				stepLog.Debug().Str("key", key).Str("value", result.Value).Msg("extracted data")
				e.publish(models.EventTypeDataExtracted, models.DataExtractedData{
					Key:        key,
					Value:      result.Value,
					StepNumber: step.Number,
				})
			} else {
				stepLog.Debug().Str("reason", result.Reason).Msg("extraction found nothing")
			}
		}

		if step.Send != "" {
			text := e.seq.ResolveVariables(step.Send, e.state.ExtractedData())
			if !e.session.SendInput(text) {
				lastReason = "failed to send input"
				stepLog.Warn().Msg("input delivery failed")
				continue
			}
		}

		e.state.CompleteStep(step.Number, time.Since(start))
		stepLog.Info().Int("attempt", attempt).Msg("step completed")
		e.publish(models.EventTypeStepCompleted, models.StepCompletedData{
			StepNumber: step.Number,
			Response:   response,
			Duration:   time.Since(start),
		})
		e.publish(models.EventTypeProgressUpdated, models.ProgressData{
			CompletedSteps: e.state.CompletedSteps(),
			TotalSteps:     e.seq.StepCount(),
			Percent:        e.state.ProgressPercent(),
		})
		return true, nil
	}

	e.state.FailStep(step.Number, time.Since(start))
	stepLog.Error().Int("attempts", attempts).Str("reason", lastReason).Msg("step exhausted its attempts")
	e.publish(models.EventTypeStepFailed, models.StepFailedData{
		StepNumber: step.Number,
		Reason:     lastReason,
		Attempts:   attempts,
	})
	return false, nil
}

// waitResponse blocks until a response arrives, the step timeout elapses,
// or the run is interrupted. Pause time does not count against the
// timeout.
func (e *Executor) waitResponse(timeout time.Duration) (string, error) {
	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	deadline := time.Now().Add(timeout)
	for {
		before := time.Now()
		if err := e.checkpoint(); err != nil {
			return "", err
		}
		if blocked := time.Since(before); blocked > e.cfg.PollInterval {
			deadline = deadline.Add(blocked)
		}
		if time.Now().After(deadline) {
			return "", errResponseTimeout
		}

		select {
		case response, ok := <-e.session.Responses():
			if !ok {
				return "", errResponsesClosed
			}
			return response, nil
		case <-ticker.C:
		}
	}
}

// sleep waits for d while honoring checkpoints, so a cancellation during
// backoff takes effect within one poll interval.
func (e *Executor) sleep(d time.Duration) error {
	deadline := time.Now().Add(d)
	for {
		if err := e.checkpoint(); err != nil {
			return err
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil
		}
		if remaining > e.cfg.PollInterval {
			remaining = e.cfg.PollInterval
		}
		time.Sleep(remaining)
	}
}

// checkpoint blocks while paused, then reports cancellation or global
// timeout. Time spent paused is credited back to the run deadline.
func (e *Executor) checkpoint() error {
	var pausedAt time.Time
	e.mu.Lock()
	for e.paused && !e.cancelled {
		if pausedAt.IsZero() {
			pausedAt = time.Now()
		}
		e.cond.Wait()
	}
	cancelled := e.cancelled
	e.mu.Unlock()

	if !pausedAt.IsZero() {
		e.deadline = e.deadline.Add(time.Since(pausedAt))
	}
	if cancelled {
		return errCancelled
	}
	if time.Now().After(e.deadline) {
		return errGlobalTimeout
	}
	return nil
}

func (e *Executor) publish(eventType models.EventType, data any) {
	e.notifier.Publish(models.NewEvent(eventType, e.state.SessionID(), data))
}
