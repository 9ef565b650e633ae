package executor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/menuflow/menuflow/internal/extract"
	"github.com/menuflow/menuflow/internal/models"
	"github.com/menuflow/menuflow/internal/validation"
	"github.com/stretchr/testify/require"
)

// fakeSession is a controllable Session: tests push responses directly and
// decide whether initiation and sends succeed.
type fakeSession struct {
	mu        sync.Mutex
	responses chan string
	active    bool
	initiated int
	aborted   int
	sent      []string

	initiateOK bool
	failSends  int
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		responses:  make(chan string, 16),
		initiateOK: true,
	}
}

func (f *fakeSession) Initiate(code string, selector int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initiated++
	f.active = f.initiateOK
	return f.initiateOK
}

func (f *fakeSession) SendInput(text string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSends > 0 {
		f.failSends--
		return false
	}
	f.sent = append(f.sent, text)
	return true
}

func (f *fakeSession) Abort() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active = false
	f.aborted++
	return true
}

func (f *fakeSession) IsActive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

func (f *fakeSession) Responses() <-chan string {
	return f.responses
}

func (f *fakeSession) push(response string) {
	f.responses <- response
}

func (f *fakeSession) sentInputs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func (f *fakeSession) abortCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.aborted
}

func (f *fakeSession) initiateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.initiated
}

// eventRecorder collects notifier deliveries for assertions.
type eventRecorder struct {
	mu     sync.Mutex
	events []models.Event
}

func (r *eventRecorder) handle(event models.Event) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

func (r *eventRecorder) count(eventType models.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, event := range r.events {
		if event.Type == eventType {
			n++
		}
	}
	return n
}

func (r *eventRecorder) has(eventType models.EventType) bool {
	return r.count(eventType) > 0
}

func fastConfig() Config {
	return Config{
		BringUpTimeout: 200 * time.Millisecond,
		PollInterval:   5 * time.Millisecond,
		RetryBaseDelay: 10 * time.Millisecond,
	}
}

func simpleSequence(steps ...models.Step) models.Sequence {
	return models.NewSequence(models.SequenceConfig{
		Name:          "test",
		DialCode:      "*123#",
		Steps:         steps,
		GlobalTimeout: 10 * time.Second,
	})
}

func TestExecutorRunsSequenceToCompletion(t *testing.T) {
	session := newFakeSession()
	session.push("Welcome menu")
	session.push("Choose option")
	session.push("Your balance is 500 RWF")

	seq := simpleSequence(
		models.Step{Send: "1", Timeout: time.Second},
		models.Step{Send: "2", Timeout: time.Second},
		models.Step{Timeout: time.Second, Extractor: extract.FullResponse{}, OutputVar: "result"},
	)

	recorder := &eventRecorder{}
	notifier := NewNotifier(recorder.handle, 0)
	exec := New(seq, session, notifier, fastConfig())

	status, err := exec.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, models.SessionStatusCompleted, status)
	notifier.Close()

	state := exec.State()
	require.Equal(t, 3, state.CompletedSteps())
	require.Equal(t, 100, state.ProgressPercent())
	require.Equal(t, []string{"1", "2"}, session.sentInputs())
	require.Equal(t, 1, session.abortCount())

	value, ok := state.Extracted("result")
	require.True(t, ok)
	require.Equal(t, "Your balance is 500 RWF", value)

	require.True(t, recorder.has(models.EventTypeSequenceStarted))
	require.Equal(t, 3, recorder.count(models.EventTypeStepCompleted))
	require.True(t, recorder.has(models.EventTypeDataExtracted))
	require.True(t, recorder.has(models.EventTypeSequenceCompleted))
}

func TestExecutorRetriesOnValidationFailure(t *testing.T) {
	session := newFakeSession()
	session.push("garbage")
	session.push("main menu")

	validator, err := validation.NewKeywords(false, false, "menu")
	require.NoError(t, err)

	seq := simpleSequence(models.Step{
		Send:      "1",
		Timeout:   time.Second,
		Retries:   2,
		Validator: validator,
	})

	recorder := &eventRecorder{}
	notifier := NewNotifier(recorder.handle, 0)
	exec := New(seq, session, notifier, fastConfig())

	status, err := exec.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, models.SessionStatusCompleted, status)
	notifier.Close()

	record, ok := exec.State().StepRecord(1)
	require.True(t, ok)
	require.True(t, record.Success)
	require.Equal(t, 1, record.Retries)
	require.Equal(t, 1, recorder.count(models.EventTypeValidationFailed))
	require.Equal(t, 1, recorder.count(models.EventTypeStepRetrying))
}

func TestExecutorStepTimeoutExhaustsAttempts(t *testing.T) {
	session := newFakeSession()

	seq := models.NewSequence(models.SequenceConfig{
		Name:          "timeouts",
		DialCode:      "*123#",
		GlobalTimeout: 10 * time.Second,
		StopOnError:   true,
		Steps: []models.Step{
			{Send: "1", Timeout: 30 * time.Millisecond, Retries: 1},
		},
	})

	recorder := &eventRecorder{}
	notifier := NewNotifier(recorder.handle, 0)
	exec := New(seq, session, notifier, fastConfig())

	status, err := exec.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, models.SessionStatusFailed, status)
	notifier.Close()

	state := exec.State()
	require.Equal(t, 1, state.FailedAtStep())

	record, ok := state.StepRecord(1)
	require.True(t, ok)
	require.False(t, record.Success)
	require.Equal(t, 1, record.Retries)

	require.Equal(t, 2, recorder.count(models.EventTypeStepTimeout))
	require.Equal(t, 1, recorder.count(models.EventTypeStepFailed))
	require.True(t, recorder.has(models.EventTypeSequenceFailed))
}

func TestExecutorContinuesPastFailedStepWithoutStopOnError(t *testing.T) {
	session := newFakeSession()
	session.failSends = 1
	session.push("first screen")
	session.push("second screen")

	seq := simpleSequence(
		models.Step{Send: "1", Timeout: time.Second},
		models.Step{Send: "2", Timeout: time.Second},
	)

	exec := New(seq, session, nil, fastConfig())
	status, err := exec.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, models.SessionStatusCompleted, status)

	state := exec.State()
	require.Equal(t, 1, state.CompletedSteps())
	record, ok := state.StepRecord(1)
	require.True(t, ok)
	require.False(t, record.Success)
	require.Equal(t, []string{"2"}, session.sentInputs())
}

func TestExecutorCancel(t *testing.T) {
	session := newFakeSession()

	seq := simpleSequence(models.Step{Send: "1", Timeout: 10 * time.Second})

	recorder := &eventRecorder{}
	notifier := NewNotifier(recorder.handle, 0)
	exec := New(seq, session, notifier, fastConfig())
	require.NoError(t, exec.Start(context.Background()))

	time.Sleep(50 * time.Millisecond)
	exec.Cancel()

	select {
	case <-exec.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("executor did not stop after cancel")
	}
	notifier.Close()

	require.Equal(t, models.SessionStatusCancelled, exec.State().Status())
	require.Equal(t, 1, session.abortCount())
	require.True(t, recorder.has(models.EventTypeSequenceCancelled))
}

func TestExecutorContextCancellation(t *testing.T) {
	session := newFakeSession()
	seq := simpleSequence(models.Step{Send: "1", Timeout: 10 * time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	exec := New(seq, session, nil, fastConfig())
	require.NoError(t, exec.Start(ctx))

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-exec.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("executor did not stop after context cancellation")
	}
	require.Equal(t, models.SessionStatusCancelled, exec.State().Status())
}

func TestExecutorPauseBlocksProgress(t *testing.T) {
	session := newFakeSession()
	seq := simpleSequence(models.Step{Send: "1", Timeout: 10 * time.Second})

	exec := New(seq, session, nil, fastConfig())
	require.NoError(t, exec.Start(context.Background()))

	require.Eventually(t, func() bool {
		return exec.State().Status() == models.SessionStatusRunning
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, exec.Pause())

	// A response arriving while paused must not be consumed.
	session.push("menu")
	time.Sleep(100 * time.Millisecond)
	require.Empty(t, session.sentInputs())
	require.Equal(t, models.SessionStatusPaused, exec.State().Status())

	require.NoError(t, exec.Resume())
	select {
	case <-exec.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("executor did not finish after resume")
	}
	require.Equal(t, models.SessionStatusCompleted, exec.State().Status())
	require.Equal(t, []string{"1"}, session.sentInputs())
}

func TestExecutorVariableSubstitution(t *testing.T) {
	session := newFakeSession()
	session.push("Enter code 4321 to continue")
	session.push("Enter phone")

	seq := models.NewSequence(models.SequenceConfig{
		Name:          "vars",
		DialCode:      "*123#",
		GlobalTimeout: 10 * time.Second,
		Variables:     map[string]string{"phone": "0781234567"},
		Steps: []models.Step{
			{Timeout: time.Second, Extractor: mustDigitCode(t), OutputVar: "code"},
			{Send: "{{phone}}#{{code}}", Timeout: time.Second},
		},
	})

	exec := New(seq, session, nil, fastConfig())
	status, err := exec.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, models.SessionStatusCompleted, status)
	require.Equal(t, []string{"0781234567#4321"}, session.sentInputs())
}

func mustDigitCode(t *testing.T) *extract.DigitCode {
	t.Helper()
	d, err := extract.NewDigitCode(4, 8)
	require.NoError(t, err)
	return d
}

func TestExecutorRetriesFailedSend(t *testing.T) {
	session := newFakeSession()
	session.failSends = 1
	session.push("first try")
	session.push("second try")

	seq := simpleSequence(models.Step{Send: "1", Timeout: time.Second, Retries: 1})

	exec := New(seq, session, nil, fastConfig())
	status, err := exec.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, models.SessionStatusCompleted, status)

	record, ok := exec.State().StepRecord(1)
	require.True(t, ok)
	require.Equal(t, 1, record.Retries)
	require.Equal(t, []string{"1"}, session.sentInputs())
}

func TestExecutorInvalidSequenceFailsBeforeDialing(t *testing.T) {
	session := newFakeSession()
	seq := models.NewSequence(models.SequenceConfig{Name: "broken"})

	recorder := &eventRecorder{}
	notifier := NewNotifier(recorder.handle, 0)
	exec := New(seq, session, notifier, fastConfig())

	status, err := exec.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, models.SessionStatusFailed, status)
	notifier.Close()

	require.Equal(t, 0, session.initiateCount())
	require.True(t, recorder.has(models.EventTypeSequenceFailed))
	require.False(t, recorder.has(models.EventTypeSequenceStarted))
}

func TestExecutorBringUpFailure(t *testing.T) {
	session := newFakeSession()
	session.initiateOK = false

	seq := simpleSequence(models.Step{Send: "1", Timeout: time.Second})

	exec := New(seq, session, nil, fastConfig())
	status, err := exec.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, models.SessionStatusFailed, status)
	require.Contains(t, exec.State().LastError(), "initiate")
}

func TestExecutorGlobalTimeout(t *testing.T) {
	session := newFakeSession()

	seq := models.NewSequence(models.SequenceConfig{
		Name:          "slow",
		DialCode:      "*123#",
		GlobalTimeout: 60 * time.Millisecond,
		Steps: []models.Step{
			{Send: "1", Timeout: 10 * time.Second},
		},
	})

	exec := New(seq, session, nil, fastConfig())
	status, err := exec.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, models.SessionStatusFailed, status)
	require.Contains(t, exec.State().LastError(), "global timeout")
}

func TestExecutorStartTwice(t *testing.T) {
	session := newFakeSession()
	session.push("only screen")
	seq := simpleSequence(models.Step{Send: "1", Timeout: time.Second})

	exec := New(seq, session, nil, fastConfig())
	require.NoError(t, exec.Start(context.Background()))
	require.ErrorIs(t, exec.Start(context.Background()), ErrAlreadyStarted)
	<-exec.Done()
}

func TestNotifierRecoversPanickingHandler(t *testing.T) {
	calls := 0
	notifier := NewNotifier(func(event models.Event) {
		calls++
		if calls == 1 {
			panic("handler exploded")
		}
	}, 0)

	notifier.Publish(models.NewEvent(models.EventTypeStepStarted, "s", nil))
	notifier.Publish(models.NewEvent(models.EventTypeStepCompleted, "s", nil))
	notifier.Close()

	require.Equal(t, 2, calls)
}
