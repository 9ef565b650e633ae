package executor

import (
	"sync"
	"sync/atomic"

	"github.com/menuflow/menuflow/internal/logging"
	"github.com/menuflow/menuflow/internal/models"
	"github.com/rs/zerolog"
)

// DefaultEventBuffer is the notifier channel capacity when the caller does
// not choose one.
const DefaultEventBuffer = 64

// Handler receives published events on the notifier's delivery goroutine.
type Handler func(models.Event)

// Notifier delivers events to a single handler asynchronously. Publishing
// never blocks the caller; events are dropped when the buffer is full. A
// panicking handler is recovered and logged so event delivery cannot take
// down an execution.
type Notifier struct {
	log     zerolog.Logger
	events  chan models.Event
	done    chan struct{}
	dropped atomic.Uint64

	closeOnce sync.Once
}

// NewNotifier starts the delivery goroutine for the given handler. A
// buffer of zero or less selects DefaultEventBuffer.
func NewNotifier(handler Handler, buffer int) *Notifier {
	if buffer <= 0 {
		buffer = DefaultEventBuffer
	}
	n := &Notifier{
		log:    logging.Component("notifier"),
		events: make(chan models.Event, buffer),
		done:   make(chan struct{}),
	}
	go n.deliver(handler)
	return n
}

// Publish enqueues an event for delivery. Safe on a nil notifier and after
// Close; both are no-ops.
func (n *Notifier) Publish(event models.Event) {
	if n == nil {
		return
	}
	select {
	case n.events <- event:
	default:
		n.dropped.Add(1)
		n.log.Warn().Str("event_type", string(event.Type)).Msg("event buffer full, dropping event")
	}
}

// Dropped returns how many events were discarded because the buffer was
// full.
func (n *Notifier) Dropped() uint64 {
	if n == nil {
		return 0
	}
	return n.dropped.Load()
}

// Close stops accepting events and waits for buffered ones to be
// delivered. Safe on a nil notifier and when called more than once.
func (n *Notifier) Close() {
	if n == nil {
		return
	}
	n.closeOnce.Do(func() {
		close(n.events)
	})
	<-n.done
}

func (n *Notifier) deliver(handler Handler) {
	defer close(n.done)
	for event := range n.events {
		n.handle(handler, event)
	}
}

func (n *Notifier) handle(handler Handler, event models.Event) {
	defer func() {
		if r := recover(); r != nil {
			n.log.Error().Interface("panic", r).Str("event_type", string(event.Type)).Msg("event handler panicked")
		}
	}()
	handler(event)
}
