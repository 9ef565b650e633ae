package channel

import (
	"sync"
)

// Scripted is a Session that replays a fixed list of responses. The first
// response is emitted when the session is initiated and one further
// response after each input sent, mimicking a menu that renders a new
// screen per input. Used by dry-runs and tests.
type Scripted struct {
	mu      sync.Mutex
	replies []string
	next    int
	active  bool
	sent    []string

	responses chan string
}

// NewScripted builds a scripted session over the given ordered replies.
func NewScripted(replies ...string) *Scripted {
	return &Scripted{
		replies:   append([]string(nil), replies...),
		responses: make(chan string, len(replies)+1),
	}
}

// Initiate activates the session and emits the first scripted reply.
// Fails when a session is already active.
func (s *Scripted) Initiate(code string, selector int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return false
	}
	s.active = true
	s.emit()
	return true
}

// SendInput records the input and emits the next scripted reply.
func (s *Scripted) SendInput(text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return false
	}
	s.sent = append(s.sent, text)
	s.emit()
	return true
}

// Abort deactivates the session.
func (s *Scripted) Abort() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = false
	return true
}

// IsActive reports whether the session has been initiated and not aborted.
func (s *Scripted) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Responses returns the scripted reply stream.
func (s *Scripted) Responses() <-chan string {
	return s.responses
}

// Sent returns a copy of every input delivered so far, in order.
func (s *Scripted) Sent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

func (s *Scripted) emit() {
	if s.next >= len(s.replies) {
		return
	}
	s.responses <- s.replies[s.next]
	s.next++
}
