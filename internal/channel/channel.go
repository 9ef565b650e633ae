// Package channel defines the abstract collaborator carrying a live
// interactive session, plus a scripted implementation for dry-runs and
// tests.
//
// The real transport (how a session is dialed, how input reaches it, how
// response text is captured) is platform-specific and lives outside this
// module. One channel carries at most one active session at a time.
package channel

// Channel is the external session transport.
type Channel interface {
	// Initiate opens a session with the given dial code on the selected
	// underlying channel. Returns false when the session could not be
	// started.
	Initiate(code string, selector int) bool

	// SendInput delivers text into the active session. Returns false on
	// delivery failure.
	SendInput(text string) bool

	// Abort terminates the active session.
	Abort() bool

	// IsActive reports whether a session is currently live. Used during
	// bring-up polling.
	IsActive() bool
}

// Responder exposes the inbound "text observed" event stream. Each element
// is one captured response; the executor consumes exactly one per step
// attempt.
type Responder interface {
	// Responses returns the stream of observed response text.
	Responses() <-chan string
}

// Session combines the outbound transport with the inbound response
// stream.
type Session interface {
	Channel
	Responder
}
