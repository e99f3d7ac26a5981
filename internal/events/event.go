package events

// Wire event types understood by the desktop UI.
const (
	TypeData   = "pty:data"
	TypeStatus = "pty:status"
)

// Status values carried by status events.
const (
	StatusStopped = "stopped"
	StatusError   = "error"
)

// DataEvent carries a chunk of decoded terminal output for one session.
type DataEvent struct {
	Type      string `json:"type"`
	SessionID uint64 `json:"sessionId"`
	Data      string `json:"data"`
}

// StatusEvent reports that a session stopped cleanly or failed. It is
// emitted exactly once per session, when its output pump exits.
type StatusEvent struct {
	Type         string `json:"type"`
	SessionID    uint64 `json:"sessionId"`
	Status       string `json:"status"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// Emitter publishes session events toward the UI. Emission is
// fire-and-forget: implementations never block the caller and make no
// delivery guarantee beyond best effort. Every event carries the session
// id so consumers can discard events for ids they no longer track.
type Emitter interface {
	EmitData(sessionID uint64, data string)
	EmitStatus(sessionID uint64, status, errorMessage string)
}
