// Package wire defines the WebSocket protocol for driving a wizard
// session interactively: one connection owns one session, every edit is
// acknowledged with the refreshed state, and submit ends the session.
package wire

import (
	"encoding/json"

	"github.com/freightwise/cargodesk/internal/wizard"
)

// ── Client → Server messages ────────────────────────────────────────────────

// ClientMessage is the envelope for all client-to-server WebSocket messages.
type ClientMessage struct {
	Type string          `json:"type"` // "open", "initialize", "set_field", "set_item_field", "add_item", "remove_item", "next", "prev", "goto", "snapshot", "restore", "submit", "ping"
	ID   string          `json:"id"`   // Client-assigned request ID
	Data json.RawMessage `json:"data,omitempty"`
}

// OpenData is the payload for "open" messages. Edit/View sessions may
// carry the fetched resource inline; otherwise the session stays
// uninitialized until an "initialize" message delivers it.
type OpenData struct {
	WizardType string                       `json:"wizard_type"`
	Mode       string                       `json:"mode"`
	ResourceID string                       `json:"resource_id,omitempty"`
	Sections   map[string]map[string]any    `json:"sections,omitempty"`
	Lists      map[string][]wizard.LineItem `json:"lists,omitempty"`
}

// SetFieldData is the payload for "set_field" messages.
type SetFieldData struct {
	Section string `json:"section"`
	Field   string `json:"field"`
	Value   any    `json:"value"`
}

// ItemData addresses a list row for "add_item", "remove_item", and
// "set_item_field" messages. Field and Value apply to the latter only.
type ItemData struct {
	List  string `json:"list"`
	Index int    `json:"index"`
	Field string `json:"field,omitempty"`
	Value any    `json:"value,omitempty"`
}

// GotoData is the payload for "goto" messages.
type GotoData struct {
	Step int `json:"step"`
}

// SnapshotData is the payload for "snapshot" messages.
type SnapshotData struct {
	ReturnContext map[string]any `json:"return_context,omitempty"`
}

// ── Server → Client messages ────────────────────────────────────────────────

// ServerMessage is the envelope for all server-to-client WebSocket messages.
type ServerMessage struct {
	Type      string `json:"type"`                 // "session", "state", "errors", "snapshot", "done", "error", "pong"
	RequestID string `json:"request_id,omitempty"` // Echoes client ID
	Data      any    `json:"data,omitempty"`
}

// SessionData announces the session opened for this connection.
type SessionData struct {
	SessionID  string `json:"session_id"`
	WizardType string `json:"wizard_type"`
	Mode       string `json:"mode"`
}

// StateData carries the full session state after a mutation.
type StateData struct {
	ActiveStep   int                       `json:"active_step"`
	RemountToken int                       `json:"remount_token"`
	Initialized  bool                      `json:"initialized"`
	Sections     map[string]SectionState   `json:"sections"`
	Lists        map[string][]wizard.LineItem `json:"lists"`
}

// SectionState is one section's values and field errors.
type SectionState struct {
	Values map[string]any    `json:"values"`
	Errors map[string]string `json:"errors,omitempty"`
}

// ErrorsData carries validation errors from a gated step or submit.
type ErrorsData struct {
	Errors []wizard.FieldError `json:"errors"`
}

// DoneData signals a successful submission.
type DoneData struct {
	ResourceID string `json:"resource_id"`
	Redirect   string `json:"redirect"`
}

// ErrorData carries a protocol or engine error.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
