// Package plugin discovers external plugin executables and runs them when
// sessions complete.
package plugin

import (
	"encoding/json"
	"slices"

	"github.com/ayusman/posecoach/internal/session"
)

// ActionSessionComplete is sent when a session finishes with status completed.
const ActionSessionComplete = "session_complete"

// Manifest describes a plugin's metadata and capabilities.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Actions      []string        `json:"actions"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// Supports reports whether the plugin advertises action.
func (m Manifest) Supports(action string) bool {
	return slices.Contains(m.Actions, action)
}

// Request represents a request sent to a plugin on stdin.
type Request struct {
	Action  string          `json:"action"`
	Session *session.Record `json:"session,omitempty"`
	Config  json.RawMessage `json:"config"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response represents the response a plugin writes to stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}
