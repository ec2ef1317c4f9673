// Package plugin discovers external hook plugins and runs them when the
// tree assembles or scatters.
package plugin

import (
	"encoding/json"
	"slices"
)

// Manifest describes a plugin's metadata and capabilities.
type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Executable  string   `json:"executable"`
	Actions     []string `json:"actions"`
	// Events restricts the plugin to "assembled" or "scattered". Empty
	// means both.
	Events       []string        `json:"events,omitempty"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// HasAction reports whether the plugin declares action.
func (m Manifest) HasAction(action string) bool {
	return slices.Contains(m.Actions, action)
}

// Handles reports whether the plugin accepts event.
func (m Manifest) Handles(event string) bool {
	return len(m.Events) == 0 || slices.Contains(m.Events, event)
}

// Request is written to the plugin's stdin as JSON.
type Request struct {
	Action    string          `json:"action"`
	Event     string          `json:"event"`
	Assembled bool            `json:"assembled"`
	Source    string          `json:"source"`
	Seq       uint64          `json:"seq"`
	SessionID string          `json:"session_id,omitempty"`
	Config    json.RawMessage `json:"config"`
}

// Response is read from the plugin's stdout.
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
