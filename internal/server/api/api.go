// Package api provides the HTTP handlers for controlling the gift tree.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/giftwrap/internal/config"
)

// Controller is the manual control surface of the running application.
type Controller interface {
	Assembled() bool
	// SetAssembled writes the state as a manual source and reports whether
	// it changed.
	SetAssembled(assembled bool) bool
	Toggle() bool

	Tracking() bool
	SetTracking(enabled bool) error
	Status() string

	Tunables() config.Tunables
	SetTunables(t config.Tunables) error
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
