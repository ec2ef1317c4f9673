package api

import (
	"encoding/json"
	"net/http"
)

// SettingsHandler serves /api/settings. PUT accepts a partial body; fields
// left out keep their current value.
type SettingsHandler struct {
	ctrl Controller
}

// NewSettingsHandler creates a SettingsHandler.
func NewSettingsHandler(ctrl Controller) *SettingsHandler {
	return &SettingsHandler{ctrl: ctrl}
}

// ServeHTTP handles GET and PUT.
func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.ctrl.Tunables())
	case http.MethodPut:
		t := h.ctrl.Tunables()
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if err := t.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := h.ctrl.SetTunables(t); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save settings")
			return
		}
		writeJSON(w, http.StatusOK, h.ctrl.Tunables())
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
