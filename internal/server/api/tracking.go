package api

import (
	"encoding/json"
	"net/http"
)

type trackingRequest struct {
	Enabled *bool `json:"enabled"`
}

type trackingResponse struct {
	Enabled bool   `json:"enabled"`
	Status  string `json:"status"`
}

// TrackingHandler serves /api/tracking, which enables and disables the
// gesture subsystem.
type TrackingHandler struct {
	ctrl Controller
}

// NewTrackingHandler creates a TrackingHandler.
func NewTrackingHandler(ctrl Controller) *TrackingHandler {
	return &TrackingHandler{ctrl: ctrl}
}

// ServeHTTP handles GET and POST.
func (h *TrackingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.respond(w, http.StatusOK)
	case http.MethodPost:
		var req trackingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if req.Enabled == nil {
			writeError(w, http.StatusBadRequest, "enabled is required")
			return
		}
		if err := h.ctrl.SetTracking(*req.Enabled); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, struct {
				trackingResponse
				Error string `json:"error"`
			}{
				trackingResponse{Enabled: h.ctrl.Tracking(), Status: h.ctrl.Status()},
				err.Error(),
			})
			return
		}
		h.respond(w, http.StatusOK)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *TrackingHandler) respond(w http.ResponseWriter, status int) {
	writeJSON(w, status, trackingResponse{Enabled: h.ctrl.Tracking(), Status: h.ctrl.Status()})
}
