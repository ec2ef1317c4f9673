package api

import (
	"encoding/json"
	"net/http"
)

// StateResponse is the body of every state endpoint.
type StateResponse struct {
	Assembled bool   `json:"assembled"`
	Tracking  bool   `json:"tracking"`
	Status    string `json:"status"`
}

type setStateRequest struct {
	Assembled *bool `json:"assembled"`
}

// StateHandler serves /api/state and /api/state/toggle.
type StateHandler struct {
	ctrl Controller
}

// NewStateHandler creates a StateHandler.
func NewStateHandler(ctrl Controller) *StateHandler {
	return &StateHandler{ctrl: ctrl}
}

func (h *StateHandler) snapshot() StateResponse {
	return StateResponse{
		Assembled: h.ctrl.Assembled(),
		Tracking:  h.ctrl.Tracking(),
		Status:    h.ctrl.Status(),
	}
}

// ServeHTTP routes state requests.
func (h *StateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/state":
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, h.snapshot())
		case http.MethodPut:
			h.set(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case "/api/state/toggle":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.ctrl.Toggle()
		writeJSON(w, http.StatusOK, h.snapshot())
	default:
		http.NotFound(w, r)
	}
}

func (h *StateHandler) set(w http.ResponseWriter, r *http.Request) {
	var req setStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Assembled == nil {
		writeError(w, http.StatusBadRequest, "assembled is required")
		return
	}

	h.ctrl.SetAssembled(*req.Assembled)
	writeJSON(w, http.StatusOK, h.snapshot())
}
