package api

import (
	"net/http"
	"strconv"

	"github.com/ayusman/giftwrap/internal/store"
)

// MaxEventLimit bounds the limit query parameter.
const MaxEventLimit = 1000

type listEventsResponse struct {
	Events []*store.Event `json:"events"`
}

// EventHandler serves the state journal at /api/events.
type EventHandler struct {
	store *store.Store
}

// NewEventHandler creates an EventHandler with the given store.
func NewEventHandler(s *store.Store) *EventHandler {
	return &EventHandler{store: s}
}

// ServeHTTP handles GET /api/events?limit=N or ?session=ID.
func (h *EventHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	if session := q.Get("session"); session != "" {
		events, err := h.store.Events().ListBySession(session)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to list events")
			return
		}
		writeJSON(w, http.StatusOK, listEventsResponse{Events: events})
		return
	}

	limit := store.DefaultEventLimit
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > MaxEventLimit {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}

	events, err := h.store.Events().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list events")
		return
	}
	writeJSON(w, http.StatusOK, listEventsResponse{Events: events})
}
