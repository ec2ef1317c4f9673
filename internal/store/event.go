package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// DefaultEventLimit caps List when no limit is given.
const DefaultEventLimit = 100

// Event is one journaled assembly state change.
type Event struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Source    string    `json:"source"`
	Assembled bool      `json:"assembled"`
	Seq       uint64    `json:"seq"`
	CreatedAt time.Time `json:"created_at"`
}

// EventRepository provides access to the state journal.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Record inserts e. ID and CreatedAt are filled in when empty.
func (r *EventRepository) Record(e *Event) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(
		`INSERT INTO events (id, session_id, source, assembled, seq, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.SessionID, e.Source, e.Assembled, int64(e.Seq), e.CreatedAt,
	)
	return err
}

// List returns the most recent events across all sessions, newest first.
func (r *EventRepository) List(limit int) ([]*Event, error) {
	if limit <= 0 {
		limit = DefaultEventLimit
	}
	rows, err := r.db.Query(
		`SELECT id, session_id, source, assembled, seq, created_at
		 FROM events ORDER BY created_at DESC, seq DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	return scanEvents(rows)
}

// ListBySession returns a session's events in write order.
func (r *EventRepository) ListBySession(sessionID string) ([]*Event, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, source, assembled, seq, created_at
		 FROM events WHERE session_id = ? ORDER BY seq ASC`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]*Event, error) {
	defer rows.Close()

	events := []*Event{}
	for rows.Next() {
		e := &Event{}
		var assembled int
		var seq int64
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Source, &assembled, &seq, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Assembled = assembled != 0
		e.Seq = uint64(seq)
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
