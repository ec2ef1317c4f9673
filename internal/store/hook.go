package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Hook events.
const (
	EventAssembled = "assembled"
	EventScattered = "scattered"
)

// ErrInvalidEvent is returned for hooks bound to an unknown event.
var ErrInvalidEvent = errors.New("invalid hook event")

// Hook binds a state transition to a plugin action.
type Hook struct {
	ID         string          `json:"id"`
	Event      string          `json:"event"`
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config,omitempty"`
	Enabled    bool            `json:"enabled"`
	CreatedAt  time.Time       `json:"created_at"`
}

// EventFor names the hook event for an assembly value.
func EventFor(assembled bool) string {
	if assembled {
		return EventAssembled
	}
	return EventScattered
}

func validEvent(e string) error {
	if e != EventAssembled && e != EventScattered {
		return fmt.Errorf("%w: %q", ErrInvalidEvent, e)
	}
	return nil
}

// HookRepository provides CRUD operations for hooks.
type HookRepository struct {
	db *sql.DB
}

// Hooks returns the hook repository for this store.
func (s *Store) Hooks() *HookRepository {
	return &HookRepository{db: s.db}
}

// Create inserts a new hook. An empty ID is generated.
func (r *HookRepository) Create(h *Hook) error {
	if err := validEvent(h.Event); err != nil {
		return err
	}
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	h.CreatedAt = time.Now().UTC()

	_, err := r.db.Exec(
		`INSERT INTO hooks (id, event, plugin_name, action_name, config, enabled, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.Event, h.PluginName, h.ActionName, string(configOrEmpty(h.Config)), h.Enabled, h.CreatedAt,
	)
	return err
}

// GetByID retrieves a hook by its ID.
func (r *HookRepository) GetByID(id string) (*Hook, error) {
	h := &Hook{}
	var config string
	var enabled int

	err := r.db.QueryRow(
		`SELECT id, event, plugin_name, action_name, config, enabled, created_at
		 FROM hooks WHERE id = ?`,
		id,
	).Scan(&h.ID, &h.Event, &h.PluginName, &h.ActionName, &config, &enabled, &h.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	h.Config = json.RawMessage(config)
	h.Enabled = enabled != 0
	return h, nil
}

// List retrieves all hooks, oldest first.
func (r *HookRepository) List() ([]*Hook, error) {
	rows, err := r.db.Query(
		`SELECT id, event, plugin_name, action_name, config, enabled, created_at
		 FROM hooks ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	return scanHooks(rows)
}

// ListEnabled retrieves the enabled hooks bound to event.
func (r *HookRepository) ListEnabled(event string) ([]*Hook, error) {
	rows, err := r.db.Query(
		`SELECT id, event, plugin_name, action_name, config, enabled, created_at
		 FROM hooks WHERE event = ? AND enabled = 1 ORDER BY created_at ASC`,
		event,
	)
	if err != nil {
		return nil, err
	}
	return scanHooks(rows)
}

// Update updates an existing hook.
func (r *HookRepository) Update(h *Hook) error {
	if err := validEvent(h.Event); err != nil {
		return err
	}

	enabled := 0
	if h.Enabled {
		enabled = 1
	}

	result, err := r.db.Exec(
		`UPDATE hooks SET event = ?, plugin_name = ?, action_name = ?, config = ?, enabled = ?
		 WHERE id = ?`,
		h.Event, h.PluginName, h.ActionName, string(configOrEmpty(h.Config)), enabled, h.ID,
	)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// Delete removes a hook by its ID.
func (r *HookRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM hooks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

func configOrEmpty(c json.RawMessage) json.RawMessage {
	if len(c) == 0 {
		return json.RawMessage("{}")
	}
	return c
}

func scanHooks(rows *sql.Rows) ([]*Hook, error) {
	defer rows.Close()

	hooks := []*Hook{}
	for rows.Next() {
		h := &Hook{}
		var config string
		var enabled int

		if err := rows.Scan(&h.ID, &h.Event, &h.PluginName, &h.ActionName, &config, &enabled, &h.CreatedAt); err != nil {
			return nil, err
		}
		h.Config = json.RawMessage(config)
		h.Enabled = enabled != 0
		hooks = append(hooks, h)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return hooks, nil
}
