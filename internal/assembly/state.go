// Package assembly holds the process-wide assembled/scattered flag.
package assembly

import "sync"

// Source identifies who wrote the state.
type Source string

const (
	// SourceGesture is the debounced hand-gesture signal.
	SourceGesture Source = "gesture"
	// SourceManual is a user toggle (API, tray, terminal).
	SourceManual Source = "manual"
)

// Change describes one transition of the state.
type Change struct {
	Assembled bool
	Source    Source
	Seq       uint64
}

// State is the single assembled/scattered flag shared by the gesture
// subsystem, the manual controls and every animation step. The last write
// wins.
type State struct {
	mu          sync.RWMutex
	assembled   bool
	seq         uint64
	subscribers []func(Change)

	// notifyMu orders subscriber callbacks in write order without holding mu.
	notifyMu sync.Mutex
}

// New creates a State. Applications start assembled.
func New(assembled bool) *State {
	return &State{assembled: assembled}
}

// Assembled returns the current value.
func (s *State) Assembled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.assembled
}

// Seq returns the number of transitions applied so far.
func (s *State) Seq() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seq
}

// Subscribe registers fn to be called after every real transition.
// Callbacks run on the writer's goroutine and must not block.
func (s *State) Subscribe(fn func(Change)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// SetAssembled writes v. It reports whether the value changed; writing the
// current value is a no-op and notifies nobody.
func (s *State) SetAssembled(v bool, src Source) bool {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if s.assembled == v {
		s.mu.Unlock()
		return false
	}
	change, subs := s.apply(v, src)
	s.mu.Unlock()

	notify(subs, change)
	return true
}

// Toggle flips the value unconditionally and returns the new value.
func (s *State) Toggle(src Source) bool {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	change, subs := s.apply(!s.assembled, src)
	s.mu.Unlock()

	notify(subs, change)
	return change.Assembled
}

// apply must be called with mu held.
func (s *State) apply(v bool, src Source) (Change, []func(Change)) {
	s.assembled = v
	s.seq++
	subs := make([]func(Change), len(s.subscribers))
	copy(subs, s.subscribers)
	return Change{Assembled: v, Source: src, Seq: s.seq}, subs
}

func notify(subs []func(Change), change Change) {
	for _, fn := range subs {
		fn(change)
	}
}
