// Package tray provides the system tray menu for giftwrap: wrap/unwrap,
// gesture tracking and the live gesture status.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle   func()
	onTracking func(enabled bool)
	onOpen     func()
	onQuit     func()

	mu        sync.RWMutex
	assembled bool
	tracking  bool
	status    string

	// Menu items stored for later updates
	menuToggle   *systray.MenuItem
	menuTracking *systray.MenuItem
	menuStatus   *systray.MenuItem
}

// New creates a Tray showing an assembled tree with tracking off.
func New() *Tray {
	return &Tray{assembled: true, status: "camera off"}
}

// OnToggle sets the callback for the wrap/unwrap item.
func (t *Tray) OnToggle(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnTracking sets the callback for the gesture tracking item. It receives
// the requested state.
func (t *Tray) OnTracking(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onTracking = fn
}

// OnOpen sets the callback for the open viewer item.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback for the quit item.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit closes the tray from outside the menu.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Giftwrap")
	systray.SetTooltip("Giftwrap tree")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleLabel(t.assembled), "Wrap or unwrap the tree")
	systray.AddSeparator()
	t.menuTracking = systray.AddMenuItemCheckbox("Gesture tracking", "Use the camera to wrap and unwrap", t.tracking)
	t.menuStatus = systray.AddMenuItem(statusLabel(t.status), "Gesture status")
	t.menuStatus.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open Viewer...", "Open the tree in a browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit Giftwrap")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-t.menuTracking.ClickedCh:
				t.handleTracking()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func toggleLabel(assembled bool) string {
	if assembled {
		return "Unwrap"
	}
	return "Wrap"
}

func statusLabel(status string) string {
	if status == "" {
		return "Status: none"
	}
	return "Status: " + status
}

func (t *Tray) handleToggle() {
	t.mu.RLock()
	callback := t.onToggle
	t.mu.RUnlock()

	// The label follows SetAssembled once the state has changed.
	if callback != nil {
		callback()
	}
}

func (t *Tray) handleTracking() {
	t.mu.RLock()
	want := !t.tracking
	callback := t.onTracking
	t.mu.RUnlock()

	if callback != nil {
		callback(want)
	}
}

func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetAssembled updates the wrap/unwrap label.
func (t *Tray) SetAssembled(assembled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.assembled = assembled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleLabel(assembled))
	}
}

// SetTracking updates the tracking checkbox.
func (t *Tray) SetTracking(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tracking = enabled
	if t.menuTracking == nil {
		return
	}
	if enabled {
		t.menuTracking.Check()
	} else {
		t.menuTracking.Uncheck()
	}
}

// SetStatus updates the status line.
func (t *Tray) SetStatus(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = status
	if t.menuStatus != nil {
		t.menuStatus.SetTitle(statusLabel(status))
	}
}

// Assembled returns the state last shown.
func (t *Tray) Assembled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.assembled
}

// Tracking returns the tracking state last shown.
func (t *Tray) Tracking() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tracking
}
