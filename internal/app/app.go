// Package app wires the giftwrap subsystems together: the assembly state,
// the morph scene and its renderers, gesture tracking, the session journal
// and state hooks.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/giftwrap/internal/assembly"
	"github.com/ayusman/giftwrap/internal/capture"
	"github.com/ayusman/giftwrap/internal/chime"
	"github.com/ayusman/giftwrap/internal/config"
	"github.com/ayusman/giftwrap/internal/detector"
	"github.com/ayusman/giftwrap/internal/morph"
	"github.com/ayusman/giftwrap/internal/plugin"
	"github.com/ayusman/giftwrap/internal/store"
	"github.com/ayusman/giftwrap/internal/tracking"
)

// Config holds the collaborators of an App. Store, Plugins and Chime are
// optional.
type Config struct {
	Settings  config.Config
	Store     *store.Store
	Plugins   *plugin.Manager
	Camera    capture.Camera
	Detectors detector.Factory
	Renderers []morph.Renderer
	Chime     *chime.Chime
}

// Status is the observable state pushed to the control surfaces.
type Status struct {
	Assembled bool
	Tracking  bool
	Status    string
}

// App is the main application that owns the scene and the gesture tracker.
type App struct {
	config     Config
	state      *assembly.State
	scene      *morph.Scene
	tracker    *tracking.Tracker
	dispatcher *plugin.Dispatcher
	session    *store.Session

	mu       sync.RWMutex
	tunables config.Tunables
	fps      int

	listenMu  sync.RWMutex
	listeners []func(Status)
}

// New creates an App. Stored settings override the configured tunables.
// The tree starts assembled and tracking starts off.
func New(cfg Config) (*App, error) {
	tunables := cfg.Settings.Tunables()
	if cfg.Store != nil {
		stored, err := cfg.Store.Settings().All()
		if err != nil {
			return nil, fmt.Errorf("load settings: %w", err)
		}
		if t, err := tunables.ApplySettings(stored); err != nil {
			log.Printf("Ignoring stored settings: %v", err)
		} else {
			tunables = t
		}
	}

	seed := cfg.Settings.Layout.Seed
	a := &App{
		config:   cfg,
		state:    assembly.New(true),
		tunables: tunables,
		fps:      cfg.Settings.Render.FPS,
	}
	a.scene = morph.NewScene(a.state, cfg.Settings.Layout.Params(), tunables.Rates, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
	a.tracker = tracking.New(tracking.Config{
		Camera:    cfg.Camera,
		Detectors: cfg.Detectors,
		State:     a.state,
		Threshold: tunables.Threshold,
	})

	if cfg.Store != nil {
		session, err := cfg.Store.Sessions().Start()
		if err != nil {
			return nil, fmt.Errorf("start session: %w", err)
		}
		a.session = session
		a.state.Subscribe(a.record)

		if cfg.Plugins != nil {
			exec := plugin.NewExecutor(cfg.Settings.Plugins.TimeoutMs)
			a.dispatcher = plugin.NewDispatcher(cfg.Store.Hooks(), cfg.Plugins, exec, session.ID, nil)
			a.state.Subscribe(func(c assembly.Change) {
				a.dispatcher.Dispatch(context.Background(), c)
			})
		}
	}
	if cfg.Chime != nil {
		a.state.Subscribe(cfg.Chime.OnChange)
	}

	a.state.Subscribe(func(assembly.Change) { a.publish() })
	a.tracker.OnStatus(func(string) { a.publish() })

	return a, nil
}

// record journals one state transition.
func (a *App) record(c assembly.Change) {
	e := &store.Event{
		SessionID: a.session.ID,
		Source:    string(c.Source),
		Assembled: c.Assembled,
		Seq:       c.Seq,
	}
	if err := a.config.Store.Events().Record(e); err != nil {
		log.Printf("Error recording event: %v", err)
	}
}

// OnStatus registers fn to receive every status change. fn is called
// once immediately with the current status.
func (a *App) OnStatus(fn func(Status)) {
	if fn == nil {
		return
	}
	a.listenMu.Lock()
	a.listeners = append(a.listeners, fn)
	a.listenMu.Unlock()
	fn(a.snapshot())
}

func (a *App) snapshot() Status {
	return Status{
		Assembled: a.state.Assembled(),
		Tracking:  a.tracker.Running(),
		Status:    a.tracker.Status(),
	}
}

func (a *App) publish() {
	s := a.snapshot()
	a.listenMu.RLock()
	listeners := append([]func(Status){}, a.listeners...)
	a.listenMu.RUnlock()
	for _, fn := range listeners {
		fn(s)
	}
}

// Session returns the journal session, or nil without a store.
func (a *App) Session() *store.Session {
	return a.session
}

// Scene returns the animation scene.
func (a *App) Scene() *morph.Scene {
	return a.scene
}

// Assembled returns the current state.
func (a *App) Assembled() bool {
	return a.state.Assembled()
}

// SetAssembled writes the state from a manual control. It reports whether
// the state changed.
func (a *App) SetAssembled(assembled bool) bool {
	return a.state.SetAssembled(assembled, assembly.SourceManual)
}

// Toggle flips the state from a manual control and returns the new value.
func (a *App) Toggle() bool {
	return a.state.Toggle(assembly.SourceManual)
}

// Tracking reports whether gesture tracking is running.
func (a *App) Tracking() bool {
	return a.tracker.Running()
}

// SetTracking starts or stops gesture tracking. Start failures leave the
// app under manual control with an error status.
func (a *App) SetTracking(enabled bool) error {
	var err error
	if enabled {
		err = a.tracker.Start(context.Background())
	} else {
		err = a.tracker.Stop()
	}
	a.publish()
	return err
}

// Status returns the gesture status string.
func (a *App) Status() string {
	return a.tracker.Status()
}

// Snapshot returns a copy of the latest camera frame, or nil.
func (a *App) Snapshot() *gocv.Mat {
	return a.tracker.Snapshot()
}

// Tunables returns the live tunables.
func (a *App) Tunables() config.Tunables {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.tunables
}

// SetTunables applies t and persists it as settings overrides.
func (a *App) SetTunables(t config.Tunables) error {
	if err := a.ApplyTunables(t); err != nil {
		return err
	}
	if a.config.Store != nil {
		if err := a.config.Store.Settings().SetAll(t.Settings()); err != nil {
			return fmt.Errorf("save settings: %w", err)
		}
	}
	return nil
}

// ApplyTunables changes the morph rates and debounce threshold without
// persisting them.
func (a *App) ApplyTunables(t config.Tunables) error {
	if err := t.Validate(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.scene.SetRates(t.Rates); err != nil {
		return err
	}
	a.tracker.SetThreshold(t.Threshold)
	a.tunables = t
	log.Printf("Tunables updated: gifts %.3f, baubles %.3f, topper %.3f, threshold %d",
		t.Rates.Gifts, t.Rates.Baubles, t.Rates.Topper, t.Threshold)
	return nil
}

// Reload applies the live-adjustable parts of a reloaded config file.
func (a *App) Reload(cfg config.Config) {
	if err := a.ApplyTunables(cfg.Tunables()); err != nil {
		log.Printf("Ignoring reloaded tunables: %v", err)
	}
	if a.config.Chime != nil {
		a.config.Chime.SetVolume(cfg.Chime.Volume)
	}
}

// Run initializes every renderer with the scene colors, then steps the
// scene and renders each frame at the configured rate until ctx is done.
func (a *App) Run(ctx context.Context) error {
	colors := a.scene.Colors()
	for _, r := range a.config.Renderers {
		if err := r.Init(colors); err != nil {
			return fmt.Errorf("init renderer: %w", err)
		}
	}

	fps := a.fps
	if fps <= 0 {
		fps = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	start := time.Now()
	lastErr := make([]string, len(a.config.Renderers))
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			frame := a.scene.Step(float32(now.Sub(start).Seconds()))
			for i, r := range a.config.Renderers {
				err := r.Render(frame)
				// Log each distinct failure once.
				if err != nil && err.Error() != lastErr[i] {
					log.Printf("Error rendering frame: %v", err)
				}
				lastErr[i] = ""
				if err != nil {
					lastErr[i] = err.Error()
				}
			}
		}
	}
}

// Close stops tracking, waits for running hooks and ends the session.
func (a *App) Close() error {
	var errs []error
	if err := a.tracker.Stop(); err != nil {
		errs = append(errs, err)
	}
	if a.dispatcher != nil {
		a.dispatcher.Wait()
	}
	if a.session != nil {
		if err := a.config.Store.Sessions().End(a.session.ID); err != nil {
			errs = append(errs, fmt.Errorf("end session: %w", err))
		}
	}
	return errors.Join(errs...)
}
