package app

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ayusman/giftwrap/internal/capture"
	"github.com/ayusman/giftwrap/internal/config"
	"github.com/ayusman/giftwrap/internal/detector"
	"github.com/ayusman/giftwrap/internal/morph"
	"github.com/ayusman/giftwrap/internal/plugin"
	"github.com/ayusman/giftwrap/internal/store"
	"github.com/ayusman/giftwrap/testdata"
)

type recordingRenderer struct {
	mu      sync.Mutex
	inits   int
	colors  []morph.EnsembleColors
	frames  int
	initErr error
}

func (r *recordingRenderer) Init(colors []morph.EnsembleColors) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inits++
	r.colors = colors
	return r.initErr
}

func (r *recordingRenderer) Render(*morph.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames++
	return nil
}

func (r *recordingRenderer) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inits, r.frames
}

func newStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newApp(t *testing.T, cfg Config) *App {
	t.Helper()
	if cfg.Settings.Server.Addr == "" {
		cfg.Settings = config.Default(t.TempDir())
	}
	if cfg.Camera == nil {
		frames := capture.BlankFrames(1)
		t.Cleanup(func() { frames[0].Close() })
		cfg.Camera = capture.NewMockCamera(frames, true)
	}
	if cfg.Detectors == nil {
		cfg.Detectors = func() (detector.Detector, error) { return detector.NewMockDetector(), nil }
	}

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestApp_StartsAssembled(t *testing.T) {
	a := newApp(t, Config{})

	if !a.Assembled() {
		t.Error("app should start assembled")
	}
	if a.Tracking() {
		t.Error("tracking should start off")
	}
	if a.Status() != "camera off" {
		t.Errorf("Status() = %q", a.Status())
	}
	if a.Session() != nil {
		t.Error("no session without a store")
	}
}

func TestApp_ManualControlRecordsEvents(t *testing.T) {
	s := newStore(t)
	a := newApp(t, Config{Store: s})

	if a.Toggle() {
		t.Fatal("Toggle() should scatter")
	}
	if !a.SetAssembled(true) {
		t.Fatal("SetAssembled(true) should change the state")
	}
	if a.SetAssembled(true) {
		t.Error("repeated SetAssembled should be a no-op")
	}

	events, err := s.Events().ListBySession(a.Session().ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("recorded %d events, want 2", len(events))
	}
	if events[0].Assembled || !events[1].Assembled {
		t.Errorf("event values = %v, %v", events[0].Assembled, events[1].Assembled)
	}
	for i, e := range events {
		if e.Source != "manual" || e.Seq != uint64(i+1) {
			t.Errorf("event %d = %+v", i, e)
		}
	}
}

func TestApp_StoredSettingsOverride(t *testing.T) {
	s := newStore(t)
	if err := s.Settings().SetAll(map[string]string{
		config.KeyGiftRate:  "0.1",
		config.KeyThreshold: "4",
	}); err != nil {
		t.Fatal(err)
	}

	a := newApp(t, Config{Store: s})

	got := a.Tunables()
	if got.Rates.Gifts != 0.1 || got.Threshold != 4 {
		t.Errorf("Tunables() = %+v", got)
	}
	if a.Scene().Rates().Gifts != 0.1 {
		t.Errorf("scene gift rate = %v", a.Scene().Rates().Gifts)
	}
	if a.tracker.Threshold() != 4 {
		t.Errorf("tracker threshold = %d", a.tracker.Threshold())
	}
}

func TestApp_BadStoredSettingsIgnored(t *testing.T) {
	s := newStore(t)
	if err := s.Settings().Set(config.KeyThreshold, "zero"); err != nil {
		t.Fatal(err)
	}

	a := newApp(t, Config{Store: s})
	if got := a.Tunables().Threshold; got != config.Default("").Gesture.Threshold {
		t.Errorf("threshold = %d, want default", got)
	}
}

func TestApp_SetTunables(t *testing.T) {
	s := newStore(t)
	a := newApp(t, Config{Store: s})

	next := a.Tunables()
	next.Rates.Baubles = 0.2
	next.Threshold = 5
	if err := a.SetTunables(next); err != nil {
		t.Fatalf("SetTunables() error = %v", err)
	}

	if a.Scene().Rates().Baubles != 0.2 || a.tracker.Threshold() != 5 {
		t.Error("tunables not applied")
	}
	if v, err := s.Settings().Get(config.KeyThreshold); err != nil || v != "5" {
		t.Errorf("stored threshold = %q, %v", v, err)
	}

	bad := next
	bad.Rates.Gifts = 2
	if err := a.SetTunables(bad); err == nil {
		t.Fatal("expected error for rate above 1")
	}
	if a.Tunables() != next {
		t.Error("invalid tunables should leave the old values")
	}
}

func TestApp_Reload(t *testing.T) {
	a := newApp(t, Config{})

	cfg := config.Default(t.TempDir())
	cfg.Morph.Topper = 0.5
	a.Reload(cfg)
	if a.Tunables().Rates.Topper != 0.5 {
		t.Errorf("topper rate = %v", a.Tunables().Rates.Topper)
	}

	cfg.Gesture.Threshold = 0
	a.Reload(cfg)
	if a.Tunables().Threshold < 1 {
		t.Error("invalid reload should be ignored")
	}
}

func TestApp_RunRendersFrames(t *testing.T) {
	r := &recordingRenderer{}
	a := newApp(t, Config{Renderers: []morph.Renderer{r}})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := a.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	inits, frames := r.counts()
	if inits != 1 {
		t.Errorf("Init called %d times, want 1", inits)
	}
	if frames == 0 {
		t.Error("no frames rendered")
	}
	if len(r.colors) != 2 || r.colors[0].Name != "gifts" || r.colors[1].Name != "baubles" {
		t.Errorf("colors = %+v", r.colors)
	}
}

func TestApp_RunInitError(t *testing.T) {
	r := &recordingRenderer{initErr: errors.New("no terminal")}
	a := newApp(t, Config{Renderers: []morph.Renderer{r}})

	err := a.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "no terminal") {
		t.Errorf("Run() error = %v", err)
	}
}

func TestApp_GestureTracking(t *testing.T) {
	s := newStore(t)
	det := detector.NewMockDetector()
	det.SetHands(testdata.MustLoadHands(testdata.OpenPalm))

	a := newApp(t, Config{
		Store:     s,
		Detectors: func() (detector.Detector, error) { return det, nil },
	})

	var mu sync.Mutex
	var statuses []Status
	a.OnStatus(func(st Status) {
		mu.Lock()
		statuses = append(statuses, st)
		mu.Unlock()
	})

	if err := a.SetTracking(true); err != nil {
		t.Fatalf("SetTracking(true) error = %v", err)
	}
	if !a.Tracking() {
		t.Fatal("tracking should be on")
	}

	waitFor(t, "open palm to scatter", func() bool { return !a.Assembled() })

	if err := a.SetTracking(false); err != nil {
		t.Fatalf("SetTracking(false) error = %v", err)
	}
	if a.Status() != "camera off" {
		t.Errorf("Status() = %q after stop", a.Status())
	}

	events, err := s.Events().ListBySession(a.Session().ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Source != "gesture" || events[0].Assembled {
		t.Errorf("events = %+v", events)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(statuses) == 0 || statuses[0].Status != "camera off" || !statuses[0].Assembled {
		t.Fatalf("first status = %+v", statuses)
	}
	sawUnwrap := false
	for _, st := range statuses {
		if st.Status == "open (unwrap)" && st.Tracking {
			sawUnwrap = true
		}
	}
	if !sawUnwrap {
		t.Errorf("statuses never reported the unwrap: %+v", statuses)
	}
}

func TestApp_TrackingStartFailure(t *testing.T) {
	frames := capture.BlankFrames(1)
	defer frames[0].Close()
	cam := capture.NewMockCamera(frames, true)
	cam.SetOpenError(errors.New("no device"))

	a := newApp(t, Config{Camera: cam})

	if err := a.SetTracking(true); err == nil {
		t.Fatal("expected error")
	}
	if a.Tracking() {
		t.Error("tracking should stay off")
	}
	if !strings.HasPrefix(a.Status(), "error: ") {
		t.Errorf("Status() = %q", a.Status())
	}

	// Manual control still works.
	if a.Toggle() {
		t.Error("Toggle() should scatter")
	}
}

func TestApp_HooksRunOnTransition(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	dir := t.TempDir()
	out := filepath.Join(dir, "request.json")
	pluginDir := filepath.Join(dir, "plugins", "recorder")
	if err := os.MkdirAll(pluginDir, 0755); err != nil {
		t.Fatal(err)
	}
	script := "#!/bin/sh\ncat > " + out + "\necho '{\"success\":true}'\n"
	if err := os.WriteFile(filepath.Join(pluginDir, "run.sh"), []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	manifest, _ := json.Marshal(plugin.Manifest{Name: "recorder", Executable: "run.sh", Actions: []string{"record"}})
	if err := os.WriteFile(filepath.Join(pluginDir, "plugin.json"), manifest, 0644); err != nil {
		t.Fatal(err)
	}

	plugins := plugin.NewManager(filepath.Join(dir, "plugins"))
	if err := plugins.Discover(); err != nil {
		t.Fatal(err)
	}

	s := newStore(t)
	if err := s.Hooks().Create(&store.Hook{
		Event: store.EventScattered, PluginName: "recorder", ActionName: "record", Enabled: true,
	}); err != nil {
		t.Fatal(err)
	}

	a := newApp(t, Config{Store: s, Plugins: plugins})
	a.Toggle()
	a.dispatcher.Wait()

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("hook did not run: %v", err)
	}
	var req plugin.Request
	if err := json.Unmarshal(data, &req); err != nil {
		t.Fatal(err)
	}
	if req.Event != "scattered" || req.Source != "manual" || req.SessionID != a.Session().ID {
		t.Errorf("request = %+v", req)
	}
}

func TestApp_CloseEndsSession(t *testing.T) {
	s := newStore(t)
	a, err := New(Config{
		Settings:  config.Default(t.TempDir()),
		Store:     s,
		Camera:    capture.NewMockCamera(nil, false),
		Detectors: func() (detector.Detector, error) { return detector.NewMockDetector(), nil },
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	sess, err := s.Sessions().GetByID(a.Session().ID)
	if err != nil {
		t.Fatal(err)
	}
	if sess.EndedAt == nil {
		t.Error("session not ended")
	}
}
