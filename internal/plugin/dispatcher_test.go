package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ayusman/giftwrap/internal/assembly"
	"github.com/ayusman/giftwrap/internal/store"
)

type fakeHooks struct {
	hooks map[string][]*store.Hook
	err   error
}

func (f *fakeHooks) ListEnabled(event string) ([]*store.Hook, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.hooks[event], nil
}

type results struct {
	mu  sync.Mutex
	got []Result
}

func (r *results) add(res Result) {
	r.mu.Lock()
	r.got = append(r.got, res)
	r.mu.Unlock()
}

func (r *results) all() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Result{}, r.got...)
}

func TestDispatcher_RunsHooksForEvent(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.json")
	scriptPlugin(t, dir, "recorder", "cat > "+out+"\necho '{\"success\":true}'\n", "record")

	manager := NewManager(dir)
	if err := manager.Discover(); err != nil {
		t.Fatal(err)
	}

	hooks := &fakeHooks{hooks: map[string][]*store.Hook{
		store.EventScattered: {{ID: "h1", Event: store.EventScattered, PluginName: "recorder", ActionName: "record",
			Config: json.RawMessage(`{"n":1}`)}},
	}}

	var res results
	d := NewDispatcher(hooks, manager, NewExecutor(5000), "session-1", res.add)
	d.Dispatch(context.Background(), assembly.Change{Assembled: false, Source: assembly.SourceGesture, Seq: 3})
	d.Wait()

	got := res.all()
	if len(got) != 1 || got[0].Err != nil {
		t.Fatalf("results = %+v", got)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("plugin did not run: %v", err)
	}
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		t.Fatalf("bad request JSON: %v", err)
	}
	if req.Event != "scattered" || req.Assembled || req.Source != "gesture" || req.Seq != 3 || req.SessionID != "session-1" {
		t.Errorf("request = %+v", req)
	}
	if string(req.Config) != `{"n":1}` {
		t.Errorf("config = %s", req.Config)
	}
}

func TestDispatcher_NoHooksForOtherEvent(t *testing.T) {
	hooks := &fakeHooks{hooks: map[string][]*store.Hook{
		store.EventScattered: {{ID: "h1", PluginName: "missing", ActionName: "x"}},
	}}

	var res results
	d := NewDispatcher(hooks, NewManager(t.TempDir()), NewExecutor(100), "", res.add)
	d.Dispatch(context.Background(), assembly.Change{Assembled: true, Source: assembly.SourceManual, Seq: 1})
	d.Wait()

	if got := res.all(); len(got) != 0 {
		t.Errorf("expected no results, got %+v", got)
	}
}

func TestDispatcher_ResolveErrors(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, Manifest{Name: "picky", Executable: "picky", Actions: []string{"go"}, Events: []string{"scattered"}})
	manager := NewManager(dir)
	if err := manager.Discover(); err != nil {
		t.Fatal(err)
	}

	hooks := &fakeHooks{hooks: map[string][]*store.Hook{
		store.EventAssembled: {
			{ID: "missing", PluginName: "ghost", ActionName: "go"},
			{ID: "action", PluginName: "picky", ActionName: "stop"},
			{ID: "event", PluginName: "picky", ActionName: "go"},
		},
	}}

	var res results
	d := NewDispatcher(hooks, manager, NewExecutor(100), "", res.add)
	d.Dispatch(context.Background(), assembly.Change{Assembled: true})
	d.Wait()

	got := res.all()
	if len(got) != 3 {
		t.Fatalf("expected 3 failures, got %d", len(got))
	}
	if !errors.Is(got[0].Err, ErrPluginNotFound) {
		t.Errorf("missing plugin error = %v", got[0].Err)
	}
	if !strings.Contains(got[1].Err.Error(), "no action") {
		t.Errorf("unknown action error = %v", got[1].Err)
	}
	if !strings.Contains(got[2].Err.Error(), "does not handle") {
		t.Errorf("event filter error = %v", got[2].Err)
	}
}

func TestDispatcher_PluginFailureReported(t *testing.T) {
	dir := t.TempDir()
	scriptPlugin(t, dir, "sad", `echo '{"success":false,"error":"no lights"}'`+"\n", "on")
	manager := NewManager(dir)
	if err := manager.Discover(); err != nil {
		t.Fatal(err)
	}

	hooks := &fakeHooks{hooks: map[string][]*store.Hook{
		store.EventAssembled: {{ID: "h", PluginName: "sad", ActionName: "on"}},
	}}

	var res results
	d := NewDispatcher(hooks, manager, NewExecutor(5000), "", res.add)
	d.Dispatch(context.Background(), assembly.Change{Assembled: true})
	d.Wait()

	got := res.all()
	if len(got) != 1 || got[0].Err == nil || !strings.Contains(got[0].Err.Error(), "no lights") {
		t.Fatalf("results = %+v", got)
	}
	if got[0].Response == nil || got[0].Response.Success {
		t.Error("expected the failed response to be reported")
	}
}

func TestDispatcher_ListError(t *testing.T) {
	var res results
	d := NewDispatcher(&fakeHooks{err: errors.New("db closed")}, NewManager(t.TempDir()), NewExecutor(100), "", res.add)
	d.Dispatch(context.Background(), assembly.Change{Assembled: true})
	d.Wait()

	if got := res.all(); len(got) != 0 {
		t.Errorf("expected no results, got %+v", got)
	}
}
