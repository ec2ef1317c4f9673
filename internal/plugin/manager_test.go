package plugin

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir string, m Manifest) string {
	t.Helper()
	pluginDir := filepath.Join(dir, m.Name)
	if err := os.MkdirAll(pluginDir, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("failed to marshal manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(pluginDir, "plugin.json"), data, 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	return pluginDir
}

func TestManager_Discover(t *testing.T) {
	tmpDir := t.TempDir()
	pluginDir := writeManifest(t, tmpDir, Manifest{
		Name:        "lights",
		Version:     "1.0.0",
		Description: "Tree lights",
		Executable:  "lights",
		Actions:     []string{"on", "off"},
		Events:      []string{"assembled"},
	})

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	plugins := manager.List()
	if len(plugins) != 1 {
		t.Fatalf("expected 1 plugin, got %d", len(plugins))
	}

	plugin := plugins[0]
	if plugin.Manifest.Name != "lights" || plugin.Manifest.Version != "1.0.0" {
		t.Errorf("unexpected manifest %+v", plugin.Manifest)
	}
	if plugin.Path != pluginDir {
		t.Errorf("expected path %q, got %q", pluginDir, plugin.Path)
	}
	if plugin.Executable != filepath.Join(pluginDir, "lights") {
		t.Errorf("expected executable under plugin dir, got %q", plugin.Executable)
	}
	if !plugin.Manifest.HasAction("on") || plugin.Manifest.HasAction("blink") {
		t.Error("HasAction mismatch")
	}
	if !plugin.Manifest.Handles("assembled") || plugin.Manifest.Handles("scattered") {
		t.Error("Handles mismatch")
	}
}

func TestManager_Discover_Skips(t *testing.T) {
	tmpDir := t.TempDir()
	writeManifest(t, tmpDir, Manifest{Name: "good", Executable: "good", Actions: []string{"a"}})
	writeManifest(t, tmpDir, Manifest{Name: "noexec", Actions: []string{"a"}})

	bad := filepath.Join(tmpDir, "bad")
	if err := os.MkdirAll(bad, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(bad, "plugin.json"), []byte("not valid json"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(tmpDir, "empty"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "stray.txt"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed unexpectedly: %v", err)
	}

	plugins := manager.List()
	if len(plugins) != 1 || plugins[0].Manifest.Name != "good" {
		t.Fatalf("expected only the good plugin, got %v", plugins)
	}
}

func TestManager_Discover_Replaces(t *testing.T) {
	tmpDir := t.TempDir()
	dir := writeManifest(t, tmpDir, Manifest{Name: "old", Executable: "x"})

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatal(err)
	}
	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	writeManifest(t, tmpDir, Manifest{Name: "new", Executable: "x"})
	if err := manager.Discover(); err != nil {
		t.Fatal(err)
	}

	if _, err := manager.Get("old"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("removed plugin still present: %v", err)
	}
	if _, err := manager.Get("new"); err != nil {
		t.Errorf("Get(new) error = %v", err)
	}
}

func TestManager_ListSorted(t *testing.T) {
	tmpDir := t.TempDir()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		writeManifest(t, tmpDir, Manifest{Name: name, Executable: name})
	}

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatal(err)
	}

	plugins := manager.List()
	want := []string{"alpha", "mid", "zeta"}
	if len(plugins) != len(want) {
		t.Fatalf("expected %d plugins, got %d", len(want), len(plugins))
	}
	for i, p := range plugins {
		if p.Manifest.Name != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, p.Manifest.Name, want[i])
		}
	}
}

func TestManager_Get_NotFound(t *testing.T) {
	manager := NewManager(t.TempDir())
	if err := manager.Discover(); err != nil {
		t.Fatal(err)
	}

	if _, err := manager.Get("nonexistent"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("expected ErrPluginNotFound, got %v", err)
	}
}

func TestManager_PluginDir(t *testing.T) {
	pluginDir := "/path/to/plugins"
	manager := NewManager(pluginDir)

	if manager.PluginDir() != pluginDir {
		t.Errorf("expected plugin dir %q, got %q", pluginDir, manager.PluginDir())
	}
}

func TestManager_Discover_NonExistentDir(t *testing.T) {
	manager := NewManager("/path/that/does/not/exist")

	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed on non-existent dir: %v", err)
	}
	if plugins := manager.List(); len(plugins) != 0 {
		t.Fatalf("expected 0 plugins, got %d", len(plugins))
	}
}
