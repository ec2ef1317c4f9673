package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// scriptPlugin writes a shell script plugin with a manifest into dir and
// returns it.
func scriptPlugin(t *testing.T, dir, name, script string, actions ...string) *Plugin {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	pluginDir := filepath.Join(dir, name)
	if err := os.MkdirAll(pluginDir, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}

	exe := name + ".sh"
	if err := os.WriteFile(filepath.Join(pluginDir, exe), []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	manifest := Manifest{Name: name, Version: "1.0.0", Executable: exe, Actions: actions}
	data, _ := json.Marshal(manifest)
	if err := os.WriteFile(filepath.Join(pluginDir, "plugin.json"), data, 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	return &Plugin{Manifest: manifest, Path: pluginDir, Executable: filepath.Join(pluginDir, exe)}
}

func TestExecutor_Execute(t *testing.T) {
	plugin := scriptPlugin(t, t.TempDir(), "hello",
		`echo '{"success":true,"data":{"message":"hello world"}}'`+"\n", "greet")

	response, err := NewExecutor(5000).Execute(context.Background(), plugin, &Request{Action: "greet", Event: "assembled"})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if !response.Success || response.Error != "" {
		t.Errorf("unexpected response %+v", response)
	}

	var data map[string]any
	if err := json.Unmarshal(response.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}
	if data["message"] != "hello world" {
		t.Errorf("expected message 'hello world', got %v", data["message"])
	}
}

func TestExecutor_Execute_ReadsStdin(t *testing.T) {
	plugin := scriptPlugin(t, t.TempDir(), "echo", `INPUT=$(cat)
echo "{\"success\":true,\"data\":{\"received\":$INPUT}}"
`, "echo")

	request := &Request{
		Action:    "echo",
		Event:     "scattered",
		Assembled: false,
		Source:    "gesture",
		Seq:       7,
		Config:    json.RawMessage(`{"setting":"enabled"}`),
	}

	response, err := NewExecutor(5000).Execute(context.Background(), plugin, request)
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	var data struct {
		Received Request `json:"received"`
	}
	if err := json.Unmarshal(response.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}
	got := data.Received
	if got.Action != "echo" || got.Event != "scattered" || got.Source != "gesture" || got.Seq != 7 {
		t.Errorf("plugin received %+v", got)
	}
	if string(got.Config) != `{"setting":"enabled"}` {
		t.Errorf("config = %s", got.Config)
	}
}

func TestExecutor_Timeout(t *testing.T) {
	plugin := scriptPlugin(t, t.TempDir(), "slow", "sleep 10\necho '{\"success\":true}'\n", "slow")

	start := time.Now()
	_, err := NewExecutor(100).Execute(context.Background(), plugin, &Request{Action: "slow"})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("timed out plugin was not killed promptly")
	}
}

func TestExecutor_Failures(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		wantErr string
	}{
		{
			name:    "invalid json",
			script:  "echo 'not valid json'\n",
			wantErr: "failed to parse plugin response",
		},
		{
			name:    "non-zero exit",
			script:  "echo 'Error: something failed' >&2\nexit 1\n",
			wantErr: "something failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plugin := scriptPlugin(t, t.TempDir(), "bad", tt.script, "bad")
			_, err := NewExecutor(5000).Execute(context.Background(), plugin, &Request{Action: "bad"})
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestExecutor_Execute_ErrorResponse(t *testing.T) {
	plugin := scriptPlugin(t, t.TempDir(), "sad",
		`echo '{"success":false,"error":"something went wrong"}'`+"\n", "fail")

	response, err := NewExecutor(5000).Execute(context.Background(), plugin, &Request{Action: "fail"})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if response.Success {
		t.Errorf("expected success=false, got true")
	}
	if response.Error != "something went wrong" {
		t.Errorf("expected error 'something went wrong', got %q", response.Error)
	}
}

func TestNewExecutor(t *testing.T) {
	if got := NewExecutor(3000).Timeout(); got != 3*time.Second {
		t.Errorf("Timeout() = %v, want 3s", got)
	}
}
