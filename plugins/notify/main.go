// Package main provides a hook plugin that announces tree transitions,
// either as a desktop notification or as a line appended to a file.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"time"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action    string          `json:"action"`
	Event     string          `json:"event"`
	Assembled bool            `json:"assembled"`
	Source    string          `json:"source"`
	Seq       uint64          `json:"seq"`
	SessionID string          `json:"session_id"`
	Config    json.RawMessage `json:"config"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type config struct {
	Message string `json:"message"`
	Path    string `json:"path"`
}

type actionHandler func(req *Request, cfg config) error

var actionHandlers = map[string]actionHandler{
	"notify": notify,
	"append": appendLine,
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	handler, ok := actionHandlers[req.Action]
	if !ok {
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
		return
	}

	var cfg config
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeErrorResponse(fmt.Sprintf("invalid config: %v", err))
			return
		}
	}

	if err := handler(&req, cfg); err != nil {
		writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
		return
	}

	json.NewEncoder(os.Stdout).Encode(Response{Success: true})
}

func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}

func message(req *Request, cfg config) string {
	if cfg.Message != "" {
		return cfg.Message
	}
	if req.Assembled {
		return fmt.Sprintf("The tree is wrapped (%s)", req.Source)
	}
	return fmt.Sprintf("The gifts are unwrapped (%s)", req.Source)
}

// notify shows a desktop notification through the platform's helper.
func notify(req *Request, cfg config) error {
	msg := message(req, cfg)

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("osascript", "-e", fmt.Sprintf("display notification %q with title %q", msg, "giftwrap"))
	case "linux":
		cmd = exec.Command("notify-send", "giftwrap", msg)
	default:
		return fmt.Errorf("notifications are not supported on %s", runtime.GOOS)
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

// appendLine writes one JSON line per transition to cfg.Path.
func appendLine(req *Request, cfg config) error {
	if cfg.Path == "" {
		return errors.New("config.path is required")
	}

	f, err := os.OpenFile(cfg.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(map[string]any{
		"time":    time.Now().UTC().Format(time.RFC3339),
		"event":   req.Event,
		"source":  req.Source,
		"seq":     req.Seq,
		"session": req.SessionID,
		"message": message(req, cfg),
	})
}
