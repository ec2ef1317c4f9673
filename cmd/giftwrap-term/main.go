// Command giftwrap-term shows the tree in the terminal. Space wraps and
// unwraps, g switches gesture tracking, q quits.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/gdamore/tcell/v2"

	"github.com/ayusman/giftwrap/internal/app"
	"github.com/ayusman/giftwrap/internal/capture"
	"github.com/ayusman/giftwrap/internal/config"
	"github.com/ayusman/giftwrap/internal/detector"
	"github.com/ayusman/giftwrap/internal/morph"
	"github.com/ayusman/giftwrap/internal/preview"
	"github.com/ayusman/giftwrap/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	camera := flag.Int("camera", -1, "camera device index (overrides camera.device)")
	fps := flag.Int("fps", 20, "terminal redraw rate")
	flag.Parse()

	if err := run(*configPath, *camera, *fps); err != nil {
		fmt.Fprintf(os.Stderr, "giftwrap-term: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, camera, fps int) error {
	dataDir, err := config.DefaultDataDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	// The screen owns stdout, so logs go to a file.
	logFile, err := os.OpenFile(filepath.Join(dataDir, "giftwrap-term.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer logFile.Close()
	log.SetOutput(logFile)

	cfg := config.Default(dataDir)
	if configPath != "" {
		if cfg, err = config.Load(configPath, cfg); err != nil {
			return err
		}
	}
	if camera >= 0 {
		cfg.Camera.Device = camera
	}
	cfg.Render.FPS = fps

	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	view := preview.New(screen, cfg.Layout.TreeHeight*1.8)
	application, err := app.New(app.Config{
		Settings:  cfg,
		Store:     st,
		Camera:    capture.NewCamera(cfg.Camera),
		Detectors: detector.MediaPipeFactory(cfg.Detector.Detector()),
		Renderers: []morph.Renderer{view},
	})
	if err != nil {
		return err
	}
	defer application.Close()

	application.OnStatus(func(s app.Status) { view.SetStatus(s.Status) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- application.Run(ctx) }()

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	for {
		select {
		case err := <-done:
			return err
		case ev := <-events:
			if quit := handleEvent(ev, application, screen); quit {
				cancel()
				return <-done
			}
		}
	}
}

// handleEvent applies one key press. It reports whether to quit.
func handleEvent(ev tcell.Event, a *app.App, screen tcell.Screen) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC:
			return true
		case ev.Key() != tcell.KeyRune:
			return false
		}
		switch ev.Rune() {
		case 'q':
			return true
		case ' ':
			a.Toggle()
		case 'g':
			if err := a.SetTracking(!a.Tracking()); err != nil {
				log.Printf("Failed to switch tracking: %v", err)
			}
		}
	case *tcell.EventResize:
		screen.Sync()
	}
	return false
}
