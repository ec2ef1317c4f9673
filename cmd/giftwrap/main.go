package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"syscall"

	"github.com/ayusman/giftwrap/internal/app"
	"github.com/ayusman/giftwrap/internal/capture"
	"github.com/ayusman/giftwrap/internal/chime"
	"github.com/ayusman/giftwrap/internal/config"
	"github.com/ayusman/giftwrap/internal/detector"
	"github.com/ayusman/giftwrap/internal/morph"
	"github.com/ayusman/giftwrap/internal/plugin"
	"github.com/ayusman/giftwrap/internal/server"
	"github.com/ayusman/giftwrap/internal/store"
	"github.com/ayusman/giftwrap/internal/tray"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file (default ~/.giftwrap/config.toml if present)")
	addr := flag.String("addr", "", "HTTP listen address (overrides server.addr)")
	withTray := flag.Bool("tray", false, "show the system tray menu")
	camera := flag.Int("camera", -1, "camera device index (overrides camera.device)")
	track := flag.Bool("track", false, "start gesture tracking immediately")
	flag.Parse()

	fmt.Println("Giftwrap - gesture-controlled tree")

	dataDir, err := config.DefaultDataDir()
	if err != nil {
		log.Fatalf("Failed to get data directory: %v", err)
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	base := config.Default(dataDir)
	cfg := base
	path := *configPath
	if path == "" {
		if p := filepath.Join(dataDir, "config.toml"); fileExists(p) {
			path = p
		}
	}
	if path != "" {
		cfg, err = config.Load(path, base)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		log.Printf("Loaded config from %s", path)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *camera >= 0 {
		cfg.Camera.Device = *camera
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0755); err != nil {
		log.Fatalf("Failed to create store directory: %v", err)
	}
	st, err := store.New(cfg.Store.Path)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	plugins := plugin.NewManager(cfg.Plugins.Dir)
	if err := plugins.Discover(); err != nil {
		log.Printf("Failed to discover plugins: %v", err)
	}

	var cue *chime.Chime
	if cfg.Chime.Enabled {
		if cue, err = chime.New(cfg.Chime.Volume); err != nil {
			// Non-fatal, the tree runs silently
			log.Printf("Chime disabled: %v", err)
		} else {
			defer cue.Close()
		}
	}

	hub := server.NewFrameHub(server.DefaultStreamFPS)
	application, err := app.New(app.Config{
		Settings:  cfg,
		Store:     st,
		Plugins:   plugins,
		Camera:    capture.NewCamera(cfg.Camera),
		Detectors: detector.MediaPipeFactory(cfg.Detector.Detector()),
		Renderers: []morph.Renderer{hub},
		Chime:     cue,
	})
	if err != nil {
		log.Fatalf("Failed to create app: %v", err)
	}
	log.Printf("Session %s started", application.Session().ID)

	var menu *tray.Tray
	if *withTray {
		menu = tray.New()
		menu.OnToggle(func() { application.Toggle() })
		menu.OnTracking(func(enabled bool) {
			if err := application.SetTracking(enabled); err != nil {
				log.Printf("Failed to switch tracking: %v", err)
			}
		})
		menu.OnOpen(func() { openBrowser("http://localhost" + listenPort(cfg.Server.Addr)) })
	}

	application.OnStatus(func(s app.Status) {
		hub.PublishStatus(server.StatusMessage{Assembled: s.Assembled, Tracking: s.Tracking, Status: s.Status})
		if menu != nil {
			menu.SetAssembled(s.Assembled)
			menu.SetTracking(s.Tracking)
			menu.SetStatus(s.Status)
		}
	})

	staticDir := cfg.Server.StaticDir
	if staticDir == "" {
		staticDir = findWebDir(dataDir)
	}
	if staticDir != "" {
		fmt.Printf("Serving static files from: %s\n", staticDir)
	}

	srv := server.New(server.Config{
		StaticDir:  staticDir,
		Store:      st,
		Controller: application,
		Plugins:    plugins,
		Hub:        hub,
		Frames:     application,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *track {
		if err := application.SetTracking(true); err != nil {
			log.Printf("Gesture tracking unavailable: %v", err)
		}
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := application.Run(ctx); err != nil {
			log.Printf("Render loop stopped: %v", err)
			stop()
		}
	}()
	go func() {
		defer wg.Done()
		fmt.Printf("Starting server on %s\n", cfg.Server.Addr)
		if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
			log.Printf("Server failed: %v", err)
			stop()
		}
	}()
	if path != "" {
		go func() {
			if err := config.Watch(ctx, path, base, application.Reload); err != nil {
				log.Printf("Config watch disabled: %v", err)
			}
		}()
	}

	if menu != nil {
		menu.OnQuit(stop)
		go func() {
			<-ctx.Done()
			menu.Quit()
		}()
		// The tray event loop must own the main thread.
		menu.Run()
		stop()
	} else {
		<-ctx.Done()
	}

	wg.Wait()
	if err := application.Close(); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	fmt.Println("Goodbye")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// listenPort returns the ":port" suffix of addr.
func listenPort(addr string) string {
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		return addr[i:]
	}
	return ":80"
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open browser: %v", err)
	}
}

// findWebDir searches for the viewer in "web", "../web", "../../web" and
// the data directory. Returns the first existing directory or "".
func findWebDir(dataDir string) string {
	for _, p := range []string{"web", "../web", "../../web", filepath.Join(dataDir, "web")} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
