// Package config loads the giftwrap TOML configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/ayusman/giftwrap/internal/capture"
	"github.com/ayusman/giftwrap/internal/detector"
	"github.com/ayusman/giftwrap/internal/gesture"
	"github.com/ayusman/giftwrap/internal/layout"
	"github.com/ayusman/giftwrap/internal/morph"
)

// DataDirName is the per-user directory holding the database, plugins and
// the default config file.
const DataDirName = ".giftwrap"

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Camera   capture.Config `toml:"camera"`
	Detector DetectorConfig `toml:"detector"`
	Gesture  GestureConfig  `toml:"gesture"`
	Render   RenderConfig   `toml:"render"`
	Morph    morph.Rates    `toml:"morph"`
	Layout   LayoutConfig   `toml:"layout"`
	Store    StoreConfig    `toml:"store"`
	Plugins  PluginsConfig  `toml:"plugins"`
	Chime    ChimeConfig    `toml:"chime"`
}

type ServerConfig struct {
	Addr      string `toml:"addr"`
	StaticDir string `toml:"static_dir"`
}

type DetectorConfig struct {
	MaxHands              int     `toml:"max_hands"`
	ModelComplexity       int     `toml:"model_complexity"`
	MinConfidence         float64 `toml:"min_confidence"`
	MinTrackingConfidence float64 `toml:"min_tracking_confidence"`
}

// Detector converts to the detector package's config.
func (d DetectorConfig) Detector() detector.Config {
	return detector.Config{
		MaxHands:        d.MaxHands,
		ModelComplexity: d.ModelComplexity,
		MinConfidence:   d.MinConfidence,
		MinTrackingConf: d.MinTrackingConfidence,
	}
}

type GestureConfig struct {
	Threshold int `toml:"threshold"`
}

type RenderConfig struct {
	FPS int `toml:"fps"`
}

// LayoutConfig seeds and shapes the instance layouts.
type LayoutConfig struct {
	Seed          uint64  `toml:"seed"`
	TreeHeight    float32 `toml:"tree_height"`
	BaseRadius    float32 `toml:"base_radius"`
	ScatterRadius float32 `toml:"scatter_radius"`
	Gifts         int     `toml:"gifts"`
	Ornaments     int     `toml:"ornaments"`
}

// Params returns the layout parameters.
func (l LayoutConfig) Params() layout.Params {
	return layout.Params{
		TreeHeight:    l.TreeHeight,
		BaseRadius:    l.BaseRadius,
		ScatterRadius: l.ScatterRadius,
		Gifts:         l.Gifts,
		Ornaments:     l.Ornaments,
	}
}

type StoreConfig struct {
	Path string `toml:"path"`
}

type PluginsConfig struct {
	Dir       string `toml:"dir"`
	TimeoutMs int    `toml:"timeout_ms"`
}

type ChimeConfig struct {
	Enabled bool    `toml:"enabled"`
	Volume  float64 `toml:"volume"`
}

// Default returns the configuration used when no file is given. Paths live
// under dataDir.
func Default(dataDir string) Config {
	det := detector.DefaultConfig()
	p := layout.DefaultParams()
	return Config{
		Server: ServerConfig{Addr: ":8080"},
		Camera: capture.DefaultConfig(),
		Detector: DetectorConfig{
			MaxHands:              det.MaxHands,
			ModelComplexity:       det.ModelComplexity,
			MinConfidence:         det.MinConfidence,
			MinTrackingConfidence: det.MinTrackingConf,
		},
		Gesture: GestureConfig{Threshold: gesture.DefaultThreshold},
		Render:  RenderConfig{FPS: 60},
		Morph:   morph.DefaultRates(),
		Layout: LayoutConfig{
			Seed:          1,
			TreeHeight:    p.TreeHeight,
			BaseRadius:    p.BaseRadius,
			ScatterRadius: p.ScatterRadius,
			Gifts:         p.Gifts,
			Ornaments:     p.Ornaments,
		},
		Store:   StoreConfig{Path: filepath.Join(dataDir, "giftwrap.db")},
		Plugins: PluginsConfig{Dir: filepath.Join(dataDir, "plugins"), TimeoutMs: 5000},
		Chime:   ChimeConfig{Enabled: false, Volume: 0.5},
	}
}

// DefaultDataDir returns ~/.giftwrap.
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, DataDirName), nil
}

// Decode reads TOML from r on top of base. Unknown keys are rejected.
func Decode(r io.Reader, base Config) (Config, error) {
	cfg := base
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return base, fmt.Errorf("decode config: %s", strict.String())
		}
		return base, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return base, err
	}
	return cfg, nil
}

// Load reads the file at path on top of base.
func Load(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read config: %w", err)
	}
	return Decode(bytes.NewReader(data), base)
}

// Encode writes cfg as TOML.
func Encode(w io.Writer, cfg Config) error {
	enc := toml.NewEncoder(w)
	return enc.Encode(cfg)
}

// Validate checks ranges.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is empty"))
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		errs = append(errs, fmt.Errorf("camera resolution %dx%d is invalid", c.Camera.Width, c.Camera.Height))
	}
	if c.Camera.FPS <= 0 {
		errs = append(errs, fmt.Errorf("camera.fps %d must be positive", c.Camera.FPS))
	}
	if c.Detector.MaxHands < 1 {
		errs = append(errs, fmt.Errorf("detector.max_hands %d must be at least 1", c.Detector.MaxHands))
	}
	if c.Detector.ModelComplexity < 0 || c.Detector.ModelComplexity > 1 {
		errs = append(errs, fmt.Errorf("detector.model_complexity %d must be 0 or 1", c.Detector.ModelComplexity))
	}
	for name, v := range map[string]float64{
		"detector.min_confidence":          c.Detector.MinConfidence,
		"detector.min_tracking_confidence": c.Detector.MinTrackingConfidence,
	} {
		if v < 0 || v > 1 {
			errs = append(errs, fmt.Errorf("%s %v outside [0, 1]", name, v))
		}
	}
	if c.Gesture.Threshold < 1 {
		errs = append(errs, fmt.Errorf("gesture.threshold %d must be at least 1", c.Gesture.Threshold))
	}
	if c.Render.FPS <= 0 {
		errs = append(errs, fmt.Errorf("render.fps %d must be positive", c.Render.FPS))
	}
	if err := c.Morph.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("morph: %w", err))
	}
	if c.Layout.TreeHeight <= 0 || c.Layout.BaseRadius <= 0 || c.Layout.ScatterRadius <= 0 {
		errs = append(errs, errors.New("layout dimensions must be positive"))
	}
	if c.Layout.Gifts < 0 || c.Layout.Ornaments < 0 {
		errs = append(errs, errors.New("layout counts must not be negative"))
	}
	if c.Plugins.TimeoutMs <= 0 {
		errs = append(errs, fmt.Errorf("plugins.timeout_ms %d must be positive", c.Plugins.TimeoutMs))
	}
	if c.Chime.Volume < 0 || c.Chime.Volume > 1 {
		errs = append(errs, fmt.Errorf("chime.volume %v outside [0, 1]", c.Chime.Volume))
	}
	return errors.Join(errs...)
}
