// Package config holds the demo host settings, loaded from YAML on top of
// built-in defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"render-toolkit/scene/terrain"
	"render-toolkit/scene/visual"
)

var ErrInvalid = errors.New("config: invalid value")

const (
	SceneTerrain = "terrain"
	SceneVisual  = "visual"
)

type Window struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
	VSync  bool   `yaml:"vsync"`
}

type Headless struct {
	Frames int `yaml:"frames"`
	// ResetEvery forces a device loss and restore every N frames; 0 never.
	ResetEvery int `yaml:"reset_every"`
}

type Config struct {
	Scene     string `yaml:"scene"`
	LogLevel  string `yaml:"log_level"`
	ShaderDir string `yaml:"shader_dir"`

	Window   Window          `yaml:"window"`
	Headless Headless        `yaml:"headless"`
	Terrain  terrain.Options `yaml:"terrain"`
	Visual   visual.Options  `yaml:"visual"`
	Layout   *visual.Node    `yaml:"layout,omitempty"`
}

func Default() Config {
	return Config{
		Scene:    SceneTerrain,
		LogLevel: "info",
		Window:   Window{Width: 1280, Height: 720, Title: "render-toolkit", VSync: true},
		Headless: Headless{Frames: 60},
		Terrain:  terrain.DefaultOptions(),
		Visual:   visual.DefaultOptions(),
	}
}

// Load reads path over the defaults. Unknown keys are an error.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Parse is Decode over a byte slice.
func Parse(data []byte) (Config, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads YAML from r over the defaults and validates the result.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Scene {
	case SceneTerrain, SceneVisual:
	default:
		return fmt.Errorf("scene %q: %w", c.Scene, ErrInvalid)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window %dx%d: %w", c.Window.Width, c.Window.Height, ErrInvalid)
	}
	if c.Headless.Frames < 0 || c.Headless.ResetEvery < 0 {
		return fmt.Errorf("headless frames %d reset %d: %w", c.Headless.Frames, c.Headless.ResetEvery, ErrInvalid)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	t := c.Terrain
	if t.Exponent < 1 || t.Exponent > 12 || t.Spacing <= 0 || t.C1 <= 1 || t.C2 < 0 {
		return fmt.Errorf("terrain %+v: %w", t, ErrInvalid)
	}
	if c.Visual.Spacing < 0 || c.Visual.Thickness <= 0 {
		return fmt.Errorf("visual spacing %g thickness %g: %w", c.Visual.Spacing, c.Visual.Thickness, ErrInvalid)
	}
	return nil
}

// Level is the slog level named by LogLevel.
func (c *Config) Level() slog.Level {
	l, _ := parseLevel(c.LogLevel)
	return l
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("log level %q: %w", s, ErrInvalid)
	}
	return l, nil
}

// Marshal renders c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
