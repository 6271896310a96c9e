package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"render-toolkit/config"
	"render-toolkit/core"
	"render-toolkit/gpu/softgpu"
	"render-toolkit/graphics"
	"render-toolkit/internal/headless"
	"render-toolkit/internal/opengl"
	"render-toolkit/logging"
	"render-toolkit/resource"
	"render-toolkit/scene"
	"render-toolkit/scene/terrain"
	"render-toolkit/scene/visual"
)

var (
	configPath = flag.String("config", "", "YAML configuration file")
	sceneName  = flag.String("scene", "", "Scene to show: terrain or visual")
	headlessOn = flag.Bool("headless", false, "Render on the software backend without a window")
	frames     = flag.Int("frames", -1, "Frames to render in headless mode")
	resetEvery = flag.Int("reset-every", -1, "Force a device reset every N headless frames")
	shaderDir  = flag.String("shaders", "", "Directory containing shaders/ (default: built-in)")
	logLevel   = flag.String("log", "", "Log level: debug, info, warn or error")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logging.Set(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()})))

	switch {
	case !*headlessOn:
		err = runWindow(cfg)
	case cfg.Headless.Frames == 0:
		err = errors.New("headless mode needs a positive frame count")
	default:
		err = runHeadless(cfg)
	}
	if err != nil {
		logging.L().Error("demo failed", "err", err)
		os.Exit(1)
	}
}

// loadConfig reads the optional file and applies the flag overrides.
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return cfg, err
		}
	}
	if *sceneName != "" {
		cfg.Scene = *sceneName
	}
	if *frames >= 0 {
		cfg.Headless.Frames = *frames
	}
	if *resetEvery >= 0 {
		cfg.Headless.ResetEvery = *resetEvery
	}
	if *shaderDir != "" {
		cfg.ShaderDir = *shaderDir
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	return cfg, cfg.Validate()
}

func resources(cfg config.Config) resource.Provider {
	if cfg.ShaderDir != "" {
		return resource.Dir(cfg.ShaderDir)
	}
	return resource.Embedded()
}

func newScene(cfg config.Config) scene.Scene {
	if cfg.Scene == config.SceneVisual {
		s := visual.New(cfg.Visual)
		layout := cfg.Layout
		if layout == nil {
			layout = sampleLayout()
		}
		s.SetLayout(layout)
		return s
	}
	return terrain.New(cfg.Terrain)
}

func runHeadless(cfg config.Config) error {
	backend := &softgpu.Backend{}
	manager := graphics.NewManager(backend)
	if err := manager.Init(); err != nil {
		return err
	}
	defer manager.Close()

	host := scene.NewHost(manager, resources(cfg), newScene(cfg))
	if err := host.Create(cfg.Window.Width, cfg.Window.Height); err != nil {
		return err
	}
	report, err := headless.Run(backend, manager, host, headless.Options{
		Frames:     cfg.Headless.Frames,
		ResetEvery: cfg.Headless.ResetEvery,
	})
	if derr := host.Destroy(); err == nil {
		err = derr
	}
	fmt.Printf("%s scene: %v\n", cfg.Scene, report)
	return err
}

func runWindow(cfg config.Config) error {
	window, err := core.NewWindow(core.WindowConfigFrom(cfg.Window))
	if err != nil {
		return err
	}
	defer window.Destroy()

	manager := graphics.NewManager(&opengl.Backend{})
	if err := manager.Init(); err != nil {
		return err
	}
	defer manager.Close()

	host := scene.NewHost(manager, resources(cfg), newScene(cfg))
	if err := host.Create(window.GetFramebufferSize()); err != nil {
		return err
	}
	app := &core.App{Window: window, Manager: manager, Host: host}
	app.Run()
	return host.Destroy()
}

// sampleLayout is shown by the visual scene when the configuration has no
// layout of its own.
func sampleLayout() *visual.Node {
	return &visual.Node{
		Name:   "window",
		Bounds: visual.Rect{Width: 960, Height: 640},
		Children: []*visual.Node{
			{Name: "toolbar", Bounds: visual.Rect{Width: 960, Height: 56}},
			{
				Name:   "sidebar",
				Bounds: visual.Rect{Y: 56, Width: 220, Height: 584},
				Children: []*visual.Node{
					{Name: "item-1", Bounds: visual.Rect{X: 16, Y: 80, Width: 188, Height: 40}},
					{Name: "item-2", Bounds: visual.Rect{X: 16, Y: 132, Width: 188, Height: 40}},
					{Name: "item-3", Bounds: visual.Rect{X: 16, Y: 184, Width: 188, Height: 40}},
				},
			},
			{
				Name:   "content",
				Bounds: visual.Rect{X: 240, Y: 76, Width: 700, Height: 544},
				Children: []*visual.Node{
					{Name: "card", Bounds: visual.Rect{X: 264, Y: 100, Width: 320, Height: 200}},
					{
						Name:   "form",
						Bounds: visual.Rect{X: 604, Y: 100, Width: 312, Height: 300},
						Children: []*visual.Node{
							{Name: "button", Bounds: visual.Rect{X: 780, Y: 348, Width: 120, Height: 36}},
						},
					},
				},
			},
		},
	}
}
