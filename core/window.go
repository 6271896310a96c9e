package core

import (
	"fmt"
	"image"
	"runtime"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"

	"render-toolkit/config"
	"render-toolkit/input"
)

func init() {
	runtime.LockOSThread()
}

// Window is a glfw window with a current OpenGL 4.1 core context. Its
// callbacks queue input.Events until Events drains them.
type Window struct {
	Handle *glfw.Window
	Width  int // framebuffer size in pixels
	Height int
	Title  string

	events  []input.Event
	cursor  image.Point
	resized bool
}

type WindowConfig struct {
	Width     int
	Height    int
	Title     string
	Resizable bool
	VSync     bool
}

func DefaultWindowConfig() WindowConfig {
	return WindowConfigFrom(config.Default().Window)
}

func WindowConfigFrom(w config.Window) WindowConfig {
	return WindowConfig{
		Width:     w.Width,
		Height:    w.Height,
		Title:     w.Title,
		Resizable: true,
		VSync:     w.VSync,
	}
}

func NewWindow(cfg WindowConfig) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, boolToInt(cfg.Resizable))

	handle, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	handle.MakeContextCurrent()
	glfw.SwapInterval(boolToInt(cfg.VSync))

	w := &Window{Handle: handle, Title: cfg.Title}
	w.Width, w.Height = handle.GetFramebufferSize()

	handle.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.Width, w.Height = width, height
		w.resized = true
	})
	handle.SetCursorPosCallback(func(win *glfw.Window, x, y float64) {
		// cursor coordinates are in screen units, scenes work in pixels
		if ww, wh := win.GetSize(); ww > 0 && wh > 0 {
			x *= float64(w.Width) / float64(ww)
			y *= float64(w.Height) / float64(wh)
		}
		pos := image.Pt(int(x), int(y))
		w.events = append(w.events, input.NewMouseMove(pos, w.cursor, w.currentMods()))
		w.cursor = pos
	})
	handle.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		b := translateButton(button)
		if b == input.NoButton {
			return
		}
		typ := input.MouseDown
		if action == glfw.Release {
			typ = input.MouseUp
		}
		w.events = append(w.events, input.NewMouse(typ, b, w.cursor, translateMods(mods)))
	})
	handle.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		w.events = append(w.events, input.NewWheel(float32(yoff), w.cursor, w.currentMods()))
	})
	handle.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, mods glfw.ModifierKey) {
		k := translateKey(key)
		if k == input.KeyUnknown {
			return
		}
		typ := input.KeyDown
		if action == glfw.Release {
			typ = input.KeyUp
		}
		w.events = append(w.events, input.NewKey(typ, k, translateMods(mods)))
	})

	return w, nil
}

// currentMods polls the modifier keys for callbacks that do not get them.
func (w *Window) currentMods() input.Modifiers {
	var m input.Modifiers
	held := func(keys ...glfw.Key) bool {
		for _, k := range keys {
			if w.Handle.GetKey(k) == glfw.Press {
				return true
			}
		}
		return false
	}
	if held(glfw.KeyLeftShift, glfw.KeyRightShift) {
		m |= input.Shift
	}
	if held(glfw.KeyLeftControl, glfw.KeyRightControl) {
		m |= input.Control
	}
	if held(glfw.KeyLeftAlt, glfw.KeyRightAlt) {
		m |= input.Alt
	}
	if held(glfw.KeyLeftSuper, glfw.KeyRightSuper) {
		m |= input.Super
	}
	return m
}

func (w *Window) ShouldClose() bool {
	return w.Handle.ShouldClose()
}

func (w *Window) SetShouldClose() {
	w.Handle.SetShouldClose(true)
}

func (w *Window) PollEvents() {
	glfw.PollEvents()
}

// WaitEvents blocks until an event arrives or timeout passes.
func (w *Window) WaitEvents(timeout time.Duration) {
	glfw.WaitEventsTimeout(timeout.Seconds())
}

// Events returns and clears the queued events.
func (w *Window) Events() []input.Event {
	ev := w.events
	w.events = nil
	return ev
}

// Resized reports, once, that the framebuffer size changed.
func (w *Window) Resized() bool {
	r := w.resized
	w.resized = false
	return r
}

func (w *Window) SwapBuffers() {
	w.Handle.SwapBuffers()
}

func (w *Window) GetFramebufferSize() (int, int) {
	return w.Width, w.Height
}

func (w *Window) SetTitle(title string) {
	w.Handle.SetTitle(title)
	w.Title = title
}

func (w *Window) Destroy() {
	w.Handle.Destroy()
	glfw.Terminate()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
