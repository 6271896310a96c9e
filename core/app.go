// Package core runs a scene.Host in a glfw window on the OpenGL backend.
package core

import (
	"time"

	"render-toolkit/gpu"
	"render-toolkit/graphics"
	"render-toolkit/input"
	"render-toolkit/logging"
	"render-toolkit/scene"
)

// Presenter is implemented by contexts that can show a render target in
// the window's default framebuffer.
type Presenter interface {
	Present(target gpu.RenderTarget, width, height int)
}

// App ties a window to a host. The host renders offscreen; every rendered
// frame is presented to the window.
type App struct {
	Window  *Window
	Manager *graphics.Manager
	Host    *scene.Host

	failures int // consecutive failed restores
}

const (
	firstRestoreDelay = 50 * time.Millisecond
	maxRestoreDelay   = 2 * time.Second
)

// restoreDelay is how long the loop waits for events after the given
// number of consecutive failed restores. It doubles up to maxRestoreDelay.
func restoreDelay(failures int) time.Duration {
	if failures <= 0 {
		return 0
	}
	d := firstRestoreDelay
	for i := 1; i < failures && d < maxRestoreDelay; i++ {
		d *= 2
	}
	return min(d, maxRestoreDelay)
}

// Run loops until the window closes. F5 forces a device loss and restore,
// Escape closes the window, every other event goes to the host.
func (a *App) Run() {
	log := logging.For("core")
	for !a.Window.ShouldClose() {
		a.Window.PollEvents()
		for _, ev := range a.Window.Events() {
			a.dispatch(ev)
		}
		if w, h := a.Window.GetFramebufferSize(); a.Window.Resized() && w > 0 && h > 0 {
			a.Host.Resize(w, h)
		}

		if a.Manager.State() == graphics.StateLost {
			if err := a.Manager.NotifyDeviceRestored(); err != nil {
				a.failures++
				delay := restoreDelay(a.failures)
				log.Error("restore device", "err", err, "attempt", a.failures, "retry_in", delay)
				a.Window.WaitEvents(delay)
				continue
			}
			a.failures = 0
		}
		if !a.Host.Render() {
			continue
		}
		if p, ok := a.Manager.Context().(Presenter); ok {
			w, h := a.Window.GetFramebufferSize()
			p.Present(a.Host.Target().Color, w, h)
		}
		a.Window.SwapBuffers()
	}
}

func (a *App) dispatch(ev input.Event) {
	if ev.Type == input.KeyDown {
		switch ev.Key {
		case input.KeyF5:
			logging.For("core").Info("device reset requested")
			if err := a.Manager.Reset(); err != nil {
				logging.For("core").Error("device reset", "err", err)
			}
			return
		case input.KeyEscape:
			a.Window.SetShouldClose()
			return
		}
	}
	a.Host.Input(ev)
}
