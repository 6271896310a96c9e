// Package graphics owns the device/context pair and broadcasts its
// lifecycle to registered listeners.
package graphics

import (
	"fmt"
	"slices"

	"render-toolkit/gpu"
	"render-toolkit/logging"
)

// Backend creates a fresh device and its immediate context.
type Backend interface {
	CreateDevice() (gpu.Device, gpu.Context, error)
}

type State int

const (
	StateLost State = iota
	StateLive
)

func (s State) String() string {
	if s == StateLive {
		return "Live"
	}
	return "Lost"
}

// Listener is notified when the device goes away and when a new one is
// ready. On loss a listener must release every GPU object it owns while
// keeping what it needs to rebuild them; on restore it rebuilds them.
type Listener interface {
	OnGraphicDeviceLost()
	OnGraphicDeviceRestored()
}

// HDRListener is an optional Listener capability.
type HDRListener interface {
	OnHDRChanged(enabled bool)
}

// DPIListener is an optional Listener capability.
type DPIListener interface {
	OnDPIChanged(dpiX, dpiY float32)
}

// Manager holds exactly one device/context pair. It is created by the host
// and handed to every subsystem that needs the device.
type Manager struct {
	backend   Backend
	dev       gpu.Device
	ctx       gpu.Context
	state     State
	listeners []Listener

	hdr        bool
	dpiX, dpiY float32
}

var _ gpu.DeviceSource = (*Manager)(nil)

func NewManager(backend Backend) *Manager {
	return &Manager{backend: backend, dpiX: 96, dpiY: 96}
}

// Init creates the first device. Listeners are not notified.
func (m *Manager) Init() error {
	if m.state == StateLive {
		return nil
	}
	return m.create()
}

func (m *Manager) create() error {
	dev, ctx, err := m.backend.CreateDevice()
	if err != nil {
		logging.For("graphics").Error("create device", "err", err)
		return fmt.Errorf("create device: %w", err)
	}
	m.dev, m.ctx = dev, ctx
	m.state = StateLive
	return nil
}

// Device returns the live device, or nil while the device is lost.
func (m *Manager) Device() gpu.Device {
	if m.state != StateLive {
		return nil
	}
	return m.dev
}

// Context returns the live context, or nil while the device is lost.
func (m *Manager) Context() gpu.Context {
	if m.state != StateLive {
		return nil
	}
	return m.ctx
}

func (m *Manager) State() State { return m.state }

// AddListener registers l. Registering the same listener twice is a no-op.
func (m *Manager) AddListener(l Listener) {
	if l == nil || slices.Contains(m.listeners, l) {
		return
	}
	m.listeners = append(m.listeners, l)
}

// RemoveListener unregisters l. It may be called from inside a
// notification; l then receives no further calls.
func (m *Manager) RemoveListener(l Listener) {
	if i := slices.Index(m.listeners, l); i >= 0 {
		m.listeners = slices.Delete(m.listeners, i, i+1)
	}
}

// Listeners returns the registered listeners in notification order.
func (m *Manager) Listeners() []Listener { return slices.Clone(m.listeners) }

// broadcast calls fn for each listener registered when it started, in
// registration order, skipping listeners removed meanwhile.
func (m *Manager) broadcast(fn func(Listener)) {
	for _, l := range slices.Clone(m.listeners) {
		if slices.Contains(m.listeners, l) {
			fn(l)
		}
	}
}

// NotifyDeviceLost moves to Lost, tells every listener, then closes the
// old device. It does nothing when already lost.
func (m *Manager) NotifyDeviceLost() {
	if m.state == StateLost {
		return
	}
	m.state = StateLost
	logging.For("graphics").Warn("device lost", "listeners", len(m.listeners))
	m.broadcast(Listener.OnGraphicDeviceLost)

	m.dev.Close()
	m.dev, m.ctx = nil, nil
}

// NotifyDeviceRestored creates a new device, moves to Live and tells every
// listener. On failure the manager stays Lost and the error is returned.
func (m *Manager) NotifyDeviceRestored() error {
	if m.state == StateLive {
		return nil
	}
	if err := m.create(); err != nil {
		return err
	}
	logging.For("graphics").Info("device restored", "listeners", len(m.listeners))
	m.broadcast(Listener.OnGraphicDeviceRestored)
	return nil
}

// Reset runs a full loss and restore cycle.
func (m *Manager) Reset() error {
	m.NotifyDeviceLost()
	return m.NotifyDeviceRestored()
}

// SetHDREnabled records the HDR state and notifies HDRListeners when it
// changes.
func (m *Manager) SetHDREnabled(enabled bool) {
	if m.hdr == enabled {
		return
	}
	m.hdr = enabled
	m.broadcast(func(l Listener) {
		if h, ok := l.(HDRListener); ok {
			h.OnHDRChanged(enabled)
		}
	})
}

func (m *Manager) HDREnabled() bool { return m.hdr }

// SetDPI records the display density and notifies DPIListeners when it
// changes.
func (m *Manager) SetDPI(dpiX, dpiY float32) {
	if m.dpiX == dpiX && m.dpiY == dpiY {
		return
	}
	m.dpiX, m.dpiY = dpiX, dpiY
	m.broadcast(func(l Listener) {
		if d, ok := l.(DPIListener); ok {
			d.OnDPIChanged(dpiX, dpiY)
		}
	})
}

func (m *Manager) DPI() (float32, float32) { return m.dpiX, m.dpiY }

// Close releases the device without notifying anyone and drops all
// listeners.
func (m *Manager) Close() {
	if m.dev != nil {
		m.dev.Close()
	}
	m.dev, m.ctx = nil, nil
	m.state = StateLost
	m.listeners = nil
}
