package graphics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"render-toolkit/gpu/softgpu"
)

type recorder struct {
	name   string
	events *[]string
	onLost func()
}

func (r *recorder) OnGraphicDeviceLost() {
	*r.events = append(*r.events, r.name+":lost")
	if r.onLost != nil {
		r.onLost()
	}
}

func (r *recorder) OnGraphicDeviceRestored() {
	*r.events = append(*r.events, r.name+":restored")
}

type displayRecorder struct {
	recorder
	hdr []bool
	dpi [][2]float32
}

func (d *displayRecorder) OnHDRChanged(enabled bool)       { d.hdr = append(d.hdr, enabled) }
func (d *displayRecorder) OnDPIChanged(dpiX, dpiY float32) { d.dpi = append(d.dpi, [2]float32{dpiX, dpiY}) }

func newLiveManager(t *testing.T) (*Manager, *softgpu.Backend) {
	t.Helper()
	backend := &softgpu.Backend{}
	m := NewManager(backend)
	require.NoError(t, m.Init())
	return m, backend
}

func TestInitAndState(t *testing.T) {
	m := NewManager(&softgpu.Backend{})
	assert.Equal(t, StateLost, m.State())
	assert.Nil(t, m.Device())
	assert.Nil(t, m.Context())

	require.NoError(t, m.Init())
	assert.Equal(t, StateLive, m.State())
	assert.NotNil(t, m.Device())
	assert.NotNil(t, m.Context())
}

func TestInitFailure(t *testing.T) {
	backend := &softgpu.Backend{}
	backend.FailCreate(1)
	m := NewManager(backend)

	assert.Error(t, m.Init())
	assert.Equal(t, StateLost, m.State())
	assert.NoError(t, m.Init())
}

func TestFanOutInInsertionOrder(t *testing.T) {
	m, _ := newLiveManager(t)
	var events []string
	a := &recorder{name: "a", events: &events}
	b := &recorder{name: "b", events: &events}
	c := &recorder{name: "c", events: &events}
	m.AddListener(b)
	m.AddListener(a)
	m.AddListener(c)
	m.AddListener(a)
	require.Len(t, m.Listeners(), 3, "duplicate registration is ignored")

	require.NoError(t, m.Reset())
	assert.Equal(t, []string{
		"b:lost", "a:lost", "c:lost",
		"b:restored", "a:restored", "c:restored",
	}, events)
}

func TestRemovalDuringBroadcast(t *testing.T) {
	m, _ := newLiveManager(t)
	var events []string
	a := &recorder{name: "a", events: &events}
	b := &recorder{name: "b", events: &events}
	c := &recorder{name: "c", events: &events}
	a.onLost = func() {
		m.RemoveListener(a)
		m.RemoveListener(b)
	}
	m.AddListener(a)
	m.AddListener(b)
	m.AddListener(c)

	m.NotifyDeviceLost()
	assert.Equal(t, []string{"a:lost", "c:lost"}, events)
	assert.Len(t, m.Listeners(), 1)
}

func TestLostAndRestoredReplaceDevice(t *testing.T) {
	m, backend := newLiveManager(t)
	first := backend.Current()

	var events []string
	var noDeviceDuringLoss, closedDuringLoss bool
	l := &recorder{name: "l", events: &events}
	l.onLost = func() {
		noDeviceDuringLoss = m.Device() == nil
		closedDuringLoss = first.Lost()
	}
	m.AddListener(l)

	m.NotifyDeviceLost()
	assert.Equal(t, StateLost, m.State())
	assert.True(t, noDeviceDuringLoss, "listeners see no device while lost")
	assert.False(t, closedDuringLoss, "the old device is closed only after the listeners ran")
	assert.True(t, first.Lost())

	m.NotifyDeviceLost()
	assert.Len(t, events, 1, "second loss is ignored")

	require.NoError(t, m.NotifyDeviceRestored())
	assert.Equal(t, StateLive, m.State())
	assert.NotSame(t, first, backend.Current())
	assert.Same(t, backend.Current(), m.Device())
}

func TestRestoreFailureStaysLost(t *testing.T) {
	m, backend := newLiveManager(t)
	var events []string
	m.AddListener(&recorder{name: "l", events: &events})

	backend.FailCreate(1)
	assert.Error(t, m.Reset())
	assert.Equal(t, StateLost, m.State())
	assert.Equal(t, []string{"l:lost"}, events)

	require.NoError(t, m.NotifyDeviceRestored())
	assert.Equal(t, []string{"l:lost", "l:restored"}, events)
}

func TestHDRAndDPINotifyOnChange(t *testing.T) {
	m, _ := newLiveManager(t)
	var events []string
	d := &displayRecorder{recorder: recorder{name: "d", events: &events}}
	m.AddListener(d)
	m.AddListener(&recorder{name: "plain", events: &events})

	m.SetHDREnabled(false)
	m.SetHDREnabled(true)
	m.SetHDREnabled(true)
	assert.Equal(t, []bool{true}, d.hdr)
	assert.True(t, m.HDREnabled())

	m.SetDPI(96, 96)
	m.SetDPI(144, 144)
	assert.Equal(t, [][2]float32{{144, 144}}, d.dpi)
	assert.Empty(t, events)
}
