// Package drawing manages tagged helper and model geometry and builds common
// shapes into it.
package drawing

import (
	"render-toolkit/gpu"
	"render-toolkit/internal/meshbuf"
	"render-toolkit/logging"
)

// Object is one tagged piece of geometry.
type Object struct {
	Tag int
	*meshbuf.Mesh
}

// Manager owns a set of Objects with unique tags and keeps their GPU
// buffers in step with the device. Register it with the graphics manager
// so it sees device loss and restore.
type Manager struct {
	*meshbuf.Set[*Object]
}

func NewManager(devices gpu.DeviceSource) *Manager {
	return &Manager{meshbuf.NewSet("drawing", devices, func(o *Object) *meshbuf.Mesh { return o.Mesh })}
}

// Add stores a new object built from copies of the given data. It rejects
// absent data, zero counts, data shorter than the counts and duplicate
// tags: the rejection is logged, false is returned and the manager stays
// unchanged. Buffers are created right away when a device is available; a
// creation failure is logged and the object is kept without buffers.
func (m *Manager) Add(vertices []byte, indices []uint32, structSize, vertexCount, indexCount, tag int) bool {
	mesh, err := meshbuf.New(vertices, indices, structSize, vertexCount, indexCount)
	if err != nil {
		logging.For("drawing").Error("add rejected", "tag", tag, "err", err)
		return false
	}
	return m.Insert(tag, &Object{Tag: tag, Mesh: mesh})
}

// DrawAll draws every object in insertion order and returns the number of
// draws issued.
func (m *Manager) DrawAll(ctx gpu.Context) int {
	n := 0
	for _, obj := range m.Objects() {
		if obj.Draw(ctx) {
			n++
		}
	}
	return n
}
