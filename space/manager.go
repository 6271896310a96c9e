// Package space manages tagged model geometry placed in the world with its
// own transform.
package space

import (
	"render-toolkit/gpu"
	"render-toolkit/internal/meshbuf"
	"render-toolkit/logging"
	"render-toolkit/math"
)

// Object is one tagged mesh with a world transform.
type Object struct {
	Tag   int
	World math.Mat4
	*meshbuf.Mesh
}

// Manager owns Objects with unique tags and rebuilds their GPU buffers
// across device loss.
type Manager struct {
	*meshbuf.Set[*Object]
}

func NewManager(devices gpu.DeviceSource) *Manager {
	return &Manager{meshbuf.NewSet("space", devices, func(o *Object) *meshbuf.Mesh { return o.Mesh })}
}

// Add stores a new object with an identity world transform. Absent data,
// zero counts, short data and duplicate tags are logged and rejected
// without touching the manager.
func (m *Manager) Add(vertices []byte, indices []uint32, structSize, vertexCount, indexCount, tag int) bool {
	mesh, err := meshbuf.New(vertices, indices, structSize, vertexCount, indexCount)
	if err != nil {
		logging.For("space").Error("add rejected", "tag", tag, "err", err)
		return false
	}
	return m.Insert(tag, &Object{Tag: tag, World: math.Mat4Identity(), Mesh: mesh})
}

// DrawAll draws every object with buffers in insertion order. before, when
// set, runs ahead of each draw so the caller can upload the object's
// transform.
func (m *Manager) DrawAll(ctx gpu.Context, before func(*Object)) int {
	n := 0
	for _, obj := range m.Objects() {
		if !obj.HasBuffers() {
			continue
		}
		if before != nil {
			before(obj)
		}
		if obj.Draw(ctx) {
			n++
		}
	}
	return n
}
