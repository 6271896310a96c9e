package meshbuf

import (
	"iter"

	"render-toolkit/gpu"
	"render-toolkit/internal/objstore"
	"render-toolkit/logging"
)

// Set owns tagged values that each carry a Mesh, and keeps the meshes' GPU
// buffers in step with the device. Register it with the graphics manager
// so it sees device loss and restore.
type Set[T any] struct {
	component string
	devices   gpu.DeviceSource
	mesh      func(T) *Mesh
	objects   *objstore.Store[T]
	lost      bool
}

// NewSet returns an empty set. mesh extracts the geometry of a value;
// component names the owner in log records.
func NewSet[T any](component string, devices gpu.DeviceSource, mesh func(T) *Mesh) *Set[T] {
	return &Set[T]{
		component: component,
		devices:   devices,
		mesh:      mesh,
		objects:   objstore.New[T](),
	}
}

// Insert stores obj under tag and creates its buffers when a device is
// available. A duplicate tag is logged and leaves the set unchanged; a
// buffer failure is logged and the value is kept without buffers.
func (s *Set[T]) Insert(tag int, obj T) bool {
	if _, ok := s.objects.Insert(tag, obj); !ok {
		logging.For(s.component).Error("add rejected: duplicate tag", "tag", tag)
		return false
	}
	s.createBuffers(tag, obj)
	return true
}

func (s *Set[T]) createBuffers(tag int, obj T) {
	if s.lost || s.devices == nil {
		return
	}
	dev := s.devices.Device()
	if dev == nil {
		return
	}
	if err := s.mesh(obj).CreateBuffers(dev); err != nil {
		logging.For(s.component).Error("create buffers", "tag", tag, "err", err)
	}
}

// GetByTag returns the value with tag, or the zero T.
func (s *Set[T]) GetByTag(tag int) T {
	obj, _ := s.objects.Get(tag)
	return obj
}

// GetByPos returns the value at insertion-order position pos, or the zero T.
func (s *Set[T]) GetByPos(pos int) T {
	obj, _ := s.objects.At(pos)
	return obj
}

func (s *Set[T]) Contains(tag int) bool { return s.objects.Contains(tag) }

// RemoveByTag destroys the value with tag. An absent tag is a no-op.
func (s *Set[T]) RemoveByTag(tag int) bool {
	obj, ok := s.objects.Remove(tag)
	if ok {
		s.mesh(obj).DestroyBuffers()
	}
	return ok
}

// RemoveByPos destroys the value at insertion-order position pos.
func (s *Set[T]) RemoveByPos(pos int) bool {
	obj, ok := s.objects.RemoveAt(pos)
	if ok {
		s.mesh(obj).DestroyBuffers()
	}
	return ok
}

func (s *Set[T]) GetCount() int { return s.objects.Len() }

// Objects yields tag/value pairs in insertion order.
func (s *Set[T]) Objects() iter.Seq2[int, T] { return s.objects.All() }

// Draw issues one indexed draw for tag. Absent tags and meshes without
// buffers draw nothing.
func (s *Set[T]) Draw(ctx gpu.Context, tag int) bool {
	obj, ok := s.objects.Get(tag)
	if !ok {
		return false
	}
	return s.mesh(obj).Draw(ctx)
}

// OnGraphicDeviceLost releases every GPU buffer and keeps the values.
func (s *Set[T]) OnGraphicDeviceLost() {
	s.lost = true
	for _, obj := range s.objects.All() {
		s.mesh(obj).DestroyBuffers()
	}
}

// OnGraphicDeviceRestored rebuilds every buffer from the retained data.
func (s *Set[T]) OnGraphicDeviceRestored() {
	s.lost = false
	for tag, obj := range s.objects.All() {
		s.createBuffers(tag, obj)
	}
}

// Close destroys all values.
func (s *Set[T]) Close() {
	for _, obj := range s.objects.All() {
		s.mesh(obj).DestroyBuffers()
	}
	s.objects.Clear()
}
