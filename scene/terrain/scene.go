// Package terrain renders a height field with view-dependent level of
// detail. The index buffer is rebuilt every frame from the camera position
// unless the LOD is frozen.
package terrain

import (
	"github.com/chewxy/math32"

	"render-toolkit/camera"
	"render-toolkit/configure"
	"render-toolkit/drawing"
	"render-toolkit/gpu"
	"render-toolkit/input"
	"render-toolkit/logging"
	"render-toolkit/math"
	"render-toolkit/scene"
)

// Options shape the generated terrain.
type Options struct {
	Exponent    int     `yaml:"exponent"`
	Spacing     float32 `yaml:"spacing"`
	HeightScale float32 `yaml:"height_scale"`
	Seed        uint32  `yaml:"seed"`
	C1          float32 `yaml:"c1"`
	C2          float32 `yaml:"c2"`
}

func DefaultOptions() Options {
	return Options{Exponent: 7, Spacing: 8, HeightScale: 255, Seed: 1, C1: 8, C2: 20}
}

const (
	axisTag      = 1
	orbitSpeed   = 0.01
	wheelFactor  = 0.9
	initialPitch = 0.6
)

var skyColor = math.Color{R: 0.45, G: 0.62, B: 0.85, A: 1}

var vertexStride = gpu.SizeOf[configure.TerrainVertex]()

// Scene is the terrain scene. It implements scene.Scene.
type Scene struct {
	scene.Base

	opts Options
	view scene.View
	cam  *camera.Camera

	field *HeightField
	lod   *LodGenerator

	surface *configure.Terrain
	assist  *configure.Assist
	axes    *drawing.Manager

	vb         gpu.Ptr[gpu.Buffer]
	ib         gpu.Ptr[gpu.Buffer]
	solid      gpu.Ptr[gpu.RasterizerState]
	wire       gpu.Ptr[gpu.RasterizerState]
	depthState gpu.Ptr[gpu.DepthStencilState]

	indexCount int
	frozen     bool
	wireframe  bool
	drag       input.Drag
}

var _ scene.Scene = (*Scene)(nil)

func New(opts Options) *Scene {
	return &Scene{opts: opts}
}

func (s *Scene) OnSceneCreate(view scene.View) {
	log := logging.For("terrain")
	s.view = view

	field, err := NewHeightField(s.opts.Exponent, s.opts.Spacing, s.opts.HeightScale, s.opts.Seed)
	if err != nil {
		log.Error("height field", "err", err)
		return
	}
	lod, err := NewLodGenerator(field, s.opts.C1, s.opts.C2)
	if err != nil {
		log.Error("lod generator", "err", err)
		return
	}
	s.field, s.lod = field, lod

	w, h := view.Size()
	s.cam = camera.New(w, h)
	s.cam.ScaleCamera(field.Extent() / 600)
	s.cam.CircleCamera(0, initialPitch)

	dev := view.Manager().Device()
	s.surface = configure.NewTerrain()
	if err := s.surface.Init(dev, view.Resources()); err != nil {
		log.Error("terrain configure", "err", err)
	}
	s.assist = configure.NewAssist()
	if err := s.assist.Init(dev, view.Resources()); err != nil {
		log.Error("assist configure", "err", err)
	}
	s.axes = drawing.NewManager(view.Manager())
	drawing.NewGraphCreator(s.axes).PutWorldAxis(axisTag, field.Extent()/2)

	s.createDeviceObjects(dev)
}

// createDeviceObjects builds everything the configures and the axis
// manager do not own.
func (s *Scene) createDeviceObjects(dev gpu.Device) {
	if dev == nil || s.field == nil {
		return
	}
	log := logging.For("terrain")
	var err error

	vertices := s.field.Vertices()
	s.vb, err = dev.CreateBuffer(&gpu.BufferDesc{
		ByteWidth: len(vertices) * vertexStride,
		ResType:   gpu.BindVertexBuffer,
	}, &gpu.ResourceData{Data: gpu.AsBytes(vertices)})
	if err != nil {
		log.Error("vertex buffer", "err", err)
	}
	s.ib, err = dev.CreateBuffer(&gpu.BufferDesc{
		ByteWidth: s.lod.MaxIndexCount() * 4,
		ResType:   gpu.BindIndexBuffer,
		Dynamic:   true,
		CPUAccess: gpu.CPUAccessWrite,
	}, nil)
	if err != nil {
		log.Error("index buffer", "err", err)
	}
	s.solid, err = dev.CreateRasterizerState(&gpu.RasterizerDesc{Fill: gpu.FillSolid, Cull: gpu.CullBack, DepthClip: true})
	if err != nil {
		log.Error("solid rasterizer", "err", err)
	}
	s.wire, err = dev.CreateRasterizerState(&gpu.RasterizerDesc{Fill: gpu.FillWireframe, Cull: gpu.CullNone, DepthClip: true})
	if err != nil {
		log.Error("wireframe rasterizer", "err", err)
	}
	s.depthState, err = dev.CreateDepthStencilState(&gpu.DepthStencilDesc{
		DepthEnable: true,
		DepthWrite:  true,
		DepthFunc:   gpu.CompareLessEqual,
	})
	if err != nil {
		log.Error("depth stencil state", "err", err)
	}
	s.indexCount = 0
}

func (s *Scene) releaseDeviceObjects() {
	s.depthState.Reset()
	s.wire.Reset()
	s.solid.Reset()
	s.ib.Reset()
	s.vb.Reset()
	s.indexCount = 0
}

func (s *Scene) OnSceneResize(width, height int) {
	if s.cam != nil {
		s.cam.Resize(width, height)
	}
}

// OnSceneInput orbits on left drag, pans on shift-drag or right drag and
// zooms on the wheel. L freezes the LOD and W toggles wireframe.
func (s *Scene) OnSceneInput(ev input.Event) bool {
	if s.cam == nil {
		return false
	}
	switch ev.Type {
	case input.KeyDown:
		switch ev.Key {
		case 'L':
			s.frozen = !s.frozen
			return true
		case 'W':
			s.wireframe = !s.wireframe
			return true
		}
		return false
	case input.MouseWheel:
		s.cam.ScaleCamera(math32.Pow(wheelFactor, ev.Wheel))
		return true
	}

	button, mods, delta, ok := s.drag.Update(ev)
	if !ok {
		return ev.Type == input.MouseDown || ev.Type == input.MouseUp
	}
	dx, dy := float32(delta.X), float32(delta.Y)
	if button == input.Right || mods.Has(input.Shift) {
		_, h := s.cam.Size()
		k := s.cam.Radius() / float32(h)
		s.cam.MoveCamera(-dx*k, dy*k)
	} else {
		s.cam.CircleCamera(dx*orbitSpeed, dy*orbitSpeed)
	}
	return true
}

func (s *Scene) OnSceneRender(ctx gpu.Context, t *scene.Target) {
	ctx.ClearRenderTarget(t.Color, skyColor.Array())
	ctx.ClearDepthStencil(t.Depth, gpu.ClearDepth|gpu.ClearStencil, 1, 0)
	if s.cam == nil {
		return
	}
	if !s.frozen {
		s.updateIndices(ctx)
	}

	ctx.SetDepthStencilState(s.depthState.Get(), 0)
	rs := s.solid
	if s.wireframe {
		rs = s.wire
	}
	ctx.SetRasterizerState(rs.Get())

	wvp := s.cam.WVPMatrix()
	if s.indexCount > 0 && !s.vb.IsNull() && s.surface.Active(ctx) && s.surface.SetMatrix(ctx, wvp) {
		ctx.SetPrimitiveTopology(gpu.TopologyTriangleList)
		ctx.SetVertexBuffers(0, []gpu.Buffer{s.vb.Get()}, []int{vertexStride}, []int{0})
		ctx.SetIndexBuffer(s.ib.Get(), gpu.IndexUint32, 0)
		ctx.DrawIndexed(s.indexCount, 0, 0)
	}

	ctx.SetRasterizerState(s.solid.Get())
	if s.assist.Active(ctx) && s.assist.SetMatrix(ctx, wvp) {
		s.axes.DrawAll(ctx)
	}
}

// updateIndices regenerates the LOD triangulation for the current camera
// and uploads it.
func (s *Scene) updateIndices(ctx gpu.Context) {
	if s.ib.IsNull() {
		return
	}
	frustum := FrustumFromVP(s.cam.ViewProjection())
	indices := s.lod.Generate(s.cam.Position(), &frustum)
	if gpu.WithLock(ctx, s.ib.Get(), func(data []byte) {
		copy(data, gpu.AsBytes(indices))
	}) {
		s.indexCount = len(indices)
	}
}

func (s *Scene) OnSceneDestroy() {
	s.releaseDeviceObjects()
	if s.surface != nil {
		s.surface.Close()
	}
	if s.assist != nil {
		s.assist.Close()
	}
	if s.axes != nil {
		s.axes.Close()
	}
}

func (s *Scene) OnGraphicDeviceLost() {
	s.releaseDeviceObjects()
	if s.surface == nil {
		return
	}
	s.surface.Close()
	s.assist.Close()
	s.axes.OnGraphicDeviceLost()
}

func (s *Scene) OnGraphicDeviceRestored() {
	if s.surface == nil {
		return
	}
	dev := s.view.Manager().Device()
	if err := s.surface.Restore(dev); err != nil {
		logging.For("terrain").Error("restore terrain configure", "err", err)
	}
	if err := s.assist.Restore(dev); err != nil {
		logging.For("terrain").Error("restore assist configure", "err", err)
	}
	s.axes.OnGraphicDeviceRestored()
	s.createDeviceObjects(dev)
	s.view.Invalidate()
}

func (s *Scene) Camera() *camera.Camera { return s.cam }

// IndexCount is the number of indices drawn by the last frame.
func (s *Scene) IndexCount() int { return s.indexCount }

func (s *Scene) Frozen() bool { return s.frozen }

func (s *Scene) Wireframe() bool { return s.wireframe }
