// Package visual shows a tree of layout rectangles as stacked blocks, one
// block per view with deeper views closer to the eye, over a reference
// grid. glTF and OBJ models can be placed in the same space.
package visual

import (
	"image"

	"github.com/chewxy/math32"

	"render-toolkit/camera"
	"render-toolkit/configure"
	"render-toolkit/drawing"
	"render-toolkit/gpu"
	"render-toolkit/input"
	"render-toolkit/logging"
	"render-toolkit/math"
	"render-toolkit/scene"
	"render-toolkit/space"
)

// Options configure the visual scene.
type Options struct {
	Spacing   float32  `yaml:"spacing"`
	Thickness float32  `yaml:"thickness"`
	GridSize  float32  `yaml:"grid_size"`
	GridCells int      `yaml:"grid_cells"`
	ShowGrid  bool     `yaml:"show_grid"`
	Models    []string `yaml:"models,omitempty"`
}

func DefaultOptions() Options {
	return Options{Spacing: 40, Thickness: 8, GridSize: 2000, GridCells: 20, ShowGrid: true}
}

const (
	axisTag      = 1
	gridTag      = 2
	firstBlock   = 1
	firstModel   = 1
	orbitSpeed   = 0.01
	wheelFactor  = 0.9
	fitMargin    = 1.2
	initialYaw   = -0.5
	initialPitch = 0.35
)

var background = math.Color{R: 0.12, G: 0.12, B: 0.14, A: 1}

// Scene is the visual layout scene. It implements scene.Scene.
type Scene struct {
	scene.Base

	opts Options
	view scene.View
	cam  *camera.Camera

	model  *configure.Model
	assist *configure.Assist

	guides *drawing.Manager
	blocks *drawing.Manager
	models *space.Manager

	raster     gpu.Ptr[gpu.RasterizerState]
	depthState gpu.Ptr[gpu.DepthStencilState]

	layout     *Node
	laid       []block
	blockCount int
	showGrid   bool
	drag       input.Drag
	clicked    bool
	picked     string
}

var _ scene.Scene = (*Scene)(nil)

func New(opts Options) *Scene {
	return &Scene{opts: opts, showGrid: opts.ShowGrid}
}

func (s *Scene) OnSceneCreate(view scene.View) {
	log := logging.For("visual")
	s.view = view
	w, h := view.Size()
	s.cam = camera.New(w, h)

	dev := view.Manager().Device()
	s.model = configure.NewModel()
	if err := s.model.Init(dev, view.Resources()); err != nil {
		log.Error("model configure", "err", err)
	}
	s.assist = configure.NewAssist()
	if err := s.assist.Init(dev, view.Resources()); err != nil {
		log.Error("assist configure", "err", err)
	}

	s.guides = drawing.NewManager(view.Manager())
	s.blocks = drawing.NewManager(view.Manager())
	s.models = space.NewManager(view.Manager())

	g := drawing.NewGraphCreator(s.guides)
	g.PutWorldAxis(axisTag, s.opts.GridSize/4)
	g.PutGrid(gridTag, s.opts.GridSize, s.opts.GridCells)

	tag := firstModel
	for _, path := range s.opts.Models {
		n, err := space.Load(path, s.models, tag)
		if err != nil {
			log.Error("load model", "path", path, "err", err)
			continue
		}
		log.Info("model loaded", "path", path, "objects", n)
		tag += n
	}

	s.createStates(dev)
	if s.layout != nil {
		s.SetLayout(s.layout)
	}
}

func (s *Scene) createStates(dev gpu.Device) {
	if dev == nil {
		return
	}
	log := logging.For("visual")
	var err error
	s.raster, err = dev.CreateRasterizerState(&gpu.RasterizerDesc{Fill: gpu.FillSolid, Cull: gpu.CullBack, DepthClip: true})
	if err != nil {
		log.Error("rasterizer state", "err", err)
	}
	s.depthState, err = dev.CreateDepthStencilState(&gpu.DepthStencilDesc{
		DepthEnable: true,
		DepthWrite:  true,
		DepthFunc:   gpu.CompareLess,
	})
	if err != nil {
		log.Error("depth stencil state", "err", err)
	}
}

// SetLayout replaces the displayed blocks with those of root and fits the
// camera to it. Before OnSceneCreate the layout is only remembered.
func (s *Scene) SetLayout(root *Node) {
	s.layout = root
	if s.blocks == nil {
		return
	}
	for tag := firstBlock; tag < firstBlock+s.blockCount; tag++ {
		s.blocks.RemoveByTag(tag)
	}
	s.blockCount = 0
	s.picked = ""

	g := drawing.NewGraphCreator(s.blocks)
	s.laid = flatten(root, s.opts.Spacing, s.opts.Thickness)
	for i, b := range s.laid {
		if !g.PutBlock(firstBlock+i, b.min, b.size, b.color) {
			logging.For("visual").Warn("block rejected", "view", b.name)
		}
		s.blockCount = i + 1
	}
	s.fit()
	s.view.Invalidate()
}

// fit places the camera so the root rectangle fills the view with a margin.
func (s *Scene) fit() {
	w, h := s.cam.Size()
	s.cam = camera.New(w, h)
	if s.layout == nil {
		return
	}
	extent := max(s.layout.Bounds.Width, s.layout.Bounds.Height)
	if extent <= 0 {
		return
	}
	dist := extent * fitMargin / (2 * math32.Tan(s.cam.FOV()/2))
	s.cam.ScaleCamera(dist / s.cam.Radius())
	s.cam.CircleCamera(initialYaw, initialPitch)
}

// BlockCount is the number of blocks of the current layout.
func (s *Scene) BlockCount() int {
	if s.blocks == nil {
		return 0
	}
	return s.blocks.GetCount()
}

func (s *Scene) Camera() *camera.Camera { return s.cam }

// Picked is the name of the view last selected with a left click, or "".
func (s *Scene) Picked() string { return s.picked }

// pick selects the front-most block under window pixel p.
func (s *Scene) pick(p image.Point) {
	origin, dir, ok := s.cam.Ray(float32(p.X), float32(p.Y))
	if !ok {
		return
	}
	s.picked = ""
	if i := hitBlock(s.laid, origin, dir); i >= 0 {
		s.picked = s.laid[i].name
		logging.For("visual").Info("view picked", "name", s.picked, "at", p)
	}
}

func (s *Scene) OnSceneResize(width, height int) {
	if s.cam != nil {
		s.cam.Resize(width, height)
	}
}

// OnSceneInput orbits on left drag, pans on shift-drag or right drag,
// turns the world on control-drag and zooms on the wheel. A left click
// without movement picks a view. G toggles the grid and R refits the
// camera.
func (s *Scene) OnSceneInput(ev input.Event) bool {
	if s.cam == nil {
		return false
	}
	switch ev.Type {
	case input.KeyDown:
		switch ev.Key {
		case 'G':
			s.showGrid = !s.showGrid
			return true
		case 'R':
			s.fit()
			return true
		}
		return false
	case input.MouseWheel:
		s.cam.ScaleCamera(math32.Pow(wheelFactor, ev.Wheel))
		return true
	}

	switch {
	case ev.Type == input.MouseDown && ev.Button == input.Left && !s.drag.Active():
		s.clicked = true
	case ev.Type == input.MouseUp && ev.Button == input.Left && s.clicked:
		s.clicked = false
		s.pick(ev.Where)
	}
	button, mods, delta, ok := s.drag.Update(ev)
	if !ok {
		return ev.Type == input.MouseDown || ev.Type == input.MouseUp
	}
	if delta == (image.Point{}) {
		return true
	}
	s.clicked = false
	dx, dy := float32(delta.X), float32(delta.Y)
	switch {
	case mods.Has(input.Control):
		s.cam.RotateWorld(dx*orbitSpeed, dy*orbitSpeed)
	case button == input.Right || mods.Has(input.Shift):
		_, h := s.cam.Size()
		k := s.cam.Radius() / float32(h)
		s.cam.MoveCamera(-dx*k, dy*k)
	default:
		s.cam.CircleCamera2(dx*orbitSpeed, dy*orbitSpeed)
	}
	return true
}

func (s *Scene) OnSceneRender(ctx gpu.Context, t *scene.Target) {
	ctx.ClearRenderTarget(t.Color, background.Array())
	ctx.ClearDepthStencil(t.Depth, gpu.ClearDepth, 1, 0)
	if s.cam == nil {
		return
	}
	ctx.SetRasterizerState(s.raster.Get())
	ctx.SetDepthStencilState(s.depthState.Get(), 0)

	wvp := s.cam.WVPMatrix()
	if s.model.Active(ctx) {
		if s.model.SetMatrix(ctx, wvp) {
			s.blocks.DrawAll(ctx)
		}
		s.models.DrawAll(ctx, func(o *space.Object) {
			s.model.SetMatrix(ctx, o.World.Mul(wvp))
		})
	}
	if s.assist.Active(ctx) && s.assist.SetMatrix(ctx, wvp) {
		s.guides.Draw(ctx, axisTag)
		if s.showGrid {
			s.guides.Draw(ctx, gridTag)
		}
	}
}

func (s *Scene) OnSceneDestroy() {
	s.raster.Reset()
	s.depthState.Reset()
	if s.model == nil {
		return
	}
	s.model.Close()
	s.assist.Close()
	s.guides.Close()
	s.blocks.Close()
	s.models.Close()
}

func (s *Scene) OnGraphicDeviceLost() {
	s.raster.Reset()
	s.depthState.Reset()
	if s.model == nil {
		return
	}
	s.model.Close()
	s.assist.Close()
	s.guides.OnGraphicDeviceLost()
	s.blocks.OnGraphicDeviceLost()
	s.models.OnGraphicDeviceLost()
}

func (s *Scene) OnGraphicDeviceRestored() {
	if s.model == nil {
		return
	}
	log := logging.For("visual")
	dev := s.view.Manager().Device()
	if err := s.model.Restore(dev); err != nil {
		log.Error("restore model configure", "err", err)
	}
	if err := s.assist.Restore(dev); err != nil {
		log.Error("restore assist configure", "err", err)
	}
	s.guides.OnGraphicDeviceRestored()
	s.blocks.OnGraphicDeviceRestored()
	s.models.OnGraphicDeviceRestored()
	s.createStates(dev)
	s.view.Invalidate()
}
