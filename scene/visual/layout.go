package visual

import (
	"render-toolkit/math"
)

// Rect is a layout rectangle in pixels, origin top-left, Y down.
type Rect struct {
	X      float32 `yaml:"x"`
	Y      float32 `yaml:"y"`
	Width  float32 `yaml:"width"`
	Height float32 `yaml:"height"`
}

// Node is one view of a layout tree.
type Node struct {
	Name     string     `yaml:"name"`
	Bounds   Rect       `yaml:"bounds"`
	Color    math.Color `yaml:"color"`
	Children []*Node    `yaml:"children,omitempty"`
}

// palette colors nodes that leave Color unset, by depth.
var palette = []math.Color{
	{R: 0.85, G: 0.85, B: 0.88, A: 1},
	{R: 0.40, G: 0.62, B: 0.90, A: 1},
	{R: 0.45, G: 0.80, B: 0.55, A: 1},
	{R: 0.95, G: 0.70, B: 0.30, A: 1},
	{R: 0.85, G: 0.40, B: 0.45, A: 1},
}

// block is a laid-out node ready to become a box.
type block struct {
	name  string
	min   math.Vec3
	size  math.Vec3
	color math.Color
}

// flatten walks root depth-first. Each node becomes a block whose XY
// footprint is its rectangle mapped to world units, centred on the root
// and flipped so Y points up, lifted toward the camera by depth×spacing.
func flatten(root *Node, spacing, thickness float32) []block {
	if root == nil {
		return nil
	}
	cx := root.Bounds.X + root.Bounds.Width/2
	cy := root.Bounds.Y + root.Bounds.Height/2

	var out []block
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		if n == nil {
			return
		}
		r := n.Bounds
		color := n.Color
		if color == (math.Color{}) {
			color = palette[depth%len(palette)]
		}
		// empty views still place their children
		if r.Width > 0 && r.Height > 0 {
			out = append(out, block{
				name:  n.Name,
				min:   math.NewVec3(r.X-cx, cy-(r.Y+r.Height), -float32(depth)*spacing),
				size:  math.NewVec3(r.Width, r.Height, thickness),
				color: color,
			})
		}
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	walk(root, 0)
	return out
}
