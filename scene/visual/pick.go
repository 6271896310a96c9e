package visual

import (
	"github.com/chewxy/math32"

	"render-toolkit/math"
)

// hitBlock returns the index of the nearest block the ray enters, or -1.
func hitBlock(blocks []block, origin, dir math.Vec3) int {
	best, nearest := -1, float32(math32.MaxFloat32)
	for i, b := range blocks {
		t, ok := rayBox(origin, dir, b.min, b.min.Add(b.size))
		if ok && t < nearest {
			best, nearest = i, t
		}
	}
	return best
}

// rayBox is the slab test. t is the entry distance along dir, or zero
// when the origin is inside the box.
func rayBox(origin, dir, lo, hi math.Vec3) (float32, bool) {
	tmin, tmax := float32(0), float32(math32.MaxFloat32)
	for _, axis := range [3][4]float32{
		{origin.X, dir.X, lo.X, hi.X},
		{origin.Y, dir.Y, lo.Y, hi.Y},
		{origin.Z, dir.Z, lo.Z, hi.Z},
	} {
		o, d, a, b := axis[0], axis[1], axis[2], axis[3]
		if d == 0 {
			if o < a || o > b {
				return 0, false
			}
			continue
		}
		t1, t2 := (a-o)/d, (b-o)/d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
		if tmin > tmax {
			return 0, false
		}
	}
	return tmin, true
}
