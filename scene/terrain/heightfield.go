package terrain

import (
	"fmt"

	"github.com/chewxy/math32"

	"render-toolkit/configure"
	"render-toolkit/math"
)

// HeightField is a square grid of (2^n+1)² heights centred on the origin
// in the XZ plane.
type HeightField struct {
	size    int
	spacing float32
	heights []float32
}

// NewHeightField builds a grid of 2^exponent+1 samples per side filled by
// fractal value noise in 0..heightScale.
func NewHeightField(exponent int, spacing, heightScale float32, seed uint32) (*HeightField, error) {
	if exponent < 1 || exponent > 12 {
		return nil, fmt.Errorf("terrain exponent %d out of range 1..12", exponent)
	}
	if spacing <= 0 {
		return nil, fmt.Errorf("terrain spacing %g must be positive", spacing)
	}
	size := 1<<exponent + 1
	hf := &HeightField{size: size, spacing: spacing, heights: make([]float32, size*size)}

	const octaves = 5
	base := float32(size-1) / 4
	for z := 0; z < size; z++ {
		for x := 0; x < size; x++ {
			var h, amp, norm float32 = 0, 1, 0
			freq := 1 / base
			for o := 0; o < octaves; o++ {
				h += amp * valueNoise(float32(x)*freq, float32(z)*freq, seed+uint32(o))
				norm += amp
				amp *= 0.5
				freq *= 2
			}
			hf.heights[z*size+x] = h / norm * heightScale
		}
	}
	return hf, nil
}

// NewHeightFieldFrom wraps precomputed heights. len(heights) must be a
// square of 2^n+1.
func NewHeightFieldFrom(heights []float32, spacing float32) (*HeightField, error) {
	size := int(math32.Sqrt(float32(len(heights))) + 0.5)
	if size*size != len(heights) || size < 3 || (size-1)&(size-2) != 0 {
		return nil, fmt.Errorf("height count %d is not (2^n+1)^2", len(heights))
	}
	return &HeightField{size: size, spacing: spacing, heights: append([]float32(nil), heights...)}, nil
}

// Size is the number of samples per side.
func (hf *HeightField) Size() int { return hf.size }

func (hf *HeightField) Spacing() float32 { return hf.spacing }

// Extent is the world width of the field.
func (hf *HeightField) Extent() float32 { return float32(hf.size-1) * hf.spacing }

// At returns the height of sample (x, z), clamping to the border.
func (hf *HeightField) At(x, z int) float32 {
	x = min(max(x, 0), hf.size-1)
	z = min(max(z, 0), hf.size-1)
	return hf.heights[z*hf.size+x]
}

// Position is the world position of sample (x, z).
func (hf *HeightField) Position(x, z int) math.Vec3 {
	half := hf.Extent() / 2
	return math.NewVec3(float32(x)*hf.spacing-half, hf.At(x, z), float32(z)*hf.spacing-half)
}

// Normal estimates the surface normal at (x, z) from central differences.
func (hf *HeightField) Normal(x, z int) math.Vec3 {
	dx := hf.At(x+1, z) - hf.At(x-1, z)
	dz := hf.At(x, z+1) - hf.At(x, z-1)
	return math.NewVec3(-dx, 2*hf.spacing, -dz).Normalize()
}

// Vertices returns one vertex per sample, row by row along X.
func (hf *HeightField) Vertices() []configure.TerrainVertex {
	out := make([]configure.TerrainVertex, 0, hf.size*hf.size)
	for z := 0; z < hf.size; z++ {
		for x := 0; x < hf.size; x++ {
			out = append(out, configure.TerrainVertex{Position: hf.Position(x, z), Normal: hf.Normal(x, z)})
		}
	}
	return out
}

// valueNoise interpolates hashed lattice values smoothly. The result is in
// 0..1.
func valueNoise(x, z float32, seed uint32) float32 {
	x0, z0 := math32.Floor(x), math32.Floor(z)
	fx, fz := x-x0, z-z0
	ix, iz := int32(x0), int32(z0)

	v00 := lattice(ix, iz, seed)
	v10 := lattice(ix+1, iz, seed)
	v01 := lattice(ix, iz+1, seed)
	v11 := lattice(ix+1, iz+1, seed)

	sx := fx * fx * (3 - 2*fx)
	sz := fz * fz * (3 - 2*fz)
	top := v00 + (v10-v00)*sx
	bottom := v01 + (v11-v01)*sx
	return top + (bottom-top)*sz
}

func lattice(x, z int32, seed uint32) float32 {
	h := uint32(x)*0x8da6b343 ^ uint32(z)*0xd8163841 ^ seed*0xcb1ab31f
	h ^= h >> 13
	h *= 0x5bd1e995
	h ^= h >> 15
	return float32(h&0xffffff) / float32(0xffffff)
}
