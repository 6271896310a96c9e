package drawing

import "render-toolkit/math"

// CalculateNormalVector sets every vertex normal to the normalized sum of
// the face normals of the triangles using it. Face normals are not
// normalized before summing, so larger faces weigh more. Vertices touched
// by no non-degenerate triangle keep their normal.
func CalculateNormalVector(vertices []ModelVertex, indices []uint32) {
	sums := make([]math.Vec3, len(vertices))
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		if int(a) >= len(vertices) || int(b) >= len(vertices) || int(c) >= len(vertices) {
			continue
		}
		pa := vertices[a].Position
		face := vertices[b].Position.Sub(pa).Cross(vertices[c].Position.Sub(pa))
		sums[a] = sums[a].Add(face)
		sums[b] = sums[b].Add(face)
		sums[c] = sums[c].Add(face)
	}
	for i, n := range sums {
		if n.LengthSqr() > 0 {
			vertices[i].Normal = n.Normalize()
		}
	}
}
