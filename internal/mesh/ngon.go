package mesh

import (
	gomath "math"

	"github.com/Faultbox/bzwgen/pkg/math"
)

// CreateNGon builds a regular n-sided fan in the XY plane facing +Z: a center
// vertex, n vertices on the circle and n triangles around it. It returns the
// first triangle; the rest follow with consecutive ids.
func (m *Mesh) CreateNGon(center math.Vec3, radius float64, n int) (FaceID, error) {
	return m.ngon(center, math.Vec3{Z: 1}, math.Vec3{X: 1}, radius, n, 0, false)
}

// CreateNGonOn builds the fan in the plane of an existing face, centred on it
// and oriented along its horizontal edge. The face itself is left alone.
// Faces with no area have no plane and are rejected.
func (m *Mesh) CreateNGonOn(id FaceID, radius float64, n int) (FaceID, error) {
	f, err := m.face("ngon", id, 3)
	if err != nil {
		return 0, err
	}
	if newell(m.positions(f)).Length() <= math.Epsilon {
		return 0, geomErrf("ngon", id, ErrInvalidArgument, "degenerate face")
	}
	fr := m.frameOf(f)
	return m.ngon(centroid(m.positions(f)), fr.n, fr.u, radius, n, f.Material, f.Passable)
}

func (m *Mesh) ngon(center, normal, ref math.Vec3, radius float64, n, material int, passable bool) (FaceID, error) {
	next := FaceID(len(m.faces))
	if n < 3 {
		return 0, geomErrf("ngon", next, ErrInvalidArgument, "%d sides", n)
	}
	if radius <= 0 {
		return 0, geomErrf("ngon", next, ErrInvalidArgument, "radius %g", radius)
	}

	c := m.AddVertex(center)
	spoke := ref.Normalize().Scale(radius)
	rim := make([]int, n)
	for k := range rim {
		q := math.QuatFromAxisAngle(normal, 2*gomath.Pi*float64(k)/float64(n))
		rim[k] = m.AddVertex(center.Add(q.Rotate(spoke)))
	}

	first := FaceID(len(m.faces))
	for k := range rim {
		m.appendFace(Face{
			Vertices:  []int{c, rim[k], rim[(k+1)%n]},
			TexCoords: make([]int, 3),
			Material:  material,
			Passable:  passable,
		})
	}
	return first, nil
}
