package mesh

import (
	gomath "math"
	"slices"

	"github.com/Faultbox/bzwgen/pkg/math"
)

// pushBase records the face outline before its first in-place deformation.
// Later deformations keep the original record so Unchamfer always restores
// the outline the face had before any taper or chamfer.
func (m *Mesh) pushBase(id FaceID) {
	f := m.faces[id]
	if f.Base != nil {
		return
	}
	base := make([]int, len(f.Vertices))
	for i, v := range f.Vertices {
		m.base = append(m.base, m.vertices[v])
		base[i] = len(m.base) - 1
	}
	m.faces[id].Base = base
}

// inset returns the corners moved inward in the face plane so that every
// edge shifts by d. Negative d grows the face.
func (m *Mesh) inset(f Face, d float64) []math.Vec3 {
	ps := m.positions(f)
	n := newell(ps).Normalize()
	out := make([]math.Vec3, len(ps))
	for i, p := range ps {
		next := ps[(i+1)%len(ps)].Sub(p).Normalize()
		prev := ps[(i+len(ps)-1)%len(ps)].Sub(p).Normalize()
		inward := n.Cross(next)

		bisector := next.Add(prev)
		halfSin := next.Sub(prev).Length() / 2
		if bisector.Length() <= math.Epsilon || halfSin <= math.Epsilon {
			out[i] = p.Add(inward.Scale(d))
			continue
		}
		if bisector.Dot(inward) < 0 {
			bisector = bisector.Scale(-1)
		}
		out[i] = p.Add(bisector.Normalize().Scale(d / halfSin))
	}
	return out
}

// Chamfer insets the face uniformly by amount, moving its vertices in place.
// Faces sharing those vertices follow along.
func (m *Mesh) Chamfer(id FaceID, amount float64) error {
	f, err := m.face("chamfer", id, 3)
	if err != nil {
		return err
	}
	m.pushBase(id)
	for i, p := range m.inset(f, amount) {
		m.vertices[f.Vertices[i]] = p
	}
	return nil
}

// Expand grows the face outward by amount onto fresh vertices, detaching it
// from its neighbours. Negative amounts shrink it.
func (m *Mesh) Expand(id FaceID, amount float64) error {
	f, err := m.face("expand", id, 3)
	if err != nil {
		return err
	}
	ps := m.inset(f, -amount)
	ids := make([]int, len(ps))
	for i, p := range ps {
		ids[i] = m.AddVertex(p)
	}
	m.faces[id].Vertices = ids
	return nil
}

// Taper narrows the far edge of a quad (corners 3 and 2) by moving each end
// amount towards the other, in place. Positive amounts stop where the two
// corners meet.
func (m *Mesh) Taper(id FaceID, amount float64) error {
	f, err := m.quad("taper", id)
	if err != nil {
		return err
	}
	m.pushBase(id)
	left, right := f.Vertices[3], f.Vertices[2]
	pl, pr := m.vertices[left], m.vertices[right]
	width := pr.Distance(pl)
	if amount > width/2 {
		amount = width / 2
	}
	dir := pr.Sub(pl).Normalize()
	m.vertices[left] = pl.Add(dir.Scale(amount))
	m.vertices[right] = pr.Sub(dir.Scale(amount))
	return nil
}

// Unchamfer restores the outline recorded before the face was first tapered
// or chamfered. Faces never deformed are left alone.
func (m *Mesh) Unchamfer(id FaceID) error {
	f, err := m.face("unchamfer", id, 1)
	if err != nil {
		return err
	}
	if f.Base == nil {
		return nil
	}
	for i, b := range f.Base {
		m.vertices[f.Vertices[i]] = m.base[b]
	}
	m.faces[id].Base = nil
	return nil
}

// AddFaceFromBase appends a new face over fresh vertices at the recorded
// base outline of id, or at its current outline when none was recorded.
func (m *Mesh) AddFaceFromBase(id FaceID) (FaceID, error) {
	f, err := m.face("addface", id, 3)
	if err != nil {
		return 0, err
	}
	ids := make([]int, len(f.Vertices))
	for i, v := range f.Vertices {
		p := m.vertices[v]
		if f.Base != nil {
			p = m.base[f.Base[i]]
		}
		ids[i] = m.AddVertex(p)
	}
	return m.appendFace(Face{
		Vertices:  ids,
		TexCoords: make([]int, len(ids)),
		Material:  f.Material,
		Passable:  f.Passable,
	}), nil
}

// Copy appends a duplicate of the face over fresh vertices.
func (m *Mesh) Copy(id FaceID) (FaceID, error) {
	f, err := m.face("copy", id, 3)
	if err != nil {
		return 0, err
	}
	ids := make([]int, len(f.Vertices))
	for i, v := range f.Vertices {
		ids[i] = m.AddVertex(m.vertices[v])
	}
	return m.appendFace(Face{
		Vertices:  ids,
		TexCoords: slices.Clone(f.TexCoords),
		Material:  f.Material,
		Passable:  f.Passable,
	}), nil
}

// Detach replaces the face with a copy that shares no vertices with any
// other face, so later in-place edits leave neighbours untouched.
func (m *Mesh) Detach(id FaceID) (FaceID, error) {
	c, err := m.Copy(id)
	if err != nil {
		return 0, geomErr("detach", id, err)
	}
	m.faces[id].Freed = true
	return c, nil
}

// Scale scales the face about its center along its own horizontal (x) and
// vertical (y) axes, in place.
func (m *Mesh) Scale(id FaceID, x, y float64) error {
	f, err := m.face("scale", id, 3)
	if err != nil {
		return err
	}
	local := m.frameOf(f).matrix(centroid(m.positions(f)))
	m.transform(f, local.Mul(math.Scale(x, y, 1)).Mul(local.RigidInverse()))
	return nil
}

// Translate moves the face's vertices by a world-space offset, in place.
func (m *Mesh) Translate(id FaceID, x, y, z float64) error {
	f, err := m.face("translate", id, 1)
	if err != nil {
		return err
	}
	m.transform(f, math.Translate(x, y, z))
	return nil
}

// TranslateRelative moves the face in its own frame: u along the
// horizontal edge, v up the face and n along the outward normal.
func (m *Mesh) TranslateRelative(id FaceID, u, v, n float64) error {
	f, err := m.face("translater", id, 3)
	if err != nil {
		return err
	}
	d := m.frameOf(f).matrix(math.Vec3{}).TransformDirection(math.Vec3{X: u, Y: v, Z: n})
	m.transform(f, math.Translate(d.X, d.Y, d.Z))
	return nil
}

func (m *Mesh) transform(f Face, mat math.Mat4) {
	seen := make(map[int]bool, len(f.Vertices))
	for _, v := range f.Vertices {
		if seen[v] {
			continue
		}
		seen[v] = true
		m.vertices[v] = mat.TransformVec3(m.vertices[v])
	}
}

// WeldVertices moves two vertices onto their midpoint, closing a seam left
// by independent branches.
func (m *Mesh) WeldVertices(a, b int) error {
	pa, err := m.Vertex(a)
	if err != nil {
		return err
	}
	pb, err := m.Vertex(b)
	if err != nil {
		return err
	}
	mid := pa.Lerp(pb, 0.5)
	m.vertices[a] = mid
	m.vertices[b] = mid
	return nil
}

// WeldCorners welds two corners of a face, addressed by position in its
// winding.
func (m *Mesh) WeldCorners(id FaceID, i, j int) error {
	f, err := m.face("weld", id, 1)
	if err != nil {
		return err
	}
	if i < 0 || j < 0 || i >= len(f.Vertices) || j >= len(f.Vertices) {
		return geomErrf("weld", id, ErrInvalidArgument, "corners %d and %d of %d", i, j, len(f.Vertices))
	}
	return m.WeldVertices(f.Vertices[i], f.Vertices[j])
}

func round(v float64) float64 {
	return gomath.Round(v)
}
