package mesh

import (
	"github.com/Faultbox/bzwgen/pkg/math"
)

// Texture projects the face onto its own plane and repeats the texture
// every tile units. When snap is positive the repeat count across each axis
// is rounded to a multiple of snap (at least snap), so whole tiles fit.
func (m *Mesh) Texture(id FaceID, snap, tile float64) error {
	f, err := m.face("texture", id, 3)
	if err != nil {
		return err
	}
	if tile <= 0 {
		return geomErrf("texture", id, ErrInvalidArgument, "tile %g", tile)
	}
	uvs := m.planar(f)
	lo, hi := bounds(uvs)
	su := snapRepeat((hi.X-lo.X)/tile, snap)
	sv := snapRepeat((hi.Y-lo.Y)/tile, snap)
	for i, uv := range uvs {
		uvs[i] = math.Vec2{X: (uv.X - lo.X) / tile * su, Y: (uv.Y - lo.Y) / tile * sv}
	}
	m.setTexCoords(id, uvs)
	return nil
}

// snapRepeat returns the factor that stretches a repeat count to a
// multiple of snap.
func snapRepeat(repeat, snap float64) float64 {
	if snap <= 0 || repeat <= math.Epsilon {
		return 1
	}
	snapped := max(round(repeat/snap)*snap, snap)
	return snapped / repeat
}

// TextureFull stretches one copy of the texture across the face.
func (m *Mesh) TextureFull(id FaceID) error {
	f, err := m.face("texturefull", id, 3)
	if err != nil {
		return err
	}
	uvs := m.planar(f)
	lo, hi := bounds(uvs)
	w, h := hi.X-lo.X, hi.Y-lo.Y
	for i, uv := range uvs {
		var u, v float64
		if w > math.Epsilon {
			u = (uv.X - lo.X) / w
		}
		if h > math.Epsilon {
			v = (uv.Y - lo.Y) / h
		}
		uvs[i] = math.Vec2{X: u, Y: v}
	}
	m.setTexCoords(id, uvs)
	return nil
}

// TextureQuad maps the rectangle (au,av)-(bu,bv) of the texture onto a quad.
func (m *Mesh) TextureQuad(id FaceID, au, av, bu, bv float64) error {
	if _, err := m.quad("texturequad", id); err != nil {
		return err
	}
	m.setTexCoords(id, []math.Vec2{{X: au, Y: av}, {X: bu, Y: av}, {X: bu, Y: bv}, {X: au, Y: bv}})
	return nil
}

// TextureClear resets the face to the shared zero texcoord.
func (m *Mesh) TextureClear(id FaceID) error {
	f, err := m.face("textureclear", id, 1)
	if err != nil {
		return err
	}
	m.faces[id].TexCoords = make([]int, len(f.Vertices))
	return nil
}

func (m *Mesh) planar(f Face) []math.Vec2 {
	fr := m.frameOf(f)
	uvs := make([]math.Vec2, len(f.Vertices))
	for i, v := range f.Vertices {
		uvs[i] = fr.local(m.vertices[v])
	}
	return uvs
}

func (m *Mesh) setTexCoords(id FaceID, uvs []math.Vec2) {
	ids := make([]int, len(uvs))
	for i, uv := range uvs {
		ids[i] = m.AddTexCoord(uv)
	}
	m.faces[id].TexCoords = ids
}

func bounds(uvs []math.Vec2) (lo, hi math.Vec2) {
	lo, hi = uvs[0], uvs[0]
	for _, uv := range uvs[1:] {
		lo.X, lo.Y = min(lo.X, uv.X), min(lo.Y, uv.Y)
		hi.X, hi.Y = max(hi.X, uv.X), max(hi.Y, uv.Y)
	}
	return lo, hi
}
