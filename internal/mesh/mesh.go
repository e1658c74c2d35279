// Package mesh is the geometric kernel driven by the grammar engine. A Mesh
// owns growable vertex, texcoord and face arrays; everything is addressed by
// integer id and no operation ever reorders or removes an existing id.
package mesh

import (
	"slices"

	"github.com/Faultbox/bzwgen/pkg/math"
)

// FaceID addresses a face in a Mesh.
type FaceID int

// Face is an ordered polygon. Vertices and TexCoords index into the owning
// mesh and always have the same length.
type Face struct {
	Vertices  []int
	TexCoords []int
	Material  int
	Passable  bool
	Freed     bool
	// Base indexes the outline recorded before the first taper or chamfer,
	// nil when the face has not been deformed.
	Base []int
}

// Arity returns the number of corners.
func (f Face) Arity() int {
	return len(f.Vertices)
}

func (f Face) clone() Face {
	f.Vertices = slices.Clone(f.Vertices)
	f.TexCoords = slices.Clone(f.TexCoords)
	f.Base = slices.Clone(f.Base)
	return f
}

// Mesh is an arena of vertices, texture coordinates and faces. It is owned
// by a single generation run and is not safe for concurrent use.
type Mesh struct {
	vertices  []math.Vec3
	texcoords []math.Vec2
	faces     []Face
	base      []math.Vec3
}

// New returns an empty mesh. Texcoord 0 is always (0,0) and is shared by
// faces that have not been textured.
func New() *Mesh {
	return &Mesh{texcoords: []math.Vec2{{}}}
}

// AddVertex appends a vertex and returns its id.
func (m *Mesh) AddVertex(v math.Vec3) int {
	m.vertices = append(m.vertices, v)
	return len(m.vertices) - 1
}

// Vertex returns the position of a vertex.
func (m *Mesh) Vertex(id int) (math.Vec3, error) {
	if id < 0 || id >= len(m.vertices) {
		return math.Vec3{}, ErrInvalidVertex
	}
	return m.vertices[id], nil
}

// AddTexCoord appends a texture coordinate and returns its id.
func (m *Mesh) AddTexCoord(tc math.Vec2) int {
	m.texcoords = append(m.texcoords, tc)
	return len(m.texcoords) - 1
}

// TexCoord returns a texture coordinate.
func (m *Mesh) TexCoord(id int) (math.Vec2, error) {
	if id < 0 || id >= len(m.texcoords) {
		return math.Vec2{}, ErrInvalidArgument
	}
	return m.texcoords[id], nil
}

// AddFace appends a polygon over existing vertices with untextured corners.
func (m *Mesh) AddFace(vertices []int, material int) (FaceID, error) {
	next := FaceID(len(m.faces))
	if len(vertices) < 3 {
		return 0, geomErrf("add face", next, ErrArity, "%d vertices", len(vertices))
	}
	for _, v := range vertices {
		if v < 0 || v >= len(m.vertices) {
			return 0, geomErrf("add face", next, ErrInvalidVertex, "vertex %d", v)
		}
	}
	return m.appendFace(Face{
		Vertices:  slices.Clone(vertices),
		TexCoords: make([]int, len(vertices)),
		Material:  material,
	}), nil
}

// AddQuad appends four new vertices and a quad over them. Corners are given
// in winding order: a→b is the horizontal edge, a→d the vertical one.
func (m *Mesh) AddQuad(a, b, c, d math.Vec3, material int) FaceID {
	ids := []int{m.AddVertex(a), m.AddVertex(b), m.AddVertex(c), m.AddVertex(d)}
	return m.appendFace(Face{Vertices: ids, TexCoords: make([]int, 4), Material: material})
}

func (m *Mesh) appendFace(f Face) FaceID {
	m.faces = append(m.faces, f)
	return FaceID(len(m.faces) - 1)
}

// Face returns a copy of a face.
func (m *Mesh) Face(id FaceID) (Face, error) {
	if !m.valid(id) {
		return Face{}, geomErr("face", id, ErrInvalidFace)
	}
	return m.faces[id].clone(), nil
}

func (m *Mesh) valid(id FaceID) bool {
	return id >= 0 && int(id) < len(m.faces)
}

// face validates id and a minimum arity and returns the stored face by
// value. Its slices alias the arena; replace them rather than writing
// through them.
func (m *Mesh) face(op string, id FaceID, minArity int) (Face, error) {
	if !m.valid(id) {
		return Face{}, geomErr(op, id, ErrInvalidFace)
	}
	f := m.faces[id]
	if len(f.Vertices) < minArity {
		return Face{}, geomErrf(op, id, ErrArity, "need at least %d vertices, have %d", minArity, len(f.Vertices))
	}
	return f, nil
}

func (m *Mesh) quad(op string, id FaceID) (Face, error) {
	f, err := m.face(op, id, 4)
	if err != nil {
		return Face{}, err
	}
	if len(f.Vertices) != 4 {
		return Face{}, geomErrf(op, id, ErrArity, "need a quad, have %d vertices", len(f.Vertices))
	}
	return f, nil
}

// NumVertices returns the size of the vertex array.
func (m *Mesh) NumVertices() int { return len(m.vertices) }

// NumTexCoords returns the size of the texcoord array.
func (m *Mesh) NumTexCoords() int { return len(m.texcoords) }

// NumFaces returns the size of the face array, freed faces included.
func (m *Mesh) NumFaces() int { return len(m.faces) }

// LiveFaces returns the ids of all faces that have not been freed.
func (m *Mesh) LiveFaces() []FaceID {
	var ids []FaceID
	for i := range m.faces {
		if !m.faces[i].Freed {
			ids = append(ids, FaceID(i))
		}
	}
	return ids
}

// Free marks a face logically dead. It keeps its id and geometry but is
// excluded from output.
func (m *Mesh) Free(id FaceID) error {
	if !m.valid(id) {
		return geomErr("free", id, ErrInvalidFace)
	}
	m.faces[id].Freed = true
	return nil
}

// SetMaterial tags a face with a material id.
func (m *Mesh) SetMaterial(id FaceID, material int) error {
	if !m.valid(id) {
		return geomErr("material", id, ErrInvalidFace)
	}
	m.faces[id].Material = material
	return nil
}

// SetPassable marks a face as drive-through.
func (m *Mesh) SetPassable(id FaceID) error {
	if !m.valid(id) {
		return geomErr("drivethrough", id, ErrInvalidFace)
	}
	m.faces[id].Passable = true
	return nil
}

// positions returns the current corner positions of f.
func (m *Mesh) positions(f Face) []math.Vec3 {
	ps := make([]math.Vec3, len(f.Vertices))
	for i, v := range f.Vertices {
		ps[i] = m.vertices[v]
	}
	return ps
}

// FaceNormal returns the unit normal by Newell's method; counter-clockwise
// winding seen from outside gives an outward normal. Degenerate faces yield
// the zero vector.
func (m *Mesh) FaceNormal(id FaceID) (math.Vec3, error) {
	f, err := m.face("normal", id, 3)
	if err != nil {
		return math.Vec3{}, err
	}
	return newell(m.positions(f)).Normalize(), nil
}

func newell(ps []math.Vec3) math.Vec3 {
	var n math.Vec3
	for i := range ps {
		a, b := ps[i], ps[(i+1)%len(ps)]
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	return n
}

// FaceCenter returns the vertex centroid.
func (m *Mesh) FaceCenter(id FaceID) (math.Vec3, error) {
	f, err := m.face("center", id, 1)
	if err != nil {
		return math.Vec3{}, err
	}
	return centroid(m.positions(f)), nil
}

func centroid(ps []math.Vec3) math.Vec3 {
	var c math.Vec3
	for _, p := range ps {
		c = c.Add(p)
	}
	return c.Scale(1 / float64(len(ps)))
}

// FaceWidth is the length of the horizontal edge, corner 0 to corner 1.
func (m *Mesh) FaceWidth(id FaceID) (float64, error) {
	f, err := m.face("width", id, 2)
	if err != nil {
		return 0, err
	}
	return m.vertices[f.Vertices[1]].Distance(m.vertices[f.Vertices[0]]), nil
}

// FaceHeight is the length of the vertical edge, corner 0 to the last corner.
func (m *Mesh) FaceHeight(id FaceID) (float64, error) {
	f, err := m.face("height", id, 3)
	if err != nil {
		return 0, err
	}
	return m.vertices[f.Vertices[len(f.Vertices)-1]].Distance(m.vertices[f.Vertices[0]]), nil
}

// FaceArea returns the polygon area.
func (m *Mesh) FaceArea(id FaceID) (float64, error) {
	f, err := m.face("area", id, 3)
	if err != nil {
		return 0, err
	}
	return newell(m.positions(f)).Length() / 2, nil
}

// frame is the local coordinate system of a face: u along the horizontal
// edge, n the outward normal and v = n × u pointing "up" the face.
type frame struct {
	origin, u, v, n math.Vec3
}

func (m *Mesh) frameOf(f Face) frame {
	ps := m.positions(f)
	n := newell(ps).Normalize()
	u := ps[1].Sub(ps[0]).Normalize()
	if u == (math.Vec3{}) {
		u = ps[len(ps)-1].Sub(ps[0]).Cross(n).Normalize()
	}
	return frame{origin: ps[0], u: u, v: n.Cross(u), n: n}
}

func (fr frame) matrix(origin math.Vec3) math.Mat4 {
	return math.Frame(origin, fr.u, fr.v, fr.n)
}

// local returns p in the (u, v) plane coordinates of the frame.
func (fr frame) local(p math.Vec3) math.Vec2 {
	d := p.Sub(fr.origin)
	return math.Vec2{X: d.Dot(fr.u), Y: d.Dot(fr.v)}
}
