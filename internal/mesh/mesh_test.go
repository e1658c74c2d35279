package mesh

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Faultbox/bzwgen/internal/output"
	"github.com/Faultbox/bzwgen/pkg/math"
)

const tol = 1e-9

func rect(m *Mesh, w, h float64) FaceID {
	return m.AddQuad(
		math.Vec3{X: 0, Y: 0, Z: 0},
		math.Vec3{X: w, Y: 0, Z: 0},
		math.Vec3{X: w, Y: h, Z: 0},
		math.Vec3{X: 0, Y: h, Z: 0},
		0,
	)
}

func corners(t *testing.T, m *Mesh, id FaceID) []math.Vec3 {
	t.Helper()
	f, err := m.Face(id)
	require.NoError(t, err)
	return m.positions(f)
}

func requireArea(t *testing.T, m *Mesh, id FaceID) float64 {
	t.Helper()
	a, err := m.FaceArea(id)
	require.NoError(t, err)
	return a
}

type namedMaterials map[int]output.Material

func (n namedMaterials) Material(id int) output.Material {
	if mat, ok := n[id]; ok {
		return mat
	}
	return output.Material{Name: output.DefaultMaterialName(id)}
}

func TestAddFaceValidation(t *testing.T) {
	m := New()
	a := m.AddVertex(math.Vec3{})
	b := m.AddVertex(math.Vec3{X: 1})
	c := m.AddVertex(math.Vec3{Y: 1})

	id, err := m.AddFace([]int{a, b, c}, 3)
	require.NoError(t, err)
	f, err := m.Face(id)
	require.NoError(t, err)
	require.Equal(t, 3, f.Material)
	require.Len(t, f.TexCoords, 3)

	_, err = m.AddFace([]int{a, b}, 0)
	require.ErrorIs(t, err, ErrArity)

	_, err = m.AddFace([]int{a, b, 99}, 0)
	require.ErrorIs(t, err, ErrInvalidVertex)

	_, err = m.Face(42)
	require.ErrorIs(t, err, ErrInvalidFace)
}

func TestFaceMeasurements(t *testing.T) {
	m := New()
	id := rect(m, 4, 3)

	w, err := m.FaceWidth(id)
	require.NoError(t, err)
	require.InDelta(t, 4, w, tol)

	h, err := m.FaceHeight(id)
	require.NoError(t, err)
	require.InDelta(t, 3, h, tol)

	require.InDelta(t, 12, requireArea(t, m, id), tol)

	n, err := m.FaceNormal(id)
	require.NoError(t, err)
	require.True(t, n.ApproxEqual(math.Vec3{Z: 1}, tol), "normal %v", n)

	c, err := m.FaceCenter(id)
	require.NoError(t, err)
	require.True(t, c.ApproxEqual(math.Vec3{X: 2, Y: 1.5}, tol), "center %v", c)
}

func TestExtrude(t *testing.T) {
	m := New()
	base := rect(m, 1, 1)

	top, sides, err := m.Extrude(base, 10)
	require.NoError(t, err)
	require.NotEqual(t, base, top)
	require.Len(t, sides, 4)

	orig, _ := m.Face(base)
	require.True(t, orig.Freed)
	require.Len(t, m.LiveFaces(), 5)

	for _, p := range corners(t, m, top) {
		require.InDelta(t, 10, p.Z, tol)
	}

	wantNormals := []math.Vec3{{Y: -1}, {X: 1}, {Y: 1}, {X: -1}}
	for i, s := range sides {
		n, err := m.FaceNormal(s)
		require.NoError(t, err)
		require.True(t, n.ApproxEqual(wantNormals[i], tol), "side %d normal %v", i, n)

		w, _ := m.FaceWidth(s)
		h, _ := m.FaceHeight(s)
		require.InDelta(t, 1, w, tol)
		require.InDelta(t, 10, h, tol)
	}

	// Side quads share the footprint and the raised vertices.
	sf, _ := m.Face(sides[0])
	tf, _ := m.Face(top)
	require.Equal(t, orig.Vertices[0], sf.Vertices[0])
	require.Equal(t, tf.Vertices[0], sf.Vertices[3])
}

func TestExtrudeZeroHeight(t *testing.T) {
	m := New()
	base := rect(m, 2, 3)
	footprint := corners(t, m, base)

	top, sides, err := m.Extrude(base, 0)
	require.NoError(t, err)
	require.NotEqual(t, base, top)
	require.Len(t, sides, 4)

	got := corners(t, m, top)
	for i := range got {
		require.True(t, got[i].ApproxEqual(footprint[i], tol))
	}
	for _, s := range sides {
		require.InDelta(t, 0, requireArea(t, m, s), tol)
	}
}

func TestSubdivide(t *testing.T) {
	for _, horizontal := range []bool{true, false} {
		for _, n := range []int{1, 2, 3, 7} {
			m := New()
			id := rect(m, 6, 4)
			area := requireArea(t, m, id)

			children, err := m.Subdivide(id, n, horizontal)
			require.NoError(t, err)
			require.Len(t, children, n)

			var sum float64
			for _, c := range children {
				sum += requireArea(t, m, c)
				if horizontal {
					h, _ := m.FaceHeight(c)
					require.InDelta(t, 4, h, tol)
					w, _ := m.FaceWidth(c)
					require.InDelta(t, 6/float64(n), w, tol)
				} else {
					w, _ := m.FaceWidth(c)
					require.InDelta(t, 6, w, tol)
				}
				cn, _ := m.FaceNormal(c)
				require.True(t, cn.ApproxEqual(math.Vec3{Z: 1}, tol))
			}
			require.InDelta(t, area, sum, 1e-6, "n=%d horizontal=%v", n, horizontal)

			parent, _ := m.Face(id)
			require.True(t, parent.Freed)
		}
	}
}

func TestSubdivideSharesVertices(t *testing.T) {
	m := New()
	id := rect(m, 2, 1)
	children, err := m.Subdivide(id, 2, true)
	require.NoError(t, err)

	left, _ := m.Face(children[0])
	right, _ := m.Face(children[1])
	require.Equal(t, left.Vertices[1], right.Vertices[0])
	require.Equal(t, left.Vertices[2], right.Vertices[3])
}

func TestSubdivideRejectsBadInput(t *testing.T) {
	m := New()
	a := m.AddVertex(math.Vec3{})
	b := m.AddVertex(math.Vec3{X: 1})
	c := m.AddVertex(math.Vec3{Y: 1})
	tri, err := m.AddFace([]int{a, b, c}, 0)
	require.NoError(t, err)

	before := m.NumFaces()
	_, err = m.Subdivide(tri, 2, true)
	require.ErrorIs(t, err, ErrArity)

	var gerr *GeometryError
	require.True(t, errors.As(err, &gerr))
	require.Equal(t, tri, gerr.Face)
	require.Equal(t, before, m.NumFaces(), "rejected split must not touch the mesh")

	quad := rect(m, 1, 1)
	_, err = m.Subdivide(quad, 0, true)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = m.Subdivide(FaceID(999), 2, true)
	require.ErrorIs(t, err, ErrInvalidFace)
}

func TestSubdivideBySize(t *testing.T) {
	tests := []struct {
		name  string
		width float64
		size  float64
		want  int
	}{
		{"exact", 9, 3, 3},
		{"rounds down", 10, 3, 3},
		{"rounds up", 11, 3, 4},
		{"never below one", 1, 10, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			id := rect(m, tt.width, 2)
			children, err := m.SubdivideBySize(id, tt.size, true)
			require.NoError(t, err)
			require.Len(t, children, tt.want)
		})
	}
}

func TestPartitionInclusive(t *testing.T) {
	widths := func(m *Mesh, ids []FaceID) ([]float64, float64) {
		var ws []float64
		var total float64
		for _, id := range ids {
			w, err := m.FaceWidth(id)
			require.NoError(t, err)
			ws = append(ws, w)
			total += w
		}
		return ws, total
	}

	m := New()
	id := rect(m, 10, 2)
	children, err := m.Partition(id, []float64{0, 4, 4, 10}, true, true)
	require.NoError(t, err)
	ws, total := widths(m, children)
	require.Len(t, children, 5)
	require.InDeltaSlice(t, []float64{0, 4, 0, 6, 0}, ws, tol)
	require.InDelta(t, 10, total, tol)

	m = New()
	id = rect(m, 10, 2)
	children, err = m.Partition(id, []float64{0, 4, 4, 10}, true, false)
	require.NoError(t, err)
	ws, total = widths(m, children)
	require.InDeltaSlice(t, []float64{4, 6}, ws, tol)
	require.InDelta(t, 10, total, tol)
}

func TestPartitionSegments(t *testing.T) {
	m := New()
	id := rect(m, 10, 2)
	children, segs, err := m.PartitionSegments(id, []float64{0, 4, 4, 10}, true, false)
	require.NoError(t, err)
	require.Len(t, children, 2)
	require.Equal(t, []int{1, 3}, segs)

	m = New()
	id = rect(m, 10, 2)
	children, segs, err = m.PartitionSegments(id, []float64{0, 4, 4, 10}, true, true)
	require.NoError(t, err)
	require.Len(t, children, 5)
	require.Equal(t, []int{0, 1, 2, 3, 4}, segs)
}

func TestPartitionClampsBreakpoints(t *testing.T) {
	m := New()
	id := rect(m, 2, 10)
	children, err := m.Partition(id, []float64{6, 3, 25}, false, false)
	require.NoError(t, err)
	require.Len(t, children, 2)

	h0, _ := m.FaceHeight(children[0])
	h1, _ := m.FaceHeight(children[1])
	require.InDelta(t, 6, h0, tol)
	require.InDelta(t, 4, h1, tol)
}

func TestPlanPartition(t *testing.T) {
	tests := []struct {
		name      string
		total     float64
		sizes     []float64
		inclusive bool
		want      []float64
		remainder bool
	}{
		{"absolute with remainder", 10, []float64{3}, false, []float64{3}, true},
		{"absolute exact fit", 10, []float64{4, 6}, false, []float64{4, 10}, false},
		{"exact fit inclusive keeps remainder", 10, []float64{4, 6}, true, []float64{4, 10}, true},
		{"relative shares", 10, []float64{2, -1, -1}, false, []float64{2, 6}, false},
		{"relative overflow", 10, []float64{12, -1}, false, []float64{12}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PlanPartition(tt.total, tt.sizes, tt.inclusive)
			require.InDeltaSlice(t, tt.want, got.Breakpoints, tol)
			require.Equal(t, tt.remainder, got.Remainder)
		})
	}
}

func TestTaperAndUnchamfer(t *testing.T) {
	m := New()
	id := rect(m, 1, 1)
	original := corners(t, m, id)

	require.NoError(t, m.Taper(id, 0.25))
	got := corners(t, m, id)
	require.True(t, got[3].ApproxEqual(math.Vec3{X: 0.25, Y: 1}, tol), "%v", got[3])
	require.True(t, got[2].ApproxEqual(math.Vec3{X: 0.75, Y: 1}, tol), "%v", got[2])
	require.True(t, got[0].ApproxEqual(original[0], tol))

	// A second deformation keeps the first recorded outline.
	require.NoError(t, m.Chamfer(id, 0.1))
	require.NoError(t, m.Unchamfer(id))
	got = corners(t, m, id)
	for i := range got {
		require.True(t, got[i].ApproxEqual(original[i], tol), "corner %d: %v", i, got[i])
	}

	f, _ := m.Face(id)
	require.Nil(t, f.Base)
}

func TestTaperClampsAtMidpoint(t *testing.T) {
	m := New()
	id := rect(m, 2, 1)
	require.NoError(t, m.Taper(id, 5))
	got := corners(t, m, id)
	require.True(t, got[2].ApproxEqual(got[3], tol))
	require.True(t, got[2].ApproxEqual(math.Vec3{X: 1, Y: 1}, tol))
}

func TestTaperMovesSharedVertices(t *testing.T) {
	m := New()
	base := rect(m, 4, 4)
	top, sides, err := m.Extrude(base, 3)
	require.NoError(t, err)

	// Tapering the front wall pulls the top face's corners with it.
	require.NoError(t, m.Taper(sides[0], 1))
	topCorners := corners(t, m, top)
	require.True(t, topCorners[0].ApproxEqual(math.Vec3{X: 1, Y: 0, Z: 3}, tol), "%v", topCorners[0])
}

func TestChamfer(t *testing.T) {
	m := New()
	id := rect(m, 10, 10)
	require.NoError(t, m.Chamfer(id, 1))

	want := []math.Vec3{{X: 1, Y: 1}, {X: 9, Y: 1}, {X: 9, Y: 9}, {X: 1, Y: 9}}
	got := corners(t, m, id)
	for i := range want {
		require.True(t, got[i].ApproxEqual(want[i], 1e-9), "corner %d: %v", i, got[i])
	}
}

func TestExpandDetaches(t *testing.T) {
	m := New()
	id := rect(m, 2, 2)
	before, _ := m.Face(id)

	require.NoError(t, m.Expand(id, 1))
	after, _ := m.Face(id)
	require.NotEqual(t, before.Vertices, after.Vertices)
	require.InDelta(t, 16, requireArea(t, m, id), 1e-9)

	// The old vertices are untouched.
	p, _ := m.Vertex(before.Vertices[0])
	require.Equal(t, math.Vec3{}, p)
}

func TestScaleAndTranslate(t *testing.T) {
	m := New()
	id := rect(m, 2, 2)

	require.NoError(t, m.Scale(id, 2, 0.5))
	w, _ := m.FaceWidth(id)
	h, _ := m.FaceHeight(id)
	require.InDelta(t, 4, w, tol)
	require.InDelta(t, 1, h, tol)
	c, _ := m.FaceCenter(id)
	require.True(t, c.ApproxEqual(math.Vec3{X: 1, Y: 1}, tol), "%v", c)

	require.NoError(t, m.Translate(id, 1, 2, 3))
	c, _ = m.FaceCenter(id)
	require.True(t, c.ApproxEqual(math.Vec3{X: 2, Y: 3, Z: 3}, tol), "%v", c)

	require.NoError(t, m.TranslateRelative(id, 0, 0, 5))
	c, _ = m.FaceCenter(id)
	require.True(t, c.ApproxEqual(math.Vec3{X: 2, Y: 3, Z: 8}, tol), "%v", c)
}

func TestTranslateRelativeOnWall(t *testing.T) {
	m := New()
	base := rect(m, 4, 4)
	_, sides, err := m.Extrude(base, 3)
	require.NoError(t, err)

	// Front wall faces -Y: pushing along its normal moves it away from the box.
	require.NoError(t, m.TranslateRelative(sides[0], 0, 1, 2))
	c, _ := m.FaceCenter(sides[0])
	require.True(t, c.ApproxEqual(math.Vec3{X: 2, Y: -2, Z: 2.5}, tol), "%v", c)
}

func TestWeld(t *testing.T) {
	m := New()
	a := m.AddVertex(math.Vec3{X: 0})
	b := m.AddVertex(math.Vec3{X: 2, Y: 2})
	require.NoError(t, m.WeldVertices(a, b))
	pa, _ := m.Vertex(a)
	pb, _ := m.Vertex(b)
	require.Equal(t, pa, pb)
	require.Equal(t, math.Vec3{X: 1, Y: 1}, pa)

	require.ErrorIs(t, m.WeldVertices(a, 100), ErrInvalidVertex)

	id := rect(m, 2, 2)
	require.NoError(t, m.WeldCorners(id, 2, 3))
	got := corners(t, m, id)
	require.True(t, got[2].ApproxEqual(math.Vec3{X: 1, Y: 2}, tol))
	require.ErrorIs(t, m.WeldCorners(id, 0, 4), ErrInvalidArgument)
}

func TestCopyDetachAddFace(t *testing.T) {
	m := New()
	id := rect(m, 3, 3)
	require.NoError(t, m.SetMaterial(id, 4))

	cp, err := m.Copy(id)
	require.NoError(t, err)
	orig, _ := m.Face(id)
	dup, _ := m.Face(cp)
	require.False(t, orig.Freed)
	require.Equal(t, 4, dup.Material)
	for i := range orig.Vertices {
		require.NotEqual(t, orig.Vertices[i], dup.Vertices[i])
	}

	det, err := m.Detach(id)
	require.NoError(t, err)
	orig, _ = m.Face(id)
	require.True(t, orig.Freed)
	require.NotEqual(t, id, det)

	require.NoError(t, m.Chamfer(det, 1))
	floor, err := m.AddFaceFromBase(det)
	require.NoError(t, err)
	require.InDelta(t, 9, requireArea(t, m, floor), tol)
	require.InDelta(t, 1, requireArea(t, m, det), tol)
}

func TestTexture(t *testing.T) {
	m := New()
	id := rect(m, 10, 5)
	require.NoError(t, m.Texture(id, 0, 2.5))

	want := []math.Vec2{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 2}, {X: 0, Y: 2}}
	f, _ := m.Face(id)
	for i, tc := range f.TexCoords {
		got, err := m.TexCoord(tc)
		require.NoError(t, err)
		require.InDelta(t, want[i].X, got.X, tol)
		require.InDelta(t, want[i].Y, got.Y, tol)
	}

	// 9 wide at tile 2 is 4.5 repeats; snapping to 1 rounds to 5.
	id = rect(m, 9, 2)
	require.NoError(t, m.Texture(id, 1, 2))
	f, _ = m.Face(id)
	u, _ := m.TexCoord(f.TexCoords[1])
	require.InDelta(t, 5, u.X, tol)

	require.ErrorIs(t, m.Texture(id, 0, 0), ErrInvalidArgument)
}

func TestTextureFullQuadClear(t *testing.T) {
	m := New()
	id := rect(m, 7, 3)

	require.NoError(t, m.TextureFull(id))
	f, _ := m.Face(id)
	far, _ := m.TexCoord(f.TexCoords[2])
	require.InDelta(t, 1, far.X, tol)
	require.InDelta(t, 1, far.Y, tol)

	require.NoError(t, m.TextureQuad(id, 0.5, 0, 1, 0.25))
	f, _ = m.Face(id)
	got, _ := m.TexCoord(f.TexCoords[2])
	require.Equal(t, math.Vec2{X: 1, Y: 0.25}, got)

	require.NoError(t, m.TextureClear(id))
	f, _ = m.Face(id)
	require.Equal(t, []int{0, 0, 0, 0}, f.TexCoords)

	first, err := m.CreateNGon(math.Vec3{}, 1, 5)
	require.NoError(t, err)
	require.ErrorIs(t, m.TextureQuad(first, 0, 0, 1, 1), ErrArity)
}

func TestCreateNGon(t *testing.T) {
	m := New()
	center := math.Vec3{X: 5, Y: 5, Z: 1}
	first, err := m.CreateNGon(center, 2, 6)
	require.NoError(t, err)
	require.Equal(t, FaceID(0), first)
	require.Equal(t, 6, m.NumFaces())
	require.Equal(t, 7, m.NumVertices())

	for id := first; id < first+6; id++ {
		f, _ := m.Face(id)
		require.Equal(t, 3, f.Arity())
		n, _ := m.FaceNormal(id)
		require.True(t, n.ApproxEqual(math.Vec3{Z: 1}, 1e-9), "face %d normal %v", id, n)
		rim, _ := m.Vertex(f.Vertices[1])
		require.InDelta(t, 2, rim.Distance(center), 1e-9)
	}

	_, err = m.CreateNGon(center, 1, 2)
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = m.CreateNGon(center, 0, 5)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCreateNGonOnWall(t *testing.T) {
	m := New()
	base := rect(m, 4, 4)
	_, sides, err := m.Extrude(base, 4)
	require.NoError(t, err)

	first, err := m.CreateNGonOn(sides[1], 1, 8)
	require.NoError(t, err)
	n, _ := m.FaceNormal(first)
	require.True(t, n.ApproxEqual(math.Vec3{X: 1}, 1e-9), "%v", n)
}

func TestCreateNGonOnDegenerateFace(t *testing.T) {
	m := New()
	p := math.Vec3{X: 3, Y: 3}
	id := m.AddQuad(p, p, p, p, 0)

	before := m.NumVertices()
	_, err := m.CreateNGonOn(id, 1, 4)
	require.ErrorIs(t, err, ErrInvalidArgument)

	var gerr *GeometryError
	require.True(t, errors.As(err, &gerr))
	require.Equal(t, id, gerr.Face)
	require.Equal(t, before, m.NumVertices())
	require.Equal(t, 1, m.NumFaces())
}

func TestTexCoordCountMatchesVertexCount(t *testing.T) {
	m := New()
	base := rect(m, 8, 6)
	top, sides, err := m.Extrude(base, 5)
	require.NoError(t, err)
	_, err = m.Subdivide(sides[0], 3, true)
	require.NoError(t, err)
	require.NoError(t, m.Texture(sides[1], 1, 2))
	_, err = m.Partition(sides[2], []float64{1, 1}, false, true)
	require.NoError(t, err)
	_, err = m.CreateNGonOn(top, 1, 5)
	require.NoError(t, err)
	require.NoError(t, m.Expand(sides[3], 0.5))

	for _, id := range m.LiveFaces() {
		f, _ := m.Face(id)
		require.Equal(t, len(f.Vertices), len(f.TexCoords), "face %d", id)
		for _, tc := range f.TexCoords {
			require.Less(t, tc, m.NumTexCoords(), "face %d", id)
		}
	}
}

func TestWrite(t *testing.T) {
	m := New()
	rect(m, 1, 1)

	var buf bytes.Buffer
	w := output.NewWriter(&buf)
	require.NoError(t, m.Write(w, namedMaterials{}))
	require.NoError(t, w.Flush())

	want := `mesh
  matref mat0
  vertex 0 0 0
  vertex 1 0 0
  vertex 1 1 0
  vertex 0 1 0
  texcoord 0 0
  face 0/0 1/0 2/0 3/0
end

`
	require.Equal(t, want, buf.String())
}

func TestWriteGroupsAndSkipsFreed(t *testing.T) {
	m := New()
	a := rect(m, 1, 1)
	b := rect(m, 2, 2)
	c := rect(m, 3, 3)
	require.NoError(t, m.SetMaterial(a, 2))
	require.NoError(t, m.SetMaterial(b, 1))
	require.NoError(t, m.SetMaterial(c, 1))
	require.NoError(t, m.SetPassable(c))
	dead := rect(m, 5, 5)
	require.NoError(t, m.Free(dead))

	var buf bytes.Buffer
	w := output.NewWriter(&buf)
	mats := namedMaterials{2: {Name: "glass", NoRadar: true}}
	require.NoError(t, m.Write(w, mats))
	require.NoError(t, w.Flush())

	out := buf.String()
	require.Equal(t, 3, bytes.Count(buf.Bytes(), []byte("mesh\n")))
	require.NotContains(t, out, "vertex 5 5 0")

	// Material 1 solid, material 1 passable, then material 2.
	first := bytes.Index(buf.Bytes(), []byte("matref mat1"))
	pass := bytes.Index(buf.Bytes(), []byte("passable"))
	glass := bytes.Index(buf.Bytes(), []byte("  noradar\n  matref glass"))
	require.True(t, first >= 0 && pass > first && glass > pass, "unexpected block order:\n%s", out)
}

func TestWriteDeterministic(t *testing.T) {
	build := func() string {
		m := New()
		base := rect(m, 4, 3)
		top, sides, err := m.Extrude(base, 6)
		require.NoError(t, err)
		for i, s := range sides {
			require.NoError(t, m.SetMaterial(s, i%2))
		}
		require.NoError(t, m.Taper(top, 1))
		var buf bytes.Buffer
		w := output.NewWriter(&buf)
		require.NoError(t, m.Write(w, namedMaterials{}))
		require.NoError(t, w.Flush())
		return buf.String()
	}
	require.Equal(t, build(), build())
}
