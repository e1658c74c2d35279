package mesh

import "slices"

// Extrude offsets the face along its normal by height. The original face is
// freed and replaced by a new top face over the raised vertices; one side
// quad per edge joins the old outline to the new one. Side quads run
// old(i), old(i+1), new(i+1), new(i) so their horizontal edge follows the
// footprint and their vertical edge points along the extrusion.
func (m *Mesh) Extrude(id FaceID, height float64) (top FaceID, sides []FaceID, err error) {
	f, err := m.face("extrude", id, 3)
	if err != nil {
		return 0, nil, err
	}
	offset := newell(m.positions(f)).Normalize().Scale(height)

	raised := make([]int, len(f.Vertices))
	for i, v := range f.Vertices {
		raised[i] = m.AddVertex(m.vertices[v].Add(offset))
	}

	top = m.appendFace(Face{
		Vertices:  raised,
		TexCoords: slices.Clone(f.TexCoords),
		Material:  f.Material,
		Passable:  f.Passable,
	})

	count := len(f.Vertices)
	sides = make([]FaceID, 0, count)
	for i := 0; i < count; i++ {
		j := (i + 1) % count
		sides = append(sides, m.appendFace(Face{
			Vertices:  []int{f.Vertices[i], f.Vertices[j], raised[j], raised[i]},
			TexCoords: make([]int, 4),
			Material:  f.Material,
			Passable:  f.Passable,
		}))
	}

	m.faces[id].Freed = true
	return top, sides, nil
}
