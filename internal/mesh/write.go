package mesh

import (
	"cmp"
	"slices"

	"github.com/Faultbox/bzwgen/internal/output"
)

type groupKey struct {
	material int
	passable bool
}

// Write serializes every live face, one mesh block per (material, passable)
// group in ascending material order. Vertices and texcoords are renumbered
// per block in first-use order.
func (m *Mesh) Write(w *output.Writer, materials output.MaterialTable) error {
	groups := make(map[groupKey][]FaceID)
	for i := range m.faces {
		f := m.faces[i]
		if f.Freed {
			continue
		}
		k := groupKey{material: f.Material, passable: f.Passable}
		groups[k] = append(groups[k], FaceID(i))
	}

	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b groupKey) int {
		if c := cmp.Compare(a.material, b.material); c != 0 {
			return c
		}
		if a.passable == b.passable {
			return 0
		}
		if a.passable {
			return 1
		}
		return -1
	})

	for _, k := range keys {
		m.writeGroup(w, materials.Material(k.material), k.passable, groups[k])
	}
	return w.Err()
}

func (m *Mesh) writeGroup(w *output.Writer, mat output.Material, passable bool, ids []FaceID) {
	vmap := make(map[int]int)
	tmap := make(map[int]int)
	var vorder, torder []int
	type localFace struct{ v, t []int }
	faces := make([]localFace, 0, len(ids))

	for _, id := range ids {
		f := m.faces[id]
		lf := localFace{v: make([]int, len(f.Vertices)), t: make([]int, len(f.TexCoords))}
		for i, v := range f.Vertices {
			local, ok := vmap[v]
			if !ok {
				local = len(vorder)
				vmap[v] = local
				vorder = append(vorder, v)
			}
			lf.v[i] = local
		}
		for i, t := range f.TexCoords {
			local, ok := tmap[t]
			if !ok {
				local = len(torder)
				tmap[t] = local
				torder = append(torder, t)
			}
			lf.t[i] = local
		}
		faces = append(faces, lf)
	}

	w.Line("mesh")
	if mat.NoRadar {
		w.Line("  noradar")
	}
	w.MatRef(mat.Name)
	for _, v := range vorder {
		p := m.vertices[v]
		w.Vertex(p.X, p.Y, p.Z)
	}
	for _, t := range torder {
		tc := m.texcoords[t]
		w.TexCoord(tc.X, tc.Y)
	}
	if passable {
		w.Line("  passable")
	}
	for _, lf := range faces {
		w.Face(lf.v, lf.t)
	}
	w.End()
}
