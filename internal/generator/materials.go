package generator

import (
	"maps"
	"slices"

	"github.com/Faultbox/bzwgen/internal/output"
)

// Materials maps material ids to their output description. It is filled
// from configuration before a run and by loadmaterial during one.
type Materials struct {
	defs map[int]output.Material
}

// NewMaterials returns an empty table.
func NewMaterials() *Materials {
	return &Materials{defs: make(map[int]output.Material)}
}

// Define registers or replaces material id. An empty name becomes the
// default matref for the id.
func (t *Materials) Define(id int, m output.Material) {
	if m.Name == "" {
		m.Name = output.DefaultMaterialName(id)
	}
	t.defs[id] = m
}

// Material implements output.MaterialTable.
func (t *Materials) Material(id int) output.Material {
	if m, ok := t.defs[id]; ok {
		return m
	}
	return output.Material{Name: output.DefaultMaterialName(id)}
}

// IDs returns the registered ids in ascending order.
func (t *Materials) IDs() []int {
	return slices.Sorted(maps.Keys(t.defs))
}

// Write emits a definition block for every textured material.
func (t *Materials) Write(w *output.Writer) error {
	for _, id := range t.IDs() {
		w.WriteMaterial(t.defs[id])
	}
	return w.Err()
}
