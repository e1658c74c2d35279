package output

import "strconv"

// Material describes how a material id is referenced in the output.
type Material struct {
	Name    string
	Texture string
	NoRadar bool
}

// MaterialTable resolves material ids to their output description.
type MaterialTable interface {
	Material(id int) Material
}

// DefaultMaterialName is the matref used for ids nobody registered.
func DefaultMaterialName(id int) string {
	return "mat" + strconv.Itoa(id)
}

// WriteMaterial emits a material definition block. Materials without a
// texture need no definition and are skipped.
func (w *Writer) WriteMaterial(m Material) {
	if m.Texture == "" {
		return
	}
	w.Line("material")
	w.Line("  name " + m.Name)
	w.Line("  texture " + m.Texture)
	w.End()
}
