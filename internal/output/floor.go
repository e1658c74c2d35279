package output

import (
	"github.com/Faultbox/bzwgen/pkg/math"
)

// floorElevation lifts floor zones just above the ground plane to avoid
// z-fighting.
const floorElevation = 0.001

// FloorZone is a flat, drivable rectangle between corners A and B. Texture
// coordinates count whole Step-sized tiles; Rotated swaps the u and v axes.
type FloorZone struct {
	A, B    math.Vec2
	Step    float64
	MatRef  string
	Rotated bool
}

// Write emits the zone as a single-face mesh block.
func (z FloorZone) Write(w *Writer) {
	w.Line("mesh")
	w.Line("  noradar")
	w.MatRef(z.MatRef)
	w.Vertex(z.A.X, z.A.Y, floorElevation)
	w.Vertex(z.B.X, z.A.Y, floorElevation)
	w.Vertex(z.B.X, z.B.Y, floorElevation)
	w.Vertex(z.A.X, z.B.Y, floorElevation)

	tx := z.tiles(z.B.X - z.A.X)
	ty := z.tiles(z.B.Y - z.A.Y)
	w.TexCoord(0, 0)
	if z.Rotated {
		w.TexCoord(0, tx)
		w.TexCoord(ty, tx)
		w.TexCoord(ty, 0)
	} else {
		w.TexCoord(tx, 0)
		w.TexCoord(tx, ty)
		w.TexCoord(0, ty)
	}
	w.Line("  passable")
	w.Face([]int{0, 1, 2, 3}, []int{0, 1, 2, 3})
	w.End()
}

func (z FloorZone) tiles(length float64) float64 {
	if z.Step <= 0 {
		return 1
	}
	return float64(int(length / z.Step))
}
