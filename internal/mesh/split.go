package mesh

import (
	gomath "math"

	"github.com/Faultbox/bzwgen/pkg/math"
)

// axisLength returns the length of the edge parallel to the split axis:
// the width for horizontal splits, the height for vertical ones.
func (m *Mesh) axisLength(f Face, horizontal bool) float64 {
	p0 := m.vertices[f.Vertices[0]]
	if horizontal {
		return m.vertices[f.Vertices[1]].Distance(p0)
	}
	return m.vertices[f.Vertices[3]].Distance(p0)
}

// Subdivide splits a quad into n equal strips. Horizontal splits cut across
// the width so every child keeps the parent's height; vertical splits cut
// across the height.
func (m *Mesh) Subdivide(id FaceID, n int, horizontal bool) ([]FaceID, error) {
	if _, err := m.quad("subdivide", id); err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, geomErrf("subdivide", id, ErrInvalidArgument, "count %d", n)
	}
	ts := make([]float64, n+1)
	for i := range ts {
		ts[i] = float64(i) / float64(n)
	}
	children, _, err := m.split("subdivide", id, ts, horizontal, true)
	return children, err
}

// SubdivideBySize splits a quad into as many equal strips as fit the target
// size, rounding to the nearest count and never fewer than one.
func (m *Mesh) SubdivideBySize(id FaceID, size float64, horizontal bool) ([]FaceID, error) {
	f, err := m.quad("repeat", id)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		return nil, geomErrf("repeat", id, ErrInvalidArgument, "size %g", size)
	}
	n := int(gomath.Round(m.axisLength(f, horizontal) / size))
	return m.Subdivide(id, max(n, 1), horizontal)
}

// Partition splits a quad at explicit distances from corner 0 along the
// split axis. Breakpoints are clamped to the edge and to each other so they
// never run backwards. With inclusive set, coinciding breakpoints produce
// zero-width faces; otherwise those are dropped. Either way the children
// span exactly the parent's edge.
func (m *Mesh) Partition(id FaceID, breakpoints []float64, horizontal, inclusive bool) ([]FaceID, error) {
	children, _, err := m.PartitionSegments(id, breakpoints, horizontal, inclusive)
	return children, err
}

// PartitionSegments is Partition that also returns, for every child, the
// index of the segment it covers. Segment i runs from breakpoint i-1 to
// breakpoint i; dropped zero-width segments leave gaps in the indices.
func (m *Mesh) PartitionSegments(id FaceID, breakpoints []float64, horizontal, inclusive bool) ([]FaceID, []int, error) {
	f, err := m.quad("partition", id)
	if err != nil {
		return nil, nil, err
	}
	total := m.axisLength(f, horizontal)
	ts := make([]float64, 0, len(breakpoints)+2)
	ts = append(ts, 0)
	prev := 0.0
	for _, bp := range breakpoints {
		t := 0.0
		if total > math.Epsilon {
			t = min(max(bp/total, prev), 1)
		}
		ts = append(ts, t)
		prev = t
	}
	ts = append(ts, 1)
	return m.split("partition", id, ts, horizontal, inclusive)
}

// split cuts a quad at the fractions ts, which start at 0, end at 1 and
// never decrease. The two edges parallel to the axis receive one vertex
// per interior fraction; those vertices are shared between neighbouring
// children. The parent is freed. segs holds the index into ts of each
// child's starting fraction.
func (m *Mesh) split(op string, id FaceID, ts []float64, horizontal, inclusive bool) (children []FaceID, segs []int, err error) {
	f, err := m.quad(op, id)
	if err != nil {
		return nil, nil, err
	}
	if inclusive {
		segs = make([]int, len(ts)-1)
		for i := range segs {
			segs[i] = i
		}
	} else {
		ts, segs = dedupe(ts)
	}

	// a runs along the axis from corner 0, b along the opposite edge.
	v := f.Vertices
	tc := f.TexCoords
	a0, a1, b0, b1 := v[0], v[1], v[3], v[2]
	ta0, ta1, tb0, tb1 := tc[0], tc[1], tc[3], tc[2]
	if !horizontal {
		a0, a1, b0, b1 = v[0], v[3], v[1], v[2]
		ta0, ta1, tb0, tb1 = tc[0], tc[3], tc[1], tc[2]
	}

	last := len(ts) - 1
	as := make([]int, len(ts))
	bs := make([]int, len(ts))
	as[0], bs[0] = a0, b0
	as[last], bs[last] = a1, b1
	for i := 1; i < last; i++ {
		as[i] = m.AddVertex(m.vertices[a0].Lerp(m.vertices[a1], ts[i]))
		bs[i] = m.AddVertex(m.vertices[b0].Lerp(m.vertices[b1], ts[i]))
	}

	lerpTC := func(from, to int, t float64) int {
		p, q := m.texcoords[from], m.texcoords[to]
		if p == q {
			return from
		}
		return m.AddTexCoord(p.Add(q.Sub(p).Scale(t)))
	}

	children = make([]FaceID, 0, last)
	for i := 0; i < last; i++ {
		ta := lerpTC(ta0, ta1, ts[i])
		taNext := lerpTC(ta0, ta1, ts[i+1])
		tb := lerpTC(tb0, tb1, ts[i])
		tbNext := lerpTC(tb0, tb1, ts[i+1])

		child := Face{Material: f.Material, Passable: f.Passable}
		if horizontal {
			child.Vertices = []int{as[i], as[i+1], bs[i+1], bs[i]}
			child.TexCoords = []int{ta, taNext, tbNext, tb}
		} else {
			child.Vertices = []int{as[i], bs[i], bs[i+1], as[i+1]}
			child.TexCoords = []int{ta, tb, tbNext, taNext}
		}
		children = append(children, m.appendFace(child))
	}

	m.faces[id].Freed = true
	return children, segs, nil
}

// dedupe drops zero-width segments and returns the original index of
// every segment that survives.
func dedupe(ts []float64) ([]float64, []int) {
	out := []float64{ts[0]}
	var segs []int
	for i, t := range ts[1:] {
		if t-out[len(out)-1] > math.Epsilon {
			out = append(out, t)
			segs = append(segs, i)
		}
	}
	return out, segs
}

// PartitionPlan is the outcome of resolving partition sizes against an edge.
type PartitionPlan struct {
	Breakpoints []float64
	// Remainder is set when the last segment is the unclaimed rest of the
	// edge rather than one of the requested sizes.
	Remainder bool
}

// PlanPartition turns segment sizes into breakpoints along an edge of the
// given length. Positive sizes are absolute lengths; negative sizes are
// relative shares of whatever the absolute sizes leave over. Without any
// relative share, the leftover becomes a trailing remainder segment.
func PlanPartition(total float64, sizes []float64, inclusive bool) PartitionPlan {
	var absolute, relative float64
	for _, s := range sizes {
		if s < 0 {
			relative -= s
		} else {
			absolute += s
		}
	}

	if relative == 0 {
		bps := make([]float64, 0, len(sizes))
		pos := 0.0
		for _, s := range sizes {
			pos += s
			bps = append(bps, pos)
		}
		rest := total - absolute
		return PartitionPlan{
			Breakpoints: bps,
			Remainder:   rest > math.Epsilon || (inclusive && len(sizes) > 0),
		}
	}

	leftover := max(total-absolute, 0)
	bps := make([]float64, 0, len(sizes))
	pos := 0.0
	for _, s := range sizes[:len(sizes)-1] {
		if s < 0 {
			pos += leftover * -s / relative
		} else {
			pos += s
		}
		bps = append(bps, pos)
	}
	return PartitionPlan{Breakpoints: bps}
}
