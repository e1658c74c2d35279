package grammar

import (
	"strconv"
	"strings"
)

// Operation is one step of a Product. The set of operations is closed;
// the generator dispatches on the concrete type.
type Operation interface {
	// Keyword is the grammar keyword that introduces the operation.
	Keyword() string
	operation()
}

// FaceList hands the faces an operation produces to further rules. A nil
// list leaves every produced face in the active set.
type FaceList struct {
	// Rules holds one entry per child position; "" leaves that child alone.
	Rules []string
	// AllSame picks one Product of the single rule and applies it to every
	// child instead of choosing per child.
	AllSame bool
}

// RuleFor returns the rule for child i of n, or "" when the child stays
// active. A single non-all-same entry applies to every child.
func (l *FaceList) RuleFor(i, n int) string {
	if l == nil || len(l.Rules) == 0 {
		return ""
	}
	if len(l.Rules) == 1 {
		return l.Rules[0]
	}
	if i < len(l.Rules) {
		return l.Rules[i]
	}
	return ""
}

// Material sets the material id of each active face.
type Material struct{ ID Expression }

// Expand grows each active face outward onto fresh vertices.
type Expand struct{ Amount Expression }

// Extrude pushes each active face along its normal; the new top face
// replaces it in the active set.
type Extrude struct {
	Height Expression
	Faces  *FaceList
}

// Subdivide splits each active quad into equal strips. With BySize set,
// Count is a target strip size instead of a strip count.
type Subdivide struct {
	Count      Expression
	Horizontal bool
	BySize     bool
	Faces      *FaceList
}

// Partition splits each active quad at explicit sizes.
type Partition struct {
	Sizes      []Expression
	Horizontal bool
	Inclusive  bool
	Faces      *FaceList
}

// Taper narrows the far edge of each active quad.
type Taper struct{ Amount Expression }

// Chamfer insets each active face in place.
type Chamfer struct{ Amount Expression }

// Unchamfer restores the outline recorded before the first taper or chamfer.
type Unchamfer struct{}

// Texture tiles the texture every Tile units, snapping repeats to Snap.
type Texture struct{ Snap, Tile Expression }

// TextureFull stretches one texture copy across each face.
type TextureFull struct{}

// TextureClear resets texture coordinates.
type TextureClear struct{}

// TextureQuad maps a texture sub-rectangle onto each quad.
type TextureQuad struct{ AU, AV, BU, BV Expression }

// Translate moves each active face, in world axes or, when Relative, in the
// face's own (horizontal, vertical, normal) frame.
type Translate struct {
	X, Y, Z  Expression
	Relative bool
}

// Scale scales each active face about its center in its own axes.
type Scale struct{ X, Y Expression }

// Assign binds an attribute in the current frame.
type Assign struct {
	Name  string
	Value Expression
}

// Spawn runs a rule on a detached copy of each active face.
type Spawn struct{ Rule string }

// Call expands a rule on each active face.
type Call struct{ Rule string }

// Free marks each active face dead but keeps it active.
type Free struct{}

// Remove marks each active face dead and drops it from the active set.
type Remove struct{}

// NGon replaces each active face with a regular fan of Sides triangles.
// A nil Radius uses half the face's shorter side.
type NGon struct {
	Sides  Expression
	Radius Expression
	Faces  *FaceList
}

// AddFace creates a face from each active face's base outline.
type AddFace struct{ Faces *FaceList }

// DetachFace gives each active face its own vertices.
type DetachFace struct{}

// Assert stops the current Product when Cond is false.
type Assert struct{ Cond Expression }

// Test hands each active face for which Cond holds to Faces.
type Test struct {
	Cond  Expression
	Faces *FaceList
}

// LoadMaterial registers a textured material under an id.
type LoadMaterial struct {
	ID      Expression
	Texture string
	NoRadar Expression
}

// DriveThrough marks each active face passable.
type DriveThrough struct{}

// Weld merges two corners of each active face.
type Weld struct{ A, B Expression }

func (Material) Keyword() string     { return "material" }
func (Expand) Keyword() string       { return "expand" }
func (Extrude) Keyword() string      { return "extrude" }
func (Taper) Keyword() string        { return "taper" }
func (Chamfer) Keyword() string      { return "chamfer" }
func (Unchamfer) Keyword() string    { return "unchamfer" }
func (Texture) Keyword() string      { return "texture" }
func (TextureFull) Keyword() string  { return "texturefull" }
func (TextureClear) Keyword() string { return "textureclear" }
func (TextureQuad) Keyword() string  { return "texturequad" }
func (Scale) Keyword() string        { return "scale" }
func (Assign) Keyword() string       { return "assign" }
func (Spawn) Keyword() string        { return "spawn" }
func (Call) Keyword() string         { return "call" }
func (Free) Keyword() string         { return "free" }
func (Remove) Keyword() string       { return "remove" }
func (NGon) Keyword() string         { return "ngon" }
func (AddFace) Keyword() string      { return "addface" }
func (DetachFace) Keyword() string   { return "detachface" }
func (Assert) Keyword() string       { return "assert" }
func (Test) Keyword() string         { return "test" }
func (LoadMaterial) Keyword() string { return "loadmaterial" }
func (DriveThrough) Keyword() string { return "drivethrough" }
func (Weld) Keyword() string         { return "weld" }

func (s Subdivide) Keyword() string {
	kw := "subdivide"
	if s.BySize {
		kw = "repeat"
	}
	return kw + axisSuffix(s.Horizontal)
}

func (p Partition) Keyword() string {
	kw := "partition" + axisSuffix(p.Horizontal)
	if p.Inclusive {
		kw += "i"
	}
	return kw
}

func (t Translate) Keyword() string {
	if t.Relative {
		return "translater"
	}
	return "translate"
}

func axisSuffix(horizontal bool) string {
	if horizontal {
		return "h"
	}
	return "v"
}

func (Material) operation()     {}
func (Expand) operation()       {}
func (Extrude) operation()      {}
func (Subdivide) operation()    {}
func (Partition) operation()    {}
func (Taper) operation()        {}
func (Chamfer) operation()      {}
func (Unchamfer) operation()    {}
func (Texture) operation()      {}
func (TextureFull) operation()  {}
func (TextureClear) operation() {}
func (TextureQuad) operation()  {}
func (Translate) operation()    {}
func (Scale) operation()        {}
func (Assign) operation()       {}
func (Spawn) operation()        {}
func (Call) operation()         {}
func (Free) operation()         {}
func (Remove) operation()       {}
func (NGon) operation()         {}
func (AddFace) operation()      {}
func (DetachFace) operation()   {}
func (Assert) operation()       {}
func (Test) operation()         {}
func (LoadMaterial) operation() {}
func (DriveThrough) operation() {}
func (Weld) operation()         {}

// FormatOperation renders an operation in grammar syntax.
func FormatOperation(op Operation) string {
	switch o := op.(type) {
	case Call:
		return o.Rule
	case Assign:
		return "assign(" + o.Name + " = " + o.Value.String() + ")"
	case Spawn:
		return "spawn(" + o.Rule + ")"
	case LoadMaterial:
		args := o.ID.String() + ", " + strconv.Quote(o.Texture)
		if o.NoRadar != nil {
			args += ", " + o.NoRadar.String()
		}
		return "loadmaterial(" + args + ")"
	case Material:
		return call(o, o.ID)
	case Expand:
		return call(o, o.Amount)
	case Extrude:
		return call(o, o.Height) + o.Faces.String()
	case Subdivide:
		return call(o, o.Count) + o.Faces.String()
	case Partition:
		return call(o, o.Sizes...) + o.Faces.String()
	case Taper:
		return call(o, o.Amount)
	case Chamfer:
		return call(o, o.Amount)
	case Texture:
		return call(o, o.Snap, o.Tile)
	case TextureQuad:
		return call(o, o.AU, o.AV, o.BU, o.BV)
	case Translate:
		return call(o, o.X, o.Y, o.Z)
	case Scale:
		return call(o, o.X, o.Y)
	case NGon:
		if o.Radius == nil {
			return call(o, o.Sides) + o.Faces.String()
		}
		return call(o, o.Sides, o.Radius) + o.Faces.String()
	case AddFace:
		return call(o) + o.Faces.String()
	case Assert:
		return call(o, o.Cond)
	case Test:
		return call(o, o.Cond) + o.Faces.String()
	case Weld:
		return call(o, o.A, o.B)
	default:
		return call(op)
	}
}

func call(op Operation, args ...Expression) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return op.Keyword() + "(" + strings.Join(parts, ", ") + ")"
}

// String renders the list in grammar syntax; nil renders as "".
func (l *FaceList) String() string {
	if l == nil {
		return ""
	}
	if l.AllSame {
		return "[@" + l.Rules[0] + "]"
	}
	names := make([]string, len(l.Rules))
	for i, r := range l.Rules {
		if r == "" {
			r = "*"
		}
		names[i] = r
	}
	return "[" + strings.Join(names, " ") + "]"
}

// References returns the rule names an operation may expand.
func References(op Operation) []string {
	var names []string
	switch o := op.(type) {
	case Call:
		names = append(names, o.Rule)
	case Spawn:
		names = append(names, o.Rule)
	case Extrude:
		names = o.Faces.names()
	case Subdivide:
		names = o.Faces.names()
	case Partition:
		names = o.Faces.names()
	case NGon:
		names = o.Faces.names()
	case AddFace:
		names = o.Faces.names()
	case Test:
		names = o.Faces.names()
	}
	return names
}

func (l *FaceList) names() []string {
	if l == nil {
		return nil
	}
	var names []string
	for _, r := range l.Rules {
		if r != "" {
			names = append(names, r)
		}
	}
	return names
}
