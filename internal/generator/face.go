package generator

import (
	"fmt"

	"github.com/Faultbox/bzwgen/internal/grammar"
	"github.com/Faultbox/bzwgen/internal/mesh"
)

// faceAttrs exposes one face to face(name) expressions. Every lookup reads
// the current geometry.
type faceAttrs struct {
	m  *mesh.Mesh
	id mesh.FaceID
}

func (f faceAttrs) FaceAttribute(name string) (float64, error) {
	switch name {
	case "width":
		return f.m.FaceWidth(f.id)
	case "height":
		return f.m.FaceHeight(f.id)
	case "area":
		return f.m.FaceArea(f.id)
	case "material", "vertices":
		face, err := f.m.Face(f.id)
		if err != nil {
			return 0, err
		}
		if name == "material" {
			return float64(face.Material), nil
		}
		return float64(face.Arity()), nil
	case "x", "y", "z":
		c, err := f.m.FaceCenter(f.id)
		if err != nil {
			return 0, err
		}
		switch name {
		case "x":
			return c.X, nil
		case "y":
			return c.Y, nil
		}
		return c.Z, nil
	case "nz":
		n, err := f.m.FaceNormal(f.id)
		return n.Z, err
	}
	return 0, fmt.Errorf("%w %q", grammar.ErrUnknownFaceAttr, name)
}
