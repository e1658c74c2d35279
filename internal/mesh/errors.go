package mesh

import (
	"errors"
	"fmt"
)

// Geometric precondition errors.
var (
	ErrInvalidFace     = errors.New("invalid face id")
	ErrInvalidVertex   = errors.New("invalid vertex id")
	ErrArity           = errors.New("unsupported face arity")
	ErrInvalidArgument = errors.New("invalid argument")
)

// GeometryError reports a rejected kernel operation. It is distinct from
// grammar configuration errors so callers can tell authoring mistakes in
// rules from geometry that cannot be split or extruded.
type GeometryError struct {
	Op   string
	Face FaceID
	Err  error
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("%s on face %d: %v", e.Op, e.Face, e.Err)
}

func (e *GeometryError) Unwrap() error {
	return e.Err
}

func geomErr(op string, id FaceID, err error) error {
	return &GeometryError{Op: op, Face: id, Err: err}
}

func geomErrf(op string, id FaceID, err error, format string, args ...any) error {
	return &GeometryError{Op: op, Face: id, Err: fmt.Errorf("%w: "+format, append([]any{err}, args...)...)}
}
