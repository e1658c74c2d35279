package grammar

import (
	"fmt"
	gomath "math"
	"math/rand/v2"
	"slices"
	"strconv"
)

// FaceAttributes is the fixed set of names accepted by face(name).
var FaceAttributes = []string{"width", "height", "area", "material", "vertices", "x", "y", "z", "nz"}

// IsFaceAttribute reports whether name is a recognized face attribute.
func IsFaceAttribute(name string) bool {
	return slices.Contains(FaceAttributes, name)
}

// FaceSource computes attributes of the face an expression is evaluated
// against. Values are derived from current geometry on every call.
type FaceSource interface {
	FaceAttribute(name string) (float64, error)
}

// Context carries everything an expression can read: the attribute frame,
// the current face (nil when there is none) and the run's random source.
type Context struct {
	Env  *Env
	Face FaceSource
	Rand *rand.Rand
}

// Expression is a scalar-valued grammar expression.
type Expression interface {
	Eval(ctx *Context) (float64, error)
	String() string
}

// Truth converts a scalar to the 0/1 convention used by comparisons.
func Truth(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Truthy evaluates e and reports whether it is non-zero.
func Truthy(e Expression, ctx *Context) (bool, error) {
	v, err := e.Eval(ctx)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// Const is a numeric literal.
type Const struct {
	Value float64
}

func (c Const) Eval(*Context) (float64, error) { return c.Value, nil }

func (c Const) String() string {
	return strconv.FormatFloat(c.Value, 'g', -1, 64)
}

// Attr reads a bound attribute.
type Attr struct {
	Name string
}

func (a Attr) Eval(ctx *Context) (float64, error) {
	if ctx.Env != nil {
		if v, ok := ctx.Env.Lookup(a.Name); ok {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrUnboundAttribute, a.Name)
}

func (a Attr) String() string { return a.Name }

// FaceAttr reads an attribute of the current face.
type FaceAttr struct {
	Name string
}

func (f FaceAttr) Eval(ctx *Context) (float64, error) {
	if ctx.Face == nil {
		return 0, fmt.Errorf("face(%s): %w", f.Name, ErrNoFace)
	}
	return ctx.Face.FaceAttribute(f.Name)
}

func (f FaceAttr) String() string { return "face(" + f.Name + ")" }

// UnaryOp selects a unary expression.
type UnaryOp int

const (
	OpNeg UnaryOp = iota
	OpRound
)

// Unary applies negation or rounding.
type Unary struct {
	Op UnaryOp
	X  Expression
}

func (u Unary) Eval(ctx *Context) (float64, error) {
	x, err := u.X.Eval(ctx)
	if err != nil {
		return 0, err
	}
	switch u.Op {
	case OpNeg:
		return -x, nil
	case OpRound:
		return gomath.Round(x), nil
	default:
		return 0, fmt.Errorf("unknown unary operator %d", u.Op)
	}
}

func (u Unary) String() string {
	if u.Op == OpRound {
		return "round(" + u.X.String() + ")"
	}
	return "neg(" + u.X.String() + ")"
}

// BinaryOp selects a binary expression.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpGreater
	OpLess
	OpEqual
	OpAnd
	OpOr
)

var binarySymbols = map[BinaryOp]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/",
	OpGreater: ">", OpLess: "<", OpEqual: "=",
	OpAnd: "&", OpOr: "|",
}

// equalTolerance absorbs float noise so that face(width) = 2 holds after
// a 4-wide face is split in half.
const equalTolerance = 1e-9

// Binary is an arithmetic, comparison or boolean expression. Comparisons
// and boolean operators yield 0 or 1; & and | short-circuit.
type Binary struct {
	Op   BinaryOp
	L, R Expression
}

func (b Binary) Eval(ctx *Context) (float64, error) {
	l, err := b.L.Eval(ctx)
	if err != nil {
		return 0, err
	}
	switch b.Op {
	case OpAnd:
		if l == 0 {
			return 0, nil
		}
		r, err := b.R.Eval(ctx)
		return Truth(r != 0), err
	case OpOr:
		if l != 0 {
			return 1, nil
		}
		r, err := b.R.Eval(ctx)
		return Truth(r != 0), err
	}

	r, err := b.R.Eval(ctx)
	if err != nil {
		return 0, err
	}
	switch b.Op {
	case OpAdd:
		return l + r, nil
	case OpSub:
		return l - r, nil
	case OpMul:
		return l * r, nil
	case OpDiv:
		return l / r, nil
	case OpGreater:
		return Truth(l > r), nil
	case OpLess:
		return Truth(l < r), nil
	case OpEqual:
		return Truth(gomath.Abs(l-r) <= equalTolerance), nil
	default:
		return 0, fmt.Errorf("unknown binary operator %d", b.Op)
	}
}

func (b Binary) String() string {
	return "(" + b.L.String() + " " + binarySymbols[b.Op] + " " + b.R.String() + ")"
}

// Random draws uniformly from [Min, Max]. A positive Step snaps the draw to
// Min plus a whole number of steps.
type Random struct {
	Min, Max, Step Expression
}

func (r Random) Eval(ctx *Context) (float64, error) {
	lo, err := r.Min.Eval(ctx)
	if err != nil {
		return 0, err
	}
	hi, err := r.Max.Eval(ctx)
	if err != nil {
		return 0, err
	}
	step, err := r.Step.Eval(ctx)
	if err != nil {
		return 0, err
	}
	if ctx.Rand == nil {
		return 0, fmt.Errorf("random(%s): no random source", r.String())
	}
	v := lo + ctx.Rand.Float64()*(hi-lo)
	if step > 0 {
		v = gomath.Round((v-lo)/step)*step + lo
	}
	return v, nil
}

func (r Random) String() string {
	return "random(" + r.Min.String() + ", " + r.Max.String() + ", " + r.Step.String() + ")"
}
