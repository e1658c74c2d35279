package grammar

import (
	"fmt"
	"os"
)

// Parse reads grammar source into a RuleSet. Rule references are not
// resolved here; call Validate on the result for that.
func Parse(src string) (*RuleSet, error) {
	p := &parser{lex: newLexer(src)}
	if err := p.prime(); err != nil {
		return nil, err
	}
	var rules []*Rule
	for p.cur.kind != tokEOF {
		r, err := p.rule()
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return NewRuleSet(rules...)
}

// ParseFile parses the grammar file at path.
func ParseFile(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read grammar: %w", err)
	}
	rs, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s:%w", path, err)
	}
	return rs, nil
}

// ParseExpression parses a single expression.
func ParseExpression(src string) (Expression, error) {
	p := &parser{lex: newLexer(src)}
	if err := p.prime(); err != nil {
		return nil, err
	}
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	if p.cur.kind != tokEOF {
		return nil, p.unexpected("end of expression")
	}
	return e, nil
}

type parser struct {
	lex       *lexer
	cur, peek token
}

func (p *parser) prime() error {
	var err error
	if p.cur, err = p.lex.next(); err != nil {
		return err
	}
	p.peek, err = p.lex.next()
	return err
}

func (p *parser) advance() error {
	p.cur = p.peek
	if p.cur.kind == tokEOF {
		return nil
	}
	var err error
	p.peek, err = p.lex.next()
	return err
}

func (p *parser) is(text string) bool {
	return p.cur.kind == tokPunct && p.cur.text == text
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Line: p.cur.line, Col: p.cur.col, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) unexpected(want string) error {
	return p.errorf("expected %s, found %v", want, p.cur)
}

func (p *parser) expect(text string) error {
	if !p.is(text) {
		return p.unexpected(fmt.Sprintf("%q", text))
	}
	return p.advance()
}

func (p *parser) name() (string, error) {
	if p.cur.kind != tokName {
		return "", p.unexpected("name")
	}
	n := p.cur.text
	return n, p.advance()
}

func (p *parser) rule() (*Rule, error) {
	name, err := p.name()
	if err != nil {
		return nil, err
	}
	r := &Rule{Name: name}
	if p.is("(") {
		if r.Guard, err = p.paren(); err != nil {
			return nil, err
		}
	}
	for p.cur.kind == tokArrow {
		prod, err := p.product()
		if err != nil {
			return nil, err
		}
		r.Products = append(r.Products, prod)
	}
	if len(r.Products) == 0 {
		return nil, p.unexpected(`"->"`)
	}
	if err := p.expect(";"); err != nil {
		return nil, err
	}
	return r, nil
}

func (p *parser) product() (Product, error) {
	prod := Product{Weight: 1}
	if err := p.advance(); err != nil {
		return prod, err
	}
	if p.cur.kind == tokNumber {
		prod.Weight = p.cur.num
		if err := p.advance(); err != nil {
			return prod, err
		}
		if err := p.expect(":"); err != nil {
			return prod, err
		}
	}
	if p.is("(") {
		g, err := p.paren()
		if err != nil {
			return prod, err
		}
		prod.Guard = g
	}
	for p.cur.kind == tokName {
		op, err := p.operation()
		if err != nil {
			return prod, err
		}
		prod.Ops = append(prod.Ops, op)
	}
	return prod, nil
}

func (p *parser) paren() (Expression, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	return e, p.expect(")")
}

// args parses a parenthesized, comma-separated expression list.
func (p *parser) args() ([]Expression, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	var list []Expression
	if p.is(")") {
		return list, p.advance()
	}
	for {
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		list = append(list, e)
		if !p.is(",") {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return list, p.expect(")")
}

func (p *parser) faceList() (*FaceList, error) {
	if !p.is("[") {
		return nil, nil
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	l := &FaceList{}
	if p.is("@") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		n, err := p.name()
		if err != nil {
			return nil, err
		}
		l.AllSame = true
		l.Rules = []string{n}
		return l, p.expect("]")
	}
	for !p.is("]") {
		switch {
		case p.is("*"):
			l.Rules = append(l.Rules, "")
			if err := p.advance(); err != nil {
				return nil, err
			}
		case p.cur.kind == tokName:
			l.Rules = append(l.Rules, p.cur.text)
			if err := p.advance(); err != nil {
				return nil, err
			}
		default:
			return nil, p.unexpected(`rule name, "*" or "]"`)
		}
	}
	if len(l.Rules) == 0 {
		return nil, p.errorf("empty face list")
	}
	return l, p.advance()
}

// arity describes the argument count of a keyword: min..max, max < 0 for
// variadic.
type arity struct{ min, max int }

var keywords = map[string]arity{
	"material": {1, 1}, "expand": {1, 1}, "extrude": {1, 1},
	"subdivideh": {1, 1}, "subdividev": {1, 1}, "repeath": {1, 1}, "repeatv": {1, 1},
	"partitionh": {1, -1}, "partitionv": {1, -1}, "partitionhi": {1, -1}, "partitionvi": {1, -1},
	"taper": {1, 1}, "chamfer": {1, 1}, "unchamfer": {0, 0},
	"texture": {2, 2}, "texturefull": {0, 0}, "textureclear": {0, 0}, "texturequad": {4, 4},
	"translate": {3, 3}, "translater": {3, 3}, "scale": {2, 2},
	"free": {0, 0}, "remove": {0, 0}, "ngon": {1, 2}, "addface": {0, 0}, "detachface": {0, 0},
	"assert": {1, 1}, "test": {1, 1}, "drivethrough": {0, 0}, "weld": {2, 2},
	// Argument shapes of these three are checked by their own parsers.
	"assign": {}, "spawn": {}, "loadmaterial": {},
}

// takesFaces lists the keywords that may be followed by a face list.
var takesFaces = map[string]bool{
	"extrude": true, "subdivideh": true, "subdividev": true, "repeath": true, "repeatv": true,
	"partitionh": true, "partitionv": true, "partitionhi": true, "partitionvi": true,
	"ngon": true, "addface": true, "test": true,
}

// IsKeyword reports whether name introduces a built-in operation rather
// than a rule call.
func IsKeyword(name string) bool {
	_, ok := keywords[name]
	return ok
}

func (p *parser) operation() (Operation, error) {
	kw := p.cur.text
	line, col := p.cur.line, p.cur.col
	hasArgs := p.peek.kind == tokPunct && p.peek.text == "("
	if !hasArgs {
		return Call{Rule: kw}, p.advance()
	}
	if !IsKeyword(kw) {
		return nil, p.errorf("unknown operation %q", kw)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	switch kw {
	case "assign":
		return p.assign()
	case "spawn":
		if err := p.expect("("); err != nil {
			return nil, err
		}
		n, err := p.name()
		if err != nil {
			return nil, err
		}
		return Spawn{Rule: n}, p.expect(")")
	case "loadmaterial":
		return p.loadMaterial()
	}

	args, err := p.args()
	if err != nil {
		return nil, err
	}
	want := keywords[kw]
	if len(args) < want.min || (want.max >= 0 && len(args) > want.max) {
		return nil, &SyntaxError{Line: line, Col: col, Msg: fmt.Sprintf("%s: wrong number of arguments (%d)", kw, len(args))}
	}
	var faces *FaceList
	if p.is("[") {
		if !takesFaces[kw] {
			return nil, p.errorf("%s does not take a face list", kw)
		}
		if faces, err = p.faceList(); err != nil {
			return nil, err
		}
	}
	return build(kw, args, faces), nil
}

func build(kw string, a []Expression, faces *FaceList) Operation {
	switch kw {
	case "material":
		return Material{ID: a[0]}
	case "expand":
		return Expand{Amount: a[0]}
	case "extrude":
		return Extrude{Height: a[0], Faces: faces}
	case "subdivideh", "subdividev":
		return Subdivide{Count: a[0], Horizontal: kw == "subdivideh", Faces: faces}
	case "repeath", "repeatv":
		return Subdivide{Count: a[0], Horizontal: kw == "repeath", BySize: true, Faces: faces}
	case "partitionh", "partitionv", "partitionhi", "partitionvi":
		return Partition{
			Sizes:      a,
			Horizontal: kw[9] == 'h',
			Inclusive:  len(kw) == 11,
			Faces:      faces,
		}
	case "taper":
		return Taper{Amount: a[0]}
	case "chamfer":
		return Chamfer{Amount: a[0]}
	case "unchamfer":
		return Unchamfer{}
	case "texture":
		return Texture{Snap: a[0], Tile: a[1]}
	case "texturefull":
		return TextureFull{}
	case "textureclear":
		return TextureClear{}
	case "texturequad":
		return TextureQuad{AU: a[0], AV: a[1], BU: a[2], BV: a[3]}
	case "translate", "translater":
		return Translate{X: a[0], Y: a[1], Z: a[2], Relative: kw == "translater"}
	case "scale":
		return Scale{X: a[0], Y: a[1]}
	case "free":
		return Free{}
	case "remove":
		return Remove{}
	case "ngon":
		n := NGon{Sides: a[0], Faces: faces}
		if len(a) > 1 {
			n.Radius = a[1]
		}
		return n
	case "addface":
		return AddFace{Faces: faces}
	case "detachface":
		return DetachFace{}
	case "assert":
		return Assert{Cond: a[0]}
	case "test":
		return Test{Cond: a[0], Faces: faces}
	case "drivethrough":
		return DriveThrough{}
	case "weld":
		return Weld{A: a[0], B: a[1]}
	}
	panic("grammar: unhandled keyword " + kw)
}

func (p *parser) assign() (Operation, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	n, err := p.name()
	if err != nil {
		return nil, err
	}
	if err := p.expect("="); err != nil {
		return nil, err
	}
	v, err := p.expr()
	if err != nil {
		return nil, err
	}
	return Assign{Name: n, Value: v}, p.expect(")")
}

func (p *parser) loadMaterial() (Operation, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	id, err := p.expr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(","); err != nil {
		return nil, err
	}
	if p.cur.kind != tokString {
		return nil, p.unexpected("texture string")
	}
	lm := LoadMaterial{ID: id, Texture: p.cur.text}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.is(",") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if lm.NoRadar, err = p.expr(); err != nil {
			return nil, err
		}
	}
	return lm, p.expect(")")
}

// Expression grammar, lowest precedence first:
// | then & then comparisons then + - then * / then unary.

func (p *parser) expr() (Expression, error) {
	return p.binary(0)
}

var precedence = [][]struct {
	sym string
	op  BinaryOp
}{
	{{"|", OpOr}},
	{{"&", OpAnd}},
	{{"<", OpLess}, {">", OpGreater}, {"=", OpEqual}},
	{{"+", OpAdd}, {"-", OpSub}},
	{{"*", OpMul}, {"/", OpDiv}},
}

func (p *parser) binary(level int) (Expression, error) {
	if level == len(precedence) {
		return p.unary()
	}
	l, err := p.binary(level + 1)
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.binaryOp(level)
		if !ok {
			return l, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		r, err := p.binary(level + 1)
		if err != nil {
			return nil, err
		}
		l = Binary{Op: op, L: l, R: r}
	}
}

func (p *parser) binaryOp(level int) (BinaryOp, bool) {
	if p.cur.kind != tokPunct {
		return 0, false
	}
	for _, c := range precedence[level] {
		if c.sym == p.cur.text {
			return c.op, true
		}
	}
	return 0, false
}

func (p *parser) unary() (Expression, error) {
	switch {
	case p.is("-"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.kind == tokNumber {
			v := p.cur.num
			return Const{Value: -v}, p.advance()
		}
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return Unary{Op: OpNeg, X: x}, nil
	case p.is("("):
		return p.paren()
	case p.cur.kind == tokNumber:
		v := p.cur.num
		return Const{Value: v}, p.advance()
	case p.cur.kind == tokName:
		return p.nameExpr()
	}
	return nil, p.unexpected("expression")
}

func (p *parser) nameExpr() (Expression, error) {
	name := p.cur.text
	isCall := p.peek.kind == tokPunct && p.peek.text == "("
	if err := p.advance(); err != nil {
		return nil, err
	}
	if !isCall {
		return Attr{Name: name}, nil
	}
	switch name {
	case "neg", "round":
		x, err := p.paren()
		if err != nil {
			return nil, err
		}
		op := OpNeg
		if name == "round" {
			op = OpRound
		}
		return Unary{Op: op, X: x}, nil
	case "random":
		args, err := p.args()
		if err != nil {
			return nil, err
		}
		if len(args) != 3 {
			return nil, p.errorf("random: want 3 arguments, got %d", len(args))
		}
		return Random{Min: args[0], Max: args[1], Step: args[2]}, nil
	case "face":
		if err := p.expect("("); err != nil {
			return nil, err
		}
		if p.cur.kind == tokName && !IsFaceAttribute(p.cur.text) {
			return nil, p.errorf("%v %q", ErrUnknownFaceAttr, p.cur.text)
		}
		attr, err := p.name()
		if err != nil {
			return nil, err
		}
		return FaceAttr{Name: attr}, p.expect(")")
	}
	return nil, p.errorf("unknown function %q", name)
}
