// Package generator expands grammar rules into geometry. A Generator owns
// one random source and drives one mesh; it is not safe for concurrent use.
package generator

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/Faultbox/bzwgen/internal/grammar"
	"github.com/Faultbox/bzwgen/internal/logger"
	"github.com/Faultbox/bzwgen/internal/mesh"
)

// DefaultMaxDepth bounds nested rule expansion when Options leaves it unset.
const DefaultMaxDepth = 64

// Options configures a Generator.
type Options struct {
	// Seed seeds the random source. Ignored when Rand is set.
	Seed uint64
	// Rand overrides the random source.
	Rand *rand.Rand
	// MaxDepth bounds nested rule expansion; zero means DefaultMaxDepth.
	MaxDepth int
	// Materials receives loadmaterial definitions; nil allocates a table.
	Materials *Materials
}

// Stats counts what happened during one or more runs.
type Stats struct {
	Invocations  int
	Products     int
	AssertPrunes int
	DepthPrunes  int
	EmptyPrunes  int
}

// RuleError attributes a fatal error to the rule whose product raised it.
type RuleError struct {
	Rule string
	Err  error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("rule %q: %v", e.Rule, e.Err)
}

func (e *RuleError) Unwrap() error {
	return e.Err
}

// Generator interprets a RuleSet against a Mesh.
type Generator struct {
	rules     *grammar.RuleSet
	mesh      *mesh.Mesh
	rand      *rand.Rand
	maxDepth  int
	materials *Materials
	stats     Stats
}

// New creates a Generator. The rule set is only read.
func New(rules *grammar.RuleSet, m *mesh.Mesh, opts Options) *Generator {
	g := &Generator{
		rules:     rules,
		mesh:      m,
		rand:      opts.Rand,
		maxDepth:  opts.MaxDepth,
		materials: opts.Materials,
	}
	if g.rand == nil {
		g.rand = rand.New(rand.NewPCG(opts.Seed, opts.Seed))
	}
	if g.maxDepth <= 0 {
		g.maxDepth = DefaultMaxDepth
	}
	if g.materials == nil {
		g.materials = NewMaterials()
	}
	return g
}

// Mesh returns the mesh being built.
func (g *Generator) Mesh() *mesh.Mesh { return g.mesh }

// Materials returns the material table, including loadmaterial entries.
func (g *Generator) Materials() *Materials { return g.materials }

// Stats returns the counters accumulated so far.
func (g *Generator) Stats() Stats { return g.stats }

// Run expands rule on face. env supplies attributes visible to every rule
// and may be nil. Configuration and geometry errors abort the run; pruned
// branches do not.
func (g *Generator) Run(rule string, face mesh.FaceID, env *grammar.Env) error {
	if env == nil {
		env = grammar.NewEnv(nil)
	}
	if _, err := g.rules.Rule(rule); err != nil {
		return err
	}
	before := g.stats
	if err := g.invoke(rule, []mesh.FaceID{face}, false, env, 1); err != nil {
		return err
	}
	logger.Info("rule expanded",
		zap.String("rule", rule),
		zap.Int("faces", len(g.mesh.LiveFaces())),
		zap.Int("vertices", g.mesh.NumVertices()),
		zap.Int("invocations", g.stats.Invocations-before.Invocations),
		zap.Int("pruned", g.stats.prunes()-before.prunes()),
	)
	return nil
}

func (s Stats) prunes() int {
	return s.AssertPrunes + s.DepthPrunes + s.EmptyPrunes
}

// invoke expands rule on faces. With allSame, one Product is chosen for
// the first face and run on the whole set; otherwise each face gets its
// own selection.
func (g *Generator) invoke(name string, faces []mesh.FaceID, allSame bool, env *grammar.Env, depth int) error {
	rule, err := g.rules.Rule(name)
	if err != nil {
		return err
	}
	if len(faces) == 0 {
		return nil
	}
	if depth > g.maxDepth {
		g.stats.DepthPrunes++
		logger.Debug("depth limit", zap.String("rule", name), zap.Int("depth", depth))
		return nil
	}

	if allSame {
		return g.wrap(name, g.expand(rule, faces, env, depth))
	}
	for _, f := range faces {
		if err := g.expand(rule, []mesh.FaceID{f}, env, depth); err != nil {
			return g.wrap(name, err)
		}
	}
	return nil
}

func (g *Generator) wrap(rule string, err error) error {
	if err == nil {
		return nil
	}
	var re *RuleError
	if errors.As(err, &re) {
		return err
	}
	return &RuleError{Rule: rule, Err: err}
}

// expand selects one Product of rule, judged against the first face, and
// runs it on faces in a fresh attribute frame.
func (g *Generator) expand(rule *grammar.Rule, faces []mesh.FaceID, env *grammar.Env, depth int) error {
	g.stats.Invocations++
	ctx := g.context(env, faces[0])

	if rule.Guard != nil {
		ok, err := grammar.Truthy(rule.Guard, ctx)
		if err != nil {
			return err
		}
		if !ok {
			g.stats.EmptyPrunes++
			logger.Debug("rule guard false", zap.String("rule", rule.Name), zap.Int("depth", depth))
			return nil
		}
	}

	prod, err := g.choose(rule.Products, ctx)
	if err != nil {
		return err
	}
	if prod == nil {
		g.stats.EmptyPrunes++
		logger.Debug("no eligible product", zap.String("rule", rule.Name), zap.Int("depth", depth))
		return nil
	}
	logger.Debug("rule invoked",
		zap.String("rule", rule.Name),
		zap.Int("depth", depth),
		zap.Int("faces", len(faces)),
	)
	return g.runProduct(rule.Name, prod, faces, grammar.NewEnv(env), depth)
}

// choose filters products by guard and draws one by weight. It returns nil
// when nothing is eligible or the eligible weights sum to zero.
func (g *Generator) choose(products []grammar.Product, ctx *grammar.Context) (*grammar.Product, error) {
	var eligible []*grammar.Product
	total := 0.0
	for i := range products {
		p := &products[i]
		if p.Guard != nil {
			ok, err := grammar.Truthy(p.Guard, ctx)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		if p.Weight <= 0 {
			continue
		}
		eligible = append(eligible, p)
		total += p.Weight
	}
	if len(eligible) == 0 {
		return nil, nil
	}
	if len(eligible) == 1 {
		return eligible[0], nil
	}
	r := g.rand.Float64() * total
	for _, p := range eligible {
		r -= p.Weight
		if r < 0 {
			return p, nil
		}
	}
	return eligible[len(eligible)-1], nil
}

// runProduct executes ops in order over the active face set. A failed
// assert ends the product without error.
func (g *Generator) runProduct(rule string, prod *grammar.Product, faces []mesh.FaceID, env *grammar.Env, depth int) error {
	g.stats.Products++
	active := faces
	for _, op := range prod.Ops {
		next, ok, err := g.exec(op, active, env, depth)
		if err != nil {
			return err
		}
		if !ok {
			g.stats.AssertPrunes++
			logger.Debug("assert failed",
				zap.String("rule", rule),
				zap.Int("depth", depth),
				zap.String("op", grammar.FormatOperation(op)),
			)
			return nil
		}
		active = next
	}
	return nil
}

// context builds the evaluation context for face; a negative id means no
// current face.
func (g *Generator) context(env *grammar.Env, face mesh.FaceID) *grammar.Context {
	ctx := &grammar.Context{Env: env, Rand: g.rand}
	if face >= 0 {
		ctx.Face = faceAttrs{m: g.mesh, id: face}
	}
	return ctx
}
