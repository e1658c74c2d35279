package generator

import (
	"fmt"
	gomath "math"

	"github.com/Faultbox/bzwgen/internal/grammar"
	"github.com/Faultbox/bzwgen/internal/mesh"
	"github.com/Faultbox/bzwgen/internal/output"
)

// exec runs one operation over the active faces and returns the new active
// set. ok is false when an assert failed.
func (g *Generator) exec(op grammar.Operation, active []mesh.FaceID, env *grammar.Env, depth int) ([]mesh.FaceID, bool, error) {
	switch o := op.(type) {
	case grammar.Material:
		return active, true, g.each(active, env, func(id mesh.FaceID, ev evaluator) error {
			v, err := ev(o.ID)
			if err != nil {
				return err
			}
			return g.mesh.SetMaterial(id, int(gomath.Round(v)))
		})

	case grammar.Expand:
		return active, true, g.each(active, env, func(id mesh.FaceID, ev evaluator) error {
			v, err := ev(o.Amount)
			if err != nil {
				return err
			}
			return g.mesh.Expand(id, v)
		})

	case grammar.Extrude:
		return g.extrude(o, active, env, depth)

	case grammar.Subdivide:
		return g.replace(active, env, depth, o.Faces, func(id mesh.FaceID, ev evaluator) ([]mesh.FaceID, ruleMap, error) {
			v, err := ev(o.Count)
			if err != nil {
				return nil, nil, err
			}
			var children []mesh.FaceID
			if o.BySize {
				children, err = g.mesh.SubdivideBySize(id, v, o.Horizontal)
			} else {
				children, err = g.mesh.Subdivide(id, int(gomath.Round(v)), o.Horizontal)
			}
			return children, o.Faces.RuleFor, err
		})

	case grammar.Partition:
		return g.replace(active, env, depth, o.Faces, func(id mesh.FaceID, ev evaluator) ([]mesh.FaceID, ruleMap, error) {
			return g.partition(o, id, ev)
		})

	case grammar.Taper:
		return active, true, g.each(active, env, func(id mesh.FaceID, ev evaluator) error {
			v, err := ev(o.Amount)
			if err != nil {
				return err
			}
			return g.mesh.Taper(id, v)
		})

	case grammar.Chamfer:
		return active, true, g.each(active, env, func(id mesh.FaceID, ev evaluator) error {
			v, err := ev(o.Amount)
			if err != nil {
				return err
			}
			return g.mesh.Chamfer(id, v)
		})

	case grammar.Unchamfer:
		return active, true, g.each(active, env, func(id mesh.FaceID, _ evaluator) error {
			return g.mesh.Unchamfer(id)
		})

	case grammar.Texture:
		return active, true, g.each(active, env, func(id mesh.FaceID, ev evaluator) error {
			vs, err := evalAll(ev, o.Snap, o.Tile)
			if err != nil {
				return err
			}
			return g.mesh.Texture(id, vs[0], vs[1])
		})

	case grammar.TextureFull:
		return active, true, g.each(active, env, func(id mesh.FaceID, _ evaluator) error {
			return g.mesh.TextureFull(id)
		})

	case grammar.TextureClear:
		return active, true, g.each(active, env, func(id mesh.FaceID, _ evaluator) error {
			return g.mesh.TextureClear(id)
		})

	case grammar.TextureQuad:
		return active, true, g.each(active, env, func(id mesh.FaceID, ev evaluator) error {
			vs, err := evalAll(ev, o.AU, o.AV, o.BU, o.BV)
			if err != nil {
				return err
			}
			return g.mesh.TextureQuad(id, vs[0], vs[1], vs[2], vs[3])
		})

	case grammar.Translate:
		return active, true, g.each(active, env, func(id mesh.FaceID, ev evaluator) error {
			vs, err := evalAll(ev, o.X, o.Y, o.Z)
			if err != nil {
				return err
			}
			if o.Relative {
				return g.mesh.TranslateRelative(id, vs[0], vs[1], vs[2])
			}
			return g.mesh.Translate(id, vs[0], vs[1], vs[2])
		})

	case grammar.Scale:
		return active, true, g.each(active, env, func(id mesh.FaceID, ev evaluator) error {
			vs, err := evalAll(ev, o.X, o.Y)
			if err != nil {
				return err
			}
			return g.mesh.Scale(id, vs[0], vs[1])
		})

	case grammar.Assign:
		v, err := o.Value.Eval(g.context(env, first(active)))
		if err != nil {
			return nil, false, err
		}
		env.Define(o.Name, v)
		return active, true, nil

	case grammar.Spawn:
		for _, id := range active {
			c, err := g.mesh.Copy(id)
			if err != nil {
				return nil, false, err
			}
			if err := g.invoke(o.Rule, []mesh.FaceID{c}, false, env, depth+1); err != nil {
				return nil, false, err
			}
		}
		return active, true, nil

	case grammar.Call:
		return active, true, g.invoke(o.Rule, active, false, env, depth+1)

	case grammar.Free:
		return active, true, g.each(active, env, func(id mesh.FaceID, _ evaluator) error {
			return g.mesh.Free(id)
		})

	case grammar.Remove:
		return nil, true, g.each(active, env, func(id mesh.FaceID, _ evaluator) error {
			return g.mesh.Free(id)
		})

	case grammar.NGon:
		return g.replace(active, env, depth, o.Faces, func(id mesh.FaceID, ev evaluator) ([]mesh.FaceID, ruleMap, error) {
			return g.ngon(o, id, ev)
		})

	case grammar.AddFace:
		var added []mesh.FaceID
		for _, id := range active {
			nf, err := g.mesh.AddFaceFromBase(id)
			if err != nil {
				return nil, false, err
			}
			added = append(added, nf)
		}
		// New faces not claimed by the list stay as plain geometry.
		if _, err := g.fork(o.Faces, added, o.Faces.RuleFor, env, depth); err != nil {
			return nil, false, err
		}
		return active, true, nil

	case grammar.DetachFace:
		next := make([]mesh.FaceID, 0, len(active))
		for _, id := range active {
			c, err := g.mesh.Detach(id)
			if err != nil {
				return nil, false, err
			}
			next = append(next, c)
		}
		return next, true, nil

	case grammar.Assert:
		for _, id := range active {
			ok, err := grammar.Truthy(o.Cond, g.context(env, id))
			if err != nil || !ok {
				return nil, false, err
			}
		}
		if len(active) == 0 {
			ok, err := grammar.Truthy(o.Cond, g.context(env, -1))
			return active, ok, err
		}
		return active, true, nil

	case grammar.Test:
		var pass, rest []mesh.FaceID
		for _, id := range active {
			ok, err := grammar.Truthy(o.Cond, g.context(env, id))
			if err != nil {
				return nil, false, err
			}
			if ok {
				pass = append(pass, id)
			} else {
				rest = append(rest, id)
			}
		}
		left, err := g.fork(o.Faces, pass, o.Faces.RuleFor, env, depth)
		if err != nil {
			return nil, false, err
		}
		return append(rest, left...), true, nil

	case grammar.LoadMaterial:
		ctx := g.context(env, first(active))
		id, err := o.ID.Eval(ctx)
		if err != nil {
			return nil, false, err
		}
		noRadar := false
		if o.NoRadar != nil {
			if noRadar, err = grammar.Truthy(o.NoRadar, ctx); err != nil {
				return nil, false, err
			}
		}
		g.materials.Define(int(gomath.Round(id)), output.Material{Texture: o.Texture, NoRadar: noRadar})
		return active, true, nil

	case grammar.DriveThrough:
		return active, true, g.each(active, env, func(id mesh.FaceID, _ evaluator) error {
			return g.mesh.SetPassable(id)
		})

	case grammar.Weld:
		return active, true, g.each(active, env, func(id mesh.FaceID, ev evaluator) error {
			vs, err := evalAll(ev, o.A, o.B)
			if err != nil {
				return err
			}
			return g.mesh.WeldCorners(id, int(gomath.Round(vs[0])), int(gomath.Round(vs[1])))
		})
	}
	return nil, false, fmt.Errorf("unsupported operation %T", op)
}

// evaluator evaluates an expression against the face being processed.
type evaluator func(grammar.Expression) (float64, error)

// ruleMap names the rule for child i of n; "" leaves the child active.
type ruleMap func(i, n int) string

func evalAll(ev evaluator, exprs ...grammar.Expression) ([]float64, error) {
	vs := make([]float64, len(exprs))
	for i, e := range exprs {
		v, err := ev(e)
		if err != nil {
			return nil, err
		}
		vs[i] = v
	}
	return vs, nil
}

func first(active []mesh.FaceID) mesh.FaceID {
	if len(active) == 0 {
		return -1
	}
	return active[0]
}

// each applies fn to every active face with an evaluator bound to it.
func (g *Generator) each(active []mesh.FaceID, env *grammar.Env, fn func(mesh.FaceID, evaluator) error) error {
	for _, id := range active {
		ctx := g.context(env, id)
		ev := func(e grammar.Expression) (float64, error) { return e.Eval(ctx) }
		if err := fn(id, ev); err != nil {
			return err
		}
	}
	return nil
}

// replace runs a splitting operation on every active face. The children
// take the parent's place in the active set unless the face list hands
// them to a rule.
func (g *Generator) replace(active []mesh.FaceID, env *grammar.Env, depth int, list *grammar.FaceList,
	split func(mesh.FaceID, evaluator) ([]mesh.FaceID, ruleMap, error)) ([]mesh.FaceID, bool, error) {
	var next []mesh.FaceID
	err := g.each(active, env, func(id mesh.FaceID, ev evaluator) error {
		children, rules, err := split(id, ev)
		if err != nil {
			return err
		}
		left, err := g.fork(list, children, rules, env, depth)
		if err != nil {
			return err
		}
		next = append(next, left...)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return next, true, nil
}

// fork hands children to the rules named by list and returns the children
// nobody claimed. An all-same list runs one selected Product over every
// claimed child; otherwise each child is expanded on its own.
func (g *Generator) fork(list *grammar.FaceList, children []mesh.FaceID, rules ruleMap, env *grammar.Env, depth int) ([]mesh.FaceID, error) {
	if list == nil {
		return children, nil
	}
	var left, claimed []mesh.FaceID
	n := len(children)
	for i, c := range children {
		rule := rules(i, n)
		switch {
		case rule == "":
			left = append(left, c)
		case list.AllSame:
			claimed = append(claimed, c)
		default:
			if err := g.invoke(rule, []mesh.FaceID{c}, false, env, depth+1); err != nil {
				return nil, err
			}
		}
	}
	if len(claimed) > 0 {
		if err := g.invoke(list.Rules[0], claimed, true, env, depth+1); err != nil {
			return nil, err
		}
	}
	return left, nil
}

// extrude pushes every active face out. The new top faces become active;
// sides are only active when a face list leaves them unclaimed. A
// two-entry list names the top rule and then the rule for every side.
func (g *Generator) extrude(o grammar.Extrude, active []mesh.FaceID, env *grammar.Env, depth int) ([]mesh.FaceID, bool, error) {
	rules := o.Faces.RuleFor
	if o.Faces != nil && !o.Faces.AllSame && len(o.Faces.Rules) == 2 {
		rules = func(i, _ int) string { return o.Faces.Rules[min(i, 1)] }
	}
	var next []mesh.FaceID
	err := g.each(active, env, func(id mesh.FaceID, ev evaluator) error {
		h, err := ev(o.Height)
		if err != nil {
			return err
		}
		top, sides, err := g.mesh.Extrude(id, h)
		if err != nil {
			return err
		}
		if o.Faces == nil {
			next = append(next, top)
			return nil
		}
		left, err := g.fork(o.Faces, append([]mesh.FaceID{top}, sides...), rules, env, depth)
		if err != nil {
			return err
		}
		next = append(next, left...)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return next, true, nil
}

// partition resolves sizes against the split edge. Face list entries follow
// the requested segments, so a dropped zero-width segment still uses up its
// entry. The trailing remainder segment, if any, is never handed to a rule.
func (g *Generator) partition(o grammar.Partition, id mesh.FaceID, ev evaluator) ([]mesh.FaceID, ruleMap, error) {
	sizes, err := evalAll(ev, o.Sizes...)
	if err != nil {
		return nil, nil, err
	}
	var total float64
	if o.Horizontal {
		total, err = g.mesh.FaceWidth(id)
	} else {
		total, err = g.mesh.FaceHeight(id)
	}
	if err != nil {
		return nil, nil, err
	}
	plan := mesh.PlanPartition(total, sizes, o.Inclusive)
	children, segs, err := g.mesh.PartitionSegments(id, plan.Breakpoints, o.Horizontal, o.Inclusive)
	if err != nil {
		return nil, nil, err
	}
	n := len(plan.Breakpoints) + 1
	rules := func(i, _ int) string {
		seg := segs[i]
		if plan.Remainder && seg == n-1 {
			return ""
		}
		return o.Faces.RuleFor(seg, n)
	}
	return children, rules, nil
}

// ngon replaces the face with a fan of triangles in its plane. Without an
// explicit radius the fan fits the face's shorter side.
func (g *Generator) ngon(o grammar.NGon, id mesh.FaceID, ev evaluator) ([]mesh.FaceID, ruleMap, error) {
	sides, err := ev(o.Sides)
	if err != nil {
		return nil, nil, err
	}
	n := int(gomath.Round(sides))
	var radius float64
	if o.Radius != nil {
		if radius, err = ev(o.Radius); err != nil {
			return nil, nil, err
		}
	} else {
		w, err := g.mesh.FaceWidth(id)
		if err != nil {
			return nil, nil, err
		}
		h, err := g.mesh.FaceHeight(id)
		if err != nil {
			return nil, nil, err
		}
		radius = min(w, h) / 2
	}
	start, err := g.mesh.CreateNGonOn(id, radius, n)
	if err != nil {
		return nil, nil, err
	}
	if err := g.mesh.Free(id); err != nil {
		return nil, nil, err
	}
	children := make([]mesh.FaceID, n)
	for i := range children {
		children[i] = start + mesh.FaceID(i)
	}
	return children, o.Faces.RuleFor, nil
}
