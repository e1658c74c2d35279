package grammar

import (
	"maps"
	"slices"
)

// Env is one frame of attribute bindings. Each rule expansion gets a fresh
// frame whose parent is the caller's, so lookups see enclosing frames while
// assignments only ever land in the current one.
type Env struct {
	parent *Env
	vars   map[string]float64
}

// NewEnv creates a frame enclosed by parent, which may be nil.
func NewEnv(parent *Env) *Env {
	return &Env{parent: parent}
}

// Define binds name in this frame, shadowing any enclosing binding.
func (e *Env) Define(name string, v float64) {
	if e.vars == nil {
		e.vars = make(map[string]float64)
	}
	e.vars[name] = v
}

// Lookup resolves name in this frame, then each enclosing frame.
func (e *Env) Lookup(name string) (float64, bool) {
	for f := e; f != nil; f = f.parent {
		if v, ok := f.vars[name]; ok {
			return v, true
		}
	}
	return 0, false
}

// Names returns the names bound directly in this frame, sorted.
func (e *Env) Names() []string {
	return slices.Sorted(maps.Keys(e.vars))
}
