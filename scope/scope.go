// Package scope tracks, while walking a clause list left to right, the set
// of currently bound names and the filters pending application at the next
// binding boundary. Both lowering engines consume a fresh Accumulator per
// pass; instances are never shared between passes.
package scope

import (
	"github.com/funvibe/listc/clause"
	"github.com/funvibe/listc/runtime"
)

type Accumulator struct {
	bound   map[string]bool
	order   []string
	pending []runtime.Predicate
}

func New() *Accumulator {
	return &Accumulator{bound: make(map[string]bool)}
}

// Collect appends a filter to the pending list. The bound set is unchanged.
func (a *Accumulator) Collect(f *clause.Filter) {
	a.pending = append(a.pending, f.Pred)
}

// Open adds the generator's names to the bound set and returns the
// conjunction of the filters collected since the previous Open, clearing
// them. The returned predicate belongs to the boundary just before this
// generator's iteration; it is nil when no filters are pending.
func (a *Accumulator) Open(g *clause.Generator) runtime.Predicate {
	pre := a.Flush()
	for _, name := range g.Pattern.Names() {
		if !a.bound[name] {
			a.bound[name] = true
			a.order = append(a.order, name)
		}
	}
	return pre
}

// Flush returns the conjunction of any remaining pending filters; used for
// the trailing filters between the last generator and the head.
func (a *Accumulator) Flush() runtime.Predicate {
	p := Conjoin(a.pending)
	a.pending = nil
	return p
}

// Bound reports whether name is bound by a generator already opened.
func (a *Accumulator) Bound(name string) bool {
	return a.bound[name]
}

// BoundNames returns the active names in binding order.
func (a *Accumulator) BoundNames() []string {
	names := make([]string, len(a.order))
	copy(names, a.order)
	return names
}

// Conjoin combines consecutive filters with a short-circuiting logical AND:
// the first rejecting (or failing) predicate stops evaluation.
func Conjoin(preds []runtime.Predicate) runtime.Predicate {
	switch len(preds) {
	case 0:
		return nil
	case 1:
		return preds[0]
	}
	combined := make([]runtime.Predicate, len(preds))
	copy(combined, preds)
	return func(env *runtime.Env) (bool, error) {
		for _, pred := range combined {
			ok, err := pred(env)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	}
}
