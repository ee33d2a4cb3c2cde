// Package eager lowers a clause model into a nested-loop traversal that
// materializes the whole output container in one pass. Traversal order is
// standard nested-loop order: first generator outermost, last innermost.
package eager

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"

	"github.com/funvibe/listc/clause"
	"github.com/funvibe/listc/runtime"
	"github.com/funvibe/listc/scope"
)

// Program is a compiled eager traversal. Compilation keeps no hidden
// mutable state: a program may be run any number of times, and each run
// owns its own output and environments.
type Program struct {
	ID     uuid.UUID
	output clause.OutputKind
	levels []level
	head   *clause.Head
}

// level is one generator plus the conjoined filters applied immediately
// after its binding, before any deeper nesting.
type level struct {
	gen    *clause.Generator
	filter runtime.Predicate
}

// Compile walks the clause list once, grouping each generator with the
// filters that guard its boundary.
func Compile(m *clause.Model) (*Program, error) {
	levels, head, err := lowerLevels(m)
	if err != nil {
		return nil, err
	}
	return &Program{
		ID:     uuid.New(),
		output: head.Output(),
		levels: levels,
		head:   head,
	}, nil
}

// lowerLevels converts the flat clause list into per-generator levels using
// a fresh scope accumulator. Each lowering pass owns its accumulator.
func lowerLevels(m *clause.Model) ([]level, *clause.Head, error) {
	if m == nil || m.Head == nil {
		return nil, nil, fmt.Errorf("clause model has no head")
	}
	if len(m.Clauses) == 0 {
		return nil, nil, fmt.Errorf("clause model has no clauses")
	}

	acc := scope.New()
	var levels []level
	for _, c := range m.Clauses {
		switch c := c.(type) {
		case *clause.Generator:
			pre := acc.Open(c)
			if len(levels) > 0 {
				levels[len(levels)-1].filter = pre
			} else if pre != nil {
				return nil, nil, fmt.Errorf("filter before the first generator")
			}
			levels = append(levels, level{gen: c})
		case *clause.Filter:
			acc.Collect(c)
		default:
			return nil, nil, fmt.Errorf("unknown clause type %T", c)
		}
	}
	levels[len(levels)-1].filter = acc.Flush()
	return levels, m.Head, nil
}

// Result is a fully materialized output container.
type Result struct {
	Kind  clause.OutputKind
	Elems []any       // Kind == Sequence: traversal order, duplicates kept
	Pairs map[any]any // Kind == Associative: unique keys, last write wins
}

// Run executes the traversal against base bindings (nil for none). An error
// raised by any source, predicate or head expression aborts the traversal
// and discards the partial container.
func (p *Program) Run(base *runtime.Env) (*Result, error) {
	if base == nil {
		base = runtime.NewEnv()
	}
	res := &Result{Kind: p.output}
	if p.output == clause.Associative {
		res.Pairs = make(map[any]any)
	}
	if err := p.walk(0, base, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (p *Program) walk(depth int, env *runtime.Env, res *Result) error {
	lv := p.levels[depth]
	seq, err := lv.gen.Source.Open(env)
	if err != nil {
		return err
	}
	for {
		elem, ok, err := seq.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		child := runtime.NewEnclosedEnv(env)
		if !lv.gen.Pattern.Bind(elem, child) {
			continue
		}
		if lv.filter != nil {
			keep, err := lv.filter(child)
			if err != nil {
				return err
			}
			if !keep {
				continue // skip to the next element, never a hard stop
			}
		}
		if depth+1 < len(p.levels) {
			if err := p.walk(depth+1, child, res); err != nil {
				return err
			}
			continue
		}
		if err := p.emit(child, res); err != nil {
			return err
		}
	}
}

func (p *Program) emit(env *runtime.Env, res *Result) error {
	if p.output == clause.Sequence {
		v, err := p.head.Value(env)
		if err != nil {
			return err
		}
		res.Elems = append(res.Elems, v)
		return nil
	}
	k, err := p.head.Key(env)
	if err != nil {
		return err
	}
	if k != nil && !reflect.TypeOf(k).Comparable() {
		return fmt.Errorf("associative head produced unusable key of type %T", k)
	}
	v, err := p.head.Value(env)
	if err != nil {
		return err
	}
	res.Pairs[k] = v
	return nil
}
