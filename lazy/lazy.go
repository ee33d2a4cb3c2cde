// Package lazy lowers a clause model into a chain of filter, flat-map and
// transform stages over pull-based sequences. Nothing beyond what the
// consumer has requested is materialized, and side effects in sources,
// predicates and head expressions occur only as elements are pulled. The
// element order is identical to the eager engine's traversal order.
package lazy

import (
	"fmt"
	"iter"

	"github.com/google/uuid"

	"github.com/funvibe/listc/clause"
	"github.com/funvibe/listc/runtime"
	"github.com/funvibe/listc/scope"
)

// Program is a compiled lazy traversal. Running it yields a fresh cursor;
// the program itself holds no traversal state, so it may be run repeatedly
// as long as the underlying sources are restartable.
type Program struct {
	ID     uuid.UUID
	output clause.OutputKind
	levels []level
	head   *clause.Head
}

type level struct {
	gen    *clause.Generator
	filter runtime.Predicate
}

// Output reports the shape of the elements the program yields: plain values
// for Sequence, runtime.Pair for Associative. The lazy engine never builds
// an associative container itself; overwrite semantics require full
// materialization and belong to the consumer.
func (p *Program) Output() clause.OutputKind { return p.output }

// Compile groups each generator with the conjoined filters guarding its
// boundary, using a fresh scope accumulator for this pass.
func Compile(m *clause.Model) (*Program, error) {
	if m == nil || m.Head == nil {
		return nil, fmt.Errorf("clause model has no head")
	}
	if len(m.Clauses) == 0 {
		return nil, fmt.Errorf("clause model has no clauses")
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
				return nil, fmt.Errorf("filter before the first generator")
			}
			levels = append(levels, level{gen: c})
		case *clause.Filter:
			acc.Collect(c)
		default:
			return nil, fmt.Errorf("unknown clause type %T", c)
		}
	}
	levels[len(levels)-1].filter = acc.Flush()

	return &Program{
		ID:     uuid.New(),
		output: m.Head.Output(),
		levels: levels,
		head:   m.Head,
	}, nil
}

// Run starts a traversal against base bindings (nil for none). The cursor
// is single-consumer and may be paused indefinitely between pulls.
func (p *Program) Run(base *runtime.Env) *Cursor {
	if base == nil {
		base = runtime.NewEnv()
	}
	return &Cursor{seq: p.stage(0, base)}
}

// stage builds the pull pipeline for levels[depth:]: the generator's source
// filtered by the boundary's conjoined predicate, flattened into the
// next-level pipeline, with the head transform applied at the innermost
// level.
func (p *Program) stage(depth int, env *runtime.Env) runtime.Seq {
	s := &levelSeq{p: p, depth: depth, env: env}
	return runtime.SeqFunc(s.next)
}

type levelSeq struct {
	p      *Program
	depth  int
	env    *runtime.Env
	src    runtime.Seq // opened on first pull
	inner  runtime.Seq // current deeper-level pipeline
	opened bool
}

func (s *levelSeq) next() (any, bool, error) {
	lv := s.p.levels[s.depth]
	if !s.opened {
		src, err := lv.gen.Source.Open(s.env)
		if err != nil {
			return nil, false, err
		}
		s.src = src
		s.opened = true
	}
	for {
		if s.inner != nil {
			v, ok, err := s.inner.Next()
			if err != nil {
				return nil, false, err
			}
			if ok {
				return v, true, nil
			}
			s.inner = nil
		}

		elem, ok, err := s.src.Next()
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, nil
		}
		child := runtime.NewEnclosedEnv(s.env)
		if !lv.gen.Pattern.Bind(elem, child) {
			continue
		}
		if lv.filter != nil {
			keep, err := lv.filter(child)
			if err != nil {
				return nil, false, err
			}
			if !keep {
				// Rejection prunes the whole subtree of deeper
				// generators for this element.
				continue
			}
		}
		if s.depth+1 < len(s.p.levels) {
			s.inner = s.p.stage(s.depth+1, child)
			continue
		}
		return s.p.emit(child)
	}
}

func (p *Program) emit(env *runtime.Env) (any, bool, error) {
	if p.output == clause.Sequence {
		v, err := p.head.Value(env)
		if err != nil {
			return nil, false, err
		}
		return v, true, nil
	}
	k, err := p.head.Key(env)
	if err != nil {
		return nil, false, err
	}
	v, err := p.head.Value(env)
	if err != nil {
		return nil, false, err
	}
	return runtime.Pair{Key: k, Value: v}, true, nil
}

// Cursor is the pull interface over a running lazy program. After a failing
// pull the cursor is dead: the same error is returned on every later pull.
type Cursor struct {
	seq  runtime.Seq
	done bool
	err  error
}

func (c *Cursor) Next() (any, bool, error) {
	if c.err != nil {
		return nil, false, c.err
	}
	if c.done {
		return nil, false, nil
	}
	v, ok, err := c.seq.Next()
	if err != nil {
		c.err = err
		return nil, false, err
	}
	if !ok {
		c.done = true
		return nil, false, nil
	}
	return v, true, nil
}

// Seq exposes a traversal as a range-over-func sequence. Iteration stops at
// the first error, which is yielded with a nil value.
func (p *Program) Seq(base *runtime.Env) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		c := p.Run(base)
		for {
			v, ok, err := c.Next()
			if err != nil {
				yield(nil, err)
				return
			}
			if !ok {
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}

// Collect forces a cursor to completion. Only meaningful over finite
// sources.
func Collect(c *Cursor) ([]any, error) {
	var out []any
	for {
		v, ok, err := c.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}

// Take pulls at most n elements. Safe over infinite sources.
func Take(c *Cursor, n int) ([]any, error) {
	var out []any
	for len(out) < n {
		v, ok, err := c.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		out = append(out, v)
	}
	return out, nil
}
