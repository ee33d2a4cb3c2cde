package runtime

import "fmt"

// Seq is a pull-based traversal over a source's elements. Next returns the
// next element, or ok=false once the sequence is exhausted. A sequence is
// single-consumer; restart by opening the source again.
type Seq interface {
	Next() (v any, ok bool, err error)
}

// SeqFunc adapts a function to the Seq interface.
type SeqFunc func() (any, bool, error)

func (f SeqFunc) Next() (any, bool, error) { return f() }

// Slice is a finite, restartable source over a fixed list of elements.
func Slice(elems ...any) Source {
	return sliceSource(elems)
}

type sliceSource []any

func (s sliceSource) Open(*Env) (Seq, error) {
	i := 0
	return SeqFunc(func() (any, bool, error) {
		if i >= len(s) {
			return nil, false, nil
		}
		v := s[i]
		i++
		return v, true, nil
	}), nil
}

// Ints is a half-open integer range [from, to) advancing by step.
// A step of zero is rejected at open time.
func Ints(from, to, step int) Source {
	return SourceFunc(func(*Env) (Seq, error) {
		if step == 0 {
			return nil, fmt.Errorf("integer range with zero step")
		}
		return IntSeq(from, to, step), nil
	})
}

// IntSeq returns the traversal of a half-open integer range. Exposed
// separately so sources with environment-dependent bounds can build the
// range after evaluating them.
func IntSeq(from, to, step int) Seq {
	cur := from
	return SeqFunc(func() (any, bool, error) {
		if step > 0 && cur >= to || step < 0 && cur <= to {
			return nil, false, nil
		}
		v := cur
		cur += step
		return v, true, nil
	})
}

// Naturals is the infinite source from, from+1, from+2, ...
// Only meaningful under lazy compilation with a bounded consumer.
func Naturals(from int) Source {
	return SourceFunc(func(*Env) (Seq, error) {
		cur := from
		return SeqFunc(func() (any, bool, error) {
			v := cur
			cur++
			return v, true, nil
		}), nil
	})
}

// Tuples is a finite source of fixed-width rows, each yielded as []any.
// The width is a static arity hint for destructuring validation.
func Tuples(width int, rows ...[]any) Source {
	return &tupleSource{width: width, rows: rows}
}

type tupleSource struct {
	width int
	rows  [][]any
}

func (t *tupleSource) Arity() int { return t.width }

func (t *tupleSource) Open(*Env) (Seq, error) {
	for _, row := range t.rows {
		if len(row) != t.width {
			return nil, fmt.Errorf("tuple source row has %d elements, want %d", len(row), t.width)
		}
	}
	i := 0
	return SeqFunc(func() (any, bool, error) {
		if i >= len(t.rows) {
			return nil, false, nil
		}
		row := t.rows[i]
		i++
		elem := make([]any, len(row))
		copy(elem, row)
		return elem, true, nil
	}), nil
}

// Counter wraps a source and counts opens and pulls. Used to observe that
// filter rejection at an outer level never touches inner sources.
type Counter struct {
	src   Source
	Opens int
	Pulls int
}

func Count(src Source) *Counter {
	return &Counter{src: src}
}

func (c *Counter) Open(env *Env) (Seq, error) {
	seq, err := c.src.Open(env)
	if err != nil {
		return nil, err
	}
	c.Opens++
	return SeqFunc(func() (any, bool, error) {
		c.Pulls++
		return seq.Next()
	}), nil
}
