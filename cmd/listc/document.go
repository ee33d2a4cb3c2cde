package main

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/funvibe/listc/clause"
	"github.com/funvibe/listc/exprs"
	"github.com/funvibe/listc/parse"
	"github.com/funvibe/listc/runtime"
)

// Document is the YAML form of a comprehension description: the structured
// clause list a front end hands the compiler, plus named host data the
// expressions may reference.
//
//	clauses:
//	  - for: x
//	    in: nums
//	  - for: y
//	    in: { range: { from: x, to: 11 } }
//	  - if: x < y
//	yield: x * y
//	env:
//	  nums: [1, 2, 3]
//
// A head is either yield (sequence output) or key/value (associative
// output).
type Document struct {
	Clauses []ClauseDoc    `yaml:"clauses"`
	Yield   string         `yaml:"yield"`
	Key     string         `yaml:"key"`
	Value   string         `yaml:"value"`
	Env     map[string]any `yaml:"env"`
}

// ClauseDoc is one clause: a generator (for/in) or a filter (if).
type ClauseDoc struct {
	For string     `yaml:"for"`
	In  *SourceDoc `yaml:"in"`
	If  string     `yaml:"if"`
}

// SourceDoc is a generator source: a bare expression string, an inline item
// list, or an integer range with expression-valued bounds.
type SourceDoc struct {
	Expr  string    `yaml:"expr"`
	Items []any     `yaml:"items"`
	Range *RangeDoc `yaml:"range"`
}

// RangeDoc is a half-open integer range. Each bound is an integer or an
// expression string evaluated against the enclosing bindings, so inner
// ranges may depend on outer generators. Step defaults to 1.
type RangeDoc struct {
	From any `yaml:"from"`
	To   any `yaml:"to"`
	Step any `yaml:"step"`
}

func (s *SourceDoc) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		s.Expr = node.Value
		return nil
	}
	type plain SourceDoc
	return node.Decode((*plain)(s))
}

func LoadDocument(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("document: %w", err)
	}
	return &doc, nil
}

// Parse compiles the document's expressions and validates the clause
// grammar, producing a clause model and the base environment.
func (d *Document) Parse() (*clause.Model, *runtime.Env, error) {
	var entries []parse.Entry
	for i, c := range d.Clauses {
		entry, err := c.entry()
		if err != nil {
			return nil, nil, fmt.Errorf("clause %d: %w", i, err)
		}
		entries = append(entries, entry)
	}

	head, err := d.head()
	if err != nil {
		return nil, nil, err
	}
	entries = append(entries, head)

	// Host-provided names count as bound everywhere.
	external := make([]string, 0, len(d.Env))
	for name := range d.Env {
		external = append(external, name)
	}

	model, err := parse.Parse(entries, external...)
	if err != nil {
		return nil, nil, err
	}

	base := runtime.NewEnv()
	for name, val := range d.Env {
		base.Set(name, normalizeYAML(val))
	}
	return model, base, nil
}

func (c *ClauseDoc) entry() (parse.Entry, error) {
	switch {
	case c.For != "" && c.If != "":
		return parse.Entry{}, fmt.Errorf("clause has both for and if")
	case c.For != "":
		if c.In == nil {
			return parse.Entry{}, fmt.Errorf("generator %q has no source", c.For)
		}
		pattern, err := clause.ParsePattern(c.For)
		if err != nil {
			return parse.Entry{}, err
		}
		source, refs, err := c.In.source()
		if err != nil {
			return parse.Entry{}, err
		}
		return parse.Gen(pattern, source, refs...), nil
	case c.If != "":
		pred, refs, err := exprs.Predicate(c.If)
		if err != nil {
			return parse.Entry{}, err
		}
		return parse.If(pred, refs...), nil
	default:
		return parse.Entry{}, fmt.Errorf("clause is neither a generator nor a filter")
	}
}

func (d *Document) head() (parse.Entry, error) {
	switch {
	case d.Yield != "" && (d.Key != "" || d.Value != ""):
		return parse.Entry{}, fmt.Errorf("document has both yield and key/value heads")
	case d.Yield != "":
		expr, refs, err := exprs.Value(d.Yield)
		if err != nil {
			return parse.Entry{}, err
		}
		return parse.Yield(expr, refs...), nil
	case d.Key != "" && d.Value != "":
		key, keyRefs, err := exprs.Value(d.Key)
		if err != nil {
			return parse.Entry{}, err
		}
		val, valRefs, err := exprs.Value(d.Value)
		if err != nil {
			return parse.Entry{}, err
		}
		return parse.YieldKV(key, val, append(keyRefs, valRefs...)...), nil
	default:
		return parse.Entry{}, fmt.Errorf("document needs a yield or a key/value head")
	}
}

func (s *SourceDoc) source() (runtime.Source, []string, error) {
	switch {
	case s.Expr != "":
		return exprs.Source(s.Expr)
	case s.Items != nil:
		elems := make([]any, len(s.Items))
		for i, item := range s.Items {
			elems[i] = normalizeYAML(item)
		}
		return runtime.Slice(elems...), nil, nil
	case s.Range != nil:
		return s.Range.source()
	default:
		return nil, nil, fmt.Errorf("source needs expr, items or range")
	}
}

func (r *RangeDoc) source() (runtime.Source, []string, error) {
	from, fromRefs, err := intBound("from", r.From, nil)
	if err != nil {
		return nil, nil, err
	}
	to, toRefs, err := intBound("to", r.To, nil)
	if err != nil {
		return nil, nil, err
	}
	step, stepRefs, err := intBound("step", r.Step, func(*runtime.Env) (int, error) { return 1, nil })
	if err != nil {
		return nil, nil, err
	}

	var refs []string
	refs = append(refs, fromRefs...)
	refs = append(refs, toRefs...)
	refs = append(refs, stepRefs...)

	source := runtime.SourceFunc(func(env *runtime.Env) (runtime.Seq, error) {
		fromV, err := from(env)
		if err != nil {
			return nil, err
		}
		toV, err := to(env)
		if err != nil {
			return nil, err
		}
		stepV, err := step(env)
		if err != nil {
			return nil, err
		}
		if stepV == 0 {
			return nil, fmt.Errorf("range with zero step")
		}
		return runtime.IntSeq(fromV, toV, stepV), nil
	})
	return source, refs, nil
}

type intBoundFunc func(*runtime.Env) (int, error)

// intBound turns a YAML range bound into an evaluator: integers are
// constant, strings are compiled expressions.
func intBound(name string, v any, fallback intBoundFunc) (intBoundFunc, []string, error) {
	switch v := v.(type) {
	case nil:
		if fallback == nil {
			return nil, nil, fmt.Errorf("range is missing %s", name)
		}
		return fallback, nil, nil
	case int:
		return func(*runtime.Env) (int, error) { return v, nil }, nil, nil
	case string:
		expr, refs, err := exprs.Value(v)
		if err != nil {
			return nil, nil, fmt.Errorf("range %s: %w", name, err)
		}
		return func(env *runtime.Env) (int, error) {
			out, err := expr(env)
			if err != nil {
				return 0, err
			}
			return toInt(name, out)
		}, refs, nil
	default:
		return nil, nil, fmt.Errorf("range %s must be an integer or expression, got %T", name, v)
	}
}

func toInt(name string, v any) (int, error) {
	switch v := v.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v == float64(int(v)) {
			return int(v), nil
		}
	}
	return 0, fmt.Errorf("range %s evaluated to %T, want integer", name, v)
}

// normalizeYAML recursively normalizes decoded YAML values so expressions
// and pattern binding see a uniform shape: mappings as map[string]any,
// sequences as []any.
func normalizeYAML(v any) any {
	switch v := v.(type) {
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalizeYAML(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = normalizeYAML(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[fmt.Sprint(k)] = normalizeYAML(item)
		}
		return out
	default:
		return v
	}
}
