// Package exprs compiles expression strings into the opaque callable units
// the clause model carries, using expr-lang. Alongside each compiled unit it
// reports the identifiers the expression references, which feeds the clause
// parser's unbound-name validation.
package exprs

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/expr-lang/expr"
	exprast "github.com/expr-lang/expr/ast"
	exprparser "github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"

	"github.com/funvibe/listc/runtime"
)

// Value compiles src into a value-producing expression.
func Value(src string) (runtime.Expr, []string, error) {
	prog, refs, err := compile(src)
	if err != nil {
		return nil, nil, err
	}
	fn := func(env *runtime.Env) (any, error) {
		return expr.Run(prog, env.Flatten())
	}
	return fn, refs, nil
}

// Predicate compiles src into a boolean-valued filter expression. A
// non-boolean result at traversal time is an evaluation error.
func Predicate(src string) (runtime.Predicate, []string, error) {
	prog, refs, err := compile(src)
	if err != nil {
		return nil, nil, err
	}
	fn := func(env *runtime.Env) (bool, error) {
		out, err := expr.Run(prog, env.Flatten())
		if err != nil {
			return false, err
		}
		b, ok := out.(bool)
		if !ok {
			return false, fmt.Errorf("filter %q produced %T, want bool", src, out)
		}
		return b, nil
	}
	return fn, refs, nil
}

// Source compiles src into a generator source. The expression is evaluated
// per open against the enclosing bindings; its result must be iterable: a
// slice or array (elements in order), a map (key/value tuples, order
// unspecified), or a runtime.Source to delegate to.
func Source(src string) (runtime.Source, []string, error) {
	prog, refs, err := compile(src)
	if err != nil {
		return nil, nil, err
	}
	source := runtime.SourceFunc(func(env *runtime.Env) (runtime.Seq, error) {
		out, err := expr.Run(prog, env.Flatten())
		if err != nil {
			return nil, err
		}
		return iterate(src, out, env)
	})
	return source, refs, nil
}

func compile(src string) (*vm.Program, []string, error) {
	refs, err := references(src)
	if err != nil {
		return nil, nil, err
	}
	// Compiled without a declared environment: identifiers resolve
	// dynamically against the bindings supplied at evaluation time.
	prog, err := expr.Compile(src)
	if err != nil {
		return nil, nil, err
	}
	return prog, refs, nil
}

// references parses src and collects every identifier it mentions. Builtin
// calls (len, abs, ...) are distinct node types in the expr AST and do not
// show up as identifiers.
func references(src string) ([]string, error) {
	tree, err := exprparser.Parse(src)
	if err != nil {
		return nil, err
	}
	c := &identCollector{seen: make(map[string]bool)}
	exprast.Walk(&tree.Node, c)
	names := make([]string, 0, len(c.seen))
	for name := range c.seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

type identCollector struct {
	seen map[string]bool
}

func (c *identCollector) Visit(node *exprast.Node) {
	if ident, ok := (*node).(*exprast.IdentifierNode); ok {
		c.seen[ident.Value] = true
	}
}

func iterate(src string, out any, env *runtime.Env) (runtime.Seq, error) {
	if source, ok := out.(runtime.Source); ok {
		return source.Open(env)
	}
	rv := reflect.ValueOf(out)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		i := 0
		return runtime.SeqFunc(func() (any, bool, error) {
			if i >= rv.Len() {
				return nil, false, nil
			}
			v := rv.Index(i).Interface()
			i++
			return v, true, nil
		}), nil
	case reflect.Map:
		it := rv.MapRange()
		return runtime.SeqFunc(func() (any, bool, error) {
			if !it.Next() {
				return nil, false, nil
			}
			return []any{it.Key().Interface(), it.Value().Interface()}, true, nil
		}), nil
	default:
		return nil, fmt.Errorf("source %q produced non-iterable %T", src, out)
	}
}
