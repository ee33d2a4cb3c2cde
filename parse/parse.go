// Package parse converts a flat, ordered stream of tagged clause
// descriptions into a clause.Model, enforcing the comprehension grammar:
// the list opens with a generator, every referenced name is bound by a
// preceding generator, and a single head terminates the list.
//
// The front end that recognizes surface syntax builds entries with Gen, If,
// Yield and YieldKV; Parse is a pure transformation over them.
package parse

import (
	"github.com/funvibe/listc/clause"
	"github.com/funvibe/listc/runtime"
	"github.com/funvibe/listc/scope"
)

type entryKind int

const (
	entryGenerator entryKind = iota
	entryFilter
	entryHead
)

// Entry is one raw clause description.
type Entry struct {
	kind    entryKind
	pattern clause.Pattern
	source  runtime.Source
	pred    runtime.Predicate
	key     runtime.Expr
	value   runtime.Expr
	refs    []string
}

// Gen describes a generator clause binding pattern to elements of source.
// refs lists the names the source expression itself references.
func Gen(pattern clause.Pattern, source runtime.Source, refs ...string) Entry {
	return Entry{kind: entryGenerator, pattern: pattern, source: source, refs: refs}
}

// If describes a filter clause. refs lists the names the predicate
// references.
func If(pred runtime.Predicate, refs ...string) Entry {
	return Entry{kind: entryFilter, pred: pred, refs: refs}
}

// Yield describes a value head: one output value per surviving tuple.
func Yield(expr runtime.Expr, refs ...string) Entry {
	return Entry{kind: entryHead, value: expr, refs: refs}
}

// YieldKV describes a key/value head: associative output, last write wins.
func YieldKV(key, value runtime.Expr, refs ...string) Entry {
	return Entry{kind: entryHead, key: key, value: value, refs: refs}
}

// Parse validates the entry stream and produces the clause model. external
// names (host-provided data, adapter builtins) count as bound everywhere.
// Parse has no side effects; a failed parse leaves nothing behind.
func Parse(entries []Entry, external ...string) (*clause.Model, error) {
	if len(entries) == 0 {
		return nil, grammarErr(ErrMissingLeadingGenerator, -1, "empty clause list")
	}

	acc := scope.New()
	bound := func(name string) bool {
		if acc.Bound(name) {
			return true
		}
		for _, ext := range external {
			if ext == name {
				return true
			}
		}
		return false
	}

	model := &clause.Model{}
	for i, entry := range entries {
		if model.Head != nil {
			return nil, grammarErr(ErrNoHead, i, "head must terminate the clause list")
		}
		for _, name := range entry.refs {
			if !bound(name) {
				return nil, grammarErr(ErrUnboundName, i, "%q is not bound by a preceding generator", name)
			}
		}
		switch entry.kind {
		case entryGenerator:
			if err := checkPattern(entry, i); err != nil {
				return nil, err
			}
			gen := &clause.Generator{Pattern: entry.pattern, Source: entry.source, Refs: entry.refs}
			acc.Open(gen)
			model.Clauses = append(model.Clauses, gen)
		case entryFilter:
			if len(model.Clauses) == 0 {
				return nil, grammarErr(ErrMissingLeadingGenerator, i, "filter before any generator")
			}
			f := &clause.Filter{Pred: entry.pred, Refs: entry.refs}
			acc.Collect(f)
			model.Clauses = append(model.Clauses, f)
		case entryHead:
			if len(model.Clauses) == 0 {
				return nil, grammarErr(ErrMissingLeadingGenerator, i, "head before any generator")
			}
			model.Head = &clause.Head{Key: entry.key, Value: entry.value, Refs: entry.refs}
		}
	}

	if model.Head == nil {
		return nil, grammarErr(ErrNoHead, -1, "clause list ended without a head")
	}
	return model, nil
}

func checkPattern(entry Entry, i int) error {
	if entry.pattern == nil {
		return grammarErr(ErrMalformedPattern, i, "generator without a binding pattern")
	}
	if entry.source == nil {
		return grammarErr(ErrMalformedPattern, i, "generator without a source")
	}
	seen := make(map[string]bool)
	for _, name := range entry.pattern.Names() {
		if seen[name] {
			return grammarErr(ErrMalformedPattern, i, "name %q bound twice in pattern %s", name, entry.pattern)
		}
		seen[name] = true
	}
	// Arity against the source is checked only when statically known.
	if hinter, ok := entry.source.(runtime.ArityHinter); ok {
		if tuple, ok := entry.pattern.(*clause.TuplePattern); ok && len(tuple.Elems) != hinter.Arity() {
			return grammarErr(ErrMalformedPattern, i,
				"pattern %s has arity %d, source yields %d-tuples", tuple, len(tuple.Elems), hinter.Arity())
		}
	}
	return nil
}
