// Package clause defines the comprehension clause model: an ordered list of
// generator and filter clauses followed by a head expression.
//
// Example (written in surface terms):
//
//	[x*x | x <- nums, x % 2 == 0]
//
// is one Generator (x over nums), one Filter (x % 2 == 0) and a Value head
// (x*x). Clause order is significant: the first generator is the outermost
// iteration and each later generator nests one level deeper.
package clause

import "github.com/funvibe/listc/runtime"

// Clause is either a *Generator or a *Filter.
type Clause interface {
	clauseNode()
}

// Generator binds a pattern to successive elements of a source.
// Its names are visible to every clause and to the head that follows it.
type Generator struct {
	Pattern Pattern
	Source  runtime.Source
	Refs    []string // names the source expression references
}

func (g *Generator) clauseNode() {}

// Filter restricts which bound tuples proceed to deeper nesting or output.
// Its predicate may reference only names bound by preceding generators.
type Filter struct {
	Pred runtime.Predicate
	Refs []string
}

func (f *Filter) clauseNode() {}

// Head is the terminal expression evaluated per surviving bound tuple.
// Key == nil means a value head; otherwise the head produces key/value
// pairs and the comprehension has associative output.
type Head struct {
	Key   runtime.Expr
	Value runtime.Expr
	Refs  []string
}

// OutputKind is the output shape a head selects.
type OutputKind int

const (
	// Sequence: one value per tuple, insertion order = traversal order,
	// duplicates kept.
	Sequence OutputKind = iota
	// Associative: one key/value pair per tuple, unique keys, last write
	// wins, no iteration-order guarantee.
	Associative
)

func (k OutputKind) String() string {
	if k == Associative {
		return "associative"
	}
	return "sequence"
}

// Output selects the output strategy from the head shape alone.
func (h *Head) Output() OutputKind {
	if h.Key != nil {
		return Associative
	}
	return Sequence
}

// Model is a complete comprehension description. It is built once by the
// clause parser and consumed by exactly one lowering pass; lowering does
// not mutate it.
type Model struct {
	Clauses []Clause
	Head    *Head
}
