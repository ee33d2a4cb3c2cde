package runtime

// Expr is an opaque value-producing unit. The compiler never inspects its
// body; it only supplies the bindings in force at the point of evaluation.
type Expr func(*Env) (any, error)

// Predicate is an opaque boolean-valued unit used by filter clauses.
type Predicate func(*Env) (bool, error)

// Source yields the elements a generator iterates over. Open starts a fresh
// traversal against the bindings in force at the generator's nesting level,
// so a source may depend on names bound by enclosing generators.
type Source interface {
	Open(env *Env) (Seq, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(*Env) (Seq, error)

func (f SourceFunc) Open(env *Env) (Seq, error) { return f(env) }

// ArityHinter is implemented by sources whose elements have a statically
// known tuple width. The clause parser uses the hint to reject destructuring
// patterns of mismatched arity before lowering.
type ArityHinter interface {
	Arity() int
}

// Pair is a single key/value element produced by lazy programs compiled
// from key/value heads. Turning a pair stream into an associative container
// is the consumer's concern.
type Pair struct {
	Key   any
	Value any
}

// Const returns an Expr that always produces v.
func Const(v any) Expr {
	return func(*Env) (any, error) { return v, nil }
}
