package scope

import (
	"errors"
	"reflect"
	"testing"

	"github.com/funvibe/listc/clause"
	"github.com/funvibe/listc/runtime"
)

func gen(names ...string) *clause.Generator {
	var pat clause.Pattern
	if len(names) == 1 {
		pat = &clause.Name{Ident: names[0]}
	} else {
		elems := make([]clause.Pattern, len(names))
		for i, n := range names {
			elems[i] = &clause.Name{Ident: n}
		}
		pat = &clause.TuplePattern{Elems: elems}
	}
	return &clause.Generator{Pattern: pat, Source: runtime.Slice()}
}

func filter(pred runtime.Predicate) *clause.Filter {
	return &clause.Filter{Pred: pred}
}

func TestAccumulator(t *testing.T) {
	acc := New()

	if pre := acc.Open(gen("x")); pre != nil {
		t.Errorf("first Open returned pending filters")
	}
	if !acc.Bound("x") {
		t.Error("x not bound after Open")
	}
	if acc.Bound("y") {
		t.Error("y bound before its generator")
	}

	acc.Collect(filter(func(*runtime.Env) (bool, error) { return true, nil }))
	acc.Collect(filter(func(*runtime.Env) (bool, error) { return true, nil }))

	pre := acc.Open(gen("y", "z"))
	if pre == nil {
		t.Fatal("Open dropped the pending filters")
	}
	if !acc.Bound("y") || !acc.Bound("z") {
		t.Error("tuple names not bound")
	}
	if got := acc.BoundNames(); !reflect.DeepEqual(got, []string{"x", "y", "z"}) {
		t.Errorf("BoundNames() = %v", got)
	}

	// Pending list was cleared by Open.
	if p := acc.Flush(); p != nil {
		t.Error("Flush returned filters that Open should have consumed")
	}
}

func TestConjoinShortCircuit(t *testing.T) {
	var calls []int
	mk := func(id int, ok bool, err error) runtime.Predicate {
		return func(*runtime.Env) (bool, error) {
			calls = append(calls, id)
			return ok, err
		}
	}

	t.Run("rejection_stops_evaluation", func(t *testing.T) {
		calls = nil
		p := Conjoin([]runtime.Predicate{mk(1, true, nil), mk(2, false, nil), mk(3, true, nil)})
		ok, err := p(runtime.NewEnv())
		if ok || err != nil {
			t.Fatalf("got (%v, %v), want (false, nil)", ok, err)
		}
		if !reflect.DeepEqual(calls, []int{1, 2}) {
			t.Errorf("evaluated %v, want [1 2]", calls)
		}
	})

	t.Run("error_stops_evaluation", func(t *testing.T) {
		calls = nil
		boom := errors.New("boom")
		p := Conjoin([]runtime.Predicate{mk(1, false, boom), mk(2, true, nil)})
		if _, err := p(runtime.NewEnv()); !errors.Is(err, boom) {
			t.Fatalf("err = %v, want boom", err)
		}
		if !reflect.DeepEqual(calls, []int{1}) {
			t.Errorf("evaluated %v, want [1]", calls)
		}
	})

	t.Run("empty_is_nil", func(t *testing.T) {
		if Conjoin(nil) != nil {
			t.Error("Conjoin(nil) != nil")
		}
	})

	t.Run("single_passthrough", func(t *testing.T) {
		calls = nil
		p := Conjoin([]runtime.Predicate{mk(1, true, nil)})
		if ok, _ := p(runtime.NewEnv()); !ok {
			t.Error("single predicate rejected")
		}
	})
}
