package exprs_test

import (
	"reflect"
	"sort"
	"testing"

	"github.com/funvibe/listc/clause"
	"github.com/funvibe/listc/eager"
	"github.com/funvibe/listc/exprs"
	"github.com/funvibe/listc/parse"
	"github.com/funvibe/listc/runtime"
)

func env(pairs map[string]any) *runtime.Env {
	e := runtime.NewEnv()
	for k, v := range pairs {
		e.Set(k, v)
	}
	return e
}

func TestValue(t *testing.T) {
	expr, refs, err := exprs.Value("x*x + y")
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"x", "y"}; !reflect.DeepEqual(refs, want) {
		t.Errorf("refs = %v, want %v", refs, want)
	}
	out, err := expr(env(map[string]any{"x": 4, "y": 1}))
	if err != nil {
		t.Fatal(err)
	}
	if out != 17 {
		t.Errorf("out = %v, want 17", out)
	}
}

func TestPredicate(t *testing.T) {
	pred, refs, err := exprs.Predicate("x % 2 == 0")
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"x"}; !reflect.DeepEqual(refs, want) {
		t.Errorf("refs = %v, want %v", refs, want)
	}
	if ok, _ := pred(env(map[string]any{"x": 4})); !ok {
		t.Error("4 rejected")
	}
	if ok, _ := pred(env(map[string]any{"x": 5})); ok {
		t.Error("5 accepted")
	}
}

func TestPredicateRequiresBool(t *testing.T) {
	pred, _, err := exprs.Predicate("x + 1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := pred(env(map[string]any{"x": 1})); err == nil {
		t.Error("non-boolean filter result accepted")
	}
}

func TestBuiltinsAreNotReferences(t *testing.T) {
	_, refs, err := exprs.Predicate("len(xs) > 0")
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"xs"}; !reflect.DeepEqual(refs, want) {
		t.Errorf("refs = %v, want %v", refs, want)
	}
}

func TestSourceOverSlice(t *testing.T) {
	src, refs, err := exprs.Source("nums")
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"nums"}; !reflect.DeepEqual(refs, want) {
		t.Errorf("refs = %v, want %v", refs, want)
	}

	seq, err := src.Open(env(map[string]any{"nums": []any{1, 2, 3}}))
	if err != nil {
		t.Fatal(err)
	}
	var got []any
	for {
		v, ok, err := seq.Next()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		got = append(got, v)
	}
	if want := []any{1, 2, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSourceOverMapYieldsTuples(t *testing.T) {
	src, _, err := exprs.Source("ages")
	if err != nil {
		t.Fatal(err)
	}
	seq, err := src.Open(env(map[string]any{"ages": map[string]any{"ada": 36, "alan": 41}}))
	if err != nil {
		t.Fatal(err)
	}
	var got [][]any
	for {
		v, ok, err := seq.Next()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		got = append(got, v.([]any))
	}
	sort.Slice(got, func(i, j int) bool { return got[i][0].(string) < got[j][0].(string) })
	want := [][]any{{"ada", 36}, {"alan", 41}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSourceDelegatesToRuntimeSource(t *testing.T) {
	src, _, err := exprs.Source("evens")
	if err != nil {
		t.Fatal(err)
	}
	seq, err := src.Open(env(map[string]any{"evens": runtime.Ints(0, 6, 2)}))
	if err != nil {
		t.Fatal(err)
	}
	v, ok, err := seq.Next()
	if err != nil || !ok || v != 0 {
		t.Fatalf("first pull = (%v, %v, %v)", v, ok, err)
	}
}

func TestSourceRejectsNonIterable(t *testing.T) {
	src, _, err := exprs.Source("n")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := src.Open(env(map[string]any{"n": 42})); err == nil {
		t.Error("integer source accepted")
	}
}

// End to end: expression strings through parse and eager lowering.
func TestExpressionPipeline(t *testing.T) {
	source, srcRefs, err := exprs.Source("nums")
	if err != nil {
		t.Fatal(err)
	}
	pred, predRefs, err := exprs.Predicate("x % 2 == 0")
	if err != nil {
		t.Fatal(err)
	}
	head, headRefs, err := exprs.Value("x * x")
	if err != nil {
		t.Fatal(err)
	}

	model, err := parse.Parse([]parse.Entry{
		parse.Gen(&clause.Name{Ident: "x"}, source, srcRefs...),
		parse.If(pred, predRefs...),
		parse.Yield(head, headRefs...),
	}, "nums")
	if err != nil {
		t.Fatal(err)
	}

	prog, err := eager.Compile(model)
	if err != nil {
		t.Fatal(err)
	}
	res, err := prog.Run(env(map[string]any{"nums": []any{0, 1, 2, 3, 4}}))
	if err != nil {
		t.Fatal(err)
	}
	if want := []any{0, 4, 16}; !reflect.DeepEqual(res.Elems, want) {
		t.Errorf("got %v, want %v", res.Elems, want)
	}
}
