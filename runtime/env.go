package runtime

// Env is a nested binding environment. Each generator binding opens an
// enclosed child environment, so names go out of scope when control leaves
// the iteration that bound them.
type Env struct {
	store map[string]any
	outer *Env
}

func NewEnv() *Env {
	return &Env{store: make(map[string]any)}
}

func NewEnclosedEnv(outer *Env) *Env {
	env := NewEnv()
	env.outer = outer
	return env
}

func (e *Env) Get(name string) (any, bool) {
	v, ok := e.store[name]
	if !ok && e.outer != nil {
		return e.outer.Get(name)
	}
	return v, ok
}

func (e *Env) Set(name string, val any) {
	e.store[name] = val
}

// Flatten collapses the environment chain into a single map, inner bindings
// shadowing outer ones. Used by adapters that evaluate against a flat map.
func (e *Env) Flatten() map[string]any {
	var chain []*Env
	for env := e; env != nil; env = env.outer {
		chain = append(chain, env)
	}
	flat := make(map[string]any)
	for i := len(chain) - 1; i >= 0; i-- {
		for k, v := range chain[i].store {
			flat[k] = v
		}
	}
	return flat
}
