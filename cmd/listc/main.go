// Command listc compiles and executes comprehension documents.
//
//	listc run pythagorean.yaml
//	listc run primes.yaml --lazy --limit 10
//
// A document describes one comprehension (generators, filters, head) plus
// the named data its expressions reference. Eager compilation materializes
// the whole output; --lazy pulls elements on demand, which is the only
// sensible mode over unbounded sources (bound them with --limit).
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/alecthomas/kong"
	"github.com/mattn/go-isatty"

	"github.com/funvibe/listc/clause"
	"github.com/funvibe/listc/eager"
	"github.com/funvibe/listc/lazy"
	"github.com/funvibe/listc/runtime"
)

type CLI struct {
	Run RunCmd `cmd:"" default:"withargs" help:"Compile and execute a comprehension document."`
}

type RunCmd struct {
	Doc     string `arg:"" type:"existingfile" help:"Comprehension document (YAML)."`
	Lazy    bool   `help:"Compile to a pull-based sequence instead of a materialized container."`
	Limit   int    `help:"Stop after N elements (lazy mode only; required for unbounded sources)."`
	Trace   bool   `help:"Log the compiled program ID and element count to stderr."`
	NoColor bool   `name:"no-color" help:"Disable colored trace output."`
}

func main() {
	var cli CLI
	ktx := kong.Parse(&cli,
		kong.Name("listc"),
		kong.Description("Comprehension-expression compiler."),
		kong.UsageOnError(),
	)
	ktx.FatalIfErrorf(ktx.Run())
}

func (c *RunCmd) Run() error {
	data, err := os.ReadFile(c.Doc)
	if err != nil {
		return err
	}
	doc, err := LoadDocument(data)
	if err != nil {
		return err
	}
	model, base, err := doc.Parse()
	if err != nil {
		return err
	}

	if c.Lazy {
		return c.runLazy(model, base)
	}
	return c.runEager(model, base)
}

func (c *RunCmd) runEager(model *clause.Model, base *runtime.Env) error {
	prog, err := eager.Compile(model)
	if err != nil {
		return err
	}
	res, err := prog.Run(base)
	if err != nil {
		return err
	}

	count := 0
	if res.Kind == clause.Sequence {
		for _, v := range res.Elems {
			fmt.Println(formatValue(v))
		}
		count = len(res.Elems)
	} else {
		// The associative container has no iteration-order guarantee;
		// sort the printout so runs are comparable.
		keys := make([]any, 0, len(res.Pairs))
		for k := range res.Pairs {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i]) < fmt.Sprint(keys[j])
		})
		for _, k := range keys {
			fmt.Printf("%s: %s\n", formatValue(k), formatValue(res.Pairs[k]))
		}
		count = len(res.Pairs)
	}
	c.trace(prog.ID.String(), count)
	return nil
}

func (c *RunCmd) runLazy(model *clause.Model, base *runtime.Env) error {
	prog, err := lazy.Compile(model)
	if err != nil {
		return err
	}
	cursor := prog.Run(base)

	count := 0
	for c.Limit == 0 || count < c.Limit {
		v, ok, err := cursor.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if pair, isPair := v.(runtime.Pair); isPair {
			fmt.Printf("%s: %s\n", formatValue(pair.Key), formatValue(pair.Value))
		} else {
			fmt.Println(formatValue(v))
		}
		count++
	}
	c.trace(prog.ID.String(), count)
	return nil
}

func (c *RunCmd) trace(id string, count int) {
	if !c.Trace {
		return
	}
	prefix := "listc:"
	if !c.NoColor && isatty.IsTerminal(os.Stderr.Fd()) {
		prefix = "\x1b[32mlistc:\x1b[0m"
	}
	fmt.Fprintf(os.Stderr, "%s program %s produced %d element(s)\n", prefix, id, count)
}

// formatValue renders tuples the way a comprehension head writes them.
func formatValue(v any) string {
	tuple, ok := v.([]any)
	if !ok {
		return fmt.Sprint(v)
	}
	out := "("
	for i, e := range tuple {
		if i > 0 {
			out += ", "
		}
		out += formatValue(e)
	}
	return out + ")"
}
