package clause

import (
	"fmt"
	"strings"

	"github.com/funvibe/listc/runtime"
)

// Pattern is a generator's binding target: a simple name, a wildcard, or a
// nested tuple of sub-patterns.
type Pattern interface {
	// Names lists the names the pattern binds, in written order.
	Names() []string
	// Bind destructures elem into env. A false return means the element
	// does not match the pattern's shape and is skipped.
	Bind(elem any, env *runtime.Env) bool
	String() string
	patternNode()
}

// Name binds a single identifier.
type Name struct {
	Ident string
}

func (p *Name) patternNode()    {}
func (p *Name) Names() []string { return []string{p.Ident} }
func (p *Name) String() string  { return p.Ident }

func (p *Name) Bind(elem any, env *runtime.Env) bool {
	env.Set(p.Ident, elem)
	return true
}

// Wildcard matches any element and binds nothing.
type Wildcard struct{}

func (p *Wildcard) patternNode()                {}
func (p *Wildcard) Names() []string             { return nil }
func (p *Wildcard) String() string              { return "_" }
func (p *Wildcard) Bind(any, *runtime.Env) bool { return true }

// TuplePattern destructures a fixed-width tuple element ([]any).
type TuplePattern struct {
	Elems []Pattern
}

func (p *TuplePattern) patternNode() {}

func (p *TuplePattern) Names() []string {
	var names []string
	for _, e := range p.Elems {
		names = append(names, e.Names()...)
	}
	return names
}

func (p *TuplePattern) String() string {
	parts := make([]string, len(p.Elems))
	for i, e := range p.Elems {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (p *TuplePattern) Bind(elem any, env *runtime.Env) bool {
	tuple, ok := elem.([]any)
	if !ok || len(tuple) != len(p.Elems) {
		return false
	}
	for i, sub := range p.Elems {
		if !sub.Bind(tuple[i], env) {
			return false
		}
	}
	return true
}

// ParsePattern parses a textual binding pattern: an identifier, "_", or a
// parenthesized tuple of sub-patterns, e.g. "(a, (b, _))".
func ParsePattern(src string) (Pattern, error) {
	p := &patternParser{src: src}
	pat, err := p.parse()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("unexpected %q in pattern %q", p.src[p.pos:], src)
	}
	return pat, nil
}

type patternParser struct {
	src string
	pos int
}

func (p *patternParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *patternParser) parse() (Pattern, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, fmt.Errorf("empty pattern")
	}
	if p.src[p.pos] == '(' {
		return p.parseTuple()
	}
	return p.parseName()
}

func (p *patternParser) parseTuple() (Pattern, error) {
	p.pos++ // consume '('
	var elems []Pattern
	for {
		elem, err := p.parse()
		if err != nil {
			return nil, err
		}
		elems = append(elems, elem)
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, fmt.Errorf("unterminated tuple in pattern %q", p.src)
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case ')':
			p.pos++
			if len(elems) < 2 {
				return nil, fmt.Errorf("tuple pattern needs at least two elements in %q", p.src)
			}
			return &TuplePattern{Elems: elems}, nil
		default:
			return nil, fmt.Errorf("unexpected %q in pattern %q", p.src[p.pos:p.pos+1], p.src)
		}
	}
}

func isIdentByte(c byte, first bool) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		return true
	case c >= '0' && c <= '9':
		return !first
	}
	return false
}

func (p *patternParser) parseName() (Pattern, error) {
	start := p.pos
	for p.pos < len(p.src) && isIdentByte(p.src[p.pos], p.pos == start) {
		p.pos++
	}
	if p.pos == start {
		return nil, fmt.Errorf("expected identifier at %q in pattern %q", p.src[start:], p.src)
	}
	ident := p.src[start:p.pos]
	if ident == "_" {
		return &Wildcard{}, nil
	}
	return &Name{Ident: ident}, nil
}
