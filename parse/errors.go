package parse

import (
	"errors"
	"fmt"
)

// Grammar failures are detected before any lowering begins, never at
// traversal time. Match them with errors.Is against the sentinels below.
var (
	ErrMissingLeadingGenerator = errors.New("comprehension must open with a generator")
	ErrMalformedPattern        = errors.New("malformed binding pattern")
	ErrNoHead                  = errors.New("comprehension has no head expression")
	ErrUnboundName             = errors.New("reference to unbound name")
)

// GrammarError is a structural error in a clause description.
type GrammarError struct {
	Clause int    // index of the offending entry, -1 when the list as a whole is wrong
	Detail string // human-readable specifics
	err    error  // sentinel
}

func (e *GrammarError) Error() string {
	if e.Clause < 0 {
		return fmt.Sprintf("%v: %s", e.err, e.Detail)
	}
	return fmt.Sprintf("clause %d: %v: %s", e.Clause, e.err, e.Detail)
}

func (e *GrammarError) Unwrap() error { return e.err }

func grammarErr(sentinel error, clause int, format string, args ...any) error {
	return &GrammarError{
		Clause: clause,
		Detail: fmt.Sprintf(format, args...),
		err:    sentinel,
	}
}
