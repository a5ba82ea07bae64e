// Package fault carries internal-consistency violations.
//
// The liveness engine has no recoverable runtime errors: anything that goes
// wrong inside it is a soundness bug. Such conditions must not surface as
// ordinary errors (which callers might swallow or report to users), so they
// panic with a *Violation, which the CLI recognizes and reports as an
// internal failure with a bug-report hint.
package fault

import "fmt"

// Violation describes a broken internal invariant.
type Violation struct {
	Msg string
}

func (v *Violation) Error() string {
	return "invariant violation: " + v.Msg
}

// Invariantf panics with a *Violation built from the format and args.
func Invariantf(format string, args ...any) {
	panic(&Violation{Msg: fmt.Sprintf(format, args...)})
}

// Check panics with a *Violation unless cond holds.
func Check(cond bool, format string, args ...any) {
	if !cond {
		Invariantf(format, args...)
	}
}

// AsViolation reports whether a recovered panic value is a *Violation.
func AsViolation(r any) (*Violation, bool) {
	v, ok := r.(*Violation)
	return v, ok
}
