package heap

import (
	"errors"
	"fmt"
)

// ErrInvariantViolation wraps every fatal assertion the heap raises. A full
// GC has nowhere to recover to once one of these fires: the process is at a
// safepoint with no mutator progress possible, so the driver logs context
// and re-panics rather than trying to continue.
var ErrInvariantViolation = errors.New("heap: invariant violation")

// Fatal is the payload carried by a panic raised from Assertf.
type Fatal struct {
	Err error
}

func (f *Fatal) Error() string { return f.Err.Error() }
func (f *Fatal) Unwrap() error { return f.Err }

// Assertf panics with a *Fatal wrapping ErrInvariantViolation when cond is
// false. Every invariant §7 of the design calls "fatal" (unmarked-but-
// reachable, misordered forwarding, region-state mismatch, a partially
// marked humongous object, auxiliary allocation failure) goes through here.
func Assertf(cond bool, format string, args ...any) {
	if cond {
		return
	}
	panic(&Fatal{Err: fmt.Errorf("%w: %s", ErrInvariantViolation, fmt.Sprintf(format, args...))})
}
