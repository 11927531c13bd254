package poolmath

import "fmt"

// InvariantError is raised as a panic when a computation produces a value the
// pool must never hold. It is never returned as an error.
type InvariantError struct {
	Op     string
	Detail string
}

func (e InvariantError) Error() string {
	return fmt.Sprintf("poolmath: %s: %s", e.Op, e.Detail)
}

func invariant(op, format string, args ...interface{}) {
	panic(InvariantError{Op: op, Detail: fmt.Sprintf(format, args...)})
}
