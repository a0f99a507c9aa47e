package resolver

import "fmt"

// InternalError is an assertion failure inside the resolver. It is raised
// with panic by enforce and turned back into an error by Run.
type InternalError struct {
	Msg string
}

func (e *InternalError) Error() string { return "resolver: internal error: " + e.Msg }

func enforce(cond bool, format string, args ...any) {
	if !cond {
		panic(&InternalError{Msg: fmt.Sprintf(format, args...)})
	}
}
