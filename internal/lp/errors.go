package lp

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidProblem is the sentinel wrapped by every structural error
// returned while building or solving a Problem.
var ErrInvalidProblem = errors.New("invalid problem")

// Error locates a failure inside the LP packages: the component and
// operation that rejected the input and what was wrong with it.
type Error struct {
	Component string
	Op        string
	Detail    string
	Err       error
}

// Error renders "component.op: detail: cause", leaving out empty parts.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var parts []string
	switch {
	case e.Component != "" && e.Op != "":
		parts = append(parts, e.Component+"."+e.Op)
	case e.Component != "":
		parts = append(parts, e.Component)
	case e.Op != "":
		parts = append(parts, e.Op)
	}
	if e.Detail != "" {
		parts = append(parts, e.Detail)
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NilProblem is returned by components handed a nil *Problem.
func NilProblem(component, op string) *Error {
	return &Error{Component: component, Op: op, Detail: "problem is nil", Err: ErrInvalidProblem}
}

func structuralf(op, format string, args ...interface{}) *Error {
	return &Error{
		Component: "problem",
		Op:        op,
		Detail:    fmt.Sprintf(format, args...),
		Err:       ErrInvalidProblem,
	}
}

// AsError returns the first *Error in err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsStructural reports whether err describes a malformed problem.
func IsStructural(err error) bool {
	return errors.Is(err, ErrInvalidProblem)
}
