// Package errors carries the API error type of the lplab server: an error
// with a kind that maps onto HTTP statuses and JSON-RPC codes, plus the
// context and stack needed to log it.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"

	"github.com/copyleftdev/lplab/internal/cache"
	"github.com/copyleftdev/lplab/internal/lp"
)

// Kind classifies an error for transport mapping.
type Kind string

const (
	KindInternal    Kind = "internal"
	KindInvalid     Kind = "invalid"
	KindNotFound    Kind = "not_found"
	KindTimeout     Kind = "timeout"
	KindUnavailable Kind = "unavailable"
)

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	// Server-defined codes live in -32000 to -32099.
	CodeNotFound = -32004
	CodeTimeout  = -32008
)

// Error represents an error with context and stack trace.
type Error struct {
	// The underlying error that was returned
	Err error
	// A human-readable message describing the error
	Message string
	// The operation that was being performed when the error occurred
	Operation string
	// The component or package where the error occurred
	Component string
	Kind      Kind
	// The stack trace
	Stack []string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var builder strings.Builder

	if e.Message != "" {
		builder.WriteString(e.Message)
	}

	if e.Operation != "" {
		if builder.Len() > 0 {
			builder.WriteString(": ")
		}
		builder.WriteString("operation=")
		builder.WriteString(e.Operation)
	}

	if e.Component != "" {
		if builder.Len() > 0 {
			builder.WriteString(", ")
		}
		builder.WriteString("component=")
		builder.WriteString(e.Component)
	}

	if e.Err != nil {
		if builder.Len() > 0 {
			builder.WriteString(": ")
		}
		builder.WriteString(e.Err.Error())
	}

	return builder.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithOperation adds an operation to the error.
func (e *Error) WithOperation(op string) *Error {
	e.Operation = op
	return e
}

// WithComponent adds a component to the error.
func (e *Error) WithComponent(component string) *Error {
	e.Component = component
	return e
}

// WithKind sets the transport classification.
func (e *Error) WithKind(kind Kind) *Error {
	e.Kind = kind
	return e
}

// StackTrace returns the stack trace as a slice of strings.
func (e *Error) StackTrace() []string {
	return e.Stack
}

// New creates a new error with a message.
func New(msg string) *Error {
	return &Error{
		Message: msg,
		Kind:    KindInternal,
		Stack:   getStackTrace(),
	}
}

// Errorf creates a new error with a formatted message.
func Errorf(format string, args ...interface{}) *Error {
	return &Error{
		Message: fmt.Sprintf(format, args...),
		Kind:    KindInternal,
		Stack:   getStackTrace(),
	}
}

// Invalid creates a KindInvalid error.
func Invalid(format string, args ...interface{}) *Error {
	return Errorf(format, args...).WithKind(KindInvalid)
}

// Wrap wraps err with a message. The kind is classified from err, so a
// wrapped structural problem error stays KindInvalid. Wrapping an *Error
// adds a layer rather than mutating it.
func Wrap(err error, msg string) *Error {
	if err == nil {
		return nil
	}
	e := &Error{
		Err:     err,
		Message: msg,
		Kind:    KindOf(err),
	}
	var inner *Error
	if stderrors.As(err, &inner) {
		e.Stack = inner.Stack
	} else {
		e.Stack = getStackTrace()
	}
	return e
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// KindOf classifies err. An *Error in the chain decides first; otherwise
// the domain sentinels are recognised.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if stderrors.As(err, &e) && e.Kind != "" {
		return e.Kind
	}
	switch {
	case lp.IsStructural(err):
		return KindInvalid
	case cache.IsNotFound(err):
		return KindNotFound
	case stderrors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case stderrors.Is(err, context.Canceled):
		return KindUnavailable
	default:
		return KindInternal
	}
}

// HTTPStatus maps err to a response status.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalid:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RPCCode maps err to a JSON-RPC error code.
func RPCCode(err error) int {
	switch KindOf(err) {
	case KindInvalid:
		return CodeInvalidParams
	case KindNotFound:
		return CodeNotFound
	case KindTimeout:
		return CodeTimeout
	default:
		return CodeInternalError
	}
}

// getStackTrace returns the current stack trace as a slice of strings.
func getStackTrace() []string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:]) // Skip runtime.Callers, getStackTrace, and the constructor
	if n == 0 {
		return nil
	}

	frames := runtime.CallersFrames(pcs[:n])
	stack := make([]string, 0, n)

	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") && !strings.Contains(frame.File, "internal/errors/errors.go") {
			stack = append(stack, fmt.Sprintf("%s\n\t%s:%d", frame.Function, frame.File, frame.Line))
		}
		if !more {
			break
		}
	}

	return stack
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

// Unwrap returns the result of calling the Unwrap method on err, if any.
func Unwrap(err error) error {
	return stderrors.Unwrap(err)
}
