// Package errs defines the error taxonomy shared by the descriptor sources, the
// model compiler, the emission driver and the CLI.
//
// Every failure carries a Code. Callers branch on the code with errors.Is against
// the exported sentinels, or pull the structured *Error out with errors.As when
// they need the offending method, field or raw value.
package errs

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Code categorizes failures by how the run should react to them.
type Code string

const (
	// ConfigurationError is fatal and raised before any graph work begins.
	ConfigurationError Code = "ConfigurationError"
	// TransportError is fatal for the whole run.
	TransportError Code = "TransportError"
	// MalformedInput is recoverable per method.
	MalformedInput Code = "MalformedInput"
	// NamingCollision indicates a generator bug and is fatal.
	NamingCollision Code = "NamingCollision"
	// InvalidInput is fatal for the containing method, recoverable for the run.
	InvalidInput Code = "InvalidInput"
)

// Sentinels matched by (*Error).Is.
var (
	ErrConfiguration   = errors.New("configuration error")
	ErrTransport       = errors.New("transport error")
	ErrMalformedInput  = errors.New("malformed input")
	ErrNamingCollision = errors.New("naming collision")
	ErrInvalidInput    = errors.New("invalid input")
)

var sentinels = map[Code]error{
	ConfigurationError: ErrConfiguration,
	TransportError:     ErrTransport,
	MalformedInput:     ErrMalformedInput,
	NamingCollision:    ErrNamingCollision,
	InvalidInput:       ErrInvalidInput,
}

// Error is a structured failure with optional method/field location and the raw
// value that could not be interpreted.
type Error struct {
	Code    Code
	Message string
	Method  string // API method being processed, if any
	Field   string // descriptor field, e.g. "params" or "response.nic.tags"
	Value   any    // offending raw value, if any
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Method != "" {
		msg = e.Method + ": " + msg
	}
	if e.Value != nil {
		msg = fmt.Sprintf("%s (got %s)", msg, describe(e.Value))
	}
	if e.Cause != nil {
		msg = msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is the sentinel for e.Code.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Code]
	return ok && s == target
}

// New constructs a coded error with a stack attached.
func New(code Code, format string, args ...any) error {
	return errors.WithStackDepth(&Error{Code: code, Message: fmt.Sprintf(format, args...)}, 1)
}

// Wrap constructs a coded error around cause. A nil cause yields nil.
func Wrap(code Code, cause error, format string, args ...any) error {
	if cause == nil {
		return nil
	}
	return errors.WithStackDepth(&Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}, 1)
}

// Malformed reports a descriptor value that does not have the expected shape.
func Malformed(method, field string, value any, format string, args ...any) error {
	return errors.WithStackDepth(&Error{
		Code:    MalformedInput,
		Message: fmt.Sprintf(format, args...),
		Method:  method,
		Field:   field,
		Value:   value,
	}, 1)
}

// Invalid reports an empty or otherwise unusable required input.
func Invalid(method, field string, format string, args ...any) error {
	return errors.WithStackDepth(&Error{
		Code:    InvalidInput,
		Message: fmt.Sprintf(format, args...),
		Method:  method,
		Field:   field,
	}, 1)
}

// WithHint attaches a user-facing hint, surfaced by the CLI.
func WithHint(err error, hint string) error { return errors.WithHint(err, hint) }

// Hints returns all hints attached anywhere in the chain.
func Hints(err error) []string { return errors.GetAllHints(err) }

// CodeOf returns the code of the first *Error in the chain, or "" if none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Recoverable reports whether err only invalidates the method being processed.
func Recoverable(err error) bool {
	switch CodeOf(err) {
	case MalformedInput, InvalidInput:
		return true
	default:
		return false
	}
}

func describe(v any) string {
	switch val := v.(type) {
	case string:
		return fmt.Sprintf("%q", val)
	case []any:
		return fmt.Sprintf("list of %d", len(val))
	case map[string]any:
		return fmt.Sprintf("object with %d keys", len(val))
	default:
		return fmt.Sprintf("%T %v", v, v)
	}
}
