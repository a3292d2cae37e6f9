package scrollmarks

import (
	"errors"
	"fmt"
)

// Error sentinels. Every error returned by this package wraps exactly one
// of them; Classify maps them onto the JavaScript error classes page
// scripts expect.
var (
	// ErrInvalidParameter reports a malformed Spec field passed to Add.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrBadOffset reports a dynamic offset that did not produce a finite
	// number. It surfaces when the trigger point is computed, not when the
	// mark is validated.
	ErrBadOffset = errors.New("offset must resolve to a finite number")
	// ErrNotANumber reports a config value that is not an integer.
	ErrNotANumber = errors.New("config value is not a number")
	// ErrOutOfRange reports a config value below its lower bound.
	ErrOutOfRange = errors.New("config value out of range")
	// ErrUnknownOption reports a config key that does not exist.
	ErrUnknownOption = errors.New("invalid config parameter")
	// ErrNotFound reports a key that does not belong to a live mark.
	ErrNotFound = errors.New("scrollmark does not exist")
	// ErrIncompleteHost reports a Host missing a required collaborator.
	ErrIncompleteHost = errors.New("incomplete host")
)

// ErrorClass is the JavaScript error constructor an error corresponds to.
type ErrorClass int

const (
	TypeError ErrorClass = iota
	RangeError
	ReferenceError
)

func (c ErrorClass) String() string {
	switch c {
	case RangeError:
		return "RangeError"
	case ReferenceError:
		return "ReferenceError"
	}
	return "TypeError"
}

// Classify returns the error class of err.
func Classify(err error) ErrorClass {
	switch {
	case errors.Is(err, ErrOutOfRange):
		return RangeError
	case errors.Is(err, ErrUnknownOption), errors.Is(err, ErrNotFound):
		return ReferenceError
	}
	return TypeError
}

// ParamError describes a parameter that failed its shape check.
type ParamError struct {
	Kind     string // "", "Optional" or "Config"
	Name     string
	Expected string
	Actual   any
	Err      error
}

func (e *ParamError) Error() string {
	param := " parameter"
	if e.Kind == "" {
		param = "Parameter"
	}
	return fmt.Sprintf("%s%s '%s' must be %s, got %s instead", e.Kind, param, e.Name, e.Expected, describe(e.Actual))
}

func (e *ParamError) Unwrap() error { return e.Err }

// InvalidOptional builds the error for an optional Add parameter. Bindings
// that convert loosely typed input use it so their messages match the ones
// Add produces itself.
func InvalidOptional(name, expected string, actual any) error {
	return &ParamError{Kind: "Optional", Name: name, Expected: expected, Actual: actual, Err: ErrInvalidParameter}
}

func describe(v any) string {
	switch v := v.(type) {
	case nil:
		return "undefined"
	case string:
		return fmt.Sprintf("%q", v)
	case func():
		return "function"
	}
	return fmt.Sprintf("%v", v)
}
