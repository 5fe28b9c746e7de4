package types

import (
	"errors"
	"fmt"
)

// These are the error codes raised by the set and its collaborators.
const (
	// MissingAttribute is raised when writing to a name the set does not know.
	MissingAttribute = "attrset.missingAttribute"
	// Frozen is raised when mutating a frozen set.
	Frozen = "attrset.frozen"
	// InvalidCast is raised by the built-in types when a raw value cannot be cast.
	InvalidCast = "typecast.invalid"
	// UnnamedType is raised when a snapshot's type has no ident to resolve.
	UnnamedType = "snapshot.unnamedType"
	// UnknownType is raised when a snapshot's type ident is not registered.
	UnknownType = "snapshot.unknownType"
	// InvalidOrigin is raised when a snapshot's origin cannot be parsed.
	InvalidOrigin = "snapshot.invalidOrigin"
)

type Error struct {
	Code    string
	Message string
	Context map[string]any
}

func (err Error) Error() string {
	if err.Message != "" {
		return err.Message
	}
	return fmt.Sprintf("%+v: %+v", err.Code, err.Context)
}

// Is matches errors by code, so errors.Is(err, Error{Code: Frozen}) holds for
// any frozen error regardless of its context.
func (err Error) Is(target error) bool {
	t, ok := target.(Error)
	return ok && t.Code == err.Code
}

func NewError(code string, args ...any) Error {
	n := len(args)
	if n%2 != 0 {
		panic("Invalid error context args")
	}
	err := Error{Code: code, Context: make(map[string]any, n/2)}
	for i := 0; i < n; i += 2 {
		s, ok := args[i].(string)
		if !ok {
			panic("Invalid error context args")
		}
		err.Context[s] = args[i+1]
	}
	return err
}

// WithMessage returns a copy of the error that renders as the given message.
func (err Error) WithMessage(format string, args ...any) Error {
	err.Message = fmt.Sprintf(format, args...)
	return err
}

// HasCode returns true if err is an Error with the given code.
func HasCode(err error, code string) bool {
	var e Error
	return errors.As(err, &e) && e.Code == code
}
