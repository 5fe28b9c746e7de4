// Package types defines the core types shared by attributes, sets and their builders.
package types

import "reflect"

// Void is used for values in maps used as sets.
type Void struct{}

// Type knows how to turn raw values into usable values and back again. Types
// must be pure: the set memoizes cast results and may call a cast more than
// once for the same raw value.
type Type interface {
	// CastFromUser casts a raw value supplied by a user, e.g. a form field.
	CastFromUser(raw any) (value any, err error)
	// CastFromDatabase casts a raw value as it was read from a persistence layer.
	CastFromDatabase(raw any) (value any, err error)
	// Serialize turns a cast value back into its raw representation.
	Serialize(value any) (raw any, err error)
	// Default returns the raw value used when a user provides no value.
	Default() (raw any)
}

// Named is implemented by types that can be identified on the wire. A
// snapshot records the ident of an attribute's type so that a registry can
// resolve it when the snapshot is restored.
type Named interface {
	Ident() string
}

// Ident returns the ident of the type, if it has one.
func Ident(t Type) (ident string, ok bool) {
	named, ok := t.(Named)
	if ok {
		ident = named.Ident()
	}
	return
}

// Wrapper is implemented by types that decorate another type without
// changing its casts, e.g. to count them.
type Wrapper interface {
	Unwrap() Type
}

// Unwrap returns the type at the bottom of a chain of wrappers.
func Unwrap(t Type) Type {
	for {
		w, ok := t.(Wrapper)
		if !ok {
			return t
		}
		t = w.Unwrap()
	}
}

// SameType is true if both types unwrap to equal types.
func SameType(a Type, b Type) bool {
	return reflect.DeepEqual(Unwrap(a), Unwrap(b))
}

// Field is a name bound to a type, the unit of a schema.
type Field struct {
	Name string
	Type Type
}
