// Package attribute defines a single named, typed value whose cast is
// computed lazily and memoized.
//
// An attribute is either standalone or a view. Standalone attributes are
// immutable in their raw state: the With* methods return new attributes. A
// view is bound to an Owner, typically the set it was read from, and resolves
// the owner's current entry for its name on every read, so writes to the set
// are visible through views obtained before the write.
package attribute

import (
	"reflect"
	"sync"

	"github.com/dball/lazyattrs/internal/typecast"
	. "github.com/dball/lazyattrs/internal/types"
)

// Owner is the store a view resolves against.
type Owner interface {
	// Resolve returns the standalone attribute currently stored under the name.
	Resolve(name string) (attr *Attribute, ok bool)
	// Access records that the value stored under the name has been read.
	Access(name string)
}

// memo is the cast value cell shared by an attribute and its shallow copies.
type memo struct {
	lock   sync.Mutex
	filled bool
	value  any
}

func (m *memo) fill(cast func() (any, error)) (value any, err error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.filled {
		value = m.value
		return
	}
	value, err = cast()
	if err != nil {
		return
	}
	m.value = value
	m.filled = true
	return
}

func (m *memo) peek() (value any, filled bool) {
	m.lock.Lock()
	value, filled = m.value, m.filled
	m.lock.Unlock()
	return
}

type Attribute struct {
	name   string
	typ    Type
	origin Origin
	raw    any
	memo   *memo

	// set only on views
	owner Owner
	key   string
}

func newAttribute(name string, typ Type, origin Origin, raw any) *Attribute {
	if typ == nil {
		typ = typecast.Value{}
	}
	return &Attribute{name: name, typ: typ, origin: origin, raw: raw, memo: &memo{}}
}

// NewFromDatabase returns an attribute whose raw value came from a database.
func NewFromDatabase(name string, raw any, typ Type) *Attribute {
	return newAttribute(name, typ, FromDatabase, raw)
}

// NewFromUser returns an attribute whose raw value came from a user.
func NewFromUser(name string, raw any, typ Type) *Attribute {
	return newAttribute(name, typ, FromUser, raw)
}

// NewWithCastValue returns an attribute holding an already cast value.
func NewWithCastValue(name string, value any, typ Type) *Attribute {
	return newAttribute(name, typ, WithCastValue, value)
}

// NewUninitialized returns an attribute with a type but no value.
func NewUninitialized(name string, typ Type) *Attribute {
	return newAttribute(name, typ, Uninitialized, nil)
}

// FromDefault returns a user attribute holding the type's default raw value.
func FromDefault(name string, typ Type) *Attribute {
	if typ == nil {
		typ = typecast.Value{}
	}
	return newAttribute(name, typ, FromUser, typ.Default())
}

// Null is the sentinel returned for names a set does not know.
func Null(name string) *Attribute {
	return newAttribute(name, typecast.Null{}, Uninitialized, nil)
}

// Bind returns a view of the attribute stored in the owner under the key.
func (attr *Attribute) Bind(owner Owner, key string) *Attribute {
	view := *attr.Unbind()
	view.owner = owner
	view.key = key
	return &view
}

// Unbind returns the standalone attribute a view currently resolves to. It
// returns standalone attributes unchanged.
func (attr *Attribute) Unbind() *Attribute {
	if attr.owner == nil {
		return attr
	}
	if current, ok := attr.owner.Resolve(attr.key); ok {
		return current.Unbind()
	}
	standalone := *attr
	standalone.owner = nil
	standalone.key = ""
	return &standalone
}

// Bound is true for views.
func (attr *Attribute) Bound() bool {
	return attr.owner != nil
}

func (attr *Attribute) Name() string {
	return attr.Unbind().name
}

func (attr *Attribute) Type() Type {
	return attr.Unbind().typ
}

func (attr *Attribute) Origin() Origin {
	return attr.Unbind().origin
}

// ValueBeforeTypeCast returns the raw value, or the cast value for
// attributes created with one.
func (attr *Attribute) ValueBeforeTypeCast() any {
	return attr.Unbind().raw
}

// Value returns the cast value. The cast runs at most once per attribute
// generation; later reads return the same cached value. Cast errors are
// returned unchanged and are not cached.
func (attr *Attribute) Value() (value any, err error) {
	value, err = attr.Unbind().value()
	if err == nil && attr.owner != nil {
		attr.owner.Access(attr.key)
	}
	return
}

func (attr *Attribute) value() (any, error) {
	return attr.memo.fill(func() (value any, err error) {
		switch attr.origin {
		case Uninitialized:
		case FromDatabase:
			value, err = attr.typ.CastFromDatabase(attr.raw)
		case FromUser:
			value, err = attr.typ.CastFromUser(attr.raw)
		case WithCastValue:
			value = attr.raw
		}
		return
	})
}

// ValueForDatabase serializes the cast value with the attribute's type.
func (attr *Attribute) ValueForDatabase() (raw any, err error) {
	current := attr.Unbind()
	value, err := current.value()
	if err != nil {
		return
	}
	if current.origin == Uninitialized {
		return
	}
	return current.typ.Serialize(value)
}

func (attr *Attribute) Initialized() bool {
	return attr.Origin() != Uninitialized
}

func (attr *Attribute) CameFromUser() bool {
	return attr.Origin() == FromUser
}

// HasBeenRead is true once the cast value has been memoized.
func (attr *Attribute) HasBeenRead() bool {
	_, filled := attr.Unbind().memo.peek()
	return filled
}

func (attr *Attribute) WithValueFromUser(raw any) *Attribute {
	current := attr.Unbind()
	return newAttribute(current.name, current.typ, FromUser, raw)
}

func (attr *Attribute) WithValueFromDatabase(raw any) *Attribute {
	current := attr.Unbind()
	return newAttribute(current.name, current.typ, FromDatabase, raw)
}

func (attr *Attribute) WithCastValue(value any) *Attribute {
	current := attr.Unbind()
	return newAttribute(current.name, current.typ, WithCastValue, value)
}

// WithType returns a standalone attribute with the same raw state and a
// different type.
func (attr *Attribute) WithType(typ Type) *Attribute {
	current := attr.Unbind()
	return newAttribute(current.name, typ, current.origin, current.raw)
}

// WithName returns a standalone attribute with the same state, cached value
// included, under a different name.
func (attr *Attribute) WithName(name string) *Attribute {
	renamed := *attr.Unbind()
	renamed.name = name
	return &renamed
}

// DeepCopy returns a standalone attribute whose raw state and cached value
// share nothing with the receiver.
func (attr *Attribute) DeepCopy() *Attribute {
	current := attr.Unbind()
	copied := newAttribute(current.name, current.typ, current.origin, deepCopy(current.raw))
	if value, filled := current.memo.peek(); filled {
		copied.memo.value = deepCopy(value)
		copied.memo.filled = true
	}
	return copied
}

// Equal compares name, origin, raw state and type. Types compare through
// their wrappers. Views compare by the attribute they resolve to; memoization
// and access are ignored.
func (attr *Attribute) Equal(other *Attribute) bool {
	if attr == nil || other == nil {
		return attr == other
	}
	a, b := attr.Unbind(), other.Unbind()
	if a == b {
		return true
	}
	return a.name == b.name &&
		a.origin == b.origin &&
		reflect.DeepEqual(a.raw, b.raw) &&
		SameType(a.typ, b.typ)
}
