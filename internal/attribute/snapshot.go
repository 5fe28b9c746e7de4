package attribute

import (
	. "github.com/dball/lazyattrs/internal/types"
)

// Snapshot is the serializable state of an attribute. Value holds the raw
// value, or the cast value for the cast origin. Type is the ident of the
// attribute's type, empty for unnamed types.
type Snapshot struct {
	Name   string `json:"name" codec:"name"`
	Origin string `json:"origin" codec:"origin"`
	Type   string `json:"type,omitempty" codec:"type,omitempty"`
	Value  any    `json:"value" codec:"value"`
	// Serialized is set when a cast value was serialized by its type.
	Serialized bool `json:"serialized,omitempty" codec:"serialized,omitempty"`

	// in-process snapshots keep the type itself
	typ Type
}

// Resolver finds types by ident.
type Resolver interface {
	Resolve(ident string) (typ Type, err error)
}

func (attr *Attribute) Snapshot() (snapshot Snapshot) {
	current := attr.Unbind()
	snapshot.Name = current.name
	snapshot.Origin = current.origin.String()
	snapshot.Type, _ = Ident(current.typ)
	snapshot.Value = current.raw
	snapshot.typ = current.typ
	return
}

// Portable returns a snapshot that can leave the process: its type must be
// named, and a cast value is serialized by the type.
func (snapshot Snapshot) Portable() (portable Snapshot, err error) {
	if snapshot.Type == "" {
		err = NewError(UnnamedType, "name", snapshot.Name)
		return
	}
	portable = snapshot
	portable.typ = nil
	if snapshot.Origin != WithCastValue.String() || snapshot.Serialized || snapshot.typ == nil {
		return
	}
	portable.Value, err = snapshot.typ.Serialize(snapshot.Value)
	if err != nil {
		portable = Snapshot{}
		return
	}
	portable.Serialized = true
	return
}

// Restore reconstructs a standalone attribute. Snapshots taken in this
// process restore with their original type; decoded snapshots resolve their
// type ident with the resolver.
func Restore(snapshot Snapshot, resolver Resolver) (attr *Attribute, err error) {
	origin, ok := ParseOrigin(snapshot.Origin)
	if !ok {
		err = NewError(InvalidOrigin, "name", snapshot.Name, "origin", snapshot.Origin)
		return
	}
	typ := snapshot.typ
	if typ == nil {
		if snapshot.Type == "" {
			err = NewError(UnnamedType, "name", snapshot.Name)
			return
		}
		if resolver == nil {
			err = NewError(UnknownType, "name", snapshot.Name, "ident", snapshot.Type)
			return
		}
		typ, err = resolver.Resolve(snapshot.Type)
		if err != nil {
			return
		}
	}
	var raw any
	switch {
	case origin == Uninitialized:
	case origin == WithCastValue && snapshot.Serialized:
		raw, err = typ.CastFromDatabase(snapshot.Value)
		if err != nil {
			return
		}
	default:
		raw = snapshot.Value
	}
	attr = newAttribute(snapshot.Name, typ, origin, raw)
	return
}
