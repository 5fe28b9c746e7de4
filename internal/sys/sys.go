// Package sys holds the system registry of named types.
package sys

import (
	"strings"
	"sync"

	"github.com/dball/lazyattrs/internal/typecast"
	. "github.com/dball/lazyattrs/internal/types"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Error codes for registry failures.
const (
	DuplicateIdent = "sys.duplicateIdent"
	ReservedIdent  = "sys.reservedIdent"
)

// Types are the built-in types, keyed by ident.
var Types map[string]Type = map[string]Type{
	typecast.NullIdent:    typecast.Null{},
	typecast.ValueIdent:   typecast.Value{},
	typecast.IntegerIdent: typecast.Integer{},
	typecast.FloatIdent:   typecast.Float{},
	typecast.StringIdent:  typecast.String{},
	typecast.BooleanIdent: typecast.Boolean{},
	typecast.TimeIdent:    typecast.Time{},
}

// Registry resolves type idents to types. The zero value is not usable; use
// NewRegistry. A registry is safe for concurrent use.
type Registry struct {
	lock  sync.RWMutex
	types map[string]Type
}

// NewRegistry returns a registry holding the built-in types.
func NewRegistry() (registry *Registry) {
	registry = &Registry{types: maps.Clone(Types)}
	return
}

// Register adds a named user type. Idents in the sys namespace are reserved
// and an ident may only be registered once.
func (registry *Registry) Register(typ Type) (err error) {
	ident, ok := Ident(typ)
	if !ok {
		err = NewError(UnnamedType, "type", typ)
		return
	}
	if !ValidUserIdent(ident) {
		err = NewError(ReservedIdent, "ident", ident)
		return
	}
	registry.lock.Lock()
	defer registry.lock.Unlock()
	if _, ok := registry.types[ident]; ok {
		err = NewError(DuplicateIdent, "ident", ident)
		return
	}
	registry.types[ident] = typ
	return
}

// Resolve finds the type for the given ident.
func (registry *Registry) Resolve(ident string) (typ Type, err error) {
	registry.lock.RLock()
	typ, ok := registry.types[ident]
	registry.lock.RUnlock()
	if !ok {
		err = NewError(UnknownType, "ident", ident)
	}
	return
}

// Idents lists the registered idents in sorted order.
func (registry *Registry) Idents() (idents []string) {
	registry.lock.RLock()
	idents = maps.Keys(registry.types)
	registry.lock.RUnlock()
	slices.Sort(idents)
	return
}

// IdentOf returns the ident of the type or an unnamed type error.
func IdentOf(typ Type) (ident string, err error) {
	ident, ok := Ident(typ)
	if !ok {
		err = NewError(UnnamedType, "type", typ)
	}
	return
}

func ValidUserIdent(ident string) bool {
	return ident != "" && !strings.HasPrefix(ident, "sys/")
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry
}
