package builder

import (
	. "github.com/dball/lazyattrs/internal/types"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Schema decides which names a built set has and their types before any
// overrides are applied.
type Schema interface {
	// Fields returns the fields of a set built from the raw data and overrides, in order.
	Fields(raw map[string]any, overrides map[string]Type) (fields []Field)
	// Lookup returns the schema type of the name.
	Lookup(name string) (typ Type, ok bool)
}

// Finite is a schema of declared fields. Names given only in overrides are
// appended in sorted order; names given only in raw data are dropped.
type Finite struct {
	fields []Field
	types  map[string]Type
}

var _ Schema = (*Finite)(nil)

// NewFinite returns a schema of the given fields. A repeated name keeps its
// first position and its last type.
func NewFinite(fields ...Field) (schema *Finite) {
	schema = &Finite{fields: make([]Field, 0, len(fields)), types: make(map[string]Type, len(fields))}
	for _, field := range fields {
		if _, ok := schema.types[field.Name]; ok {
			i := slices.IndexFunc(schema.fields, func(f Field) bool { return f.Name == field.Name })
			schema.fields[i].Type = field.Type
		} else {
			schema.fields = append(schema.fields, field)
		}
		schema.types[field.Name] = field.Type
	}
	return
}

func (schema *Finite) Lookup(name string) (typ Type, ok bool) {
	typ, ok = schema.types[name]
	return
}

// Declared returns the declared fields in order.
func (schema *Finite) Declared() []Field {
	return slices.Clone(schema.fields)
}

func (schema *Finite) Fields(raw map[string]any, overrides map[string]Type) (fields []Field) {
	fields = schema.Declared()
	for _, name := range sortedKeys(overrides) {
		if _, ok := schema.types[name]; !ok {
			fields = append(fields, Field{Name: name, Type: overrides[name]})
		}
	}
	return
}

// Unbounded is a schema with a default type for every name. Its declared
// fields come first, then the names given in raw data or overrides, sorted.
type Unbounded struct {
	declared *Finite
	fallback Type
}

var _ Schema = (*Unbounded)(nil)

func NewUnbounded(fallback Type, fields ...Field) (schema *Unbounded) {
	schema = &Unbounded{declared: NewFinite(fields...), fallback: fallback}
	return
}

func (schema *Unbounded) Lookup(name string) (typ Type, ok bool) {
	typ, ok = schema.declared.Lookup(name)
	if !ok {
		typ, ok = schema.fallback, true
	}
	return
}

func (schema *Unbounded) Fields(raw map[string]any, overrides map[string]Type) (fields []Field) {
	fields = schema.declared.Declared()
	extra := map[string]Void{}
	for name := range raw {
		extra[name] = Void{}
	}
	for name := range overrides {
		extra[name] = Void{}
	}
	for _, name := range sortedKeys(extra) {
		if _, ok := schema.declared.types[name]; !ok {
			fields = append(fields, Field{Name: name, Type: schema.fallback})
		}
	}
	return
}

func sortedKeys[V any](m map[string]V) (keys []string) {
	keys = maps.Keys(m)
	slices.Sort(keys)
	return
}
