// Package attributes contains the public types and functions for lazyattrs:
// typed attribute sets whose values are cast lazily and memoized.
package attributes

import (
	"reflect"

	"github.com/dball/lazyattrs/internal/attribute"
	"github.com/dball/lazyattrs/internal/attrset"
	"github.com/dball/lazyattrs/internal/builder"
	"github.com/dball/lazyattrs/internal/codec"
	"github.com/dball/lazyattrs/internal/structs/assemblers"
	"github.com/dball/lazyattrs/internal/structs/models"
	"github.com/dball/lazyattrs/internal/structs/shredder"
	"github.com/dball/lazyattrs/internal/sys"
	"github.com/dball/lazyattrs/internal/typecast"
	"github.com/dball/lazyattrs/internal/types"
)

type (
	// Set is an ordered, mutable store of named attributes.
	Set = attrset.Set
	// Attribute is a name bound to a raw value, its origin and its type.
	Attribute = attribute.Attribute
	// Origin records where an attribute's raw value came from.
	Origin = attribute.Origin
	// Type casts raw values.
	Type = types.Type
	// Field is a name bound to a type.
	Field = types.Field
	// Error is the error type of every failure raised here.
	Error = types.Error
	// Builder builds sets from raw data.
	Builder = builder.Builder
	// Config configures a builder.
	Config = builder.Config
	// Schema decides the names and types of built sets.
	Schema = builder.Schema
	// Format is a wire format.
	Format = codec.Format
)

// The built-in types.
type (
	Value   = typecast.Value
	Integer = typecast.Integer
	Float   = typecast.Float
	String  = typecast.String
	Boolean = typecast.Boolean
	Time    = typecast.Time
)

const (
	Uninitialized = attribute.Uninitialized
	FromDatabase  = attribute.FromDatabase
	FromUser      = attribute.FromUser
	WithCastValue = attribute.WithCastValue
)

const (
	JSON = codec.JSON
	CBOR = codec.CBOR
)

// Error codes.
const (
	MissingAttribute = types.MissingAttribute
	Frozen           = types.Frozen
	InvalidCast      = types.InvalidCast
	UnnamedType      = types.UnnamedType
	UnknownType      = types.UnknownType
)

// HasCode returns true if the error is or wraps an Error with the code.
func HasCode(err error, code string) bool {
	return types.HasCode(err, code)
}

var analyzer = models.BuildCachingAnalyzer(nil)

// NewSet returns a set of the attributes, in order.
func NewSet(attrs ...*Attribute) *Set {
	return attrset.Of(0, attrs...)
}

func NewFromDatabase(name string, raw any, typ Type) *Attribute {
	return attribute.NewFromDatabase(name, raw, typ)
}

func NewFromUser(name string, raw any, typ Type) *Attribute {
	return attribute.NewFromUser(name, raw, typ)
}

func NewWithCastValue(name string, value any, typ Type) *Attribute {
	return attribute.NewWithCastValue(name, value, typ)
}

func NewUninitialized(name string, typ Type) *Attribute {
	return attribute.NewUninitialized(name, typ)
}

// NewFinite returns a schema of exactly the given fields plus any overrides.
func NewFinite(fields ...Field) Schema {
	return builder.NewFinite(fields...)
}

// NewUnbounded returns a schema that also admits every name in the raw data,
// typed with the fallback.
func NewUnbounded(fallback Type, fields ...Field) Schema {
	return builder.NewUnbounded(fallback, fields...)
}

func NewBuilder(schema Schema, config Config) *Builder {
	return builder.New(schema, config)
}

// Register makes a named type resolvable when sets are decoded and in struct
// type directives.
func Register(typ Type) error {
	return sys.Default().Register(typ)
}

// SchemaOf returns the schema of the struct type of x, which may be a struct
// or a pointer to one, possibly nil.
func SchemaOf(x any) (schema Schema, err error) {
	typ := reflect.TypeOf(x)
	if typ != nil && typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	model, err := analyzer.Analyze(typ)
	if err != nil {
		return
	}
	schema = builder.NewFinite(model.Fields()...)
	return
}

// BuildStruct builds a set from the bound fields of the struct as if they
// were read from a database.
func BuildStruct(b *Builder, x any) (set *Set, err error) {
	raw, err := shredder.Shred(analyzer, x)
	if err != nil {
		return
	}
	set = b.Build(raw, nil)
	return
}

// Assemble sets the bound fields of the struct the pointer refers to from the
// set's values.
func Assemble(set *Set, pointer any) error {
	return assemblers.Assemble(analyzer, set, pointer)
}

// Marshal encodes the set. Every attribute must have a named type.
func Marshal(format Format, set *Set) ([]byte, error) {
	return codec.Marshal(format, set)
}

// Unmarshal decodes a set, resolving its types with the process registry.
func Unmarshal(format Format, data []byte) (*Set, error) {
	return codec.Unmarshal(format, data, sys.Default(), 0)
}

// WireSchema returns the JSON Schema of encoded sets.
func WireSchema() (map[string]any, error) {
	return codec.JSONSchemaDocument()
}
