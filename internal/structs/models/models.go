// Package models provides models of structs whose fields are bound to
// attributes.
package models

import (
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/dball/lazyattrs/internal/sys"
	"github.com/dball/lazyattrs/internal/typecast"
	. "github.com/dball/lazyattrs/internal/types"
)

// Error codes for struct analysis.
const (
	NotStruct        = "models.notStruct"
	InvalidType      = "models.invalidType"
	InvalidDirective = "models.invalidDirective"
	DuplicateName    = "models.duplicateName"
)

// TimeType is the reflected type of time.Time.
var TimeType = reflect.TypeOf(time.Time{})

// StructModel models a struct that has fields bound to attributes.
type StructModel struct {
	// Type is the struct type, whose kind must be a struct.
	Type reflect.Type
	// AttrFields are the fields bound to attributes, in field order.
	AttrFields []AttrFieldModel
}

// Attr returns the field model bound to the named attribute, if any.
func (model StructModel) Attr(name string) (attr AttrFieldModel, ok bool) {
	for _, a := range model.AttrFields {
		if a.Name == name {
			attr = a
			ok = true
			break
		}
	}
	return
}

// Fields returns the schema fields of the model, in field order.
func (model StructModel) Fields() (fields []Field) {
	fields = make([]Field, len(model.AttrFields))
	for i, attr := range model.AttrFields {
		fields[i] = Field{Name: attr.Name, Type: attr.Type}
	}
	return
}

// AttrFieldModel models a field bound to an attribute.
type AttrFieldModel struct {
	// Name is the attribute name.
	Name string
	// Index is the position of the field in the struct.
	Index int
	// FieldType is the field's go type.
	FieldType reflect.Type
	// Type is the attribute type, inferred from the field type unless given.
	Type Type
	// OmitEmpty indicates that zero values are shredded as absent.
	OmitEmpty bool
}

// IsPointer indicates that the field value is a pointer.
func (attr AttrFieldModel) IsPointer() bool {
	return attr.FieldType.Kind() == reflect.Pointer
}

// Analyzer builds struct models.
type Analyzer interface {
	Analyze(typ reflect.Type) (model StructModel, err error)
}

type cachingAnalyzer struct {
	resolve func(ident string) (Type, error)
	lock    sync.RWMutex
	models  map[reflect.Type]StructModel
}

var _ Analyzer = (*cachingAnalyzer)(nil)

// BuildCachingAnalyzer returns an analyzer that remembers the models of the
// types it has analyzed. Type directives that aren't short names are resolved
// with the registry, the process registry if nil.
func BuildCachingAnalyzer(registry *sys.Registry) Analyzer {
	if registry == nil {
		registry = sys.Default()
	}
	return &cachingAnalyzer{resolve: registry.Resolve, models: map[reflect.Type]StructModel{}}
}

func (analyzer *cachingAnalyzer) Analyze(typ reflect.Type) (model StructModel, err error) {
	analyzer.lock.RLock()
	model, ok := analyzer.models[typ]
	analyzer.lock.RUnlock()
	if ok {
		return
	}
	model, err = analyze(typ, analyzer.resolve)
	if err != nil {
		return
	}
	analyzer.lock.Lock()
	analyzer.models[typ] = model
	analyzer.lock.Unlock()
	return
}

// Analyze builds a struct model for the given type, resolving type directives
// with the process registry.
func Analyze(typ reflect.Type) (model StructModel, err error) {
	model, err = analyze(typ, sys.Default().Resolve)
	return
}

// shortTypes are the type directives that name built-in types.
var shortTypes = map[string]Type{
	"int":    typecast.Integer{},
	"float":  typecast.Float{},
	"string": typecast.String{},
	"bool":   typecast.Boolean{},
	"time":   typecast.Time{},
	"value":  typecast.Value{},
}

func analyze(typ reflect.Type, resolve func(string) (Type, error)) (model StructModel, err error) {
	if typ == nil || typ.Kind() != reflect.Struct {
		err = NewError(NotStruct, "type", typ)
		return
	}
	model.Type = typ
	n := typ.NumField()
	attrFields := make([]AttrFieldModel, 0, n)
	names := make(map[string]Void, n)
	for i := 0; i < n; i++ {
		field := typ.Field(i)
		tag, ok := field.Tag.Lookup("attr")
		if !ok || !field.IsExported() {
			continue
		}
		var attr AttrFieldModel
		attr, err = parseAttrField(field, tag, resolve)
		if err != nil {
			return
		}
		if _, ok := names[attr.Name]; ok {
			err = NewError(DuplicateName, "type", typ, "name", attr.Name)
			return
		}
		names[attr.Name] = Void{}
		attr.Index = i
		attrFields = append(attrFields, attr)
	}
	model.AttrFields = attrFields
	return
}

// TypeForKind returns the built-in type for values of the go type, if any.
func TypeForKind(typ reflect.Type) (attrType Type) {
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	switch typ.Kind() {
	case reflect.Bool:
		attrType = typecast.Boolean{}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		attrType = typecast.Integer{}
	case reflect.Float32, reflect.Float64:
		attrType = typecast.Float{}
	case reflect.String:
		attrType = typecast.String{}
	case reflect.Interface:
		attrType = typecast.Value{}
	case reflect.Struct:
		if TimeType == typ {
			attrType = typecast.Time{}
		}
	}
	return
}

func parseAttrField(field reflect.StructField, tag string, resolve func(string) (Type, error)) (attr AttrFieldModel, err error) {
	parts := strings.Split(tag, ",")
	attr.Name = parts[0]
	if attr.Name == "" {
		attr.Name = field.Name
	}
	attr.FieldType = field.Type
	for _, part := range parts[1:] {
		switch {
		case part == "omitempty":
			attr.OmitEmpty = true
		case strings.HasPrefix(part, "type="):
			ident := part[5:]
			if typ, ok := shortTypes[ident]; ok {
				attr.Type = typ
				continue
			}
			attr.Type, err = resolve(ident)
			if err != nil {
				return
			}
		default:
			err = NewError(InvalidDirective, "tag", tag, "directive", part)
			return
		}
	}
	if attr.Type == nil {
		attr.Type = TypeForKind(field.Type)
	}
	if attr.Type == nil {
		err = NewError(InvalidType, "tag", tag, "type", field.Type, "kind", field.Type.Kind())
	}
	return
}
