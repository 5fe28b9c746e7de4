// Package assemblers provides for the construction of structs from attribute
// sets.
package assemblers

import (
	"reflect"

	"github.com/dball/lazyattrs/internal/attrset"
	"github.com/dball/lazyattrs/internal/structs/models"
	. "github.com/dball/lazyattrs/internal/types"
)

// Error codes for assembly failures.
const (
	InvalidPointer = "assemblers.invalidPointer"
	InvalidValue   = "assemblers.invalidValue"
)

// Assemble sets the bound fields of the struct the pointer refers to from the
// cast values of the set. Fields whose attributes are unknown or
// uninitialized, or whose values are nil, are zeroed. Cast failures are
// returned unchanged and leave the remaining fields as they were.
func Assemble(analyzer models.Analyzer, set *attrset.Set, pointer any) (err error) {
	ptr := reflect.ValueOf(pointer)
	if ptr.Kind() != reflect.Pointer || ptr.IsNil() || ptr.Elem().Kind() != reflect.Struct {
		err = NewError(InvalidPointer, "type", reflect.TypeOf(pointer))
		return
	}
	fields := ptr.Elem()
	model, err := analyzer.Analyze(fields.Type())
	if err != nil {
		return
	}
	for _, attr := range model.AttrFields {
		var value any
		value, err = set.FetchValue(attr.Name, nil)
		if err != nil {
			return
		}
		if err = assign(fields.Field(attr.Index), attr, value); err != nil {
			return
		}
	}
	return
}

func assign(field reflect.Value, attr models.AttrFieldModel, value any) (err error) {
	if value == nil {
		field.Set(reflect.Zero(field.Type()))
		return
	}
	target := field.Type()
	if attr.IsPointer() {
		target = target.Elem()
	}
	v := reflect.ValueOf(value)
	switch {
	case v.Type().AssignableTo(target):
	case convertible(v, target):
		v = v.Convert(target)
	default:
		err = NewError(InvalidValue, "name", attr.Name, "type", field.Type(), "value", value)
		return
	}
	if attr.IsPointer() {
		p := reflect.New(target)
		p.Elem().Set(v)
		v = p
	}
	field.Set(v)
	return
}

// convertible permits numeric conversions but not the conversion of numbers
// to strings.
func convertible(v reflect.Value, target reflect.Type) bool {
	if !v.Type().ConvertibleTo(target) {
		return false
	}
	if target.Kind() == reflect.String {
		return v.Kind() == reflect.String
	}
	return true
}
