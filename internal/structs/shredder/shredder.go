// Package shredder deconstructs structs into raw attribute data.
package shredder

import (
	"reflect"

	"github.com/dball/lazyattrs/internal/structs/models"
	. "github.com/dball/lazyattrs/internal/types"
)

// InvalidStruct is the error code for values that are not structs or non-nil
// struct pointers.
const InvalidStruct = "shredder.invalidStruct"

// Shred returns the raw data of the struct's bound fields, keyed by attribute
// name. Nil pointers and, for omitempty fields, zero values are absent, so a
// set built from the data leaves them uninitialized.
func Shred(analyzer models.Analyzer, x any) (raw map[string]any, err error) {
	fields, err := structValue(x)
	if err != nil {
		return
	}
	model, err := analyzer.Analyze(fields.Type())
	if err != nil {
		return
	}
	raw = make(map[string]any, len(model.AttrFields))
	for _, attr := range model.AttrFields {
		field := fields.Field(attr.Index)
		if attr.OmitEmpty && field.IsZero() {
			continue
		}
		if attr.IsPointer() {
			if field.IsNil() {
				continue
			}
			field = field.Elem()
		}
		raw[attr.Name] = scalar(field)
	}
	return
}

func structValue(x any) (fields reflect.Value, err error) {
	fields = reflect.ValueOf(x)
	switch fields.Kind() {
	case reflect.Struct:
	case reflect.Pointer:
		if fields.IsNil() || fields.Elem().Kind() != reflect.Struct {
			err = NewError(InvalidStruct, "type", fields.Type())
			return
		}
		fields = fields.Elem()
	default:
		err = NewError(InvalidStruct, "type", reflect.TypeOf(x))
	}
	return
}

// scalar widens numbers to the representations the built-in types produce.
func scalar(field reflect.Value) any {
	switch field.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return field.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return int64(field.Uint())
	case reflect.Float32, reflect.Float64:
		return field.Float()
	}
	return field.Interface()
}
