package attribute

import "reflect"

// DeepCopyable values control how they are copied by DeepCopy.
type DeepCopyable interface {
	DeepCopy() any
}

// deepCopy copies maps, slices, arrays, pointers and the exported fields of
// structs recursively. Unexported struct fields are copied shallowly. Cyclic
// values are not supported.
func deepCopy(value any) any {
	if value == nil {
		return nil
	}
	return deepCopyValue(reflect.ValueOf(value)).Interface()
}

func deepCopyValue(src reflect.Value) (dst reflect.Value) {
	if src.CanInterface() {
		if copyable, ok := src.Interface().(DeepCopyable); ok {
			copied := reflect.ValueOf(copyable.DeepCopy())
			if copied.IsValid() && copied.Type().AssignableTo(src.Type()) {
				dst = copied
				return
			}
		}
	}
	switch src.Kind() {
	case reflect.Pointer:
		if src.IsNil() {
			dst = src
			return
		}
		dst = reflect.New(src.Type().Elem())
		dst.Elem().Set(deepCopyValue(src.Elem()))
	case reflect.Interface:
		if src.IsNil() {
			dst = src
			return
		}
		dst = reflect.New(src.Type()).Elem()
		dst.Set(deepCopyValue(src.Elem()))
	case reflect.Struct:
		dst = reflect.New(src.Type()).Elem()
		dst.Set(src)
		for i := 0; i < src.NumField(); i++ {
			if field := dst.Field(i); field.CanSet() {
				field.Set(deepCopyValue(src.Field(i)))
			}
		}
	case reflect.Map:
		if src.IsNil() {
			dst = src
			return
		}
		dst = reflect.MakeMapWithSize(src.Type(), src.Len())
		iter := src.MapRange()
		for iter.Next() {
			dst.SetMapIndex(iter.Key(), deepCopyValue(iter.Value()))
		}
	case reflect.Slice:
		if src.IsNil() {
			dst = src
			return
		}
		dst = reflect.MakeSlice(src.Type(), src.Len(), src.Len())
		for i := 0; i < src.Len(); i++ {
			dst.Index(i).Set(deepCopyValue(src.Index(i)))
		}
	case reflect.Array:
		dst = reflect.New(src.Type()).Elem()
		for i := 0; i < src.Len(); i++ {
			dst.Index(i).Set(deepCopyValue(src.Index(i)))
		}
	default:
		dst = src
	}
	return
}
