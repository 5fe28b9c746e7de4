// Package typecast provides the built-in attribute types.
//
// Each type casts raw values from users and from databases into one go value
// type: Integer into int64, Float into float64, String into string, Boolean
// into bool and Time into time.Time. Nil raw values and empty strings (except
// for String) cast to nil. Value casts nothing at all and Null is the type of
// sentinel attributes for unknown names.
package typecast

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	. "github.com/dball/lazyattrs/internal/types"
)

// These are the idents of the built-in types.
const (
	NullIdent    = "sys/type/null"
	ValueIdent   = "sys/type/value"
	IntegerIdent = "sys/type/int"
	FloatIdent   = "sys/type/float"
	StringIdent  = "sys/type/string"
	BooleanIdent = "sys/type/bool"
	TimeIdent    = "sys/type/inst"
)

func invalid(ident string, raw any) Error {
	return NewError(InvalidCast, "type", ident, "raw", raw).
		WithMessage("%s: cannot cast %T %v", ident, raw, raw)
}

// Null is the type of attributes for unknown names. Everything casts to nil.
type Null struct{}

var _ Type = Null{}

func (Null) Ident() string { return NullIdent }
func (Null) CastFromUser(any) (any, error) { return nil, nil }
func (Null) CastFromDatabase(any) (any, error) { return nil, nil }
func (Null) Serialize(any) (any, error) { return nil, nil }
func (Null) Default() any { return nil }

// Value passes raw values through unchanged.
type Value struct{}

var _ Type = Value{}

func (Value) Ident() string { return ValueIdent }
func (Value) CastFromUser(raw any) (any, error) { return raw, nil }
func (Value) CastFromDatabase(raw any) (any, error) { return raw, nil }
func (Value) Serialize(value any) (any, error) { return value, nil }
func (Value) Default() any { return nil }

// Integer casts to int64. Fractional values are truncated, so "1.1" is 1.
type Integer struct{}

var _ Type = Integer{}

func (Integer) Ident() string { return IntegerIdent }

func (t Integer) CastFromUser(raw any) (value any, err error) {
	return t.cast(raw)
}

func (t Integer) CastFromDatabase(raw any) (value any, err error) {
	return t.cast(raw)
}

func (t Integer) Serialize(value any) (raw any, err error) {
	return t.cast(value)
}

func (Integer) Default() any { return nil }

func (Integer) cast(raw any) (value any, err error) {
	switch x := raw.(type) {
	case nil:
	case int64:
		value = x
	case int:
		value = int64(x)
	case int32:
		value = int64(x)
	case int16:
		value = int64(x)
	case int8:
		value = int64(x)
	case uint64:
		if x > math.MaxInt64 {
			err = invalid(IntegerIdent, raw)
			return
		}
		value = int64(x)
	case uint:
		if uint64(x) > math.MaxInt64 {
			err = invalid(IntegerIdent, raw)
			return
		}
		value = int64(x)
	case uint32:
		value = int64(x)
	case uint16:
		value = int64(x)
	case uint8:
		value = int64(x)
	case float64:
		if !fitsInt64(x) {
			err = invalid(IntegerIdent, raw)
			return
		}
		value = int64(x)
	case float32:
		if !fitsInt64(float64(x)) {
			err = invalid(IntegerIdent, raw)
			return
		}
		value = int64(x)
	case bool:
		if x {
			value = int64(1)
		} else {
			value = int64(0)
		}
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return
		}
		i, parseErr := strconv.ParseInt(s, 10, 64)
		if parseErr == nil {
			value = i
			return
		}
		f, parseErr := strconv.ParseFloat(s, 64)
		if parseErr != nil || !fitsInt64(f) {
			err = invalid(IntegerIdent, raw)
			return
		}
		value = int64(f)
	default:
		err = invalid(IntegerIdent, raw)
	}
	return
}

// fitsInt64 is false for NaN, infinities and floats outside the int64 range.
func fitsInt64(f float64) bool {
	return f >= math.MinInt64 && f < -math.MinInt64
}

// Float casts to float64.
type Float struct{}

var _ Type = Float{}

func (Float) Ident() string { return FloatIdent }

func (t Float) CastFromUser(raw any) (value any, err error) {
	return t.cast(raw)
}

func (t Float) CastFromDatabase(raw any) (value any, err error) {
	return t.cast(raw)
}

func (t Float) Serialize(value any) (raw any, err error) {
	return t.cast(value)
}

func (Float) Default() any { return nil }

func (Float) cast(raw any) (value any, err error) {
	switch x := raw.(type) {
	case nil:
	case float64:
		value = x
	case float32:
		value = float64(x)
	case int64:
		value = float64(x)
	case int:
		value = float64(x)
	case int32:
		value = float64(x)
	case uint64:
		value = float64(x)
	case uint:
		value = float64(x)
	case uint32:
		value = float64(x)
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return
		}
		f, parseErr := strconv.ParseFloat(s, 64)
		if parseErr != nil {
			err = invalid(FloatIdent, raw)
			return
		}
		value = f
	default:
		err = invalid(FloatIdent, raw)
	}
	return
}

// String casts to string. Numbers and bools are formatted, times use RFC3339.
type String struct{}

var _ Type = String{}

func (String) Ident() string { return StringIdent }

func (t String) CastFromUser(raw any) (value any, err error) {
	return t.cast(raw)
}

func (t String) CastFromDatabase(raw any) (value any, err error) {
	return t.cast(raw)
}

func (t String) Serialize(value any) (raw any, err error) {
	return t.cast(value)
}

func (String) Default() any { return nil }

func (String) cast(raw any) (value any, err error) {
	switch x := raw.(type) {
	case nil:
	case string:
		value = x
	case []byte:
		value = string(x)
	case bool:
		if x {
			value = "t"
		} else {
			value = "f"
		}
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		value = fmt.Sprintf("%d", x)
	case float64:
		value = strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		value = strconv.FormatFloat(float64(x), 'g', -1, 32)
	case time.Time:
		value = x.Format(time.RFC3339Nano)
	case fmt.Stringer:
		value = x.String()
	default:
		err = invalid(StringIdent, raw)
	}
	return
}

// Boolean casts to bool. Empty strings are nil, and only the conventional
// false spellings are false.
type Boolean struct{}

var _ Type = Boolean{}

var falseValues = map[string]Void{
	"0": {}, "f": {}, "F": {}, "false": {}, "FALSE": {}, "off": {}, "OFF": {},
}

func (Boolean) Ident() string { return BooleanIdent }

func (t Boolean) CastFromUser(raw any) (value any, err error) {
	return t.cast(raw)
}

func (t Boolean) CastFromDatabase(raw any) (value any, err error) {
	return t.cast(raw)
}

func (t Boolean) Serialize(value any) (raw any, err error) {
	return t.cast(value)
}

func (Boolean) Default() any { return nil }

func (Boolean) cast(raw any) (value any, err error) {
	switch x := raw.(type) {
	case nil:
	case bool:
		value = x
	case string:
		if x == "" {
			return
		}
		_, isFalse := falseValues[x]
		value = !isFalse
	case int:
		value = x != 0
	case int64:
		value = x != 0
	case float64:
		value = x != 0
	default:
		err = invalid(BooleanIdent, raw)
	}
	return
}

// Time casts to time.Time. Strings are parsed as RFC3339, numbers are unix seconds.
type Time struct{}

var _ Type = Time{}

func (Time) Ident() string { return TimeIdent }

func (t Time) CastFromUser(raw any) (value any, err error) {
	return t.cast(raw)
}

func (t Time) CastFromDatabase(raw any) (value any, err error) {
	return t.cast(raw)
}

func (t Time) Serialize(value any) (raw any, err error) {
	inst, err := t.cast(value)
	if err != nil || inst == nil {
		return
	}
	raw = inst.(time.Time).UTC().Format(time.RFC3339Nano)
	return
}

func (Time) Default() any { return nil }

func (Time) cast(raw any) (value any, err error) {
	switch x := raw.(type) {
	case nil:
	case time.Time:
		value = x
	case string:
		if x == "" {
			return
		}
		inst, parseErr := time.Parse(time.RFC3339Nano, x)
		if parseErr != nil {
			err = invalid(TimeIdent, raw)
			return
		}
		value = inst
	case int64:
		value = time.Unix(x, 0).UTC()
	case int:
		value = time.Unix(int64(x), 0).UTC()
	case float64:
		sec, frac := math.Modf(x)
		value = time.Unix(int64(sec), int64(frac*1e9)).UTC()
	default:
		err = invalid(TimeIdent, raw)
	}
	return
}
