// Package codec encodes attribute sets as JSON or CBOR snapshots.
//
// Only portable snapshots are encoded: every attribute's type must be named so
// that decoding can resolve it. Raw values survive a round trip as the
// format's native types. JSON numbers written as integers decode as int64 and
// the rest as float64, so a float64 raw value that is a whole number comes
// back as int64 from JSON. CBOR keeps integers and floats apart.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/dball/lazyattrs/internal/attribute"
	"github.com/dball/lazyattrs/internal/attrset"
	"github.com/dball/lazyattrs/internal/bufferpool"
	. "github.com/dball/lazyattrs/internal/types"
	ugorji "github.com/ugorji/go/codec"
)

// Error codes for codec failures.
const (
	UnknownFormat = "codec.unknownFormat"
	Malformed     = "codec.malformed"
)

// Format is a wire format.
type Format uint8

const (
	JSON Format = iota
	CBOR
)

func (format Format) String() string {
	switch format {
	case JSON:
		return "json"
	case CBOR:
		return "cbor"
	}
	return fmt.Sprintf("format(%d)", format)
}

// ParseFormat is the inverse of Format.String.
func ParseFormat(name string) (format Format, err error) {
	switch name {
	case "json":
		format = JSON
	case "cbor":
		format = CBOR
	default:
		err = NewError(UnknownFormat, "format", name)
	}
	return
}

// Marshal encodes the set's portable snapshot.
func Marshal(format Format, set *attrset.Set) (data []byte, err error) {
	snapshot, err := set.Snapshot().Portable()
	if err != nil {
		return
	}
	data, err = MarshalSnapshot(format, snapshot)
	return
}

// Unmarshal decodes a snapshot and restores the set it describes with the
// given btree degree.
func Unmarshal(format Format, data []byte, resolver attribute.Resolver, degree int) (set *attrset.Set, err error) {
	snapshot, err := UnmarshalSnapshot(format, data)
	if err != nil {
		return
	}
	set, err = attrset.Restore(snapshot, resolver, degree)
	return
}

func MarshalSnapshot(format Format, snapshot attrset.Snapshot) (data []byte, err error) {
	switch format {
	case JSON:
		data, err = json.Marshal(snapshot)
	case CBOR:
		data, err = encodeCBOR(snapshot)
	default:
		err = NewError(UnknownFormat, "format", format.String())
	}
	return
}

func UnmarshalSnapshot(format Format, data []byte) (snapshot attrset.Snapshot, err error) {
	switch format {
	case JSON:
		err = decodeJSON(data, &snapshot)
	case CBOR:
		err = decodeCBOR(data, &snapshot)
	default:
		err = NewError(UnknownFormat, "format", format.String())
		return
	}
	if err != nil {
		err = fmt.Errorf("%w: %v", NewError(Malformed, "format", format.String()), err)
	}
	return
}

func decodeJSON(data []byte, snapshot *attrset.Snapshot) (err error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err = decoder.Decode(snapshot); err != nil {
		return
	}
	if decoder.More() {
		err = errors.New("trailing data")
		return
	}
	for i := range snapshot.Entries {
		snapshot.Entries[i].Value = numbers(snapshot.Entries[i].Value)
	}
	return
}

// numbers replaces the json.Numbers in a decoded value with int64s, or
// float64s where they do not fit.
func numbers(value any) any {
	switch v := value.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
		f, _ := v.Float64()
		return f
	case map[string]any:
		for k, e := range v {
			v[k] = numbers(e)
		}
	case []any:
		for i, e := range v {
			v[i] = numbers(e)
		}
	}
	return value
}

var cborHandle ugorji.CborHandle
var cborEncoders sync.Pool
var cborDecoders sync.Pool

func encodeCBOR(v any) (data []byte, err error) {
	encoder := cborEncoders.Get().(*ugorji.Encoder)
	defer cborEncoders.Put(encoder)
	buf := bufferpool.Get()
	defer bufferpool.Put(buf)

	encoder.Reset(buf)
	if err = encoder.Encode(v); err != nil {
		return
	}
	data = bytes.Clone(buf.Bytes())
	return
}

func decodeCBOR(data []byte, v any) error {
	decoder := cborDecoders.Get().(*ugorji.Decoder)
	defer cborDecoders.Put(decoder)

	decoder.ResetBytes(data)
	return decoder.Decode(v)
}

func init() {
	cborHandle.SignedInteger = true
	cborHandle.MapType = reflect.TypeOf(map[string]any(nil))

	cborEncoders.New = func() any {
		return ugorji.NewEncoder(nil, &cborHandle)
	}
	cborDecoders.New = func() any {
		return ugorji.NewDecoderBytes(nil, &cborHandle)
	}
}
