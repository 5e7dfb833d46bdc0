package sql

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindInteger
	KindFloat
	KindText
	KindBlob
)

// String returns the wire type tag for the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindBlob:
		return "blob"
	default:
		return "unknown"
	}
}

// ErrUnsupportedValue is returned by ValueOf for Go values with no SQL
// representation.
var ErrUnsupportedValue = errors.New("unsupported value type")

// Value is a single SQL value: NULL, a 64-bit integer, a finite 64-bit
// float, UTF-8 text, or a byte blob. The zero Value is NULL.
//
// Float does not reject NaN or infinities; such values fail when the
// statement carrying them is encoded.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	b    []byte
}

// Null returns the SQL NULL value.
func Null() Value { return Value{} }

// Integer returns an integer value.
func Integer(v int64) Value { return Value{kind: KindInteger, i: v} }

// Float returns a float value.
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// Text returns a text value.
func Text(v string) Value { return Value{kind: KindText, s: v} }

// Blob returns a blob value holding a copy of v. A nil slice yields an
// empty blob, not NULL.
func Blob(v []byte) Value {
	b := make([]byte, len(v))
	copy(b, v)
	return Value{kind: KindBlob, b: b}
}

// ValueOf converts a Go scalar into a Value.
//
// Supported types are nil, bool (stored as 0/1), signed and unsigned
// integers that fit in int64, float32, float64, string, []byte, and Value
// itself.
func ValueOf(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return x, nil
	case bool:
		if x {
			return Integer(1), nil
		}
		return Integer(0), nil
	case int:
		return Integer(int64(x)), nil
	case int8:
		return Integer(int64(x)), nil
	case int16:
		return Integer(int64(x)), nil
	case int32:
		return Integer(int64(x)), nil
	case int64:
		return Integer(x), nil
	case uint8:
		return Integer(int64(x)), nil
	case uint16:
		return Integer(int64(x)), nil
	case uint32:
		return Integer(int64(x)), nil
	case uint:
		if uint64(x) > math.MaxInt64 {
			return Value{}, fmt.Errorf("%w: %d overflows int64", ErrUnsupportedValue, x)
		}
		return Integer(int64(x)), nil
	case uint64:
		if x > math.MaxInt64 {
			return Value{}, fmt.Errorf("%w: %d overflows int64", ErrUnsupportedValue, x)
		}
		return Integer(int64(x)), nil
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	case string:
		return Text(x), nil
	case []byte:
		return Blob(x), nil
	default:
		return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is NULL.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Int64 returns the integer held by v.
func (v Value) Int64() (int64, bool) { return v.i, v.kind == KindInteger }

// Float64 returns the float held by v.
func (v Value) Float64() (float64, bool) { return v.f, v.kind == KindFloat }

// Text returns the text held by v.
func (v Value) Text() (string, bool) { return v.s, v.kind == KindText }

// Bytes returns a copy of the blob held by v.
func (v Value) Bytes() ([]byte, bool) {
	if v.kind != KindBlob {
		return nil, false
	}
	b := make([]byte, len(v.b))
	copy(b, v.b)
	return b, true
}

// Equal reports whether v and o hold the same variant and payload.
// Floats compare with ==, so NaN never equals itself.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindInteger:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindText:
		return v.s == o.s
	case KindBlob:
		return bytes.Equal(v.b, o.b)
	default:
		return true
	}
}

// String renders v for debugging. It is not a SQL literal.
func (v Value) String() string {
	switch v.kind {
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindText:
		return strconv.Quote(v.s)
	case KindBlob:
		return fmt.Sprintf("blob(%d bytes)", len(v.b))
	default:
		return "NULL"
	}
}
