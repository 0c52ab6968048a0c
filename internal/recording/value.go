package recording

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MaxRecursionDepth bounds list nesting. A list whose nesting level (0 for a
// top-level list) reaches this value cannot be encoded or decoded.
const MaxRecursionDepth = 15

// ValueType is the one-byte tag preceding every encoded value.
type ValueType uint8

const (
	TypeString ValueType = iota
	TypeF32
	TypeF64
	TypeBool
	TypeU8
	TypeI8
	TypeU32
	TypeI32
	TypeU64
	TypeI64
	TypeList
)

func (t ValueType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeF32:
		return "f32"
	case TypeF64:
		return "f64"
	case TypeBool:
		return "bool"
	case TypeU8:
		return "u8"
	case TypeI8:
		return "i8"
	case TypeU32:
		return "u32"
	case TypeI32:
		return "i32"
	case TypeU64:
		return "u64"
	case TypeI64:
		return "i64"
	case TypeList:
		return "list"
	default:
		return fmt.Sprintf("ValueType(%d)", uint8(t))
	}
}

// InformationValue is a value stored in AdditionalInformation. The set of
// implementations is closed.
type InformationValue interface {
	Type() ValueType
	String() string
	informationValue()
}

type (
	StringValue string
	F32Value    float32
	F64Value    float64
	BoolValue   bool
	U8Value     uint8
	I8Value     int8
	U32Value    uint32
	I32Value    int32
	U64Value    uint64
	I64Value    int64
	ListValue   []InformationValue
)

func (StringValue) Type() ValueType { return TypeString }
func (F32Value) Type() ValueType    { return TypeF32 }
func (F64Value) Type() ValueType    { return TypeF64 }
func (BoolValue) Type() ValueType   { return TypeBool }
func (U8Value) Type() ValueType     { return TypeU8 }
func (I8Value) Type() ValueType     { return TypeI8 }
func (U32Value) Type() ValueType    { return TypeU32 }
func (I32Value) Type() ValueType    { return TypeI32 }
func (U64Value) Type() ValueType    { return TypeU64 }
func (I64Value) Type() ValueType    { return TypeI64 }
func (ListValue) Type() ValueType   { return TypeList }

func (StringValue) informationValue() {}
func (F32Value) informationValue()    {}
func (F64Value) informationValue()    {}
func (BoolValue) informationValue()   {}
func (U8Value) informationValue()     {}
func (I8Value) informationValue()     {}
func (U32Value) informationValue()    {}
func (I32Value) informationValue()    {}
func (U64Value) informationValue()    {}
func (I64Value) informationValue()    {}
func (ListValue) informationValue()   {}

func (v StringValue) String() string { return string(v) }
func (v F32Value) String() string    { return strconv.FormatFloat(float64(v), 'g', -1, 32) }
func (v F64Value) String() string    { return strconv.FormatFloat(float64(v), 'g', -1, 64) }
func (v BoolValue) String() string   { return strconv.FormatBool(bool(v)) }
func (v U8Value) String() string     { return strconv.FormatUint(uint64(v), 10) }
func (v I8Value) String() string     { return strconv.FormatInt(int64(v), 10) }
func (v U32Value) String() string    { return strconv.FormatUint(uint64(v), 10) }
func (v I32Value) String() string    { return strconv.FormatInt(int64(v), 10) }
func (v U64Value) String() string    { return strconv.FormatUint(uint64(v), 10) }
func (v I64Value) String() string    { return strconv.FormatInt(int64(v), 10) }

func (v ListValue) String() string {
	parts := make([]string, len(v))
	for i, item := range v {
		parts[i] = item.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Equal reports structural equality. Floats compare numerically, so NaN is
// never equal to anything.
func Equal(a, b InformationValue) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Type() != b.Type() {
		return false
	}
	switch av := a.(type) {
	case ListValue:
		bv := b.(ListValue)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

// checkDepth validates nesting without encoding.
func checkDepth(v InformationValue, depth int) error {
	list, ok := v.(ListValue)
	if !ok {
		return nil
	}
	if depth >= MaxRecursionDepth {
		return fmt.Errorf("%w: list nested %d levels deep", ErrRecursionDepth, depth+1)
	}
	for _, item := range list {
		if err := checkDepth(item, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func encodeValue(e *encoder, v InformationValue, depth int) error {
	if v == nil {
		return fmt.Errorf("recording: cannot encode nil value")
	}
	e.u8(uint8(v.Type()))
	switch v := v.(type) {
	case StringValue:
		e.string(string(v))
	case F32Value:
		e.u32(math.Float32bits(float32(v)))
	case F64Value:
		e.u64(math.Float64bits(float64(v)))
	case BoolValue:
		if v {
			e.u8(1)
		} else {
			e.u8(0)
		}
	case U8Value:
		e.u8(uint8(v))
	case I8Value:
		e.u8(uint8(v))
	case U32Value:
		e.u32(uint32(v))
	case I32Value:
		e.u32(uint32(v))
	case U64Value:
		e.u64(uint64(v))
	case I64Value:
		e.u64(uint64(v))
	case ListValue:
		if depth >= MaxRecursionDepth {
			return fmt.Errorf("%w: list nested %d levels deep", ErrRecursionDepth, depth+1)
		}
		e.u32(uint32(len(v)))
		for _, item := range v {
			if err := encodeValue(e, item, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

func result(v InformationValue, err error) (InformationValue, error) {
	if err != nil {
		return nil, inside(err)
	}
	return v, nil
}

// EncodeValue returns the tagged binary form of v.
func EncodeValue(v InformationValue) ([]byte, error) {
	var e encoder
	if err := encodeValue(&e, v, 0); err != nil {
		return nil, err
	}
	return e.buf, nil
}

func decodeValue(d *decoder, depth int) (InformationValue, error) {
	tag, err := d.u8()
	if err != nil {
		return nil, inside(err)
	}

	switch ValueType(tag) {
	case TypeString:
		s, err := d.string()
		return result(StringValue(s), err)
	case TypeF32:
		bits, err := d.u32()
		return result(F32Value(math.Float32frombits(bits)), err)
	case TypeF64:
		bits, err := d.u64()
		return result(F64Value(math.Float64frombits(bits)), err)
	case TypeBool:
		b, err := d.u8()
		return result(BoolValue(b != 0), err)
	case TypeU8:
		v, err := d.u8()
		return result(U8Value(v), err)
	case TypeI8:
		v, err := d.u8()
		return result(I8Value(int8(v)), err)
	case TypeU32:
		v, err := d.u32()
		return result(U32Value(v), err)
	case TypeI32:
		v, err := d.u32()
		return result(I32Value(int32(v)), err)
	case TypeU64:
		v, err := d.u64()
		return result(U64Value(v), err)
	case TypeI64:
		v, err := d.u64()
		return result(I64Value(int64(v)), err)
	case TypeList:
		if depth >= MaxRecursionDepth {
			return nil, fmt.Errorf("%w: list nested %d levels deep", ErrRecursionDepth, depth+1)
		}
		n, err := d.u32()
		if err != nil {
			return nil, inside(err)
		}
		list := make(ListValue, 0, min(n, 1024))
		for range n {
			item, err := decodeValue(d, depth+1)
			if err != nil {
				return nil, err
			}
			list = append(list, item)
		}
		return list, nil
	default:
		return nil, fmt.Errorf("%w: invalid value tag %d", ErrStructural, tag)
	}
}
