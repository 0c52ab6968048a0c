package recording

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nested(levels int) InformationValue {
	var v InformationValue = U8Value(7)
	for range levels {
		v = ListValue{v, StringValue("x")}
	}
	return v
}

func sampleInformation(t *testing.T) *AdditionalInformation {
	t.Helper()
	info := NewAdditionalInformation()
	require.NoError(t, info.Add("player", StringValue("alice"), false))
	require.NoError(t, info.Add("f32", F32Value(1.5), false))
	require.NoError(t, info.Add("f64", F64Value(-2.25), false))
	require.NoError(t, info.Add("bool", BoolValue(true), false))
	require.NoError(t, info.Add("u8", U8Value(200), false))
	require.NoError(t, info.Add("i8", I8Value(-100), false))
	require.NoError(t, info.Add("u32", U32Value(math.MaxUint32), false))
	require.NoError(t, info.Add("i32", I32Value(math.MinInt32), false))
	require.NoError(t, info.Add("u64", U64Value(math.MaxUint64), false))
	require.NoError(t, info.Add("i64", I64Value(math.MinInt64), false))
	require.NoError(t, info.Add("list", ListValue{U8Value(1), ListValue{StringValue("deep")}, BoolValue(false)}, false))
	return info
}

func TestInformationRoundTrip(t *testing.T) {
	info := sampleInformation(t)

	data, err := info.Bytes()
	require.NoError(t, err)

	decoded, err := ParseAdditionalInformation(data)
	require.NoError(t, err)
	assert.True(t, info.Equal(decoded))
	assert.Equal(t, info.Keys(), decoded.Keys())
}

func TestInformationEmptyRoundTrip(t *testing.T) {
	var info AdditionalInformation

	data, err := info.Bytes()
	require.NoError(t, err)

	decoded, err := ParseAdditionalInformation(data)
	require.NoError(t, err)
	assert.Equal(t, 0, decoded.Len())
}

func TestInformationChecksumIgnoresInsertionOrder(t *testing.T) {
	a := NewAdditionalInformation()
	b := NewAdditionalInformation()
	require.NoError(t, a.Add("alpha", U32Value(1), false))
	require.NoError(t, a.Add("beta", StringValue("two"), false))
	require.NoError(t, b.Add("beta", StringValue("two"), false))
	require.NoError(t, b.Add("alpha", U32Value(1), false))

	sumA, err := a.Checksum()
	require.NoError(t, err)
	sumB, err := b.Checksum()
	require.NoError(t, err)
	assert.Equal(t, sumA, sumB)

	require.NoError(t, b.Add("alpha", U32Value(2), true))
	sumB, err = b.Checksum()
	require.NoError(t, err)
	assert.NotEqual(t, sumA, sumB)
}

func TestInformationDuplicateKey(t *testing.T) {
	info := NewAdditionalInformation()
	require.NoError(t, info.Add("key", U8Value(1), false))

	err := info.Add("key", U8Value(2), false)
	require.ErrorIs(t, err, ErrDuplicateKey)
	v, _ := Lookup[U8Value](info, "key")
	assert.Equal(t, U8Value(1), v)

	require.NoError(t, info.Add("key", U8Value(2), true))
	v, _ = Lookup[U8Value](info, "key")
	assert.Equal(t, U8Value(2), v)
}

func TestInformationDecodeRejectsDuplicateKey(t *testing.T) {
	var e encoder
	e.u32(informationMagic)
	e.u32(2)
	e.string("same")
	require.NoError(t, encodeValue(&e, U8Value(1), 0))
	e.string("same")
	require.NoError(t, encodeValue(&e, U8Value(2), 0))
	e.bytes(make([]byte, ChecksumSize))

	_, err := ParseAdditionalInformation(e.buf)
	require.ErrorIs(t, err, ErrDuplicateKey)
}

func TestRecursionDepth(t *testing.T) {
	deepest := nested(MaxRecursionDepth)
	tooDeep := nested(MaxRecursionDepth + 1)

	t.Run("encode", func(t *testing.T) {
		_, err := EncodeValue(deepest)
		require.NoError(t, err)

		_, err = EncodeValue(tooDeep)
		require.ErrorIs(t, err, ErrRecursionDepth)
	})

	t.Run("add", func(t *testing.T) {
		info := NewAdditionalInformation()
		require.NoError(t, info.Add("ok", deepest, false))
		require.ErrorIs(t, info.Add("bad", tooDeep, false), ErrRecursionDepth)
		assert.False(t, info.Has("bad"))
		assert.True(t, info.Has("ok"))

		data, err := info.Bytes()
		require.NoError(t, err)
		decoded, err := ParseAdditionalInformation(data)
		require.NoError(t, err)
		assert.True(t, info.Equal(decoded))
	})

	t.Run("decode", func(t *testing.T) {
		// Hand-build a stream one level deeper than the encoder allows.
		var e encoder
		for range MaxRecursionDepth + 1 {
			e.u8(uint8(TypeList))
			e.u32(1)
		}
		e.u8(uint8(TypeU8))
		e.u8(1)

		d := newDecoder(bytesReader(e.buf))
		_, err := decodeValue(d, 0)
		require.ErrorIs(t, err, ErrRecursionDepth)
	})
}

func TestDecodeInvalidValueTag(t *testing.T) {
	d := newDecoder(bytesReader([]byte{0x7f}))
	_, err := decodeValue(d, 0)
	require.ErrorIs(t, err, ErrStructural)
}

func TestDecodeTruncatedValue(t *testing.T) {
	data, err := EncodeValue(StringValue("truncated"))
	require.NoError(t, err)

	d := newDecoder(bytesReader(data[:len(data)-2]))
	_, err = decodeValue(d, 0)
	require.ErrorIs(t, err, ErrIncomplete)
	assert.True(t, IsStreamError(err))
}

func TestInformationChecksumMismatch(t *testing.T) {
	info := sampleInformation(t)
	data, err := info.Bytes()
	require.NoError(t, err)

	data[len(data)-1] ^= 0xff
	_, err = ParseAdditionalInformation(data)
	require.ErrorIs(t, err, ErrIntegrity)
}

func TestInformationBadMagic(t *testing.T) {
	data, err := NewAdditionalInformation().Bytes()
	require.NoError(t, err)

	data[0] ^= 0xff
	_, err = ParseAdditionalInformation(data)
	require.ErrorIs(t, err, ErrStructural)
}

func TestValueEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b InformationValue
		want bool
	}{
		{"same string", StringValue("a"), StringValue("a"), true},
		{"different types", U32Value(1), I32Value(1), false},
		{"nan", F64Value(math.NaN()), F64Value(math.NaN()), false},
		{"nested lists", ListValue{ListValue{U8Value(1)}}, ListValue{ListValue{U8Value(1)}}, true},
		{"list lengths", ListValue{U8Value(1)}, ListValue{U8Value(1), U8Value(1)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
		})
	}
}

func TestInformationJSON(t *testing.T) {
	info := NewAdditionalInformation()
	require.NoError(t, info.Add("name", StringValue("bob"), false))
	require.NoError(t, info.Add("speed", U32Value(60), false))
	require.NoError(t, info.Add("weird", F64Value(math.Inf(1)), false))
	require.NoError(t, info.Add("list", ListValue{BoolValue(true), I8Value(-1)}, false))

	data, err := json.Marshal(info)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "bob", decoded["name"])
	assert.Equal(t, float64(60), decoded["speed"])
	assert.Equal(t, "+Inf", decoded["weird"])
	assert.Equal(t, []any{true, float64(-1)}, decoded["list"])
}
