package recording

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
)

const informationMagic uint32 = 0xABCDEF01

// AdditionalInformation is a string-keyed map of typed values carried in the
// recording header. The zero value is an empty map ready to use.
type AdditionalInformation struct {
	values map[string]InformationValue
}

// NewAdditionalInformation returns an empty map.
func NewAdditionalInformation() *AdditionalInformation {
	return &AdditionalInformation{}
}

// Add stores value under key. An existing key is only replaced when overwrite
// is set; values nested deeper than MaxRecursionDepth are rejected.
func (a *AdditionalInformation) Add(key string, value InformationValue, overwrite bool) error {
	if value == nil {
		return fmt.Errorf("recording: nil value for key %q", key)
	}
	if _, exists := a.values[key]; exists && !overwrite {
		return fmt.Errorf("%w: %q", ErrDuplicateKey, key)
	}
	if err := checkDepth(value, 0); err != nil {
		return fmt.Errorf("recording: key %q: %w", key, err)
	}
	if a.values == nil {
		a.values = make(map[string]InformationValue)
	}
	a.values[key] = value
	return nil
}

// Get returns the value stored under key.
func (a *AdditionalInformation) Get(key string) (InformationValue, bool) {
	if a == nil {
		return nil, false
	}
	v, ok := a.values[key]
	return v, ok
}

// Lookup returns the value under key if it has type T.
func Lookup[T InformationValue](a *AdditionalInformation, key string) (T, bool) {
	var zero T
	v, ok := a.Get(key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}

// Has reports whether key is present.
func (a *AdditionalInformation) Has(key string) bool {
	_, ok := a.Get(key)
	return ok
}

// Len returns the number of pairs.
func (a *AdditionalInformation) Len() int {
	if a == nil {
		return 0
	}
	return len(a.values)
}

// Keys returns the keys in byte-wise lexicographic order.
func (a *AdditionalInformation) Keys() []string {
	if a == nil {
		return nil
	}
	keys := make([]string, 0, len(a.values))
	for k := range a.values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Equal reports whether both maps hold equal values under the same keys.
func (a *AdditionalInformation) Equal(other *AdditionalInformation) bool {
	if a.Len() != other.Len() {
		return false
	}
	for _, key := range a.Keys() {
		theirs, ok := other.Get(key)
		if !ok {
			return false
		}
		mine, _ := a.Get(key)
		if !Equal(mine, theirs) {
			return false
		}
	}
	return true
}

// Checksum hashes the pair count and every pair in sorted key order, so the
// digest does not depend on insertion order.
func (a *AdditionalInformation) Checksum() (Checksum, error) {
	h := newHasher()
	h.u32(uint32(a.Len()))

	var e encoder
	for _, key := range a.Keys() {
		value, _ := a.Get(key)
		e.reset()
		e.string(key)
		if err := encodeValue(&e, value, 0); err != nil {
			return Checksum{}, fmt.Errorf("recording: key %q: %w", key, err)
		}
		h.bytes(e.buf)
	}
	return h.sum(), nil
}

// Bytes returns the self-delimited encoding: magic, pair count, pairs and
// the trailing checksum.
func (a *AdditionalInformation) Bytes() ([]byte, error) {
	var e encoder
	if err := a.encode(&e); err != nil {
		return nil, err
	}
	return e.buf, nil
}

func (a *AdditionalInformation) encode(e *encoder) error {
	sum, err := a.Checksum()
	if err != nil {
		return err
	}

	e.u32(informationMagic)
	e.u32(uint32(a.Len()))
	for _, key := range a.Keys() {
		value, _ := a.Get(key)
		e.string(key)
		if err := encodeValue(e, value, 0); err != nil {
			return fmt.Errorf("recording: key %q: %w", key, err)
		}
	}
	e.bytes(sum[:])
	return nil
}

// ParseAdditionalInformation decodes a map produced by Bytes.
func ParseAdditionalInformation(data []byte) (*AdditionalInformation, error) {
	return decodeInformation(newDecoder(bytes.NewReader(data)))
}

func decodeInformation(d *decoder) (*AdditionalInformation, error) {
	magic, err := d.u32()
	if err != nil {
		return nil, fmt.Errorf("recording: cannot read information magic: %w", inside(err))
	}
	if magic != informationMagic {
		return nil, fmt.Errorf("%w: information magic %#08x", ErrStructural, magic)
	}

	count, err := d.u32()
	if err != nil {
		return nil, fmt.Errorf("recording: cannot read information pair count: %w", inside(err))
	}

	info := &AdditionalInformation{values: make(map[string]InformationValue, min(count, 1024))}
	for i := range count {
		key, err := d.string()
		if err != nil {
			return nil, fmt.Errorf("recording: cannot read key of pair %d: %w", i, inside(err))
		}
		value, err := decodeValue(d, 0)
		if err != nil {
			return nil, fmt.Errorf("recording: cannot read value of %q: %w", key, err)
		}
		if _, exists := info.values[key]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateKey, key)
		}
		info.values[key] = value
	}

	expected, err := info.Checksum()
	if err != nil {
		return nil, err
	}
	stored, err := d.checksum()
	if err != nil {
		return nil, fmt.Errorf("recording: cannot read information checksum: %w", inside(err))
	}
	if stored != expected {
		return nil, fmt.Errorf("%w: information expected %s but got %s", ErrIntegrity, expected, stored)
	}
	return info, nil
}

// MarshalJSON renders the map as a JSON object with native JSON values.
// Non-finite floats become strings.
func (a *AdditionalInformation) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, a.Len())
	for _, key := range a.Keys() {
		value, _ := a.Get(key)
		out[key] = jsonValue(value)
	}
	return json.Marshal(out)
}

func jsonValue(v InformationValue) any {
	switch v := v.(type) {
	case StringValue:
		return string(v)
	case F32Value:
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return v.String()
		}
		return float32(v)
	case F64Value:
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return v.String()
		}
		return float64(v)
	case BoolValue:
		return bool(v)
	case U8Value:
		return uint8(v)
	case I8Value:
		return int8(v)
	case U32Value:
		return uint32(v)
	case I32Value:
		return int32(v)
	case U64Value:
		return uint64(v)
	case I64Value:
		return int64(v)
	case ListValue:
		items := make([]any, len(v))
		for i, item := range v {
			items[i] = jsonValue(item)
		}
		return items
	default:
		return nil
	}
}
