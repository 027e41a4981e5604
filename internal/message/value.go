package message

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"math"
	"slices"
	"strconv"
)

// ValueKind identifies the variant held by a Value.
type ValueKind uint8

const (
	// ValueNull is the zero variant.
	ValueNull ValueKind = iota
	// ValueBool holds a boolean.
	ValueBool
	// ValueNumber holds a JSON number.
	ValueNumber
	// ValueString holds a string.
	ValueString
	// ValueList holds an ordered list of values.
	ValueList
	// ValueMap holds an ordered map of named values.
	ValueMap
)

// String implements fmt.Stringer.
func (k ValueKind) String() string {
	switch k {
	case ValueBool:
		return "bool"
	case ValueNumber:
		return "number"
	case ValueString:
		return "string"
	case ValueList:
		return "list"
	case ValueMap:
		return "map"
	default:
		return "null"
	}
}

// Value is a recursively typed JSON value.
//
// The zero Value is null. Accessors return the typed value and whether the
// Value actually holds that variant, so missing or mistyped fields are
// reported instead of silently defaulting.
type Value struct {
	kind ValueKind
	b    bool
	num  string // JSON number literal
	s    string
	list []Value
	m    *Map
}

// Null returns the null Value.
func Null() Value { return Value{} }

// BoolValue returns a boolean Value.
func BoolValue(b bool) Value { return Value{kind: ValueBool, b: b} }

// NumberValue returns a numeric Value. NaN and infinities become null.
func NumberValue(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null()
	}

	return Value{kind: ValueNumber, num: strconv.FormatFloat(f, 'g', -1, 64)}
}

// IntValue returns an integral numeric Value.
func IntValue(i int64) Value {
	return Value{kind: ValueNumber, num: strconv.FormatInt(i, 10)}
}

// StringValue returns a string Value.
func StringValue(s string) Value { return Value{kind: ValueString, s: s} }

// ListValue returns a list Value holding items in order.
func ListValue(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}

	return Value{kind: ValueList, list: items}
}

// MapValue returns a map Value. A nil map is treated as empty.
func MapValue(m *Map) Value {
	if m == nil {
		m = NewMap()
	}

	return Value{kind: ValueMap, m: m}
}

// ValueOf converts a decoded Go value into a Value.
//
// Supported inputs are the types produced by encoding/json (nil, bool,
// float64, json.Number, string, []any, map[string]any), Go integers, and
// values of this package. Keys of map[string]any are sorted since Go maps
// carry no order. Unsupported types yield an error.
func ValueOf(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case *Map:
		return MapValue(t), nil
	case bool:
		return BoolValue(t), nil
	case string:
		return StringValue(t), nil
	case float64:
		return NumberValue(t), nil
	case float32:
		return NumberValue(float64(t)), nil
	case int:
		return IntValue(int64(t)), nil
	case int32:
		return IntValue(int64(t)), nil
	case int64:
		return IntValue(t), nil
	case uint32:
		return IntValue(int64(t)), nil
	case json.Number:
		return Value{kind: ValueNumber, num: t.String()}, nil
	case []Value:
		return ListValue(t...), nil
	case []any:
		items := make([]Value, 0, len(t))

		for i, item := range t {
			converted, err := ValueOf(item)
			if err != nil {
				return Value{}, fmt.Errorf("index %d: %w", i, err)
			}

			items = append(items, converted)
		}

		return ListValue(items...), nil
	case map[string]any:
		m := NewMap()

		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}

		slices.Sort(keys)

		for _, k := range keys {
			converted, err := ValueOf(t[k])
			if err != nil {
				return Value{}, fmt.Errorf("key %q: %w", k, err)
			}

			m.Set(k, converted)
		}

		return MapValue(m), nil
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", v)
	}
}

// Kind returns the variant held by v.
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == ValueNull }

// Bool returns the boolean held by v.
func (v Value) Bool() (bool, bool) {
	return v.b, v.kind == ValueBool
}

// Float returns the number held by v as a float64.
func (v Value) Float() (float64, bool) {
	if v.kind != ValueNumber {
		return 0, false
	}

	f, err := strconv.ParseFloat(v.num, 64)
	if err != nil {
		return 0, false
	}

	return f, true
}

// Int returns the number held by v as an int64. Non-integral numbers are
// reported as absent.
func (v Value) Int() (int64, bool) {
	if v.kind != ValueNumber {
		return 0, false
	}

	if i, err := strconv.ParseInt(v.num, 10, 64); err == nil {
		return i, true
	}

	f, err := strconv.ParseFloat(v.num, 64)
	if err != nil || f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}

	return int64(f), true
}

// Str returns the string held by v.
func (v Value) Str() (string, bool) {
	return v.s, v.kind == ValueString
}

// List returns the items held by v.
func (v Value) List() ([]Value, bool) {
	if v.kind != ValueList {
		return nil, false
	}

	return v.list, true
}

// Map returns the map held by v.
func (v Value) Map() (*Map, bool) {
	if v.kind != ValueMap {
		return nil, false
	}

	return v.m, true
}

// Get returns the named field of a map Value.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != ValueMap {
		return Value{}, false
	}

	return v.m.Get(key)
}

// Index returns the i-th item of a list Value.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != ValueList || i < 0 || i >= len(v.list) {
		return Value{}, false
	}

	return v.list[i], true
}

// Path walks nested maps by key and returns the value at the end.
func (v Value) Path(keys ...string) (Value, bool) {
	current := v

	for _, key := range keys {
		next, ok := current.Get(key)
		if !ok {
			return Value{}, false
		}

		current = next
	}

	return current, true
}

// Equal reports whether v and other hold structurally equal values.
// Map comparison ignores key order.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}

	switch v.kind {
	case ValueNull:
		return true
	case ValueBool:
		return v.b == other.b
	case ValueNumber:
		if v.num == other.num {
			return true
		}

		a, okA := v.Float()
		b, okB := other.Float()

		return okA && okB && a == b
	case ValueString:
		return v.s == other.s
	case ValueList:
		return slices.EqualFunc(v.list, other.list, Value.Equal)
	case ValueMap:
		return v.m.Equal(other.m)
	}

	return false
}

// String renders v as compact JSON.
func (v Value) String() string {
	data, err := v.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<%s: %v>", v.kind, err)
	}

	return string(data)
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case ValueNull:
		buf.WriteString("null")
	case ValueBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case ValueNumber:
		buf.WriteString(v.num)
	case ValueString:
		data, err := json.Marshal(v.s)
		if err != nil {
			return err
		}

		buf.Write(data)
	case ValueList:
		buf.WriteByte('[')

		for i, item := range v.list {
			if i > 0 {
				buf.WriteByte(',')
			}

			if err := item.encode(buf); err != nil {
				return err
			}
		}

		buf.WriteByte(']')
	case ValueMap:
		buf.WriteByte('{')

		for i, key := range v.m.keys {
			if i > 0 {
				buf.WriteByte(',')
			}

			data, err := json.Marshal(key)
			if err != nil {
				return err
			}

			buf.Write(data)
			buf.WriteByte(':')

			if err := v.m.values[key].encode(buf); err != nil {
				return err
			}
		}

		buf.WriteByte('}')
	}

	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
// Object key order of the source document is preserved.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	decoded, err := decodeValue(dec)
	if err != nil {
		return err
	}

	*v = decoded

	return nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}

	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return BoolValue(t), nil
	case json.Number:
		return Value{kind: ValueNumber, num: t.String()}, nil
	case string:
		return StringValue(t), nil
	case json.Delim:
		switch t {
		case '[':
			items := []Value{}

			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}

				items = append(items, item)
			}

			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}

			return ListValue(items...), nil
		case '{':
			m := NewMap()

			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}

				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("object key is %T, want string", keyTok)
				}

				item, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}

				m.Set(key, item)
			}

			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}

			return MapValue(m), nil
		}
	}

	return Value{}, fmt.Errorf("unexpected JSON token %v", tok)
}

// Map is an insertion-ordered mapping from names to values.
// The zero value is an empty map ready to use.
type Map struct {
	keys   []string
	values map[string]Value
}

// NewMap returns an empty map.
func NewMap() *Map {
	return &Map{values: make(map[string]Value)}
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}

	return len(m.keys)
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}

	v, ok := m.values[key]

	return v, ok
}

// Set stores v under key. New keys are appended to the order; existing keys
// keep their position.
func (m *Map) Set(key string, v Value) *Map {
	if m.values == nil {
		m.values = make(map[string]Value)
	}

	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}

	m.values[key] = v

	return m
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}

	return slices.Clone(m.keys)
}

// All iterates over entries in insertion order.
func (m *Map) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if m == nil {
			return
		}

		for _, key := range m.keys {
			if !yield(key, m.values[key]) {
				return
			}
		}
	}
}

// Equal reports whether both maps hold the same entries, ignoring order.
func (m *Map) Equal(other *Map) bool {
	if m.Len() != other.Len() {
		return false
	}

	for key, v := range m.All() {
		ov, ok := other.Get(key)
		if !ok || !v.Equal(ov) {
			return false
		}
	}

	return true
}
