package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode/utf16"
)

// Value is a sealed interface over the shapes a serialized document can take.
// Only Null, String, Int, Float, Bool, List and Map implement it.
type Value interface {
	docValue() // Sealed - only these types implement it
}

// Null represents a JSON null.
type Null struct{}

func (Null) docValue() {}

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// String represents a string value.
type String string

func (String) docValue() {}

// Int represents an integral number.
type Int int64

func (Int) docValue() {}

// Float represents a number written with a fraction or exponent.
type Float float64

func (Float) docValue() {}

// Bool represents a boolean value.
type Bool bool

func (Bool) docValue() {}

// List represents an ordered list of values.
type List []Value

func (List) docValue() {}

// Map represents a string-keyed mapping of values.
// Use SortedKeys() for deterministic iteration.
type Map map[string]Value

func (Map) docValue() {}

// SortedKeys returns keys ordered by UTF-16 code units, the ordering used by
// the canonical form.
func (m Map) SortedKeys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysUTF16)
	return keys
}

// compareKeysUTF16 compares strings by UTF-16 code units.
// Go's default string comparison uses UTF-8 bytes, which orders
// supplementary-plane characters differently.
func compareKeysUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := min(len(a16), len(b16))
	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}

// KindOf returns a short name for the shape of v, used in error messages.
func KindOf(v Value) string {
	switch v.(type) {
	case nil:
		return "missing"
	case Null:
		return "null"
	case String:
		return "string"
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case List:
		return "list"
	case Map:
		return "map"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Native converts a Value into plain Go values: nil, string, int64, float64,
// bool, []any and map[string]any.
func Native(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case String:
		return string(val)
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case Bool:
		return bool(val)
	case List:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = Native(elem)
		}
		return out
	case Map:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = Native(elem)
		}
		return out
	default:
		return nil
	}
}

// FromNative converts plain Go values, such as those produced by a YAML or
// JSON decoder, into a Value.
func FromNative(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint64:
		return Int(int64(val)), nil
	case float64:
		return Float(val), nil
	case json.Number:
		return fromNumber(val)
	case []any:
		out := make(List, len(val))
		for i, elem := range val {
			conv, err := FromNative(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = conv
		}
		return out, nil
	case map[string]any:
		out := make(Map, len(val))
		for k, elem := range val {
			conv, err := FromNative(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			out[k] = conv
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// fromNumber keeps integers integral and everything written with a fraction
// or exponent as a Float.
func fromNumber(n json.Number) (Value, error) {
	s := string(n)
	if !strings.ContainsAny(s, ".eE") {
		if i, err := n.Int64(); err == nil {
			return Int(i), nil
		}
	}
	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("invalid number %s: %w", s, err)
	}
	return Float(f), nil
}

// formatFloat renders f so that it parses back as a Float.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// Marshal renders a Value as compact JSON with sorted map keys.
// NOTE: This is not the canonical form; use MarshalCanonical for hashing.
func Marshal(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeValue(buf *bytes.Buffer, v Value) error {
	switch val := v.(type) {
	case nil, Null:
		buf.WriteString("null")
	case String:
		b, err := json.Marshal(string(val))
		if err != nil {
			return err
		}
		buf.Write(b)
	case Int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case Float:
		buf.WriteString(formatFloat(float64(val)))
	case Bool:
		buf.WriteString(strconv.FormatBool(bool(val)))
	case List:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeValue(buf, elem); err != nil {
				return fmt.Errorf("list[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case Map:
		buf.WriteByte('{')
		for i, k := range val.SortedKeys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return fmt.Errorf("marshal key %q: %w", k, err)
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := writeValue(buf, val[k]); err != nil {
				return fmt.Errorf("marshal value for key %q: %w", k, err)
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unknown document value type: %T", v)
	}
	return nil
}

// MarshalJSON implements json.Marshaler for Map.
func (m Map) MarshalJSON() ([]byte, error) {
	return Marshal(m)
}

// UnmarshalJSON implements json.Unmarshaler for Map.
func (m *Map) UnmarshalJSON(data []byte) error {
	v, err := Parse(data)
	if err != nil {
		return err
	}
	switch val := v.(type) {
	case Map:
		*m = val
	case Null:
		*m = nil
	default:
		return fmt.Errorf("expected map, got %s", KindOf(v))
	}
	return nil
}

// MarshalJSON implements json.Marshaler for List.
func (l List) MarshalJSON() ([]byte, error) {
	return Marshal(l)
}

// UnmarshalJSON implements json.Unmarshaler for List.
func (l *List) UnmarshalJSON(data []byte) error {
	v, err := Parse(data)
	if err != nil {
		return err
	}
	switch val := v.(type) {
	case List:
		*l = val
	case Null:
		*l = nil
	default:
		return fmt.Errorf("expected list, got %s", KindOf(v))
	}
	return nil
}

// Any holds an arbitrary Value inside a struct that is filled by
// encoding/json. The zero Any holds no value.
type Any struct {
	Value Value
}

// IsZero reports whether a holds no value or an explicit null.
func (a Any) IsZero() bool {
	switch a.Value.(type) {
	case nil, Null:
		return true
	}
	return false
}

// MarshalJSON implements json.Marshaler for Any.
func (a Any) MarshalJSON() ([]byte, error) {
	return Marshal(a.Value)
}

// UnmarshalJSON implements json.Unmarshaler for Any.
func (a *Any) UnmarshalJSON(data []byte) error {
	v, err := Parse(data)
	if err != nil {
		return err
	}
	a.Value = v
	return nil
}
