package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces the canonical JSON form used for fingerprints
// and golden snapshots.
//
// Differences from json.Marshal:
//  1. Object keys sorted by UTF-16 code units (not UTF-8 bytes)
//  2. No HTML escaping (< > & are NOT escaped)
//  3. Strings are NFC normalized
//  4. Floats always carry a fraction or exponent so they stay distinct from ints
//
// Accepts Values and the plain Go shapes FromNative understands.
func MarshalCanonical(v any) ([]byte, error) {
	var val Value
	switch x := v.(type) {
	case Value:
		val = x
	default:
		conv, err := FromNative(v)
		if err != nil {
			return nil, fmt.Errorf("canonical: %w", err)
		}
		val = conv
	}

	var buf bytes.Buffer
	if err := writeCanonical(&buf, val); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v Value) error {
	switch val := v.(type) {
	case nil, Null:
		buf.WriteString("null")
	case String:
		b, err := marshalCanonicalString(string(val))
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
			if err := writeCanonical(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case Map:
		buf.WriteByte('{')
		for i, k := range val.SortedKeys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := marshalCanonicalString(k)
			if err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return fmt.Errorf("value for key %q: %w", k, err)
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

// marshalCanonicalString produces a JSON string with NFC normalization and
// without HTML escaping.
func marshalCanonicalString(s string) ([]byte, error) {
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}

	// json.Encoder adds trailing newline, remove it
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// MustMarshalCanonical is like MarshalCanonical but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustMarshalCanonical(v any) []byte {
	b, err := MarshalCanonical(v)
	if err != nil {
		panic(err)
	}
	return b
}
