package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// SyntaxError reports serialized text that is not a single well-formed
// document. Offset is the byte offset where decoding stopped, when known.
type SyntaxError struct {
	Offset int64
	Err    error
}

func (e *SyntaxError) Error() string {
	if e.Offset > 0 {
		return fmt.Sprintf("invalid document at offset %d: %v", e.Offset, e.Err)
	}
	return fmt.Sprintf("invalid document: %v", e.Err)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// Parse decodes serialized text into a Value.
// Numbers without a fraction or exponent become Int; all others Float.
// Exactly one document is accepted: trailing data is an error.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, &SyntaxError{Offset: syntaxOffset(err, dec), Err: err}
	}

	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("unexpected data after document")
		}
		return nil, &SyntaxError{Offset: syntaxOffset(err, dec), Err: err}
	}

	v, err := FromNative(raw)
	if err != nil {
		return nil, &SyntaxError{Err: err}
	}
	return v, nil
}

// ParseString is Parse for string input.
func ParseString(text string) (Value, error) {
	return Parse([]byte(text))
}

func syntaxOffset(err error, dec *json.Decoder) int64 {
	var se *json.SyntaxError
	if errors.As(err, &se) {
		return se.Offset
	}
	return dec.InputOffset()
}
