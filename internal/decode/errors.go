package decode

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes decode failures.
type ErrorCode string

const (
	// ErrCodeDocumentParse indicates the serialized text is not a document.
	ErrCodeDocumentParse ErrorCode = "DOCUMENT_PARSE"

	// ErrCodeMalformedEnvelope indicates a required top-level field is
	// missing or has the wrong shape.
	ErrCodeMalformedEnvelope ErrorCode = "MALFORMED_ENVELOPE"

	// ErrCodeComponentShapeMismatch indicates a known component tag whose
	// document does not match its shape.
	ErrCodeComponentShapeMismatch ErrorCode = "COMPONENT_SHAPE_MISMATCH"
)

// DocumentParseError reports serialized text that could not be parsed.
// Key is filled when it could still be recovered from the damaged text.
type DocumentParseError struct {
	Key string
	Err error
}

func (e *DocumentParseError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s: %v (key=%s)", ErrCodeDocumentParse, e.Err, e.Key)
	}
	return fmt.Sprintf("%s: %v", ErrCodeDocumentParse, e.Err)
}

func (e *DocumentParseError) Unwrap() error {
	return e.Err
}

// MalformedEnvelopeError reports a required envelope field that is missing
// or mis-shaped. Field is a dotted path such as "acls.rules[1].perm"; empty
// when the document is not a map at all.
type MalformedEnvelopeError struct {
	Key     string
	Field   string
	Message string
}

func (e *MalformedEnvelopeError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + e.Message
	}
	if e.Key != "" {
		return fmt.Sprintf("%s: %s (key=%s)", ErrCodeMalformedEnvelope, msg, e.Key)
	}
	return fmt.Sprintf("%s: %s", ErrCodeMalformedEnvelope, msg)
}

// ComponentShapeMismatchError reports a component under a known tag whose
// document does not match the tag's shape. Field is relative to the
// component document; empty means the document itself is the wrong shape.
type ComponentShapeMismatchError struct {
	Key     string
	Tag     string
	Field   string
	Message string
}

func (e *ComponentShapeMismatchError) Error() string {
	where := e.Tag
	if e.Field != "" {
		where = e.Tag + "." + e.Field
	}
	if e.Key != "" {
		return fmt.Sprintf("%s: %s: %s (key=%s)", ErrCodeComponentShapeMismatch, where, e.Message, e.Key)
	}
	return fmt.Sprintf("%s: %s: %s", ErrCodeComponentShapeMismatch, where, e.Message)
}

// Kind returns the error code of a decode failure, or "" when err is not
// one. Uses errors.As to handle wrapped errors.
func Kind(err error) ErrorCode {
	var pe *DocumentParseError
	if errors.As(err, &pe) {
		return ErrCodeDocumentParse
	}
	var me *MalformedEnvelopeError
	if errors.As(err, &me) {
		return ErrCodeMalformedEnvelope
	}
	var ce *ComponentShapeMismatchError
	if errors.As(err, &ce) {
		return ErrCodeComponentShapeMismatch
	}
	return ""
}

// Path returns the offending field path of a decode failure: the envelope
// field, or "scopes.<tag>[.<field>]" for component failures.
func Path(err error) string {
	var me *MalformedEnvelopeError
	if errors.As(err, &me) {
		return me.Field
	}
	var ce *ComponentShapeMismatchError
	if errors.As(err, &ce) {
		if ce.Field == "" {
			return "scopes." + ce.Tag
		}
		return "scopes." + ce.Tag + "." + ce.Field
	}
	return ""
}

// KeyOf returns the entity key recorded on a decode failure, if any.
func KeyOf(err error) string {
	var pe *DocumentParseError
	if errors.As(err, &pe) {
		return pe.Key
	}
	var me *MalformedEnvelopeError
	if errors.As(err, &me) {
		return me.Key
	}
	var ce *ComponentShapeMismatchError
	if errors.As(err, &ce) {
		return ce.Key
	}
	return ""
}

// IsDecodeError reports whether err is one of the three decode failures.
func IsDecodeError(err error) bool {
	return Kind(err) != ""
}
