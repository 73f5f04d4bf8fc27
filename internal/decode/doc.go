// Package decode turns persisted entity documents into typed values.
//
// Decoding runs in three stages:
//   - Parse: serialized text to a document tree (DocumentParseError)
//   - Envelope: the fixed outer record (MalformedEnvelopeError)
//   - Components: each scope document by tag (ComponentShapeMismatchError)
//
// Unknown component tags are not errors; they decode to model.Unrecognized so
// that data written by newer producers still loads. A shape mismatch under a
// known tag fails the whole entity.
//
// Decoding never performs I/O and never follows entity references.
package decode
