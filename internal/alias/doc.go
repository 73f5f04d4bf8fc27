// Package alias normalizes field names before structural decoding.
//
// Older producers spelled some fields differently and attached runtime
// "producer markers" (py/object, py/type, py/ref) to many sub-documents.
// Both are handled here so decoders only ever see canonical names and never
// branch on marker content. Sequences the producer wrapped as
// {"py/tuple": [...]} or {"py/set": [...]} are unwrapped to plain lists; any
// other producer key carries data and is left in place.
package alias
