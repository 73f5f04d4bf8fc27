// Package model provides the typed values a persisted entity decodes into.
//
// This package contains type definitions only. Decoding lives in the decode
// package; model imports nothing internal except document.
//
// Key design constraints:
//   - EntityRef is data, never a handle: nothing here dereferences it
//   - Absent optional fields are nil pointers, never zero values
//   - Component is sealed: one struct per known tag plus Unrecognized
package model
