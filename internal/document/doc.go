// Package document provides the loosely-typed document tree that persisted
// entity rows parse into.
//
// This package contains the tree types, the parser, and the canonical
// serialization used for fingerprints and golden snapshots. It imports
// nothing internal; every other decoding package builds on it.
//
// Key design constraints:
//   - The tree is sealed: only Null, String, Int, Float, Bool, List and Map
//     implement Value
//   - Integers and floats stay distinct (1 and 1.0 are different values)
//   - Parsing rejects trailing data after the first document
//   - Map iteration order is never relied on; use SortedKeys
package document
