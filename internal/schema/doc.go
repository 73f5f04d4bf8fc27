// Package schema checks component documents against their CUE shapes.
//
// Shapes live in scopes.cue, embedded at build time and compiled once per
// Set. A Set owns its cue.Context, which is not safe for concurrent use, so
// parallel callers each build their own Set.
package schema
