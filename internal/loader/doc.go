// Package loader decodes every row of a row source in parallel.
//
// Rows are streamed into a shared queue consumed by a fixed number of
// workers, each with its own decoder. By default a row that fails to decode
// is recorded and skipped; with FailFast the first failure stops the run.
// Results are sorted by key so reports do not depend on scheduling.
package loader
