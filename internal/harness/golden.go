package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/jlewallen/dimsum/internal/document"
	"github.com/jlewallen/dimsum/internal/loader"
)

// ReportSnapshot captures the outcome of a scenario load.
// Serialized with canonical JSON for deterministic comparison.
type ReportSnapshot struct {
	ScenarioName string
	Aborted      bool
	Report       *loader.Report
}

// toCanonicalMap converts a ReportSnapshot to plain Go values for canonical
// JSON serialization. Error messages are left out: only kinds and paths are
// part of the snapshot.
func (s *ReportSnapshot) toCanonicalMap() map[string]any {
	r := s.Report

	failures := make([]any, len(r.Failures))
	for i, f := range r.Failures {
		m := map[string]any{
			"key":  f.Key,
			"kind": string(f.Kind),
		}
		if f.Path != "" {
			m["path"] = f.Path
		}
		failures[i] = m
	}

	entities := make([]any, len(r.Entities))
	for i, d := range r.Entities {
		tags := componentTags(d)
		components := make([]any, len(tags))
		for j, tag := range tags {
			components[j] = tag
		}
		entities[i] = map[string]any{
			"key":        d.Entity.Key,
			"class":      d.Entity.Class,
			"version":    d.Entity.Version,
			"components": components,
		}
	}

	result := map[string]any{
		"scenario_name": s.ScenarioName,
		"run_id":        r.RunID,
		"processed":     r.Processed,
		"failed":        r.Failed,
		"failures":      failures,
		"entities":      entities,
		"tags":          counts(r.Tags),
		"unrecognized":  counts(r.Unrecognized),
	}
	if s.Aborted {
		result["aborted"] = true
	}
	return result
}

func counts(m map[string]int) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Snapshot returns the canonical JSON snapshot of a scenario result.
func Snapshot(name string, result *Result) ([]byte, error) {
	snapshot := ReportSnapshot{
		ScenarioName: name,
		Aborted:      result.Aborted,
		Report:       result.Report,
	}
	return document.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its report snapshot against
// a golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an already-computed result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := Snapshot(name, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)

	return nil
}
