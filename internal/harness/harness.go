package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jlewallen/dimsum/internal/decode"
	"github.com/jlewallen/dimsum/internal/document"
	"github.com/jlewallen/dimsum/internal/loader"
	"github.com/jlewallen/dimsum/internal/store"
	"github.com/jlewallen/dimsum/internal/testutil"
)

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation, and the
// run id is fixed so reports are reproducible.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Write the scenario's rows
// 3. Load every row through the loader
// 4. Evaluate assertions against the report
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	rows, err := scenarioRows(scenario.Rows)
	if err != nil {
		return nil, err
	}
	if err := st.PutRows(ctx, rows); err != nil {
		return nil, fmt.Errorf("failed to write rows: %w", err)
	}

	result := NewResult()
	report, err := loader.Load(ctx, st, loader.Options{
		Workers:  scenario.Workers,
		FailFast: scenario.FailFast,
		Keep:     true,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
		RunIDs:   testutil.NewFixedRunIDGenerator(scenario.RunID),
	})
	if err != nil {
		if !scenario.FailFast || !decode.IsDecodeError(err) {
			return nil, fmt.Errorf("failed to load rows: %w", err)
		}
		result.Aborted = true
	}
	result.Report = report

	for _, msg := range EvaluateAssertions(report, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

// scenarioRows encodes row steps into store rows.
func scenarioRows(steps []RowStep) ([]store.Row, error) {
	rows := make([]store.Row, 0, len(steps))
	for i, step := range steps {
		serialized := step.Serialized
		if step.Document != nil {
			doc, err := document.FromNative(step.Document)
			if err != nil {
				return nil, fmt.Errorf("rows[%d]: failed to convert document: %w", i, err)
			}
			data, err := document.Marshal(doc)
			if err != nil {
				return nil, fmt.Errorf("rows[%d]: failed to encode document: %w", i, err)
			}
			serialized = string(data)
		}
		rows = append(rows, store.Row{
			Key:        step.Key,
			GID:        step.GID,
			Version:    step.Version,
			Serialized: serialized,
		})
	}
	return rows, nil
}
