package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalScenario = `
name: test_scenario
description: "Test scenario for validation"
rows:
  - key: e1
    document:
      key: e1
      version: { i: 1 }
assertions:
  - type: processed
    count: 1
`

func TestLoadScenario_ValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalScenario), 0644))

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "Test scenario for validation", scenario.Description)
	require.Len(t, scenario.Rows, 1)
	assert.Equal(t, "e1", scenario.Rows[0].Key)
	assert.Equal(t, "e1", scenario.Rows[0].Document["key"])
	require.Len(t, scenario.Assertions, 1)
	assert.Equal(t, AssertProcessed, scenario.Assertions[0].Type)
	assert.Equal(t, 1, scenario.Assertions[0].Count)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(minimalScenario + "assertion: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "missing name",
			content: "description: d\nrows: [{key: a, serialized: x}]\nassertions: [{type: processed}]\n",
			want:    "name is required",
		},
		{
			name:    "missing description",
			content: "name: n\nrows: [{key: a, serialized: x}]\nassertions: [{type: processed}]\n",
			want:    "description is required",
		},
		{
			name:    "no rows",
			content: "name: n\ndescription: d\nassertions: [{type: processed}]\n",
			want:    "rows list is required",
		},
		{
			name:    "no assertions",
			content: "name: n\ndescription: d\nrows: [{key: a, serialized: x}]\n",
			want:    "assertions list is required",
		},
		{
			name:    "row without key",
			content: "name: n\ndescription: d\nrows: [{serialized: x}]\nassertions: [{type: processed}]\n",
			want:    "rows[0]: key is required",
		},
		{
			name:    "duplicate key",
			content: "name: n\ndescription: d\nrows: [{key: a, serialized: x}, {key: a, serialized: y}]\nassertions: [{type: processed}]\n",
			want:    `rows[1]: duplicate key "a"`,
		},
		{
			name:    "row with both bodies",
			content: "name: n\ndescription: d\nrows: [{key: a, serialized: x, document: {key: a}}]\nassertions: [{type: processed}]\n",
			want:    "exactly one of document or serialized",
		},
		{
			name:    "row with no body",
			content: "name: n\ndescription: d\nrows: [{key: a}]\nassertions: [{type: processed}]\n",
			want:    "exactly one of document or serialized",
		},
		{
			name:    "unknown assertion type",
			content: "name: n\ndescription: d\nrows: [{key: a, serialized: x}]\nassertions: [{type: trace_order}]\n",
			want:    `unknown assertion type "trace_order"`,
		},
		{
			name:    "failure without kind",
			content: "name: n\ndescription: d\nrows: [{key: a, serialized: x}]\nassertions: [{type: failure, key: a}]\n",
			want:    "kind must be one of",
		},
		{
			name:    "tag_count without tag",
			content: "name: n\ndescription: d\nrows: [{key: a, serialized: x}]\nassertions: [{type: tag_count, count: 1}]\n",
			want:    "tag is required for tag_count",
		},
		{
			name:    "negative count",
			content: "name: n\ndescription: d\nrows: [{key: a, serialized: x}]\nassertions: [{type: processed, count: -1}]\n",
			want:    "count must be non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenarios_SortedByFileName(t *testing.T) {
	dir := t.TempDir()
	second := "name: second\ndescription: d\nrows: [{key: a, serialized: x}]\nassertions: [{type: processed}]\n"
	first := "name: first\ndescription: d\nrows: [{key: a, serialized: x}]\nassertions: [{type: processed}]\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte(second), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(first), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	scenarios, err := LoadScenarios(dir)
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "first", scenarios[0].Name)
	assert.Equal(t, "second", scenarios[1].Name)
}

func TestLoadScenarios_ReportsFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: x\n"), 0644))

	_, err := LoadScenarios(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.yaml")
}

func TestLoadScenarios_Testdata(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)
	require.Len(t, scenarios, 3)
	assert.Equal(t, "fail_fast_world", scenarios[0].Name)
	assert.Equal(t, "legacy_world", scenarios[1].Name)
	assert.Equal(t, "mixed_world", scenarios[2].Name)
}
