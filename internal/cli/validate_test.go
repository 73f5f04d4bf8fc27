package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlewallen/dimsum/internal/testutil"
)

func writeDocument(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "entity.json")
	require.NoError(t, os.WriteFile(path, []byte(text), 0644))
	return path
}

func TestValidateCommand_Valid(t *testing.T) {
	path := writeDocument(t, testutil.NewEntity("e1").
		Scope("carryable", testutil.Carryable(true, 2)).
		Scope("mysteryTag", map[string]any{}).
		JSON())

	out, _, err := execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ e1 decodes with 2 component(s)")
	assert.Contains(t, out, "unrecognized: mysteryTag")
}

func TestValidateCommand_ShapeMismatchJSON(t *testing.T) {
	path := writeDocument(t, testutil.NewEntity("e1").
		Scope("occupyable", map[string]any{"occupied": []any{}}).
		JSON())

	out, _, err := execute(t, "--format", "json", "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.NotNil(t, resp.Data.Error)
	assert.Equal(t, "COMPONENT_SHAPE_MISMATCH", resp.Data.Error.Kind)
	assert.Equal(t, "scopes.occupyable.occupancy", resp.Data.Error.Path)
	assert.Equal(t, "e1", resp.Data.Key)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "COMPONENT_SHAPE_MISMATCH", resp.Error.Code)
}

func TestValidateCommand_ParseError(t *testing.T) {
	path := writeDocument(t, `{"key":"e9","version":`)

	out, _, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ ")
	assert.Contains(t, out, "DOCUMENT_PARSE")
}

func TestValidateCommand_MissingFile(t *testing.T) {
	_, _, err := execute(t, "validate", "/nonexistent/entity.json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
