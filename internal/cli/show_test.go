package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlewallen/dimsum/internal/document"
)

type showResponse struct {
	Status string `json:"status"`
	Data   struct {
		Key        string                     `json:"key"`
		GID        uint64                     `json:"gid"`
		Digest     string                     `json:"digest"`
		Components map[string]json.RawMessage `json:"components"`
		References []struct {
			Path string `json:"path"`
			Ref  struct {
				Key string `json:"key"`
			} `json:"ref"`
		} `json:"references"`
	} `json:"data"`
	Error *CLIError `json:"error"`
}

func TestShowCommand_Text(t *testing.T) {
	path := sampleWorld(t)

	out, _, err := execute(t, "--db", path, "show", "hall")
	require.NoError(t, err)
	assert.Contains(t, out, "Entity hall (class area, version 1, gid 2)")
	assert.Contains(t, out, "Parent   -")
	assert.Contains(t, out, "  containing\n")
	assert.Contains(t, out, `scopes.containing.holding[0] -> box (ItemClass "Box")`)
	assert.Contains(t, out, `scopes.containing.holding[1] -> ghost (ItemClass "Ghost")`)
}

func TestShowCommand_ByGID(t *testing.T) {
	path := sampleWorld(t)

	out, _, err := execute(t, "--db", path, "show", "--gid", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Entity box")
	assert.Contains(t, out, `Parent   world (WorldClass "World")`)
	assert.Contains(t, out, "  carryable\n")
}

func TestShowCommand_JSONDigest(t *testing.T) {
	path := sampleWorld(t)

	out, _, err := execute(t, "--db", path, "--format", "json", "show", "box")
	require.NoError(t, err)

	var resp showResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "box", resp.Data.Key)
	assert.Equal(t, uint64(3), resp.Data.GID)
	assert.Contains(t, resp.Data.Components, "carryable")

	doc, err := document.ParseString(boxBuilder().JSON())
	require.NoError(t, err)
	assert.Equal(t, document.MustFingerprint(document.DomainDocument, doc), resp.Data.Digest)

	require.Len(t, resp.Data.References, 1)
	assert.Equal(t, "parent", resp.Data.References[0].Path)
	assert.Equal(t, "world", resp.Data.References[0].Ref.Key)
}

func TestShowCommand_DigestIgnoresFormatting(t *testing.T) {
	compact, err := digestOf(`{"b":1,"a":[true,null]}`)
	require.NoError(t, err)
	spaced, err := digestOf("{\n  \"a\": [true, null],\n  \"b\": 1\n}")
	require.NoError(t, err)
	assert.Equal(t, compact, spaced)

	withFloat, err := digestOf(`{"b":1.0,"a":[true,null]}`)
	require.NoError(t, err)
	assert.NotEqual(t, compact, withFloat)
}

func TestShowCommand_NotFound(t *testing.T) {
	path := sampleWorld(t)

	out, _, err := execute(t, "--db", path, "show", "nobody")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E002]: entity not found")
}

func TestShowCommand_DecodeFailure(t *testing.T) {
	path := sampleWorld(t)

	out, _, err := execute(t, "--db", path, "--format", "json", "show", "broken")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp showResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "DOCUMENT_PARSE", resp.Error.Code)
}

func TestShowCommand_NeedsExactlyOneSelector(t *testing.T) {
	path := sampleWorld(t)

	_, _, err := execute(t, "--db", path, "show")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, _, err = execute(t, "--db", path, "show", "box", "--gid", "3")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
