package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jlewallen/dimsum/internal/store"
	"github.com/jlewallen/dimsum/internal/testutil"
)

// execute runs the root command with args and returns stdout, stderr and
// the command error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// seedWorld writes rows to a fresh database file and returns its path.
func seedWorld(t *testing.T, rows ...store.Row) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "world.sqlite3")
	st, err := store.Open(path)
	require.NoError(t, err)
	require.NoError(t, st.PutRows(context.Background(), rows))
	require.NoError(t, st.Close())
	return path
}

func entityRow(b *testutil.EntityBuilder, gid uint64) store.Row {
	return store.Row{
		Key:        b.Map()["key"].(string),
		GID:        gid,
		Version:    1,
		Serialized: b.JSON(),
	}
}

func worldBuilder() *testutil.EntityBuilder {
	return testutil.NewEntity("world").
		Class("world").
		Scope("wellKnown", map[string]any{"entities": map[string]any{"welcome": "hall"}})
}

func hallBuilder() *testutil.EntityBuilder {
	return testutil.NewEntity("hall").
		Class("area").
		Scope("containing", testutil.Containing(false,
			testutil.Ref("box", "ItemClass", "Box"),
			testutil.Ref("ghost", "ItemClass", "Ghost"),
		))
}

func boxBuilder() *testutil.EntityBuilder {
	return testutil.NewEntity("box").
		Parent("world", "WorldClass", "World").
		Scope("carryable", testutil.Carryable(true, 1))
}

// sampleWorld has one undecodable row and one reference to a missing entity
// (hall holds "ghost").
func sampleWorld(t *testing.T) string {
	t.Helper()
	return seedWorld(t,
		entityRow(worldBuilder(), 1),
		entityRow(hallBuilder(), 2),
		entityRow(boxBuilder(), 3),
		store.Row{Key: "broken", GID: 4, Version: 1, Serialized: `{"key":"broken",`},
	)
}

// healthyWorld has no failures and no dangling references.
func healthyWorld(t *testing.T) string {
	t.Helper()
	return seedWorld(t,
		entityRow(worldBuilder(), 1),
		entityRow(testutil.NewEntity("hall").Class("area"), 2),
		entityRow(boxBuilder(), 3),
	)
}
