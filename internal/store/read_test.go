package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEachRow_OrderedByKey(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"c", "a", "B", "b"} {
		require.NoError(t, s.PutRow(ctx, createTestRow(key, 0)))
	}

	var keys []string
	err := s.EachRow(ctx, func(r Row) error {
		keys = append(keys, r.Key)
		return nil
	})
	require.NoError(t, err)

	// COLLATE BINARY: uppercase before lowercase
	assert.Equal(t, []string{"B", "a", "b", "c"}, keys)
}

func TestEachRow_StopsOnError(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutRows(ctx, []Row{createTestRow("a", 1), createTestRow("b", 2)}))

	stop := errors.New("stop")
	visited := 0
	err := s.EachRow(ctx, func(Row) error {
		visited++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, visited)
}

func TestEachRow_Cancelled(t *testing.T) {
	s := createTestStore(t)
	require.NoError(t, s.PutRow(context.Background(), createTestRow("a", 1)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.EachRow(ctx, func(Row) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadRow(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	want := Row{Key: "e1", GID: 12, Version: 4, Serialized: `{"key":"e1"}`}
	require.NoError(t, s.PutRow(ctx, want))

	got, err := s.ReadRow(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReadRow_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadRow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "missing")
}

func TestReadRowByGID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutRows(ctx, []Row{createTestRow("a", 1), createTestRow("b", 2)}))

	got, err := s.ReadRowByGID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "b", got.Key)

	_, err = s.ReadRowByGID(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNullGIDReadsAsZero(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutRow(ctx, createTestRow("a", 0)))

	var isNull bool
	require.NoError(t, s.db.QueryRow(`SELECT gid IS NULL FROM entities WHERE key = 'a'`).Scan(&isNull))
	assert.True(t, isNull)

	got, err := s.ReadRow(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), got.GID)
}

func TestCountRows(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	n, err := s.CountRows(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, s.PutRows(ctx, []Row{createTestRow("a", 1), createTestRow("b", 2)}))

	n, err = s.CountRows(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
