package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when no row matches a lookup.
var ErrNotFound = errors.New("entity row not found")

// Row is one persisted entity: its key, numeric group id, edit version and
// the serialized document. A NULL gid reads as zero.
type Row struct {
	Key        string
	GID        uint64
	Version    uint64
	Serialized string
}

const selectRows = `SELECT key, gid, version, serialized FROM entities`

// EachRow calls fn for every row ordered by key. Iteration stops at the
// first error from fn or when ctx is cancelled, and that error is returned.
// The store holds a single connection, so fn must not call back into it.
func (s *Store) EachRow(ctx context.Context, fn func(Row) error) error {
	rows, err := s.db.QueryContext(ctx, selectRows+` ORDER BY key COLLATE BINARY ASC`)
	if err != nil {
		return fmt.Errorf("query entities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		row, err := scanRow(rows)
		if err != nil {
			return err
		}
		if err := fn(row); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate entities: %w", err)
	}
	return nil
}

// ReadRow returns the row stored under key, or ErrNotFound.
func (s *Store) ReadRow(ctx context.Context, key string) (Row, error) {
	row, err := scanRow(s.db.QueryRowContext(ctx, selectRows+` WHERE key = ?`, key))
	if errors.Is(err, sql.ErrNoRows) {
		return Row{}, fmt.Errorf("key %q: %w", key, ErrNotFound)
	}
	return row, err
}

// ReadRowByGID returns the row with the given group id, or ErrNotFound.
func (s *Store) ReadRowByGID(ctx context.Context, gid uint64) (Row, error) {
	row, err := scanRow(s.db.QueryRowContext(ctx,
		selectRows+` WHERE gid = ? ORDER BY key COLLATE BINARY ASC LIMIT 1`, int64(gid)))
	if errors.Is(err, sql.ErrNoRows) {
		return Row{}, fmt.Errorf("gid %d: %w", gid, ErrNotFound)
	}
	return row, err
}

// CountRows returns the number of stored rows.
func (s *Store) CountRows(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entities`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entities: %w", err)
	}
	return n, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRow(sc scanner) (Row, error) {
	var (
		row     Row
		gid     sql.NullInt64
		version int64
	)
	if err := sc.Scan(&row.Key, &gid, &version, &row.Serialized); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Row{}, err
		}
		return Row{}, fmt.Errorf("scan entity: %w", err)
	}
	if gid.Valid {
		row.GID = uint64(gid.Int64)
	}
	row.Version = uint64(version)
	return row, nil
}
