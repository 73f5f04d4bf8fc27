package store

import (
	"context"
	"fmt"
)

// PutRow inserts or replaces the row stored under row.Key.
// A zero GID is stored as NULL.
func (s *Store) PutRow(ctx context.Context, row Row) error {
	if _, err := s.db.ExecContext(ctx, upsertRow, rowArgs(row)...); err != nil {
		return fmt.Errorf("put entity %q: %w", row.Key, err)
	}
	return nil
}

// PutRows writes rows in a single transaction: either every row is written
// or none is.
func (s *Store) PutRows(ctx context.Context, rows []Row) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertRow)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, rowArgs(row)...); err != nil {
			return fmt.Errorf("put entity %q: %w", row.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

const upsertRow = `
	INSERT INTO entities (key, version, gid, serialized)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET
		version = excluded.version,
		gid = excluded.gid,
		serialized = excluded.serialized
`

func rowArgs(row Row) []any {
	var gid any
	if row.GID != 0 {
		gid = int64(row.GID)
	}
	return []any{row.Key, int64(row.Version), gid, row.Serialized}
}
