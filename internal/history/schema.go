package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is stored in schema_version. Bump it with every change to schema.sql.
const schemaVersion = 1

// ErrSchemaMismatch is returned by Open when the ledger was written by a
// different schema version.
var ErrSchemaMismatch = errors.New("history schema version mismatch")

func (s *Store) ensureSchema(ctx context.Context) error {
	version, err := s.storedVersion(ctx)
	if err != nil {
		return err
	}
	switch version {
	case 0:
		return s.createSchema(ctx)
	case schemaVersion:
		return nil
	default:
		return fmt.Errorf("%w: %s has version %d, this build expects %d (move it aside to start a new ledger)",
			ErrSchemaMismatch, s.path, version, schemaVersion)
	}
}

// storedVersion returns 0 for a database that has never been initialized.
func (s *Store) storedVersion(ctx context.Context) (int, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'schema_version'`,
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("inspect schema: %w", err)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, `SELECT version FROM schema_version LIMIT 1`).Scan(&version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}

func (s *Store) createSchema(ctx context.Context) error {
	return withBusyRetry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (?)`, schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return tx.Commit()
	})
}
