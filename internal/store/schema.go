package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	_ "embed"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the only layout this build reads and writes.
const schemaVersion = 1

// ErrSchemaVersion is returned when the database was written with a
// different schema version.
var ErrSchemaVersion = errors.New("unsupported schema version")

// migrate creates the tables if needed, stamps a fresh database with
// schemaVersion and refuses databases stamped with anything else.
func migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	stored, err := storedVersion(ctx, tx)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO metadata(key, value) VALUES('schema_version', ?)",
			strconv.Itoa(schemaVersion)); err != nil {
			return fmt.Errorf("stamp schema version: %w", err)
		}
	case err != nil:
		return err
	case stored != schemaVersion:
		return fmt.Errorf("%w: database has %d, sitewatch supports %d", ErrSchemaVersion, stored, schemaVersion)
	}

	return tx.Commit()
}

func storedVersion(ctx context.Context, tx *sql.Tx) (int, error) {
	var raw string
	err := tx.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = 'schema_version'").Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, err
		}
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrSchemaVersion, raw)
	}
	return v, nil
}
