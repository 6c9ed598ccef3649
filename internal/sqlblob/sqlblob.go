// Package sqlblob implements storage.Backend as a single row in a
// user-owned SQL table, shared by storage/sqlite, storage/mysql,
// storage/postgres and storage/mssql (spec §11.1 "roaming-sync history
// backends"). These backends round-trip the opaque blob only; they never
// interpret it.
package sqlblob

import (
	"database/sql"
	"fmt"
)

// Backend stores the blob as the single row (id=1) of table, reached
// through db. placeholder renders the n-th bind parameter in the SQL
// dialect db speaks (mysql/sqlite use "?", postgres uses "$1", mssql uses
// "@p1").
type Backend struct {
	db          *sql.DB
	table       string
	placeholder func(n int) string
}

// New wraps an already-open *sql.DB. Callers are responsible for opening
// db with the dialect-appropriate driver name and DSN (spec.md leaves the
// storage collaborator's construction to its concrete backend).
func New(db *sql.DB, table string, placeholder func(n int) string) *Backend {
	if placeholder == nil {
		placeholder = func(int) string { return "?" }
	}
	return &Backend{db: db, table: table, placeholder: placeholder}
}

// EnsureTable creates the backing table if it does not already exist. ddl
// is dialect-specific; callers supply it because column type syntax
// (BLOB/BYTEA/VARBINARY) differs across backends.
func (b *Backend) EnsureTable(ddl string) error {
	if _, err := b.db.Exec(ddl); err != nil {
		return fmt.Errorf("sqlblob: ensure table %s: %w", b.table, err)
	}
	return nil
}

func (b *Backend) Load() ([]byte, error) {
	row := b.db.QueryRow(fmt.Sprintf("SELECT blob FROM %s WHERE id = 1", b.table))
	var blob []byte
	if err := row.Scan(&blob); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlblob: load: %w", err)
	}
	return blob, nil
}

// Save performs a full rewrite of the single row (spec §5 "save is a full
// rewrite, not an update-in-place").
func (b *Backend) Save(blob []byte) error {
	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("sqlblob: begin: %w", err)
	}
	if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE id = 1", b.table)); err != nil {
		tx.Rollback()
		return fmt.Errorf("sqlblob: delete: %w", err)
	}
	insert := fmt.Sprintf("INSERT INTO %s (id, blob) VALUES (1, %s)", b.table, b.placeholder(1))
	if _, err := tx.Exec(insert, blob); err != nil {
		tx.Rollback()
		return fmt.Errorf("sqlblob: insert: %w", err)
	}
	return tx.Commit()
}

func (b *Backend) Close() error {
	return b.db.Close()
}
