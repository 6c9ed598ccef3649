// Package postgres stores the history blob as a single row in a
// user-owned PostgreSQL table (spec §11.1 "roaming-sync history
// backends"), for multi-device history sync. It round-trips the opaque
// blob only.
package postgres

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/sodiumhq/kanacore/internal/sqlblob"
	"github.com/sodiumhq/kanacore/storage"
)

const table = "kanacore_history_blob"

// New opens a PostgreSQL connection using dsn (the lib/pq DSN format) and
// returns a storage.Backend backed by it.
func New(dsn string) (storage.Backend, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	b := sqlblob.New(db, table, func(n int) string { return fmt.Sprintf("$%d", n) })
	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (id INTEGER PRIMARY KEY, blob BYTEA)", table)
	if err := b.EnsureTable(ddl); err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}
