// Package sqlite stores the history blob as a single row in a one-table
// SQLite database (spec §11.1), using modernc.org/sqlite's pure-Go driver
// so the backend needs no cgo toolchain — the teacher's own choice for its
// embeddable/test backend.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/sodiumhq/kanacore/internal/sqlblob"
	"github.com/sodiumhq/kanacore/storage"
)

const table = "kanacore_history_blob"

// New opens (or creates) the SQLite database at path and returns a
// storage.Backend backed by it.
func New(path string) (storage.Backend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	b := sqlblob.New(db, table, nil)
	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (id INTEGER PRIMARY KEY, blob BLOB)", table)
	if err := b.EnsureTable(ddl); err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}
