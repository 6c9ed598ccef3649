// Package mysql stores the history blob as a single row in a user-owned
// MySQL table (spec §11.1 "roaming-sync history backends"), for
// multi-device history sync. It round-trips the opaque blob only.
package mysql

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"github.com/sodiumhq/kanacore/internal/sqlblob"
	"github.com/sodiumhq/kanacore/storage"
)

const table = "kanacore_history_blob"

// New opens a MySQL connection using dsn (the github.com/go-sql-driver/mysql
// DSN format) and returns a storage.Backend backed by it.
func New(dsn string) (storage.Backend, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("mysql: open: %w", err)
	}
	b := sqlblob.New(db, table, nil)
	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (id INT PRIMARY KEY, blob LONGBLOB)", table)
	if err := b.EnsureTable(ddl); err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}
