// Package mssql stores the history blob as a single row in a user-owned
// SQL Server table (spec §11.1 "roaming-sync history backends"), for
// multi-device history sync. It round-trips the opaque blob only.
package mssql

import (
	"database/sql"
	"fmt"

	_ "github.com/denisenkom/go-mssqldb"

	"github.com/sodiumhq/kanacore/internal/sqlblob"
	"github.com/sodiumhq/kanacore/storage"
)

const table = "kanacore_history_blob"

// New opens a SQL Server connection using dsn (the go-mssqldb DSN format)
// and returns a storage.Backend backed by it.
func New(dsn string) (storage.Backend, error) {
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("mssql: open: %w", err)
	}
	b := sqlblob.New(db, table, func(n int) string { return fmt.Sprintf("@p%d", n) })
	ddl := fmt.Sprintf("IF NOT EXISTS (SELECT * FROM sysobjects WHERE name='%s' AND xtype='U') CREATE TABLE %s (id INT PRIMARY KEY, blob VARBINARY(MAX))", table, table)
	if err := b.EnsureTable(ddl); err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}
