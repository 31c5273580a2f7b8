/*
Package sqlite opens the leave store on a SQLite database.

PURPOSE:
  Thin opener over store/sqldb. All queries live there; this package picks
  the driver, the DSN options and the pool size.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) and foreign keys on:
  - Multiple readers don't block
  - Single writer at a time
  - ON DELETE CASCADE keeps origins and certificates in step with leaves

CONNECTIONS:
  The pool is capped at one connection. ":memory:" databases are per
  connection, and a single writer is all the leave core needs.

USAGE:
  store, err := sqlite.New("./data/leave.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := leave.NewService(store)

SEE ALSO:
  - store/sqldb: Shared implementation
  - store/postgres: PostgreSQL opener
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/leave-engine/store/sqldb"
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*sqldb.Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store, err := sqldb.Open(context.Background(), db, sqldb.SQLite)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}
