// Package postgres opens the leave store on PostgreSQL through the pgx
// database/sql driver. Queries are shared with SQLite in store/sqldb.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	"github.com/warp/leave-engine/store/sqldb"
)

const driver = "pgx"

// DefaultDSN is used when New receives an empty DSN.
const DefaultDSN = "postgres://localhost/leave?sslmode=disable"

// New connects, pings and migrates.
func New(ctx context.Context, dsn string) (*sqldb.Store, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store, err := sqldb.Open(ctx, db, sqldb.Postgres)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}
