/*
Package sqldb implements the leave store interfaces over database/sql.

PURPOSE:
  One implementation of leave.Store, leave.AgentStore and leave.HolidayStore
  shared by SQLite and PostgreSQL. Queries are written with ? placeholders
  and rebound to $n for PostgreSQL. Only the primary key column type differs
  in the schema.

INTERFACES IMPLEMENTED:
  leave.Store:        Leave rows, origins, balances, certificates, WithTx
  leave.AgentStore:   Agent CRUD and listing
  leave.HolidayStore: Holiday calendar and HolidaySet

KEY TABLES:
  agents:        Identity and balance (balance stored as decimal text)
  leaves:        Leave intervals with status active|cancelled
  leave_origins: (child_id, parent_id) links recorded by splits
  certificates:  One stored attachment per leave
  holidays:      Non-working dates, unique per date

STORAGE FORMATS:
  Dates are TEXT in YYYY-MM-DD so lexical order is calendar order.
  Day counts and balances are TEXT decimals to avoid float drift.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. WithTx holds the write lock for the
  whole transaction, so calling autocommit Store methods from inside fn
  deadlocks. Use the Tx handed to fn.

MISSING ROWS:
  Getters return (nil, nil). Updates and deletes of a missing row return
  a *generic.NotFoundError.

SEE ALSO:
  - leave/store.go: Interface definitions
  - store/sqlite, store/postgres: Openers
*/
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/leave"
)

// Dialect selects placeholder style and schema details.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

func (d Dialect) String() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite"
}

var (
	_ leave.FullStore = (*Store)(nil)
	_ leave.Tx        = (*conn)(nil)
)

// Store implements every leave storage interface on a *sql.DB.
type Store struct {
	db      *sql.DB
	dialect Dialect
	mu      sync.RWMutex
}

// Open migrates the schema on db and returns a store over it.
func Open(ctx context.Context, db *sql.DB, dialect Dialect) (*Store, error) {
	s := &Store{db: db, dialect: dialect}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Dialect() Dialect { return s.dialect }

// DB exposes the underlying handle for tests and maintenance.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) conn() *conn { return &conn{q: s.db, dialect: s.dialect} }

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a database transaction. The error of fn is
// returned unchanged so callers can match their own error types.
func (s *Store) WithTx(ctx context.Context, fn func(tx leave.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&conn{q: sqlTx, dialect: s.dialect}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// =============================================================================
// AUTOCOMMIT LEAVE OPERATIONS (leave.Tx outside a transaction)
// =============================================================================

func (s *Store) GetLeave(ctx context.Context, id generic.LeaveID) (*leave.Leave, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn().GetLeave(ctx, id)
}

func (s *Store) QueryLeaves(ctx context.Context, q leave.LeaveQuery) ([]leave.Leave, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn().QueryLeaves(ctx, q)
}

func (s *Store) CreateLeave(ctx context.Context, l leave.Leave) (generic.LeaveID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn().CreateLeave(ctx, l)
}

func (s *Store) UpdateLeave(ctx context.Context, l leave.Leave) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn().UpdateLeave(ctx, l)
}

func (s *Store) SetLeaveStatus(ctx context.Context, id generic.LeaveID, status leave.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn().SetLeaveStatus(ctx, id, status)
}

func (s *Store) RemoveLeave(ctx context.Context, id generic.LeaveID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn().RemoveLeave(ctx, id)
}

func (s *Store) LinkOrigin(ctx context.Context, child, parent generic.LeaveID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn().LinkOrigin(ctx, child, parent)
}

func (s *Store) UnlinkOrigin(ctx context.Context, child, parent generic.LeaveID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn().UnlinkOrigin(ctx, child, parent)
}

func (s *Store) Origins(ctx context.Context, child generic.LeaveID) ([]leave.Leave, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn().Origins(ctx, child)
}

func (s *Store) Children(ctx context.Context, parent generic.LeaveID) ([]leave.Leave, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn().Children(ctx, parent)
}

func (s *Store) GetAgent(ctx context.Context, id generic.AgentID) (*leave.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn().GetAgent(ctx, id)
}

// AdjustBalance runs its read-modify-write in a transaction of its own.
func (s *Store) AdjustBalance(ctx context.Context, id generic.AgentID, delta decimal.Decimal) error {
	return s.WithTx(ctx, func(tx leave.Tx) error {
		return tx.AdjustBalance(ctx, id, delta)
	})
}

func (s *Store) GetCertificate(ctx context.Context, leaveID generic.LeaveID) (*leave.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn().GetCertificate(ctx, leaveID)
}

func (s *Store) SaveCertificate(ctx context.Context, c leave.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn().SaveCertificate(ctx, c)
}

func (s *Store) RemoveCertificate(ctx context.Context, leaveID generic.LeaveID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn().RemoveCertificate(ctx, leaveID)
}

// =============================================================================
// CONNECTION VIEW
// =============================================================================

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn runs queries on a *sql.DB or inside a *sql.Tx. It does no locking.
type conn struct {
	q       querier
	dialect Dialect
}

func (c *conn) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.q.ExecContext(ctx, rebind(c.dialect, query), args...)
}

func (c *conn) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.q.QueryContext(ctx, rebind(c.dialect, query), args...)
}

func (c *conn) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return c.q.QueryRowContext(ctx, rebind(c.dialect, query), args...)
}

// insert runs an INSERT ... RETURNING id and returns the new id.
func (c *conn) insert(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	if err := c.queryRow(ctx, query+" RETURNING id", args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// expectRow turns a zero-row update or delete into a NotFoundError.
func expectRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &generic.NotFoundError{Kind: kind, ID: id}
	}
	return nil
}

// rebind rewrites ? placeholders to $1, $2, ... for PostgreSQL.
func rebind(d Dialect, query string) string {
	if d != Postgres || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
