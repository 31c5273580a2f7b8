/*
store.go - Persistence interfaces for leave, agent and holiday records

PURPOSE:
  Defines the boundary between the leave core and the relational store.
  The store only persists rows. Balance effects, certificate handling and
  origin bookkeeping live in recorder.go so every debit and credit flows
  through one place.

KEY INTERFACES:
  Tx:           Reads and writes scoped to one transaction (non-committing)
  Store:        Tx in autocommit mode plus WithTx for atomic batches
  AgentStore:   Agent CRUD and listing
  HolidayStore: Holiday calendar maintenance and the HolidaySet provider

ATOMIC BATCHES:
  WithTx(fn) commits when fn returns nil and rolls back otherwise. The split
  and restore operations compose many Tx calls inside a single WithTx so no
  partial segment set or half-restored split is ever visible.

MISSING ROWS:
  Single-row getters return (nil, nil) when the row does not exist.

IMPLEMENTATIONS:
  - store/sqldb: database/sql implementation (SQLite and PostgreSQL)

SEE ALSO:
  - recorder.go: Balance-aware insert/remove/cancel primitives
  - store/sqlite, store/postgres: Openers
*/
package leave

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/warp/leave-engine/generic"
)

// LeaveQuery selects leave rows. Zero-valued fields do not filter.
type LeaveQuery struct {
	AgentID   generic.AgentID
	Status    Status
	Types     []Type
	Overlaps  *generic.Period // intersects the inclusive range
	StartYear int             // start date falls in this year
	ExcludeID generic.LeaveID
	OnDay     *generic.TimePoint // shorthand for Overlaps of a single day
}

// Tx is the set of operations available inside (or outside) a transaction.
type Tx interface {
	GetLeave(ctx context.Context, id generic.LeaveID) (*Leave, error)
	QueryLeaves(ctx context.Context, q LeaveQuery) ([]Leave, error)
	CreateLeave(ctx context.Context, l Leave) (generic.LeaveID, error)
	UpdateLeave(ctx context.Context, l Leave) error
	SetLeaveStatus(ctx context.Context, id generic.LeaveID, status Status) error
	RemoveLeave(ctx context.Context, id generic.LeaveID) error

	// LinkOrigin records that child was carved out of parent by a split.
	LinkOrigin(ctx context.Context, child, parent generic.LeaveID) error
	// UnlinkOrigin forgets that child came from parent.
	UnlinkOrigin(ctx context.Context, child, parent generic.LeaveID) error
	// Origins returns the parents of child.
	Origins(ctx context.Context, child generic.LeaveID) ([]Leave, error)
	// Children returns the leaves carved out of parent.
	Children(ctx context.Context, parent generic.LeaveID) ([]Leave, error)

	GetAgent(ctx context.Context, id generic.AgentID) (*Agent, error)
	AdjustBalance(ctx context.Context, id generic.AgentID, delta decimal.Decimal) error

	GetCertificate(ctx context.Context, leaveID generic.LeaveID) (*Certificate, error)
	SaveCertificate(ctx context.Context, c Certificate) error
	RemoveCertificate(ctx context.Context, leaveID generic.LeaveID) error
}

// Store runs Tx operations in autocommit mode and groups them with WithTx.
type Store interface {
	Tx

	// WithTx executes fn within a transaction.
	// If fn returns error, transaction is rolled back.
	// If fn returns nil, transaction is committed.
	WithTx(ctx context.Context, fn func(Tx) error) error
}

// AgentQuery filters agent listings.
type AgentQuery struct {
	Term   string // matched against names and employee number
	Limit  int
	Offset int
}

type AgentStore interface {
	CreateAgent(ctx context.Context, a Agent) (generic.AgentID, error)
	UpdateAgent(ctx context.Context, a Agent) error
	DeleteAgent(ctx context.Context, id generic.AgentID) error
	GetAgent(ctx context.Context, id generic.AgentID) (*Agent, error)
	ListAgents(ctx context.Context, q AgentQuery) ([]Agent, error)
	CountAgents(ctx context.Context, term string) (int, error)
}

// HolidayProvider returns the non-working dates of a year range.
type HolidayProvider interface {
	HolidaySet(ctx context.Context, fromYear, toYear int) (generic.HolidaySet, error)
}

type HolidayStore interface {
	HolidayProvider
	SaveHoliday(ctx context.Context, h Holiday) error
	DeleteHoliday(ctx context.Context, date generic.TimePoint) error
	HolidaysForYear(ctx context.Context, year int) ([]Holiday, error)
}

// FullStore is what the service needs from a single database.
type FullStore interface {
	Store
	AgentStore
	HolidayStore
}
