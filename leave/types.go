// Package leave implements the leave ledger: conflict resolution, reversible
// splitting of annual leave, restoration on delete and the day-count audit.
package leave

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/leave-engine/generic"
)

// =============================================================================
// LEAVE TYPES & STATUS
// =============================================================================

// Type is a configured leave type such as "annual" or "sick".
type Type string

const (
	TypeAnnual Type = "annual"
	TypeSick   Type = "sick"
	TypeOther  Type = "other"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
)

// TypeRules tells the engine how each leave type behaves.
type TypeRules struct {
	// Splittable is the only type an overlapping request may absorb.
	Splittable Type
	// Known lists the accepted types. Empty accepts any non-empty type.
	Known []Type
	// DebitsBalance marks types whose days are taken from the agent balance.
	DebitsBalance map[Type]bool
	// RequiresCertificate marks types that carry a medical certificate.
	RequiresCertificate map[Type]bool
}

// DefaultTypeRules mirrors the stock configuration.
func DefaultTypeRules() TypeRules {
	return TypeRules{
		Splittable:          TypeAnnual,
		Known:               []Type{TypeAnnual, TypeSick, TypeOther},
		DebitsBalance:       map[Type]bool{TypeAnnual: true},
		RequiresCertificate: map[Type]bool{TypeSick: true},
	}
}

func (r TypeRules) IsKnown(t Type) bool {
	if len(r.Known) == 0 {
		return t != ""
	}
	for _, k := range r.Known {
		if k == t {
			return true
		}
	}
	return false
}

// BalanceEffect is the amount a leave of this type removes from the balance.
func (r TypeRules) BalanceEffect(t Type, days decimal.Decimal) decimal.Decimal {
	if r.DebitsBalance[t] {
		return days
	}
	return decimal.Zero
}

// =============================================================================
// RECORDS
// =============================================================================

type Agent struct {
	ID             generic.AgentID
	LastName       string
	FirstName      string
	EmployeeNumber string
	Grade          string
	Balance        decimal.Decimal
}

func (a Agent) FullName() string { return a.LastName + " " + a.FirstName }

type Leave struct {
	ID            generic.LeaveID
	AgentID       generic.AgentID
	Type          Type
	Start         generic.TimePoint
	End           generic.TimePoint
	DaysTaken     decimal.Decimal
	Status        Status
	Justification string
	InterimID     *generic.AgentID
}

func (l Leave) Period() generic.Period { return generic.NewPeriod(l.Start, l.End) }
func (l Leave) IsActive() bool         { return l.Status == StatusActive }

// Certificate records the stored attachment of a leave.
type Certificate struct {
	LeaveID   generic.LeaveID
	Days      decimal.Decimal
	Ref       string
	CreatedAt time.Time
}

type HolidayKind string

const (
	HolidayAutomatic HolidayKind = "automatic"
	HolidayCustom    HolidayKind = "custom"
)

type Holiday struct {
	Date generic.TimePoint
	Name string
	Kind HolidayKind
}

// =============================================================================
// REQUESTS & RESULTS
// =============================================================================

// Request is a submitted or modified leave as typed by a user.
// Dates stay as text until validation so malformed input is reported, not panicked on.
type Request struct {
	LeaveID       generic.LeaveID // set when modifying
	AgentID       generic.AgentID
	Type          Type
	StartDate     string
	EndDate       string
	DaysTaken     decimal.Decimal
	Justification string
	InterimID     *generic.AgentID

	// CertificatePath is a local file to attach. Empty keeps (or, when the
	// type no longer needs one, drops) the current certificate.
	CertificatePath string
}

// Summary describes what a confirmed replacement will do.
type Summary struct {
	AgentID   generic.AgentID
	Requested generic.Period
	Type      Type
	Replaced  []Leave
}

// ConfirmFunc is the caller's consent to replace the annual leave in the summary.
// It runs before any transaction opens.
type ConfirmFunc func(Summary) bool

// AlwaysConfirm accepts every replacement. Batch callers and tests use it.
func AlwaysConfirm(Summary) bool { return true }

// NeverConfirm declines every replacement.
func NeverConfirm(Summary) bool { return false }

// Inconsistency is an annual leave whose stored count disagrees with the calendar.
type Inconsistency struct {
	Leave        Leave
	Recalculated int
}

// CertificateStatus filters sick leave by attachment state.
type CertificateStatus string

const (
	CertificateMissing   CertificateStatus = "missing"
	CertificateJustified CertificateStatus = "justified"
)

// CertifiedLeave pairs a leave with its agent and optional certificate.
type CertifiedLeave struct {
	Leave       Leave
	Agent       Agent
	Certificate *Certificate
}
