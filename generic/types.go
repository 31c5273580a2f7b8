/*
Package generic provides the domain-agnostic primitives of the leave engine.

PURPOSE:
  Calendar arithmetic, identifiers and error families that the leave core,
  the stores and the transports all share. Nothing here knows what a leave
  type is or how a balance is debited.

KEY CONCEPTS:
  - TimePoint: A calendar day (time.go)
  - Period: An inclusive range of days (time.go)
  - HolidaySet / BusinessDays: Working-day counting (time.go)
  - AgentID / LeaveID: Store-assigned identifiers (this file)
  - Days: Day quantities as decimal.Decimal (this file)

DESIGN PRINCIPLES:
  1. Precision: Balances and day counts use decimal.Decimal, never float64
  2. Type Safety: Distinct ID types prevent passing an agent id as a leave id
  3. Purity: Everything in this package is deterministic and side-effect free

SEE ALSO:
  - errors.go: Error families
  - leave/types.go: Domain records built on these primitives
*/
package generic

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type AgentID int64
type LeaveID int64

func (id AgentID) String() string { return strconv.FormatInt(int64(id), 10) }
func (id LeaveID) String() string { return strconv.FormatInt(int64(id), 10) }

func ParseLeaveID(s string) (LeaveID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	return LeaveID(n), err
}

func ParseAgentID(s string) (AgentID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	return AgentID(n), err
}

// =============================================================================
// DAYS - Day quantities
// =============================================================================

// Days converts a whole day count to a decimal quantity.
func Days(n int) decimal.Decimal { return decimal.NewFromInt(int64(n)) }

// ParseDays parses a day quantity, accepting a decimal comma.
func ParseDays(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	b := []byte(s)
	for i, c := range b {
		if c == ',' {
			b[i] = '.'
		}
	}
	return decimal.NewFromString(string(b))
}
