package leave

import (
	"context"

	"github.com/warp/leave-engine/generic"
)

// Audit lists active annual leave starting in year whose stored day count no
// longer matches the current holiday calendar. It never writes, and a storage
// failure is logged and reported as an empty result.
func (s *Service) Audit(ctx context.Context, year int) []Inconsistency {
	leaves, err := s.Store.QueryLeaves(ctx, LeaveQuery{
		Status:    StatusActive,
		Types:     []Type{s.Rules.Splittable},
		StartYear: year,
	})
	if err != nil {
		s.logger().Error("audit: query leaves", "year", year, "error", err)
		return nil
	}
	if len(leaves) == 0 {
		s.Metrics.AuditInconsistencies(0)
		return nil
	}

	last := year
	for _, l := range leaves {
		if l.End.Year() > last {
			last = l.End.Year()
		}
	}
	holidays, err := s.Holidays.HolidaySet(ctx, year, last)
	if err != nil {
		s.logger().Error("audit: load holidays", "year", year, "error", err)
		return nil
	}

	var out []Inconsistency
	for _, l := range leaves {
		n := generic.BusinessDays(l.Start, l.End, holidays)
		if !l.DaysTaken.Equal(generic.Days(n)) {
			out = append(out, Inconsistency{Leave: l, Recalculated: n})
		}
	}
	s.Metrics.AuditInconsistencies(len(out))
	if len(out) > 0 {
		s.logger().Info("audit found inconsistencies", "year", year, "count", len(out))
	}
	return out
}
