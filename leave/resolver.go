package leave

import (
	"context"
	"fmt"

	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/metrics"
)

// =============================================================================
// CONFLICT RESOLVER
// =============================================================================

// Submit records a new leave, or modifies req.LeaveID when it is set.
//
// When the requested range overlaps active leave of the agent, every
// overlapping leave must be of the splittable type; otherwise an
// IllegalOverlapError is returned and nothing is written. A legal overlap is
// put to confirm before any transaction opens. A refusal returns ErrDeclined,
// a consent runs the split-and-replace transaction.
func (s *Service) Submit(ctx context.Context, req Request, confirm ConfirmFunc) (generic.LeaveID, error) {
	id, outcome, err := s.submit(ctx, req, confirm)
	s.Metrics.Submission(outcome)
	return id, err
}

func (s *Service) submit(ctx context.Context, req Request, confirm ConfirmFunc) (generic.LeaveID, string, error) {
	next, err := s.validate(req)
	if err != nil {
		return 0, metrics.OutcomeRejected, err
	}

	var old *Leave
	if req.LeaveID != 0 {
		if old, err = s.Store.GetLeave(ctx, req.LeaveID); err != nil {
			return 0, metrics.OutcomeFailed, generic.Storage("get leave", err)
		}
		if old == nil {
			return 0, metrics.OutcomeRejected, &generic.NotFoundError{Kind: "leave", ID: req.LeaveID.String()}
		}
		if !old.IsActive() {
			return 0, metrics.OutcomeRejected, &generic.ValidationError{Field: "leave_id", Message: "a cancelled leave cannot be modified"}
		}
		if next.AgentID == 0 {
			next.AgentID = old.AgentID
		}
		if next.AgentID != old.AgentID {
			return 0, metrics.OutcomeRejected, &generic.ValidationError{Field: "agent_id", Message: "a leave cannot move to another agent"}
		}
	}

	agent, err := s.Store.GetAgent(ctx, next.AgentID)
	if err != nil {
		return 0, metrics.OutcomeFailed, generic.Storage("get agent", err)
	}
	if agent == nil {
		return 0, metrics.OutcomeRejected, &generic.NotFoundError{Kind: "agent", ID: next.AgentID.String()}
	}

	// Wide enough for remainder segments that cross a year boundary.
	holidays, err := s.Holidays.HolidaySet(ctx, next.Start.Year()-1, next.End.Year()+2)
	if err != nil {
		return 0, metrics.OutcomeFailed, generic.Storage("load holidays", err)
	}
	if next.Type == s.Rules.Splittable && next.DaysTaken.IsZero() {
		next.DaysTaken = generic.Days(generic.BusinessDays(next.Start, next.End, holidays))
	}

	period := next.Period()
	overlaps, err := s.Store.QueryLeaves(ctx, LeaveQuery{
		AgentID:   next.AgentID,
		Status:    StatusActive,
		Overlaps:  &period,
		ExcludeID: req.LeaveID,
	})
	if err != nil {
		return 0, metrics.OutcomeFailed, generic.Storage("query overlaps", err)
	}

	if len(overlaps) == 0 {
		id, err := s.plainSave(ctx, next, old, req)
		if err != nil {
			return 0, metrics.OutcomeFailed, err
		}
		if old != nil {
			return id, metrics.OutcomeUpdated, nil
		}
		return id, metrics.OutcomeCreated, nil
	}

	if err := s.checkOverlaps(next.Type, overlaps); err != nil {
		return 0, metrics.OutcomeRejected, err
	}

	summary := Summary{AgentID: next.AgentID, Requested: period, Type: next.Type, Replaced: overlaps}
	if confirm == nil || !confirm(summary) {
		s.logger().Info("replacement declined", "agent_id", next.AgentID, "period", period.String(), "replaced", len(overlaps))
		return 0, metrics.OutcomeDeclined, generic.ErrDeclined
	}

	id, err := s.splitAndReplace(ctx, next, old, overlaps, holidays, req)
	if err != nil {
		if generic.IsClientError(err) || generic.IsNotFound(err) {
			return 0, metrics.OutcomeRejected, err
		}
		return 0, metrics.OutcomeFailed, err
	}
	return id, metrics.OutcomeSplit, nil
}

// validate checks the request without touching the store.
func (s *Service) validate(req Request) (Leave, error) {
	if req.AgentID <= 0 && req.LeaveID == 0 {
		return Leave{}, &generic.ValidationError{Field: "agent_id", Message: "required"}
	}

	start, err := generic.ParseDate(req.StartDate)
	if err != nil {
		return Leave{}, &generic.ValidationError{Field: "start_date", Message: err.Error()}
	}
	end, err := generic.ParseDate(req.EndDate)
	if err != nil {
		return Leave{}, &generic.ValidationError{Field: "end_date", Message: err.Error()}
	}
	if err := generic.NewPeriod(start, end).Validate(); err != nil {
		return Leave{}, &generic.ValidationError{Field: "end_date", Message: "must not be before start_date"}
	}

	if req.Type == "" {
		return Leave{}, &generic.ValidationError{Field: "type", Message: "required"}
	}
	if !s.Rules.IsKnown(req.Type) {
		return Leave{}, &generic.ValidationError{Field: "type", Message: fmt.Sprintf("unknown leave type %q", req.Type)}
	}

	// Annual leave may legitimately count zero days (a range covered by holidays).
	if req.DaysTaken.IsNegative() {
		return Leave{}, &generic.ValidationError{Field: "days_taken", Message: "must not be negative"}
	}
	if req.Type != s.Rules.Splittable && !req.DaysTaken.IsPositive() {
		return Leave{}, &generic.ValidationError{Field: "days_taken", Message: "must be positive"}
	}

	return Leave{
		AgentID:       req.AgentID,
		Type:          req.Type,
		Start:         start,
		End:           end,
		DaysTaken:     req.DaysTaken,
		Status:        StatusActive,
		Justification: req.Justification,
		InterimID:     req.InterimID,
	}, nil
}

// checkOverlaps fails unless every overlapping leave may be replaced.
func (s *Service) checkOverlaps(requested Type, overlaps []Leave) error {
	var blocking *generic.IllegalOverlapError
	for _, l := range overlaps {
		if l.Type == s.Rules.Splittable {
			continue
		}
		if blocking == nil {
			blocking = &generic.IllegalOverlapError{RequestedType: string(requested)}
		}
		blocking.BlockingTypes = appendUnique(blocking.BlockingTypes, string(l.Type))
		blocking.BlockingIDs = append(blocking.BlockingIDs, int64(l.ID))
	}
	if blocking != nil {
		return blocking
	}
	return nil
}

// plainSave inserts next, or rewrites old in place, when nothing overlaps.
func (s *Service) plainSave(ctx context.Context, next Leave, old *Leave, req Request) (generic.LeaveID, error) {
	rec := s.recorder()
	ops := &certOps{}
	var id generic.LeaveID

	err := s.Store.WithTx(ctx, func(tx Tx) error {
		if old == nil {
			created, err := rec.Insert(ctx, tx, next)
			if err != nil {
				return err
			}
			id = created
		} else {
			if err := rec.Update(ctx, tx, *old, next); err != nil {
				return err
			}
			if err := detachMovedOrigins(ctx, tx, old.ID, next.Period()); err != nil {
				return err
			}
			id = old.ID
		}
		next.ID = id
		return s.syncCertificate(ctx, tx, id, next, req, ops)
	})
	s.settle(ctx, ops, err)
	if err != nil {
		return 0, generic.Storage("save leave", err)
	}
	return id, nil
}

// detachMovedOrigins unlinks id from every split source it no longer shares a
// day with. A segment moved elsewhere is then no longer swept when that
// source is restored, and deleting it no longer undoes the split.
func detachMovedOrigins(ctx context.Context, tx Tx, id generic.LeaveID, period generic.Period) error {
	origins, err := tx.Origins(ctx, id)
	if err != nil {
		return fmt.Errorf("load origins: %w", err)
	}
	for _, o := range origins {
		if o.Period().Overlaps(period) {
			continue
		}
		if err := tx.UnlinkOrigin(ctx, id, o.ID); err != nil {
			return fmt.Errorf("unlink leave %s from %s: %w", id, o.ID, err)
		}
	}
	return nil
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}
