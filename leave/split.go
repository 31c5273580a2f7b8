package leave

import (
	"context"
	"fmt"

	"github.com/warp/leave-engine/generic"
)

// =============================================================================
// SPLIT-AND-REPLACE
// =============================================================================
//
// Runs after the caller confirmed the replacement. Inside one transaction:
//
//   1. A modified leave is removed (its days credited). The record that
//      replaces it keeps those origins it still shares days with.
//   2. Overlapping active leave is re-read. It must be exactly the set the
//      caller confirmed, otherwise ErrStaleConfirmation.
//   3. Every overlapped annual leave is cancelled and its uncovered head and
//      tail are re-created as new segments, counted against the holiday set.
//   4. The requested leave is inserted.
//   5. Segments and the new leave are linked to the leave they came from, so
//      deleting the new leave can undo the split.
//
// Any error rolls the whole batch back.

func (s *Service) splitAndReplace(ctx context.Context, next Leave, old *Leave, confirmed []Leave, holidays generic.HolidaySet, req Request) (generic.LeaveID, error) {
	rec := s.recorder()
	ops := &certOps{}
	var (
		id       generic.LeaveID
		segments int
		replaced []generic.LeaveID
	)

	err := s.Store.WithTx(ctx, func(tx Tx) error {
		var inherited []generic.LeaveID
		if old != nil {
			current, err := tx.GetLeave(ctx, old.ID)
			if err != nil {
				return fmt.Errorf("reload leave %s: %w", old.ID, err)
			}
			if current == nil {
				return &generic.NotFoundError{Kind: "leave", ID: old.ID.String()}
			}
			origins, err := tx.Origins(ctx, current.ID)
			if err != nil {
				return fmt.Errorf("load origins: %w", err)
			}
			for _, o := range origins {
				if o.Period().Overlaps(next.Period()) {
					inherited = append(inherited, o.ID)
				}
			}
			if err := rec.Remove(ctx, tx, *current, ops); err != nil {
				return err
			}
		}

		period := next.Period()
		overlaps, err := tx.QueryLeaves(ctx, LeaveQuery{
			AgentID:  next.AgentID,
			Status:   StatusActive,
			Overlaps: &period,
		})
		if err != nil {
			return fmt.Errorf("query overlaps: %w", err)
		}
		if err := s.checkOverlaps(next.Type, overlaps); err != nil {
			return err
		}
		if !sameLeaves(overlaps, confirmed) {
			return generic.ErrStaleConfirmation
		}

		for _, l := range overlaps {
			if err := rec.Cancel(ctx, tx, l, ops); err != nil {
				return err
			}
			replaced = append(replaced, l.ID)

			if l.Start.Before(next.Start) {
				if err := s.createSegment(ctx, tx, l, l.Start, next.Start.AddDays(-1), holidays); err != nil {
					return err
				}
				segments++
			}
			if l.End.After(next.End) {
				if err := s.createSegment(ctx, tx, l, next.End.AddDays(1), l.End, holidays); err != nil {
					return err
				}
				segments++
			}
		}

		created, err := rec.Insert(ctx, tx, next)
		if err != nil {
			return err
		}
		id = created
		next.ID = created

		for _, parent := range append(replaced, inherited...) {
			if err := tx.LinkOrigin(ctx, created, parent); err != nil {
				return fmt.Errorf("link leave %s to %s: %w", created, parent, err)
			}
		}

		return s.syncCertificate(ctx, tx, created, next, req, ops)
	})
	s.settle(ctx, ops, err)
	if err != nil {
		s.logger().Error("split failed, rolled back", "agent_id", next.AgentID, "period", next.Period().String(), "error", err)
		return 0, generic.Storage("split and replace", err)
	}

	s.Metrics.Split(segments)
	s.logger().Info("leave split",
		"agent_id", next.AgentID,
		"leave_id", id,
		"replaced", replaced,
		"segments", segments,
	)
	return id, nil
}

// createSegment re-creates the part [start, end] of a cancelled parent as active annual leave.
func (s *Service) createSegment(ctx context.Context, tx Tx, parent Leave, start, end generic.TimePoint, holidays generic.HolidaySet) error {
	if start.After(end) {
		return nil
	}
	segment := Leave{
		AgentID:       parent.AgentID,
		Type:          parent.Type,
		Start:         start,
		End:           end,
		DaysTaken:     generic.Days(generic.BusinessDays(start, end, holidays)),
		Justification: parent.Justification,
		InterimID:     parent.InterimID,
	}
	id, err := s.recorder().Insert(ctx, tx, segment)
	if err != nil {
		return err
	}
	if err := tx.LinkOrigin(ctx, id, parent.ID); err != nil {
		return fmt.Errorf("link segment %s to %s: %w", id, parent.ID, err)
	}
	return nil
}

// sameLeaves reports whether both lists name the same leave ids.
func sameLeaves(a, b []Leave) bool {
	if len(a) != len(b) {
		return false
	}
	ids := make(map[generic.LeaveID]bool, len(a))
	for _, l := range a {
		ids[l.ID] = true
	}
	for _, l := range b {
		if !ids[l.ID] {
			return false
		}
	}
	return true
}
