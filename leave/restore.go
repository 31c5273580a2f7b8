package leave

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/metrics"
)

// =============================================================================
// DELETION & RESTORATION
// =============================================================================
//
// Deleting a leave produced by a split undoes the split. The leave's origins
// name the cancelled parents; each parent still cancelled gets its whole
// descendant tree removed (the replacing leave, the remainder segments, and
// anything later carved out of those) and is then reactivated. Balance
// effects follow the recorder: every removed active descendant is credited,
// the parent is debited once.
//
// A descendant with several parents drags its other parents into the same
// restoration, so no cancelled leave is orphaned by the sweep.

// restoreConflict aborts a restoration whose parent would overlap leave
// that did not come from it.
type restoreConflict struct {
	parent   Leave
	blocking []generic.LeaveID
}

func (e *restoreConflict) Error() string {
	return fmt.Sprintf("restoring leave %s would overlap leave %v", e.parent.ID, e.blocking)
}

// Delete removes a leave and, when it came from a split, restores the split source.
func (s *Service) Delete(ctx context.Context, id generic.LeaveID) error {
	outcome, err := s.delete(ctx, id)
	s.Metrics.Restoration(outcome)
	return err
}

func (s *Service) delete(ctx context.Context, id generic.LeaveID) (string, error) {
	l, err := s.Store.GetLeave(ctx, id)
	if err != nil {
		return metrics.RestoreFailed, generic.Storage("get leave", err)
	}
	if l == nil {
		return metrics.RestoreFailed, &generic.NotFoundError{Kind: "leave", ID: id.String()}
	}

	// A cancelled leave is an inert split source. Its days are already back.
	if !l.IsActive() {
		return s.plainRemove(ctx, id)
	}

	origins, err := s.Store.Origins(ctx, id)
	if err != nil {
		return metrics.RestoreFailed, generic.Storage("load origins", err)
	}
	if len(origins) == 0 {
		return s.plainRemove(ctx, id)
	}

	restored, err := s.restore(ctx, id)
	var conflict *restoreConflict
	if errors.As(err, &conflict) {
		s.logger().Warn("restoration aborted, deleting without restoring",
			"leave_id", id,
			"parent_id", conflict.parent.ID,
			"blocking", conflict.blocking,
		)
		if _, err := s.plainRemove(ctx, id); err != nil {
			return metrics.RestoreFailed, err
		}
		return metrics.RestoreFallback, nil
	}
	if err != nil {
		return metrics.RestoreFailed, err
	}
	if restored == 0 {
		return metrics.RestorePlain, nil
	}
	return metrics.RestoreRestored, nil
}

// plainRemove deletes one leave with its own balance effect and certificate.
func (s *Service) plainRemove(ctx context.Context, id generic.LeaveID) (string, error) {
	rec := s.recorder()
	ops := &certOps{}
	err := s.Store.WithTx(ctx, func(tx Tx) error {
		l, err := tx.GetLeave(ctx, id)
		if err != nil {
			return fmt.Errorf("reload leave %s: %w", id, err)
		}
		if l == nil {
			return &generic.NotFoundError{Kind: "leave", ID: id.String()}
		}
		return rec.Remove(ctx, tx, *l, ops)
	})
	s.settle(ctx, ops, err)
	if err != nil {
		return metrics.RestoreFailed, generic.Storage("delete leave", err)
	}
	return metrics.RestorePlain, nil
}

// restore deletes id and reactivates its split sources in one transaction.
// It returns how many parents were reactivated.
func (s *Service) restore(ctx context.Context, id generic.LeaveID) (int, error) {
	rec := s.recorder()
	ops := &certOps{}
	restored := 0

	err := s.Store.WithTx(ctx, func(tx Tx) error {
		restored = 0
		target, err := tx.GetLeave(ctx, id)
		if err != nil {
			return fmt.Errorf("reload leave %s: %w", id, err)
		}
		if target == nil {
			return &generic.NotFoundError{Kind: "leave", ID: id.String()}
		}

		queue, err := tx.Origins(ctx, id)
		if err != nil {
			return fmt.Errorf("load origins: %w", err)
		}
		if err := rec.Remove(ctx, tx, *target, ops); err != nil {
			return err
		}

		removed := map[generic.LeaveID]bool{id: true}
		visited := make(map[generic.LeaveID]bool)
		for len(queue) > 0 {
			// Most recently started parent first.
			sort.SliceStable(queue, func(i, j int) bool { return queue[i].Start.After(queue[j].Start) })
			next := queue[0]
			queue = queue[1:]
			if visited[next.ID] {
				continue
			}
			visited[next.ID] = true

			parent, err := tx.GetLeave(ctx, next.ID)
			if err != nil {
				return fmt.Errorf("reload parent %s: %w", next.ID, err)
			}
			if parent == nil || parent.IsActive() {
				continue
			}

			others, err := s.removeDescendants(ctx, tx, parent.ID, removed, ops)
			if err != nil {
				return err
			}
			for _, o := range others {
				if !visited[o.ID] {
					queue = append(queue, o)
				}
			}

			period := parent.Period()
			blocking, err := tx.QueryLeaves(ctx, LeaveQuery{
				AgentID:   parent.AgentID,
				Status:    StatusActive,
				Overlaps:  &period,
				ExcludeID: parent.ID,
			})
			if err != nil {
				return fmt.Errorf("query overlaps: %w", err)
			}
			if len(blocking) > 0 {
				conflict := &restoreConflict{parent: *parent}
				for _, b := range blocking {
					conflict.blocking = append(conflict.blocking, b.ID)
				}
				return conflict
			}

			if err := rec.Reactivate(ctx, tx, *parent); err != nil {
				return err
			}
			restored++
		}
		return nil
	})
	s.settle(ctx, ops, err)

	var conflict *restoreConflict
	if errors.As(err, &conflict) {
		return 0, err
	}
	if err != nil {
		s.logger().Error("restoration failed, rolled back", "leave_id", id, "error", err)
		return 0, generic.Storage("restore", err)
	}
	if restored > 0 {
		s.logger().Info("split undone", "leave_id", id, "restored", restored)
	}
	return restored, nil
}

// removeDescendants deletes the tree carved out of parent, deepest first, and
// returns the other parents of every removed descendant.
func (s *Service) removeDescendants(ctx context.Context, tx Tx, parent generic.LeaveID, removed map[generic.LeaveID]bool, ops *certOps) ([]Leave, error) {
	children, err := tx.Children(ctx, parent)
	if err != nil {
		return nil, fmt.Errorf("load children of %s: %w", parent, err)
	}

	var others []Leave
	for _, child := range children {
		if removed[child.ID] {
			continue
		}
		origins, err := tx.Origins(ctx, child.ID)
		if err != nil {
			return nil, fmt.Errorf("load origins: %w", err)
		}
		for _, o := range origins {
			if o.ID != parent {
				others = append(others, o)
			}
		}

		deeper, err := s.removeDescendants(ctx, tx, child.ID, removed, ops)
		if err != nil {
			return nil, err
		}
		others = append(others, deeper...)

		if err := s.recorder().Remove(ctx, tx, child, ops); err != nil {
			return nil, err
		}
		removed[child.ID] = true
	}
	return others, nil
}
