package leave

import (
	"context"
	"fmt"

	"github.com/warp/leave-engine/generic"
)

// =============================================================================
// RECORDER - Balance-aware primitives over a Tx
// =============================================================================

// Recorder is the only code that moves an agent balance. Each primitive pairs
// the row change with its balance effect inside the caller's Tx and commits
// nothing on its own, so higher-level operations compose several of them in
// one WithTx.
type Recorder struct {
	Rules TypeRules
}

// Insert creates l and debits its balance effect.
func (r Recorder) Insert(ctx context.Context, tx Tx, l Leave) (generic.LeaveID, error) {
	l.Status = StatusActive
	id, err := tx.CreateLeave(ctx, l)
	if err != nil {
		return 0, fmt.Errorf("create leave: %w", err)
	}
	if effect := r.Rules.BalanceEffect(l.Type, l.DaysTaken); !effect.IsZero() {
		if err := tx.AdjustBalance(ctx, l.AgentID, effect.Neg()); err != nil {
			return 0, fmt.Errorf("debit balance: %w", err)
		}
	}
	return id, nil
}

// Update rewrites old with next in place and adjusts the balance by the
// difference of their effects. A type change is covered by the same delta.
func (r Recorder) Update(ctx context.Context, tx Tx, old, next Leave) error {
	next.ID = old.ID
	next.Status = old.Status
	if err := tx.UpdateLeave(ctx, next); err != nil {
		return fmt.Errorf("update leave: %w", err)
	}
	if !old.IsActive() {
		return nil
	}
	delta := r.Rules.BalanceEffect(old.Type, old.DaysTaken).Sub(r.Rules.BalanceEffect(next.Type, next.DaysTaken))
	if delta.IsZero() {
		return nil
	}
	if err := tx.AdjustBalance(ctx, old.AgentID, delta); err != nil {
		return fmt.Errorf("adjust balance: %w", err)
	}
	return nil
}

// Remove hard-deletes l. An active leave gives its days back; a cancelled one
// already did when it was cancelled.
func (r Recorder) Remove(ctx context.Context, tx Tx, l Leave, files *certOps) error {
	if err := r.detachCertificate(ctx, tx, l.ID, files); err != nil {
		return err
	}
	if err := tx.RemoveLeave(ctx, l.ID); err != nil {
		return fmt.Errorf("remove leave %s: %w", l.ID, err)
	}
	if l.IsActive() {
		return r.credit(ctx, tx, l)
	}
	return nil
}

// Cancel retires an active leave as a split source: the row stays, the days go back.
func (r Recorder) Cancel(ctx context.Context, tx Tx, l Leave, files *certOps) error {
	if !l.IsActive() {
		return nil
	}
	if err := r.detachCertificate(ctx, tx, l.ID, files); err != nil {
		return err
	}
	if err := tx.SetLeaveStatus(ctx, l.ID, StatusCancelled); err != nil {
		return fmt.Errorf("cancel leave %s: %w", l.ID, err)
	}
	return r.credit(ctx, tx, l)
}

// Reactivate brings a cancelled split source back and takes its days once.
func (r Recorder) Reactivate(ctx context.Context, tx Tx, l Leave) error {
	if l.IsActive() {
		return nil
	}
	if err := tx.SetLeaveStatus(ctx, l.ID, StatusActive); err != nil {
		return fmt.Errorf("reactivate leave %s: %w", l.ID, err)
	}
	if effect := r.Rules.BalanceEffect(l.Type, l.DaysTaken); !effect.IsZero() {
		if err := tx.AdjustBalance(ctx, l.AgentID, effect.Neg()); err != nil {
			return fmt.Errorf("debit balance: %w", err)
		}
	}
	return nil
}

func (r Recorder) credit(ctx context.Context, tx Tx, l Leave) error {
	effect := r.Rules.BalanceEffect(l.Type, l.DaysTaken)
	if effect.IsZero() {
		return nil
	}
	if err := tx.AdjustBalance(ctx, l.AgentID, effect); err != nil {
		return fmt.Errorf("credit balance: %w", err)
	}
	return nil
}

func (r Recorder) detachCertificate(ctx context.Context, tx Tx, id generic.LeaveID, files *certOps) error {
	cert, err := tx.GetCertificate(ctx, id)
	if err != nil {
		return fmt.Errorf("load certificate: %w", err)
	}
	if cert == nil {
		return nil
	}
	if err := tx.RemoveCertificate(ctx, id); err != nil {
		return fmt.Errorf("remove certificate: %w", err)
	}
	files.drop(cert.Ref)
	return nil
}
