package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// LEAVES
// =============================================================================

const leaveColumns = `id, agent_id, type, start_date, end_date, days_taken, status, justification, interim_id`

// prefixed qualifies leaveColumns with a table alias.
func prefixed(alias string) string {
	cols := strings.Split(leaveColumns, ", ")
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}

func (c *conn) GetLeave(ctx context.Context, id generic.LeaveID) (*leave.Leave, error) {
	leaves, err := c.queryLeaves(ctx, "SELECT "+leaveColumns+" FROM leaves WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(leaves) == 0 {
		return nil, nil
	}
	return &leaves[0], nil
}

// QueryLeaves returns matching leaves, latest start first.
func (c *conn) QueryLeaves(ctx context.Context, q leave.LeaveQuery) ([]leave.Leave, error) {
	var (
		where []string
		args  []any
	)
	if q.AgentID != 0 {
		where = append(where, "agent_id = ?")
		args = append(args, q.AgentID)
	}
	if q.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(q.Status))
	}
	if len(q.Types) > 0 {
		where = append(where, "type IN ("+placeholders(len(q.Types))+")")
		for _, t := range q.Types {
			args = append(args, string(t))
		}
	}
	if q.Overlaps != nil {
		where = append(where, "start_date <= ? AND end_date >= ?")
		args = append(args, q.Overlaps.End.String(), q.Overlaps.Start.String())
	}
	if q.OnDay != nil {
		where = append(where, "start_date <= ? AND end_date >= ?")
		args = append(args, q.OnDay.String(), q.OnDay.String())
	}
	if q.StartYear != 0 {
		where = append(where, "start_date >= ? AND start_date <= ?")
		args = append(args, generic.StartOfYear(q.StartYear).String(), generic.EndOfYear(q.StartYear).String())
	}
	if q.ExcludeID != 0 {
		where = append(where, "id <> ?")
		args = append(args, q.ExcludeID)
	}

	query := "SELECT " + leaveColumns + " FROM leaves"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY start_date DESC, id DESC"
	return c.queryLeaves(ctx, query, args...)
}

func (c *conn) CreateLeave(ctx context.Context, l leave.Leave) (generic.LeaveID, error) {
	id, err := c.insert(ctx, `
		INSERT INTO leaves (agent_id, type, start_date, end_date, days_taken, status, justification, interim_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.AgentID, string(l.Type), l.Start.String(), l.End.String(),
		l.DaysTaken.String(), string(l.Status), l.Justification, nullAgent(l.InterimID),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert leave: %w", err)
	}
	return generic.LeaveID(id), nil
}

func (c *conn) UpdateLeave(ctx context.Context, l leave.Leave) error {
	res, err := c.exec(ctx, `
		UPDATE leaves SET agent_id = ?, type = ?, start_date = ?, end_date = ?,
			days_taken = ?, status = ?, justification = ?, interim_id = ?
		WHERE id = ?`,
		l.AgentID, string(l.Type), l.Start.String(), l.End.String(),
		l.DaysTaken.String(), string(l.Status), l.Justification, nullAgent(l.InterimID), l.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update leave: %w", err)
	}
	return expectRow(res, "leave", l.ID.String())
}

func (c *conn) SetLeaveStatus(ctx context.Context, id generic.LeaveID, status leave.Status) error {
	res, err := c.exec(ctx, "UPDATE leaves SET status = ? WHERE id = ?", string(status), id)
	if err != nil {
		return fmt.Errorf("failed to set leave status: %w", err)
	}
	return expectRow(res, "leave", id.String())
}

// RemoveLeave deletes the row. Origins and certificate rows cascade.
func (c *conn) RemoveLeave(ctx context.Context, id generic.LeaveID) error {
	res, err := c.exec(ctx, "DELETE FROM leaves WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete leave: %w", err)
	}
	return expectRow(res, "leave", id.String())
}

// =============================================================================
// ORIGINS
// =============================================================================

func (c *conn) LinkOrigin(ctx context.Context, child, parent generic.LeaveID) error {
	_, err := c.exec(ctx,
		"INSERT INTO leave_origins (child_id, parent_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
		child, parent,
	)
	if err != nil {
		return fmt.Errorf("failed to link origin: %w", err)
	}
	return nil
}

func (c *conn) UnlinkOrigin(ctx context.Context, child, parent generic.LeaveID) error {
	_, err := c.exec(ctx,
		"DELETE FROM leave_origins WHERE child_id = ? AND parent_id = ?",
		child, parent,
	)
	if err != nil {
		return fmt.Errorf("failed to unlink origin: %w", err)
	}
	return nil
}

func (c *conn) Origins(ctx context.Context, child generic.LeaveID) ([]leave.Leave, error) {
	return c.queryLeaves(ctx, `
		SELECT `+prefixed("l")+`
		FROM leave_origins o JOIN leaves l ON l.id = o.parent_id
		WHERE o.child_id = ?
		ORDER BY l.start_date DESC, l.id DESC`, child)
}

func (c *conn) Children(ctx context.Context, parent generic.LeaveID) ([]leave.Leave, error) {
	return c.queryLeaves(ctx, `
		SELECT `+prefixed("l")+`
		FROM leave_origins o JOIN leaves l ON l.id = o.child_id
		WHERE o.parent_id = ?
		ORDER BY l.start_date ASC, l.id ASC`, parent)
}

// =============================================================================
// CERTIFICATES
// =============================================================================

func (c *conn) GetCertificate(ctx context.Context, leaveID generic.LeaveID) (*leave.Certificate, error) {
	var (
		cert      leave.Certificate
		days      string
		createdAt string
	)
	err := c.queryRow(ctx,
		"SELECT leave_id, days, ref, created_at FROM certificates WHERE leave_id = ?",
		leaveID,
	).Scan(&cert.LeaveID, &days, &cert.Ref, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get certificate: %w", err)
	}
	if cert.Days, err = decimal.NewFromString(days); err != nil {
		return nil, fmt.Errorf("certificate %s: bad days %q: %w", leaveID, days, err)
	}
	cert.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &cert, nil
}

func (c *conn) SaveCertificate(ctx context.Context, cert leave.Certificate) error {
	createdAt := cert.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := c.exec(ctx, `
		INSERT INTO certificates (leave_id, days, ref, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(leave_id) DO UPDATE SET
			days = excluded.days,
			ref = excluded.ref,
			created_at = excluded.created_at`,
		cert.LeaveID, cert.Days.String(), cert.Ref, createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save certificate: %w", err)
	}
	return nil
}

func (c *conn) RemoveCertificate(ctx context.Context, leaveID generic.LeaveID) error {
	if _, err := c.exec(ctx, "DELETE FROM certificates WHERE leave_id = ?", leaveID); err != nil {
		return fmt.Errorf("failed to delete certificate: %w", err)
	}
	return nil
}

// =============================================================================
// SCANNING
// =============================================================================

// queryLeaves reads every row before returning so the caller can issue the
// next statement on the same transaction.
func (c *conn) queryLeaves(ctx context.Context, query string, args ...any) ([]leave.Leave, error) {
	rows, err := c.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaves: %w", err)
	}
	defer rows.Close()

	var leaves []leave.Leave
	for rows.Next() {
		l, err := scanLeave(rows)
		if err != nil {
			return nil, err
		}
		leaves = append(leaves, l)
	}
	return leaves, rows.Err()
}

func scanLeave(rows *sql.Rows) (leave.Leave, error) {
	var (
		l                leave.Leave
		typ, status      string
		start, end, days string
		interim          sql.NullInt64
	)
	if err := rows.Scan(&l.ID, &l.AgentID, &typ, &start, &end, &days, &status, &l.Justification, &interim); err != nil {
		return l, fmt.Errorf("failed to scan leave: %w", err)
	}

	var err error
	if l.Start, err = generic.ParseDate(start); err != nil {
		return l, fmt.Errorf("leave %s: %w", l.ID, err)
	}
	if l.End, err = generic.ParseDate(end); err != nil {
		return l, fmt.Errorf("leave %s: %w", l.ID, err)
	}
	if l.DaysTaken, err = decimal.NewFromString(days); err != nil {
		return l, fmt.Errorf("leave %s: bad days %q: %w", l.ID, days, err)
	}
	l.Type = leave.Type(typ)
	l.Status = leave.Status(status)
	if interim.Valid {
		id := generic.AgentID(interim.Int64)
		l.InterimID = &id
	}
	return l, nil
}

func nullAgent(id *generic.AgentID) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*id), Valid: true}
}
