package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// AGENTS
// =============================================================================

const agentColumns = `id, last_name, first_name, employee_number, grade, balance`

func (s *Store) CreateAgent(ctx context.Context, a leave.Agent) (generic.AgentID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.conn().insert(ctx, `
		INSERT INTO agents (last_name, first_name, employee_number, grade, balance)
		VALUES (?, ?, ?, ?, ?)`,
		a.LastName, a.FirstName, a.EmployeeNumber, a.Grade, a.Balance.String(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, &generic.ValidationError{Field: "employee_number", Message: fmt.Sprintf("%q is already registered", a.EmployeeNumber)}
		}
		return 0, fmt.Errorf("failed to insert agent: %w", err)
	}
	return generic.AgentID(id), nil
}

func (s *Store) UpdateAgent(ctx context.Context, a leave.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.conn().exec(ctx, `
		UPDATE agents SET last_name = ?, first_name = ?, employee_number = ?, grade = ?, balance = ?
		WHERE id = ?`,
		a.LastName, a.FirstName, a.EmployeeNumber, a.Grade, a.Balance.String(), a.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &generic.ValidationError{Field: "employee_number", Message: fmt.Sprintf("%q is already registered", a.EmployeeNumber)}
		}
		return fmt.Errorf("failed to update agent: %w", err)
	}
	return expectRow(res, "agent", a.ID.String())
}

// DeleteAgent removes the agent. Its leaves, origins and certificates cascade.
func (s *Store) DeleteAgent(ctx context.Context, id generic.AgentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.conn().exec(ctx, "DELETE FROM agents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete agent: %w", err)
	}
	return expectRow(res, "agent", id.String())
}

// ListAgents returns agents ordered by name.
func (s *Store) ListAgents(ctx context.Context, q leave.AgentQuery) ([]leave.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	where, args := agentFilter(q.Term)
	query := "SELECT " + agentColumns + " FROM agents" + where + " ORDER BY last_name, first_name, id"
	if q.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, q.Limit, q.Offset)
	}

	c := s.conn()
	rows, err := c.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query agents: %w", err)
	}
	defer rows.Close()

	var agents []leave.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

func (s *Store) CountAgents(ctx context.Context, term string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	where, args := agentFilter(term)
	var n int
	if err := s.conn().queryRow(ctx, "SELECT COUNT(*) FROM agents"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count agents: %w", err)
	}
	return n, nil
}

func agentFilter(term string) (string, []any) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return "", nil
	}
	like := "%" + term + "%"
	return " WHERE LOWER(last_name || ' ' || first_name) LIKE ? OR LOWER(first_name || ' ' || last_name) LIKE ? OR LOWER(employee_number) LIKE ?",
		[]any{like, like, like}
}

func (c *conn) GetAgent(ctx context.Context, id generic.AgentID) (*leave.Agent, error) {
	rows, err := c.query(ctx, "SELECT "+agentColumns+" FROM agents WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	a, err := scanAgent(rows)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// AdjustBalance adds delta to the stored balance. Decimal text cannot be
// summed in SQL portably, so the value is read and written back; callers run
// this inside a transaction.
func (c *conn) AdjustBalance(ctx context.Context, id generic.AgentID, delta decimal.Decimal) error {
	var raw string
	err := c.queryRow(ctx, "SELECT balance FROM agents WHERE id = ?", id).Scan(&raw)
	if err == sql.ErrNoRows {
		return &generic.NotFoundError{Kind: "agent", ID: id.String()}
	}
	if err != nil {
		return fmt.Errorf("failed to read balance: %w", err)
	}
	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("agent %s: bad balance %q: %w", id, raw, err)
	}

	res, err := c.exec(ctx, "UPDATE agents SET balance = ? WHERE id = ?", balance.Add(delta).String(), id)
	if err != nil {
		return fmt.Errorf("failed to write balance: %w", err)
	}
	return expectRow(res, "agent", id.String())
}

func scanAgent(rows *sql.Rows) (leave.Agent, error) {
	var (
		a       leave.Agent
		balance string
	)
	if err := rows.Scan(&a.ID, &a.LastName, &a.FirstName, &a.EmployeeNumber, &a.Grade, &balance); err != nil {
		return a, fmt.Errorf("failed to scan agent: %w", err)
	}
	b, err := decimal.NewFromString(balance)
	if err != nil {
		return a, fmt.Errorf("agent %s: bad balance %q: %w", a.ID, balance, err)
	}
	a.Balance = b
	return a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
