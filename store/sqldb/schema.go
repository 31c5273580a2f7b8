package sqldb

import (
	"context"
	"fmt"
	"strings"
)

// schema is applied statement by statement on Open. %[1]s is the primary key type.
const schema = `
-- Agents carry the remaining balance
CREATE TABLE IF NOT EXISTS agents (
	id %[1]s,
	last_name TEXT NOT NULL,
	first_name TEXT NOT NULL,
	employee_number TEXT NOT NULL UNIQUE,
	grade TEXT NOT NULL DEFAULT '',
	balance TEXT NOT NULL DEFAULT '0'
);

-- Leave intervals, inclusive on both ends
CREATE TABLE IF NOT EXISTS leaves (
	id %[1]s,
	agent_id BIGINT NOT NULL REFERENCES agents(id) ON DELETE CASCADE,
	type TEXT NOT NULL,
	start_date TEXT NOT NULL,
	end_date TEXT NOT NULL,
	days_taken TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'active',
	justification TEXT NOT NULL DEFAULT '',
	interim_id BIGINT REFERENCES agents(id) ON DELETE SET NULL
);

-- Overlap lookups (hot path)
CREATE INDEX IF NOT EXISTS idx_leaves_agent_status_range
	ON leaves(agent_id, status, start_date, end_date);

CREATE INDEX IF NOT EXISTS idx_leaves_start
	ON leaves(start_date);

-- Split lineage: child was carved out of parent
CREATE TABLE IF NOT EXISTS leave_origins (
	child_id BIGINT NOT NULL REFERENCES leaves(id) ON DELETE CASCADE,
	parent_id BIGINT NOT NULL REFERENCES leaves(id) ON DELETE CASCADE,
	PRIMARY KEY (child_id, parent_id)
);

CREATE INDEX IF NOT EXISTS idx_leave_origins_parent
	ON leave_origins(parent_id);

-- Certificates
CREATE TABLE IF NOT EXISTS certificates (
	leave_id BIGINT PRIMARY KEY REFERENCES leaves(id) ON DELETE CASCADE,
	days TEXT NOT NULL,
	ref TEXT NOT NULL,
	created_at TEXT NOT NULL
);

-- Holidays
CREATE TABLE IF NOT EXISTS holidays (
	date TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	kind TEXT NOT NULL DEFAULT 'custom'
);
`

func (s *Store) migrate(ctx context.Context) error {
	pk := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.dialect == Postgres {
		pk = "BIGSERIAL PRIMARY KEY"
	}
	for _, stmt := range splitStatements(fmt.Sprintf(schema, pk)) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute ddl: %w", err)
		}
	}
	return nil
}

// splitStatements drops comment lines and splits on semicolons.
func splitStatements(ddl string) []string {
	var lines []string
	for _, line := range strings.Split(ddl, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		lines = append(lines, line)
	}
	var out []string
	for _, stmt := range strings.Split(strings.Join(lines, "\n"), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// Reset deletes every row. Tests and demo resets only.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"certificates", "leave_origins", "leaves", "agents", "holidays"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}
	return nil
}
