package sqldb

import (
	"context"
	"fmt"

	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// HOLIDAY CALENDAR
// =============================================================================

// SaveHoliday inserts a holiday or renames the one on the same date.
func (s *Store) SaveHoliday(ctx context.Context, h leave.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.conn().exec(ctx, `
		INSERT INTO holidays (date, name, kind)
		VALUES (?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			name = excluded.name,
			kind = excluded.kind`,
		h.Date.String(), h.Name, string(h.Kind),
	)
	if err != nil {
		return fmt.Errorf("failed to save holiday: %w", err)
	}
	return nil
}

func (s *Store) DeleteHoliday(ctx context.Context, date generic.TimePoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.conn().exec(ctx, "DELETE FROM holidays WHERE date = ?", date.String())
	if err != nil {
		return fmt.Errorf("failed to delete holiday: %w", err)
	}
	return expectRow(res, "holiday", date.String())
}

// HolidaysForYear returns the holidays of a year in date order.
func (s *Store) HolidaysForYear(ctx context.Context, year int) ([]leave.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn().holidays(ctx, year, year)
}

// HolidaySet returns the non-working dates of fromYear through toYear.
func (s *Store) HolidaySet(ctx context.Context, fromYear, toYear int) (generic.HolidaySet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	holidays, err := s.conn().holidays(ctx, fromYear, toYear)
	if err != nil {
		return nil, err
	}
	set := generic.NewHolidaySet()
	for _, h := range holidays {
		set.Add(h.Date)
	}
	return set, nil
}

func (c *conn) holidays(ctx context.Context, fromYear, toYear int) ([]leave.Holiday, error) {
	rows, err := c.query(ctx,
		"SELECT date, name, kind FROM holidays WHERE date >= ? AND date <= ? ORDER BY date ASC",
		generic.StartOfYear(fromYear).String(), generic.EndOfYear(toYear).String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays: %w", err)
	}
	defer rows.Close()

	var holidays []leave.Holiday
	for rows.Next() {
		var (
			h          leave.Holiday
			date, kind string
		)
		if err := rows.Scan(&date, &h.Name, &kind); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		if h.Date, err = generic.ParseDate(date); err != nil {
			return nil, fmt.Errorf("holiday %q: %w", date, err)
		}
		h.Kind = leave.HolidayKind(kind)
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}
