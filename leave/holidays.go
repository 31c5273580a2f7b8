package leave

import (
	"context"
	"strings"
	"time"

	"github.com/warp/leave-engine/generic"
)

// =============================================================================
// HOLIDAY CALENDAR
// =============================================================================

// FixedHoliday is a public holiday that falls on the same day every year.
type FixedHoliday struct {
	Month time.Month
	Day   int
	Name  string
}

// DefaultFixedHolidays is the stock calendar of fixed-date public holidays.
// Holidays that follow the lunar calendar are added per year as custom dates.
func DefaultFixedHolidays() []FixedHoliday {
	return []FixedHoliday{
		{time.January, 1, "New Year's Day"},
		{time.January, 11, "Independence Manifesto Day"},
		{time.January, 14, "Amazigh New Year"},
		{time.May, 1, "Labour Day"},
		{time.July, 30, "Throne Day"},
		{time.August, 14, "Oued Ed-Dahab Day"},
		{time.August, 20, "Revolution of the King and the People"},
		{time.August, 21, "Youth Day"},
		{time.November, 6, "Green March"},
		{time.November, 18, "Independence Day"},
	}
}

func (s *Service) ListHolidays(ctx context.Context, year int) ([]Holiday, error) {
	hs, err := s.Holidays.HolidaysForYear(ctx, year)
	if err != nil {
		return nil, generic.Storage("list holidays", err)
	}
	return hs, nil
}

// AddHoliday saves or renames the holiday on h.Date. Existing leave keeps its
// stored day count; Audit reports the drift.
func (s *Service) AddHoliday(ctx context.Context, h Holiday) error {
	if h.Date.IsZero() {
		return &generic.ValidationError{Field: "date", Message: "required"}
	}
	h.Name = strings.TrimSpace(h.Name)
	if h.Name == "" {
		return &generic.ValidationError{Field: "name", Message: "required"}
	}
	if h.Kind == "" {
		h.Kind = HolidayCustom
	}
	return generic.Storage("save holiday", s.Holidays.SaveHoliday(ctx, h))
}

func (s *Service) RemoveHoliday(ctx context.Context, date generic.TimePoint) error {
	return generic.Storage("delete holiday", s.Holidays.DeleteHoliday(ctx, date))
}

// InstallDefaultHolidays saves the fixed holidays for year and returns how many were written.
func (s *Service) InstallDefaultHolidays(ctx context.Context, year int) (int, error) {
	if year < 1 {
		return 0, &generic.ValidationError{Field: "year", Message: "must be positive"}
	}
	n := 0
	for _, f := range s.FixedHolidays {
		h := Holiday{
			Date: generic.NewTimePoint(year, f.Month, f.Day),
			Name: f.Name,
			Kind: HolidayAutomatic,
		}
		if err := s.Holidays.SaveHoliday(ctx, h); err != nil {
			return n, generic.Storage("save holiday", err)
		}
		n++
	}
	s.logger().Info("default holidays installed", "year", year, "count", n)
	return n, nil
}
