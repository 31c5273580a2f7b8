package generic

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// TIME POINT - A calendar day (leave intervals never carry a time of day)
// =============================================================================

type TimePoint struct {
	Time time.Time
}

// DateLayout is the storage and wire format of every date in the system.
const DateLayout = "2006-01-02"

// displayLayout is the day-first format desk users type.
const displayLayout = "02/01/2006"

// Constructors
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func FromTime(t time.Time) TimePoint {
	return NewTimePoint(t.Year(), t.Month(), t.Day())
}

func Today() TimePoint {
	return FromTime(time.Now())
}

// ParseDate accepts ISO dates and day-first display dates.
func ParseDate(s string) (TimePoint, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TimePoint{}, fmt.Errorf("empty date")
	}
	for _, layout := range []string{DateLayout, displayLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return FromTime(t), nil
		}
	}
	return TimePoint{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD)", s)
}

// MustParseDate panics on malformed input. Test fixtures only.
func MustParseDate(s string) TimePoint {
	tp, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return tp
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.normalize().Before(other.normalize()) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.normalize().Equal(other.normalize()) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.normalize().After(other.normalize()) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return !tp.After(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return !tp.Before(other) }

func (tp TimePoint) normalize() time.Time {
	return time.Date(tp.Time.Year(), tp.Time.Month(), tp.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint { return TimePoint{Time: tp.normalize().AddDate(0, 0, n)} }

// Properties
func (tp TimePoint) Year() int             { return tp.Time.Year() }
func (tp TimePoint) Weekday() time.Weekday { return tp.Time.Weekday() }
func (tp TimePoint) IsWeekend() bool       { wd := tp.Weekday(); return wd == time.Saturday || wd == time.Sunday }
func (tp TimePoint) IsZero() bool          { return tp.Time.IsZero() }
func (tp TimePoint) String() string        { return tp.Time.Format(DateLayout) }

// =============================================================================
// PERIOD - Inclusive date range
// =============================================================================

type Period struct {
	Start TimePoint
	End   TimePoint
}

func NewPeriod(start, end TimePoint) Period { return Period{Start: start, End: end} }

// Validate rejects ranges that end before they start.
func (p Period) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() {
		return ErrInvalidPeriod
	}
	if p.End.Before(p.Start) {
		return ErrInvalidPeriod
	}
	return nil
}

// Overlaps reports whether two inclusive ranges share at least one day.
func (p Period) Overlaps(other Period) bool {
	return p.Start.BeforeOrEqual(other.End) && other.Start.BeforeOrEqual(p.End)
}

// Contains reports whether other lies entirely inside p.
func (p Period) Contains(other Period) bool {
	return p.Start.BeforeOrEqual(other.Start) && other.End.BeforeOrEqual(p.End)
}

func (p Period) String() string { return p.Start.String() + ".." + p.End.String() }

// =============================================================================
// HOLIDAYS
// =============================================================================

// HolidaySet is the set of non-working dates, keyed by DateLayout.
type HolidaySet map[string]struct{}

func NewHolidaySet(dates ...TimePoint) HolidaySet {
	hs := make(HolidaySet, len(dates))
	for _, d := range dates {
		hs.Add(d)
	}
	return hs
}

func (hs HolidaySet) Add(d TimePoint) { hs[d.String()] = struct{}{} }

func (hs HolidaySet) Contains(d TimePoint) bool {
	_, ok := hs[d.String()]
	return ok
}

// IsWorkday reports whether d is neither a weekend day nor a holiday.
func (hs HolidaySet) IsWorkday(d TimePoint) bool {
	return !d.IsWeekend() && !hs.Contains(d)
}

// BusinessDays counts the working days in [start, end]. Returns 0 when start is after end.
func BusinessDays(start, end TimePoint, holidays HolidaySet) int {
	if start.After(end) {
		return 0
	}
	count := 0
	for d := start; d.BeforeOrEqual(end); d = d.AddDays(1) {
		if holidays.IsWorkday(d) {
			count++
		}
	}
	return count
}

// NextBusinessDay returns the first working day strictly after the given date.
func NextBusinessDay(after TimePoint, holidays HolidaySet) TimePoint {
	d := after.AddDays(1)
	for !holidays.IsWorkday(d) {
		d = d.AddDays(1)
	}
	return d
}

func StartOfYear(year int) TimePoint { return NewTimePoint(year, time.January, 1) }
func EndOfYear(year int) TimePoint   { return NewTimePoint(year, time.December, 31) }
