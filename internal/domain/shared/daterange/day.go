package daterange

import (
	"errors"
	"fmt"
	"time"
)

const dayLayout = "2006-01-02"

var ErrInvalidDay = errors.New("daterange: invalid calendar date")

// Day is a calendar date with no time-of-day or zone attached.
// The zero value means "not set".
type Day struct {
	Year  int
	Month time.Month
	Dom   int
}

// NewDay builds a Day, normalizing overflowing values the way time.Date does.
func NewDay(year int, month time.Month, dom int) Day {
	return DayOf(time.Date(year, month, dom, 0, 0, 0, 0, time.UTC))
}

// DayOf returns the calendar date of t in t's own location.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return Day{Year: y, Month: m, Dom: d}
}

// DayIn returns the calendar date of t as observed in loc.
func DayIn(t time.Time, loc *time.Location) Day {
	if loc == nil {
		return DayOf(t)
	}
	return DayOf(t.In(loc))
}

func ParseDay(raw string) (Day, error) {
	t, err := time.Parse(dayLayout, raw)
	if err != nil {
		return Day{}, fmt.Errorf("%w: %q", ErrInvalidDay, raw)
	}
	return DayOf(t), nil
}

func (d Day) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Dom == 0
}

// Start returns 00:00 of the day in loc.
func (d Day) Start(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Dom, 0, 0, 0, 0, loc)
}

// End returns 24:00 of the day in loc, i.e. the start of the next day.
func (d Day) End(loc *time.Location) time.Time {
	return d.AddDays(1).Start(loc)
}

func (d Day) Range(loc *time.Location) DateRange {
	return DateRange{Start: d.Start(loc), End: d.End(loc)}
}

// Length is the wall-clock length of the day in loc (23h or 25h across DST changes).
func (d Day) Length(loc *time.Location) time.Duration {
	return d.End(loc).Sub(d.Start(loc))
}

func (d Day) AddDays(n int) Day {
	return DayOf(d.utc().AddDate(0, 0, n))
}

// AddMonths moves by calendar months. When the target month is shorter the result is
// clamped to its last day, so Jan 31 + 1 month is Feb 28 (or 29).
func (d Day) AddMonths(n int) Day {
	first := time.Date(d.Year, d.Month+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	dom := d.Dom
	if dom > last {
		dom = last
	}
	return Day{Year: first.Year(), Month: first.Month(), Dom: dom}
}

// FirstOfMonth returns the first day of d's month.
func (d Day) FirstOfMonth() Day {
	return Day{Year: d.Year, Month: d.Month, Dom: 1}
}

func (d Day) Compare(other Day) int {
	switch {
	case d.Year != other.Year:
		return cmpInt(d.Year, other.Year)
	case d.Month != other.Month:
		return cmpInt(int(d.Month), int(other.Month))
	default:
		return cmpInt(d.Dom, other.Dom)
	}
}

func (d Day) Before(other Day) bool { return d.Compare(other) < 0 }
func (d Day) After(other Day) bool  { return d.Compare(other) > 0 }
func (d Day) Equal(other Day) bool  { return d.Compare(other) == 0 }

// DaysUntil counts calendar days from d to other; negative when other is earlier.
func (d Day) DaysUntil(other Day) int {
	return int(other.utc().Sub(d.utc()).Hours() / 24)
}

func (d Day) String() string {
	if d.IsZero() {
		return ""
	}
	return d.utc().Format(dayLayout)
}

func (d Day) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Day) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*d = Day{}
		return nil
	}
	parsed, err := ParseDay(string(data))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Day) utc() time.Time {
	return time.Date(d.Year, d.Month, d.Dom, 0, 0, 0, 0, time.UTC)
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
