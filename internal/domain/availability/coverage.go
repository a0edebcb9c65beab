package availability

import (
	"sort"
	"time"

	"rentdesk/internal/domain/reservations"
	"rentdesk/internal/domain/shared/daterange"
)

// Span is the part of one reservation that falls inside a day, as offsets from 00:00.
type Span struct {
	ReservationID reservations.ReservationID
	Start         time.Duration
	End           time.Duration
}

func (s Span) Duration() time.Duration {
	return s.End - s.Start
}

// Fractions expresses the span as [0,1] positions within a day of the given length.
func (s Span) Fractions(dayLength time.Duration) (from, to float64) {
	if dayLength <= 0 {
		return 0, 0
	}
	return float64(s.Start) / float64(dayLength), float64(s.End) / float64(dayLength)
}

// Coverage returns the booked parts of day, ordered by start. The reservation with id
// excluded is ignored. Overlapping reservations are reported as-is, not collapsed.
func (e *Engine) Coverage(day daterange.Day, snapshot Snapshot, excluded reservations.ReservationID) []Span {
	loc := e.cfg.Location
	dayStart := day.Start(loc)
	bounds := day.Range(loc)

	spans := make([]Span, 0)
	for _, r := range snapshot.without(excluded) {
		if r == nil || !r.Range.Overlaps(bounds) {
			continue
		}
		clipped, ok := daterange.ClipToDay(r.Range, day, loc)
		if !ok {
			continue
		}
		spans = append(spans, Span{
			ReservationID: r.ID,
			Start:         clipped.Start.Sub(dayStart),
			End:           clipped.End.Sub(dayStart),
		})
	}
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].Start == spans[j].Start {
			return spans[i].End < spans[j].End
		}
		return spans[i].Start < spans[j].Start
	})
	return spans
}

// IsBooked reports whether any non-excluded reservation touches day.
func (e *Engine) IsBooked(day daterange.Day, snapshot Snapshot, excluded reservations.ReservationID) bool {
	return len(e.Coverage(day, snapshot, excluded)) > 0
}

// inEditingRange reports whether the reservation being edited occupies day.
func (e *Engine) inEditingRange(day daterange.Day, snapshot Snapshot, excluded reservations.ReservationID) bool {
	r := snapshot.find(excluded)
	if r == nil {
		return false
	}
	_, ok := daterange.ClipToDay(r.Range, day, e.cfg.Location)
	return ok
}
