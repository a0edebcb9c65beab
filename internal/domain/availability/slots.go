package availability

import (
	"time"

	"rentdesk/internal/domain/reservations"
	"rentdesk/internal/domain/shared/daterange"
)

// FreeSlot is an unreserved part of a day, as offsets from 00:00.
type FreeSlot struct {
	Start time.Duration
	End   time.Duration
}

func (f FreeSlot) Duration() time.Duration {
	return f.End - f.Start
}

func (f FreeSlot) contains(offset time.Duration) bool {
	return f.Start <= offset && offset < f.End
}

// Complement returns the gaps left by spans within [0, dayLength). spans may be unsorted
// and may overlap; they are not modified.
func Complement(spans []Span, dayLength time.Duration) []FreeSlot {
	// offsets are laid on a common origin so the range helpers can order and merge them
	var origin time.Time
	ranges := make([]daterange.DateRange, 0, len(spans))
	for _, s := range spans {
		ranges = append(ranges, daterange.DateRange{Start: origin.Add(s.Start), End: origin.Add(s.End)})
	}
	merged := daterange.SortAndMerge(ranges)

	free := make([]FreeSlot, 0, len(merged)+1)
	var cursor time.Duration
	for _, r := range merged {
		start, end := r.Start.Sub(origin), r.End.Sub(origin)
		if start > cursor {
			free = append(free, FreeSlot{Start: cursor, End: start})
		}
		if end > cursor {
			cursor = end
		}
	}
	if cursor < dayLength {
		free = append(free, FreeSlot{Start: cursor, End: dayLength})
	}
	return free
}

// OpenSlots is the unclipped complement of Coverage for day. Together with Coverage it
// partitions the whole day.
func (e *Engine) OpenSlots(day daterange.Day, snapshot Snapshot, excluded reservations.ReservationID) []FreeSlot {
	return Complement(e.Coverage(day, snapshot, excluded), day.Length(e.cfg.Location))
}

// FreeSlots returns the bookable free slots of day. Time before now is never offered,
// so slots of today start no earlier than now and past days have none.
func (e *Engine) FreeSlots(day daterange.Day, snapshot Snapshot, excluded reservations.ReservationID, now time.Time) []FreeSlot {
	open := e.OpenSlots(day, snapshot, excluded)
	return clipToNow(open, now.Sub(day.Start(e.cfg.Location)))
}

func clipToNow(slots []FreeSlot, nowOffset time.Duration) []FreeSlot {
	if nowOffset <= 0 {
		return slots
	}
	out := make([]FreeSlot, 0, len(slots))
	for _, s := range slots {
		if s.End <= nowOffset {
			continue
		}
		if s.Start < nowOffset {
			s.Start = nowOffset
		}
		out = append(out, s)
	}
	return out
}
