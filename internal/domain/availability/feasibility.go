package availability

import (
	"time"

	"rentdesk/internal/domain/reservations"
)

// Feasibility is the outcome of walking forward from a candidate start instant.
type Feasibility struct {
	Feasible bool
	// Accumulated is the uninterrupted free time found before the walk stopped.
	Accumulated time.Duration
	// BlockedAt is where contiguity broke; zero when feasible.
	BlockedAt time.Time
}

// CheckStay reports whether at least MinStay of uninterrupted free time starts at `at`,
// following free slots across midnight. A slot ending within BoundaryTolerance of
// midnight counts as reaching it.
func (e *Engine) CheckStay(at time.Time, snapshot Snapshot, excluded reservations.ReservationID, now time.Time) Feasibility {
	loc := e.cfg.Location
	tolerance := e.cfg.BoundaryTolerance
	others := snapshot.without(excluded)

	cursor := at
	var accumulated time.Duration
	for i := 0; i < e.maxWalkDays(); i++ {
		day := e.DayOf(cursor)
		dayLength := day.Length(loc)
		offset := cursor.Sub(day.Start(loc))

		slot, ok := slotAt(e.FreeSlots(day, others, "", now), offset)
		if !ok {
			if dayLength-offset <= tolerance {
				cursor = day.End(loc)
				continue
			}
			return Feasibility{Accumulated: accumulated, BlockedAt: cursor}
		}

		accumulated += slot.End - offset
		if accumulated >= e.cfg.MinStay {
			return Feasibility{Feasible: true, Accumulated: accumulated}
		}
		if dayLength-slot.End > tolerance {
			return Feasibility{Accumulated: accumulated, BlockedAt: day.Start(loc).Add(slot.End)}
		}
		cursor = day.End(loc)
	}
	return Feasibility{Accumulated: accumulated, BlockedAt: cursor}
}

// CanStayFrom is CheckStay reduced to its verdict.
func (e *Engine) CanStayFrom(at time.Time, snapshot Snapshot, excluded reservations.ReservationID, now time.Time) bool {
	return e.CheckStay(at, snapshot, excluded, now).Feasible
}

// maxWalkDays bounds the walk to the days MinStay can span plus two.
func (e *Engine) maxWalkDays() int {
	const day = 24 * time.Hour
	return int((e.cfg.MinStay+day-1)/day) + 2
}

func slotAt(slots []FreeSlot, offset time.Duration) (FreeSlot, bool) {
	for _, s := range slots {
		if s.contains(offset) {
			return s, true
		}
	}
	return FreeSlot{}, false
}
