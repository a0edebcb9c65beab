package availability

import (
	"rentdesk/internal/domain/properties"
	"rentdesk/internal/domain/reservations"
	"rentdesk/internal/domain/shared/daterange"
)

type DayStatus string

const (
	StatusAvailable     DayStatus = "AVAILABLE"
	StatusBooked        DayStatus = "BOOKED"
	StatusPast          DayStatus = "PAST"
	StatusBeforeMinDate DayStatus = "BEFORE_MIN_DATE"
	// StatusInvalidEnd marks a day on or before the chosen start while an end is being picked.
	StatusInvalidEnd DayStatus = "INVALID_END"
	// StatusInterrupted marks an end day that would make the stay run over a booked day.
	StatusInterrupted DayStatus = "INTERRUPTED"
	// StatusEditing marks a day held by the reservation being edited.
	StatusEditing DayStatus = "EDITING"
)

// Selectable reports whether a day with this status can be picked.
func (s DayStatus) Selectable() bool {
	return s == StatusAvailable || s == StatusEditing
}

// Selection is the in-progress choice a day is evaluated against.
type Selection struct {
	Type properties.RentalType
	// Start is the chosen first day, zero when nothing is chosen yet.
	Start daterange.Day
	// End is the chosen last day, zero while it is still being picked.
	End                   daterange.Day
	ExcludedReservationID reservations.ReservationID
}

// pickingEnd reports whether day is being evaluated as a prospective end date.
func (s Selection) pickingEnd() bool {
	return s.Type == properties.RentalDaily && !s.Start.IsZero() && s.End.IsZero()
}

// Status classifies day for the given selection.
func (e *Engine) Status(day daterange.Day, snapshot Snapshot, sel Selection, clock Clock) DayStatus {
	if day.Before(e.Today(clock)) {
		return StatusPast
	}
	if !clock.MinDate.IsZero() && day.Before(clock.MinDate) {
		return StatusBeforeMinDate
	}

	excluded := sel.ExcludedReservationID
	if sel.pickingEnd() {
		if !day.After(sel.Start) {
			return StatusInvalidEnd
		}
		for d := sel.Start.AddDays(1); d.Before(day); d = d.AddDays(1) {
			if e.IsBooked(d, snapshot, excluded) {
				return StatusInterrupted
			}
		}
	} else if e.IsBooked(day, snapshot, excluded) {
		return StatusBooked
	}

	if e.inEditingRange(day, snapshot, excluded) {
		return StatusEditing
	}
	return StatusAvailable
}

// IsDateAvailable reports whether day can be selected under sel.
func (e *Engine) IsDateAvailable(day daterange.Day, snapshot Snapshot, sel Selection, clock Clock) bool {
	return e.Status(day, snapshot, sel, clock).Selectable()
}
