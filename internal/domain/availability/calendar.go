package availability

import (
	"time"

	"rentdesk/internal/domain/reservations"
	"rentdesk/internal/domain/shared/daterange"
)

// BookedSpan is a booked part of a day as fractions of the day, for drawing.
type BookedSpan struct {
	ReservationID reservations.ReservationID `json:"reservation_id"`
	From          float64                    `json:"from"`
	To            float64                    `json:"to"`
	StartsAt      time.Time                  `json:"starts_at"`
	EndsAt        time.Time                  `json:"ends_at"`
}

type DayReport struct {
	Day        daterange.Day `json:"day"`
	Status     DayStatus     `json:"status"`
	Selectable bool          `json:"selectable"`
	Booked     []BookedSpan  `json:"booked"`
	// EarliestStart is the first instant of the day a minimum stay can begin at.
	EarliestStart *time.Time `json:"earliest_start,omitempty"`
}

type MonthCalendar struct {
	Month daterange.Day `json:"month"`
	Days  []DayReport   `json:"days"`
}

// Month evaluates every day of the month containing month.
func (e *Engine) Month(month daterange.Day, snapshot Snapshot, sel Selection, clock Clock) MonthCalendar {
	first := month.FirstOfMonth()
	next := first.AddMonths(1)

	cal := MonthCalendar{Month: first, Days: make([]DayReport, 0, 31)}
	for d := first; d.Before(next); d = d.AddDays(1) {
		cal.Days = append(cal.Days, e.Day(d, snapshot, sel, clock))
	}
	return cal
}

// Day builds the report of a single day.
func (e *Engine) Day(day daterange.Day, snapshot Snapshot, sel Selection, clock Clock) DayReport {
	loc := e.cfg.Location
	length := day.Length(loc)
	status := e.Status(day, snapshot, sel, clock)

	report := DayReport{
		Day:        day,
		Status:     status,
		Selectable: status.Selectable(),
		Booked:     make([]BookedSpan, 0),
	}
	dayStart := day.Start(loc)
	for _, span := range e.Coverage(day, snapshot, sel.ExcludedReservationID) {
		from, to := span.Fractions(length)
		report.Booked = append(report.Booked, BookedSpan{
			ReservationID: span.ReservationID,
			From:          from,
			To:            to,
			StartsAt:      dayStart.Add(span.Start),
			EndsAt:        dayStart.Add(span.End),
		})
	}
	if !report.Selectable {
		return report
	}

	for _, slot := range e.FreeSlots(day, snapshot, sel.ExcludedReservationID, clock.Now) {
		at := dayStart.Add(slot.Start)
		if e.CanStayFrom(at, snapshot, sel.ExcludedReservationID, clock.Now) {
			report.EarliestStart = &at
			break
		}
	}
	return report
}
