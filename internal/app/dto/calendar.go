package dto

import (
	"time"

	"rentdesk/internal/domain/availability"
	"rentdesk/internal/domain/shared/daterange"
)

// BookedSpan is a booked part of a day; From/To are day fractions for drawing.
type BookedSpan struct {
	ReservationID string    `json:"reservation_id"`
	From          float64   `json:"from"`
	To            float64   `json:"to"`
	StartsAt      time.Time `json:"starts_at"`
	EndsAt        time.Time `json:"ends_at"`
}

type CalendarDay struct {
	Date          string       `json:"date"`
	Status        string       `json:"status"`
	Selectable    bool         `json:"selectable"`
	Booked        []BookedSpan `json:"booked"`
	EarliestStart *time.Time   `json:"earliest_start,omitempty"`
}

type MonthCalendar struct {
	PropertyID string        `json:"property_id"`
	Month      string        `json:"month"`
	Days       []CalendarDay `json:"days"`
}

func MapMonthCalendar(propertyID string, cal availability.MonthCalendar) MonthCalendar {
	days := make([]CalendarDay, 0, len(cal.Days))
	for _, d := range cal.Days {
		days = append(days, mapCalendarDay(d))
	}
	return MonthCalendar{
		PropertyID: propertyID,
		Month:      MonthString(cal.Month),
		Days:       days,
	}
}

func mapCalendarDay(d availability.DayReport) CalendarDay {
	booked := make([]BookedSpan, 0, len(d.Booked))
	for _, b := range d.Booked {
		booked = append(booked, BookedSpan{
			ReservationID: string(b.ReservationID),
			From:          b.From,
			To:            b.To,
			StartsAt:      b.StartsAt,
			EndsAt:        b.EndsAt,
		})
	}
	return CalendarDay{
		Date:          d.Day.String(),
		Status:        string(d.Status),
		Selectable:    d.Selectable,
		Booked:        booked,
		EarliestStart: d.EarliestStart,
	}
}

// MonthString formats the month of d as YYYY-MM.
func MonthString(d daterange.Day) string {
	return d.FirstOfMonth().Start(time.UTC).Format("2006-01")
}

type TimeSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type DayDetail struct {
	PropertyID string     `json:"property_id"`
	Date       string     `json:"date"`
	Status     string     `json:"status"`
	Booked     []TimeSlot `json:"booked"`
	Free       []TimeSlot `json:"free"`
}

func MapDayDetail(propertyID string, day daterange.Day, status availability.DayStatus, booked []availability.Span, free []availability.FreeSlot, loc *time.Location) DayDetail {
	start := day.Start(loc)
	out := DayDetail{
		PropertyID: propertyID,
		Date:       day.String(),
		Status:     string(status),
		Booked:     make([]TimeSlot, 0, len(booked)),
		Free:       make([]TimeSlot, 0, len(free)),
	}
	for _, s := range booked {
		out.Booked = append(out.Booked, TimeSlot{Start: start.Add(s.Start), End: start.Add(s.End)})
	}
	for _, f := range free {
		out.Free = append(out.Free, TimeSlot{Start: start.Add(f.Start), End: start.Add(f.End)})
	}
	return out
}

type Feasibility struct {
	PropertyID         string     `json:"property_id"`
	At                 time.Time  `json:"at"`
	Feasible           bool       `json:"feasible"`
	MinStayMinutes     int64      `json:"min_stay_minutes"`
	AccumulatedMinutes int64      `json:"accumulated_minutes"`
	BlockedAt          *time.Time `json:"blocked_at,omitempty"`
}

func MapFeasibility(propertyID string, at time.Time, minStay time.Duration, f availability.Feasibility) Feasibility {
	out := Feasibility{
		PropertyID:         propertyID,
		At:                 at,
		Feasible:           f.Feasible,
		MinStayMinutes:     int64(minStay / time.Minute),
		AccumulatedMinutes: int64(f.Accumulated / time.Minute),
	}
	if !f.BlockedAt.IsZero() {
		blocked := f.BlockedAt
		out.BlockedAt = &blocked
	}
	return out
}

type DateCheck struct {
	PropertyID string `json:"property_id"`
	Date       string `json:"date"`
	Status     string `json:"status"`
	Available  bool   `json:"available"`
}
