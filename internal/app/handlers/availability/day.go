package availability

import (
	"context"
	"time"

	"rentdesk/internal/app/dto"
	"rentdesk/internal/app/queries"
	domainavailability "rentdesk/internal/domain/availability"
	"rentdesk/internal/domain/properties"
	"rentdesk/internal/domain/reservations"
	"rentdesk/internal/domain/shared/daterange"
)

const (
	DayKey         = "availability.day"
	FeasibilityKey = "availability.feasibility"
	CheckKey       = "availability.check"
)

// DayQuery asks for the booked and free parts of one day.
type DayQuery struct {
	PropertyID            string `validate:"required"`
	Day                   daterange.Day
	ExcludedReservationID string
}

func (q DayQuery) Key() string { return DayKey }

type DayHandler struct {
	Deps
}

func (h *DayHandler) Handle(ctx context.Context, q DayQuery) (dto.DayDetail, error) {
	_, snapshot, err := h.load(ctx, q.PropertyID)
	if err != nil {
		return dto.DayDetail{}, err
	}
	clock := h.Clock.Snapshot()
	excluded := reservations.ReservationID(q.ExcludedReservationID)
	sel := domainavailability.Selection{ExcludedReservationID: excluded}

	return dto.MapDayDetail(
		q.PropertyID,
		q.Day,
		h.Engine.Status(q.Day, snapshot, sel, clock),
		h.Engine.Coverage(q.Day, snapshot, excluded),
		h.Engine.FreeSlots(q.Day, snapshot, excluded, clock.Now),
		h.Engine.Location(),
	), nil
}

// FeasibilityQuery asks whether a minimum stay fits starting at At.
type FeasibilityQuery struct {
	PropertyID            string `validate:"required"`
	At                    time.Time
	ExcludedReservationID string
}

func (q FeasibilityQuery) Key() string { return FeasibilityKey }

type FeasibilityHandler struct {
	Deps
}

func (h *FeasibilityHandler) Handle(ctx context.Context, q FeasibilityQuery) (dto.Feasibility, error) {
	_, snapshot, err := h.load(ctx, q.PropertyID)
	if err != nil {
		return dto.Feasibility{}, err
	}
	clock := h.Clock.Snapshot()
	at := q.At.In(h.Engine.Location())
	res := h.Engine.CheckStay(at, snapshot, reservations.ReservationID(q.ExcludedReservationID), clock.Now)
	return dto.MapFeasibility(q.PropertyID, at, h.Engine.Config().MinStay, res), nil
}

// CheckQuery evaluates a single date for an in-progress selection.
type CheckQuery struct {
	PropertyID            string `validate:"required"`
	Day                   daterange.Day
	Type                  properties.RentalType
	Start                 daterange.Day
	End                   daterange.Day
	ExcludedReservationID string
}

func (q CheckQuery) Key() string { return CheckKey }

type CheckHandler struct {
	Deps
}

func (h *CheckHandler) Handle(ctx context.Context, q CheckQuery) (dto.DateCheck, error) {
	_, snapshot, err := h.load(ctx, q.PropertyID)
	if err != nil {
		return dto.DateCheck{}, err
	}
	sel := domainavailability.Selection{
		Type:                  q.Type,
		Start:                 q.Start,
		End:                   q.End,
		ExcludedReservationID: reservations.ReservationID(q.ExcludedReservationID),
	}
	status := h.Engine.Status(q.Day, snapshot, sel, h.Clock.Snapshot())
	return dto.DateCheck{
		PropertyID: q.PropertyID,
		Date:       q.Day.String(),
		Status:     string(status),
		Available:  status.Selectable(),
	}, nil
}

var (
	_ queries.Handler[DayQuery, dto.DayDetail]           = (*DayHandler)(nil)
	_ queries.Handler[FeasibilityQuery, dto.Feasibility] = (*FeasibilityHandler)(nil)
	_ queries.Handler[CheckQuery, dto.DateCheck]         = (*CheckHandler)(nil)
)
