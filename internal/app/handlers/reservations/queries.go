package reservations

import (
	"context"

	"rentdesk/internal/app/dto"
	"rentdesk/internal/app/handlers/support"
	"rentdesk/internal/app/queries"
	"rentdesk/internal/app/uow"
	"rentdesk/internal/domain/booking"
	"rentdesk/internal/domain/properties"
	domainreservations "rentdesk/internal/domain/reservations"
	"rentdesk/internal/domain/shared/daterange"
)

const (
	ListKey  = "reservations.list"
	QuoteKey = "booking.quote"
)

type ListQuery struct {
	PropertyID string `validate:"required"`
}

func (q ListQuery) Key() string { return ListKey }

type ListHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListHandler) Handle(ctx context.Context, q ListQuery) (dto.ReservationCollection, error) {
	unit, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ReservationCollection{}, err
	}
	defer unit.Close()

	id := properties.PropertyID(q.PropertyID)
	if _, err := unit.Properties().ByID(unit.Ctx, id); err != nil {
		return dto.ReservationCollection{}, err
	}
	list, err := unit.Reservations().ListByProperty(unit.Ctx, id)
	if err != nil {
		return dto.ReservationCollection{}, err
	}
	return dto.MapReservations(list), nil
}

// QuoteQuery prices a candidate without persisting it. Guest details are not required.
type QuoteQuery struct {
	PropertyID            string `validate:"required"`
	Type                  properties.RentalType
	Start                 daterange.Day
	End                   daterange.Day
	Months                int
	ExcludedReservationID string
}

func (q QuoteQuery) Key() string { return QuoteKey }

type QuoteHandler struct {
	UoWFactory uow.UoWFactory
	Validator  *booking.Validator
	Clock      support.Clock
}

func (h *QuoteHandler) Handle(ctx context.Context, q QuoteQuery) (dto.Quote, error) {
	unit, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Quote{}, err
	}
	defer unit.Close()

	property, snapshot, err := support.LoadSnapshot(unit.Ctx, unit, properties.PropertyID(q.PropertyID))
	if err != nil {
		return dto.Quote{}, err
	}
	quote, err := h.Validator.QuoteDates(booking.Candidate{
		Type:                  q.Type,
		Start:                 q.Start,
		End:                   q.End,
		Months:                q.Months,
		ExcludedReservationID: domainreservations.ReservationID(q.ExcludedReservationID),
	}, property, snapshot, h.Clock.Snapshot())
	if err != nil {
		return dto.Quote{}, err
	}
	return dto.MapQuote(q.PropertyID, quote), nil
}

var _ queries.Handler[ListQuery, dto.ReservationCollection] = (*ListHandler)(nil)
var _ queries.Handler[QuoteQuery, dto.Quote] = (*QuoteHandler)(nil)
