package reservations

import (
	"context"

	"rentdesk/internal/app/commands"
	"rentdesk/internal/app/dto"
	"rentdesk/internal/app/handlers/support"
	"rentdesk/internal/app/outbox"
	"rentdesk/internal/app/uow"
	domainreservations "rentdesk/internal/domain/reservations"
)

const CancelKey = "reservations.cancel"

type CancelCommand struct {
	ReservationID string `validate:"required"`
	Reason        string `validate:"max=500"`
}

func (c CancelCommand) Key() string { return CancelKey }

type CancelHandler struct {
	Deps
}

// Handle removes the reservation, freeing its interval for other bookings.
func (h *CancelHandler) Handle(ctx context.Context, cmd CancelCommand) (*dto.Reservation, error) {
	unit, err := support.BeginUnit(ctx, h.UoWFactory, uow.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer unit.Close()
	ctx = unit.Ctx

	id := domainreservations.ReservationID(cmd.ReservationID)
	reservation, err := unit.Reservations().ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	reservation.Cancel(cmd.Reason, h.Clock.Snapshot().Now)

	if err := unit.Reservations().Delete(ctx, id); err != nil {
		return nil, err
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), reservation.Drain()); err != nil {
		return nil, err
	}
	if err := unit.Commit(); err != nil {
		return nil, err
	}

	h.logger().InfoContext(ctx, "reservation cancelled", "reservation_id", id, "property_id", reservation.PropertyID)
	out := dto.MapReservation(reservation)
	return &out, nil
}

var _ commands.Handler[CancelCommand, *dto.Reservation] = (*CancelHandler)(nil)
