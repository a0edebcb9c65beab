package reservations

import (
	"context"
	"errors"

	"rentdesk/internal/app/commands"
	"rentdesk/internal/app/dto"
	"rentdesk/internal/app/handlers/support"
	"rentdesk/internal/app/middleware"
	"rentdesk/internal/app/outbox"
	"rentdesk/internal/app/uow"
	"rentdesk/internal/domain/booking"
	"rentdesk/internal/domain/properties"
	domainreservations "rentdesk/internal/domain/reservations"
	"rentdesk/internal/domain/shared/daterange"
)

const UpdateKey = "reservations.update"

// ErrVersionMismatch is returned when the client edited a stale copy of the reservation.
var ErrVersionMismatch = errors.New("reservations: reservation was modified by someone else")

type UpdateCommand struct {
	ReservationID string `validate:"required"`
	Type          properties.RentalType
	Start         daterange.Day
	End           daterange.Day
	Months        int
	Guest         domainreservations.Guest
	// ExpectedVersion is checked when non-zero.
	ExpectedVersion int64 `validate:"gte=0"`
	IdempotencyKeyV string
}

func (c UpdateCommand) Key() string { return UpdateKey }

func (c UpdateCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c UpdateCommand) ResultPrototype() any { return &dto.Reservation{} }

type UpdateHandler struct {
	Deps
}

// Handle re-validates the edited dates against every other reservation of the property,
// ignoring the reservation's own current interval.
func (h *UpdateHandler) Handle(ctx context.Context, cmd UpdateCommand) (*dto.Reservation, error) {
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
	if cmd.ExpectedVersion != 0 && cmd.ExpectedVersion != reservation.Version {
		return nil, ErrVersionMismatch
	}

	property, snapshot, err := support.LoadSnapshot(ctx, unit, reservation.PropertyID)
	if err != nil {
		return nil, err
	}

	clock := h.Clock.Snapshot()
	candidate := booking.Candidate{
		Type:                  cmd.Type,
		Start:                 cmd.Start,
		End:                   cmd.End,
		Months:                cmd.Months,
		ExcludedReservationID: id,
		Guest:                 cmd.Guest,
	}
	quote, err := h.Validator.ValidateAndPrice(candidate, property, snapshot, clock)
	if err != nil {
		return nil, err
	}

	previous := reservation.Range
	if err := reservation.Reschedule(domainreservations.RescheduleParams{
		Type:   quote.Type,
		Range:  quote.Range,
		Months: cmd.Months,
		Guest:  cmd.Guest,
		Total:  quote.Price,
		Now:    clock.Now,
	}); err != nil {
		return nil, err
	}
	if err := unit.Reservations().Save(ctx, reservation); err != nil {
		return nil, err
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), reservation.Drain()); err != nil {
		return nil, err
	}
	if err := unit.Commit(); err != nil {
		return nil, err
	}

	h.logger().InfoContext(ctx, "reservation rescheduled",
		"reservation_id", reservation.ID,
		"property_id", reservation.PropertyID,
		"previous_start", previous.Start,
		"start", reservation.Range.Start,
		"end", reservation.Range.End,
	)
	out := dto.MapReservation(reservation)
	return &out, nil
}

var _ commands.Handler[UpdateCommand, *dto.Reservation] = (*UpdateHandler)(nil)
var _ middleware.IdempotentCommand = UpdateCommand{}
