package reservations

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

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

const CreateKey = "reservations.create"

type CreateCommand struct {
	ReservationID   string
	PropertyID      string `validate:"required"`
	Type            properties.RentalType
	Start           daterange.Day
	End             daterange.Day
	Months          int
	Guest           domainreservations.Guest
	IdempotencyKeyV string
}

func (c CreateCommand) Key() string { return CreateKey }

func (c CreateCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateCommand) ResultPrototype() any { return &dto.Reservation{} }

func (c CreateCommand) candidate() booking.Candidate {
	return booking.Candidate{Type: c.Type, Start: c.Start, End: c.End, Months: c.Months, Guest: c.Guest}
}

// Deps are shared by the reservation command handlers.
type Deps struct {
	UoWFactory uow.UoWFactory
	Validator  *booking.Validator
	Clock      support.Clock
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (d Deps) encoder() outbox.EventEncoder {
	if d.Encoder != nil {
		return d.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (d Deps) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

type CreateHandler struct {
	Deps
}

func (h *CreateHandler) Handle(ctx context.Context, cmd CreateCommand) (*dto.Reservation, error) {
	unit, err := support.BeginUnit(ctx, h.UoWFactory, uow.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer unit.Close()
	ctx = unit.Ctx

	propertyID := properties.PropertyID(cmd.PropertyID)
	property, snapshot, err := support.LoadSnapshot(ctx, unit, propertyID)
	if err != nil {
		return nil, err
	}

	clock := h.Clock.Snapshot()
	quote, err := h.Validator.ValidateAndPrice(cmd.candidate(), property, snapshot, clock)
	if err != nil {
		return nil, err
	}

	id := cmd.ReservationID
	if id == "" {
		id = uuid.NewString()
	}
	reservation, err := domainreservations.New(domainreservations.CreateParams{
		ID:         domainreservations.ReservationID(id),
		PropertyID: propertyID,
		Type:       quote.Type,
		Range:      quote.Range,
		Months:     cmd.Months,
		Guest:      cmd.Guest,
		Total:      quote.Price,
		Now:        clock.Now,
	})
	if err != nil {
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

	h.logger().InfoContext(ctx, "reservation created",
		"reservation_id", reservation.ID,
		"property_id", propertyID,
		"type", reservation.Type,
		"start", quote.Start.String(),
		"end", quote.NormalizedEnd.String(),
		"total", reservation.Total.String(),
	)
	out := dto.MapReservation(reservation)
	return &out, nil
}

var _ commands.Handler[CreateCommand, *dto.Reservation] = (*CreateHandler)(nil)
var _ middleware.IdempotentCommand = CreateCommand{}
