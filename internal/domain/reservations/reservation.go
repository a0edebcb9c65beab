package reservations

import (
	"context"
	"errors"
	"strings"
	"time"

	"rentdesk/internal/domain/properties"
	"rentdesk/internal/domain/shared/daterange"
	"rentdesk/internal/domain/shared/events"
	"rentdesk/internal/domain/shared/money"
)

var (
	ErrReservationNotFound = errors.New("reservations: not found")
	ErrIDRequired          = errors.New("reservations: id is required")
	ErrPropertyRequired    = errors.New("reservations: property id is required")
	ErrInvalidType         = errors.New("reservations: unknown rental type")
	ErrConcurrentUpdate    = errors.New("reservations: concurrent update detected")
)

type ReservationID string

// Guest carries the contact and identity details captured with a reservation.
type Guest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	PassportNumber string `json:"passport_number,omitempty"`
	NationalID     string `json:"national_id,omitempty"`
}

// Reservation is an occupied interval on a property. End is exclusive.
type Reservation struct {
	ID         ReservationID
	PropertyID properties.PropertyID
	Type       properties.RentalType
	Range      daterange.DateRange
	Months     int
	Guest      Guest
	Total      money.Money
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Version    int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ReservationID) (*Reservation, error)
	ListByProperty(ctx context.Context, propertyID properties.PropertyID) ([]*Reservation, error)
	Save(ctx context.Context, reservation *Reservation) error
	Delete(ctx context.Context, id ReservationID) error
}

type CreateParams struct {
	ID         ReservationID
	PropertyID properties.PropertyID
	Type       properties.RentalType
	Range      daterange.DateRange
	Months     int
	Guest      Guest
	Total      money.Money
	Now        time.Time
}

func New(params CreateParams) (*Reservation, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(string(params.PropertyID)) == "" {
		return nil, ErrPropertyRequired
	}
	if params.Type != properties.RentalDaily && params.Type != properties.RentalMonthly {
		return nil, ErrInvalidType
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	now := params.Now.UTC()
	r := &Reservation{
		ID:         params.ID,
		PropertyID: params.PropertyID,
		Type:       params.Type,
		Range:      params.Range,
		Months:     params.Months,
		Guest:      params.Guest,
		Total:      params.Total,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	r.Record(ReservationCreated{
		ReservationID: r.ID,
		PropertyID:    r.PropertyID,
		Type:          r.Type,
		Range:         r.Range,
		Total:         r.Total,
		At:            now,
	})
	return r, nil
}

type RescheduleParams struct {
	Type   properties.RentalType
	Range  daterange.DateRange
	Months int
	Guest  Guest
	Total  money.Money
	Now    time.Time
}

// Reschedule replaces the interval, type and price snapshot of an existing reservation.
func (r *Reservation) Reschedule(params RescheduleParams) error {
	if params.Type != properties.RentalDaily && params.Type != properties.RentalMonthly {
		return ErrInvalidType
	}
	if err := params.Range.Validate(); err != nil {
		return err
	}
	previous := r.Range
	now := params.Now.UTC()
	r.Type = params.Type
	r.Range = params.Range
	r.Months = params.Months
	r.Guest = params.Guest
	r.Total = params.Total
	r.UpdatedAt = now
	r.Record(ReservationRescheduled{
		ReservationID: r.ID,
		PropertyID:    r.PropertyID,
		Previous:      previous,
		Range:         r.Range,
		Total:         r.Total,
		At:            now,
	})
	return nil
}

// Cancel records the cancellation; the caller removes the reservation from storage.
func (r *Reservation) Cancel(reason string, now time.Time) {
	r.UpdatedAt = now.UTC()
	r.Record(ReservationCancelled{
		ReservationID: r.ID,
		PropertyID:    r.PropertyID,
		Range:         r.Range,
		Reason:        strings.TrimSpace(reason),
		At:            r.UpdatedAt,
	})
}

// Clone returns a copy without pending events; snapshots handed to the engine are clones.
func (r *Reservation) Clone() *Reservation {
	if r == nil {
		return nil
	}
	clone := *r
	clone.EventRecorder = events.EventRecorder{}
	return &clone
}
