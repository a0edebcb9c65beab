package reservations

import (
	"time"

	"rentdesk/internal/domain/properties"
	"rentdesk/internal/domain/shared/daterange"
	"rentdesk/internal/domain/shared/money"
)

const (
	EventCreated     = "reservation.created"
	EventRescheduled = "reservation.rescheduled"
	EventCancelled   = "reservation.cancelled"
)

type ReservationCreated struct {
	ReservationID ReservationID         `json:"reservation_id"`
	PropertyID    properties.PropertyID `json:"property_id"`
	Type          properties.RentalType `json:"type"`
	Range         daterange.DateRange   `json:"range"`
	Total         money.Money           `json:"total"`
	At            time.Time             `json:"at"`
}

func (e ReservationCreated) EventName() string     { return EventCreated }
func (e ReservationCreated) AggregateID() string   { return string(e.PropertyID) }
func (e ReservationCreated) OccurredAt() time.Time { return e.At }

type ReservationRescheduled struct {
	ReservationID ReservationID         `json:"reservation_id"`
	PropertyID    properties.PropertyID `json:"property_id"`
	Previous      daterange.DateRange   `json:"previous"`
	Range         daterange.DateRange   `json:"range"`
	Total         money.Money           `json:"total"`
	At            time.Time             `json:"at"`
}

func (e ReservationRescheduled) EventName() string     { return EventRescheduled }
func (e ReservationRescheduled) AggregateID() string   { return string(e.PropertyID) }
func (e ReservationRescheduled) OccurredAt() time.Time { return e.At }

type ReservationCancelled struct {
	ReservationID ReservationID         `json:"reservation_id"`
	PropertyID    properties.PropertyID `json:"property_id"`
	Range         daterange.DateRange   `json:"range"`
	Reason        string                `json:"reason,omitempty"`
	At            time.Time             `json:"at"`
}

func (e ReservationCancelled) EventName() string     { return EventCancelled }
func (e ReservationCancelled) AggregateID() string   { return string(e.PropertyID) }
func (e ReservationCancelled) OccurredAt() time.Time { return e.At }
