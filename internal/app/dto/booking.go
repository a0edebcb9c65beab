package dto

import (
	"time"

	"rentdesk/internal/domain/booking"
	"rentdesk/internal/domain/reservations"
	"rentdesk/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Display  string `json:"display"`
}

func MapMoney(m money.Money) MoneyDTO {
	return MoneyDTO{Amount: m.Amount, Currency: m.Currency, Display: m.String()}
}

type Quote struct {
	PropertyID    string    `json:"property_id"`
	Type          string    `json:"type"`
	Start         string    `json:"start"`
	NormalizedEnd string    `json:"normalized_end"`
	CheckIn       time.Time `json:"check_in"`
	CheckOut      time.Time `json:"check_out"`
	Unit          string    `json:"unit"`
	Units         int       `json:"units"`
	Rate          MoneyDTO  `json:"rate"`
	Price         MoneyDTO  `json:"price"`
}

func MapQuote(propertyID string, q booking.Quote) Quote {
	return Quote{
		PropertyID:    propertyID,
		Type:          string(q.Type),
		Start:         q.Start.String(),
		NormalizedEnd: q.NormalizedEnd.String(),
		CheckIn:       q.Range.Start,
		CheckOut:      q.Range.End,
		Unit:          q.Unit,
		Units:         q.Units,
		Rate:          MapMoney(q.Rate),
		Price:         MapMoney(q.Price),
	}
}

type Guest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	PassportNumber string `json:"passport_number,omitempty"`
	NationalID     string `json:"national_id,omitempty"`
}

type Reservation struct {
	ID         string    `json:"id"`
	PropertyID string    `json:"property_id"`
	Type       string    `json:"type"`
	CheckIn    time.Time `json:"check_in"`
	CheckOut   time.Time `json:"check_out"`
	Months     int       `json:"months,omitempty"`
	Guest      Guest     `json:"guest"`
	Total      MoneyDTO  `json:"total"`
	Version    int64     `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type ReservationCollection struct {
	Items []Reservation `json:"items"`
}

func MapReservation(r *reservations.Reservation) Reservation {
	if r == nil {
		return Reservation{}
	}
	return Reservation{
		ID:         string(r.ID),
		PropertyID: string(r.PropertyID),
		Type:       string(r.Type),
		CheckIn:    r.Range.Start,
		CheckOut:   r.Range.End,
		Months:     r.Months,
		Guest: Guest{
			Name:           r.Guest.Name,
			Email:          r.Guest.Email,
			Phone:          r.Guest.Phone,
			PassportNumber: r.Guest.PassportNumber,
			NationalID:     r.Guest.NationalID,
		},
		Total:     MapMoney(r.Total),
		Version:   r.Version,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func MapReservations(list []*reservations.Reservation) ReservationCollection {
	items := make([]Reservation, 0, len(list))
	for _, r := range list {
		items = append(items, MapReservation(r))
	}
	return ReservationCollection{Items: items}
}
