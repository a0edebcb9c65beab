package dto

import (
	"time"

	"rentdesk/internal/domain/properties"
)

type RentalOption struct {
	Type    string   `json:"type"`
	Unit    string   `json:"unit"`
	Rate    MoneyDTO `json:"rate"`
	Enabled bool     `json:"enabled"`
}

type Property struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Address   string         `json:"address"`
	Currency  string         `json:"currency"`
	Rentals   []RentalOption `json:"rentals"`
	Bookable  bool           `json:"bookable"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type PropertyCollection struct {
	Items []Property `json:"items"`
}

func MapProperty(p *properties.Property) Property {
	if p == nil {
		return Property{}
	}
	rentals := make([]RentalOption, 0, 2)
	for _, t := range []properties.RentalType{properties.RentalDaily, properties.RentalMonthly} {
		rate, enabled := p.Rate(t)
		if rate.Currency == "" {
			rate.Currency = p.Currency
		}
		rentals = append(rentals, RentalOption{Type: string(t), Unit: t.Unit(), Rate: MapMoney(rate), Enabled: enabled})
	}
	return Property{
		ID:        string(p.ID),
		Title:     p.Title,
		Address:   p.Address,
		Currency:  p.Currency,
		Rentals:   rentals,
		Bookable:  p.Bookable(),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func MapProperties(list []*properties.Property) PropertyCollection {
	items := make([]Property, 0, len(list))
	for _, p := range list {
		items = append(items, MapProperty(p))
	}
	return PropertyCollection{Items: items}
}
