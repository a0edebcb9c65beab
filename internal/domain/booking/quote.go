package booking

import (
	"time"

	"rentdesk/internal/domain/properties"
	"rentdesk/internal/domain/shared/daterange"
	"rentdesk/internal/domain/shared/money"
)

// Quote is the priced, normalized form of a valid candidate.
type Quote struct {
	Type  properties.RentalType `json:"type"`
	Start daterange.Day         `json:"start"`
	// NormalizedEnd is the exclusive last day: checkout for DAILY, start plus months for MONTHLY.
	NormalizedEnd daterange.Day       `json:"normalized_end"`
	Range         daterange.DateRange `json:"range"`
	Unit          string              `json:"unit"`
	Units         int                 `json:"units"`
	Rate          money.Money         `json:"rate"`
	Price         money.Money         `json:"price"`
}

func price(c Candidate, property *properties.Property, end daterange.Day, loc *time.Location) Quote {
	rate, _ := property.Rate(c.Type)

	units := c.Months
	if c.Type == properties.RentalDaily {
		// the checkout day is not charged, but a stay is never free
		units = c.Start.DaysUntil(end)
		if units < 1 {
			units = 1
		}
	}

	return Quote{
		Type:          c.Type,
		Start:         c.Start,
		NormalizedEnd: end,
		Range:         daterange.DateRange{Start: c.Start.Start(loc), End: end.Start(loc)},
		Unit:          c.Type.Unit(),
		Units:         units,
		Rate:          rate,
		Price:         rate.Multiply(int64(units)),
	}
}
