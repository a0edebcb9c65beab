// Package fixtures seeds properties and reservations from a JSON file at start-up.
package fixtures

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"rentdesk/internal/domain/properties"
	"rentdesk/internal/domain/reservations"
	"rentdesk/internal/domain/shared/daterange"
	"rentdesk/internal/domain/shared/money"
)

type File struct {
	Properties   []Property    `json:"properties"`
	Reservations []Reservation `json:"reservations"`
}

type Property struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Address          string `json:"address"`
	Currency         string `json:"currency"`
	DailyRateCents   int64  `json:"daily_rate_cents"`
	DailyEnabled     bool   `json:"daily_enabled"`
	MonthlyRateCents int64  `json:"monthly_rate_cents"`
	MonthlyEnabled   bool   `json:"monthly_enabled"`
}

// Reservation carries exact instants; fixtures bypass booking validation so past and
// partial-day stays can be seeded.
type Reservation struct {
	ID         string             `json:"id"`
	PropertyID string             `json:"property_id"`
	Type       string             `json:"type"`
	CheckIn    time.Time          `json:"check_in"`
	CheckOut   time.Time          `json:"check_out"`
	Months     int                `json:"months"`
	TotalCents int64              `json:"total_cents"`
	Guest      reservations.Guest `json:"guest"`
}

type Report struct {
	Properties   int
	Reservations int
	Skipped      int
	// Existing counts entries already in the store, left as they are.
	Existing int
}

// Load reads path and stores every valid entry that is not stored yet, so a persistent
// store can be seeded on every start. A missing file is not an error; invalid entries
// are logged and skipped.
func Load(ctx context.Context, path string, props properties.Repository, res reservations.Repository, logger *slog.Logger, now time.Time) (Report, error) {
	var report Report
	if strings.TrimSpace(path) == "" {
		return report, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("fixtures file not found, skipping", "path", path)
			return report, nil
		}
		return report, fmt.Errorf("fixtures: read: %w", err)
	}
	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return report, fmt.Errorf("fixtures: decode %s: %w", path, err)
	}

	for _, fx := range file.Properties {
		if _, err := props.ByID(ctx, properties.PropertyID(fx.ID)); err == nil {
			report.Existing++
			continue
		}
		p, err := properties.NewProperty(properties.CreateParams{
			ID:               properties.PropertyID(fx.ID),
			Title:            fx.Title,
			Address:          fx.Address,
			Currency:         fx.Currency,
			DailyRateCents:   fx.DailyRateCents,
			DailyEnabled:     fx.DailyEnabled,
			MonthlyRateCents: fx.MonthlyRateCents,
			MonthlyEnabled:   fx.MonthlyEnabled,
			Now:              now,
		})
		if err == nil {
			err = props.Save(ctx, p)
		}
		if err != nil {
			logger.Warn("property fixture skipped", "property_id", fx.ID, "error", err)
			report.Skipped++
			continue
		}
		report.Properties++
	}

	for _, fx := range file.Reservations {
		if _, err := res.ByID(ctx, reservations.ReservationID(fx.ID)); err == nil {
			report.Existing++
			continue
		}
		r, err := fx.build(ctx, props, now)
		if err == nil {
			err = res.Save(ctx, r)
		}
		if err != nil {
			logger.Warn("reservation fixture skipped", "reservation_id", fx.ID, "error", err)
			report.Skipped++
			continue
		}
		report.Reservations++
	}
	logger.Info("fixtures loaded", "path", path,
		"properties", report.Properties, "reservations", report.Reservations,
		"skipped", report.Skipped, "existing", report.Existing)
	return report, nil
}

func (fx Reservation) build(ctx context.Context, props properties.Repository, now time.Time) (*reservations.Reservation, error) {
	p, err := props.ByID(ctx, properties.PropertyID(fx.PropertyID))
	if err != nil {
		return nil, err
	}
	rentalType, err := properties.ParseRentalType(fx.Type)
	if err != nil {
		return nil, err
	}
	total, err := money.New(fx.TotalCents, p.Currency)
	if err != nil {
		return nil, err
	}
	return reservations.New(reservations.CreateParams{
		ID:         reservations.ReservationID(fx.ID),
		PropertyID: p.ID,
		Type:       rentalType,
		Range:      daterange.DateRange{Start: fx.CheckIn, End: fx.CheckOut},
		Months:     fx.Months,
		Guest:      fx.Guest,
		Total:      total,
		Now:        now,
	})
}
