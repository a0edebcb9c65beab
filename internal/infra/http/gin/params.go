package ginserver

import (
	"fmt"
	"strings"
	"time"

	"rentdesk/internal/domain/properties"
	"rentdesk/internal/domain/shared/daterange"
)

// parseOptionalDay returns the zero Day for an empty value.
func parseOptionalDay(name, raw string) (daterange.Day, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return daterange.Day{}, nil
	}
	d, err := daterange.ParseDay(raw)
	if err != nil {
		return daterange.Day{}, fmt.Errorf("%s: %w", name, err)
	}
	return d, nil
}

func parseMonth(raw string) (daterange.Day, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return daterange.Day{}, nil
	}
	t, err := time.Parse("2006-01", raw)
	if err != nil {
		return daterange.Day{}, fmt.Errorf("%w: month must be YYYY-MM, got %q", errBadRequest, raw)
	}
	return daterange.DayOf(t), nil
}

// rentalType accepts the aliases properties.ParseRentalType knows. Unknown values pass
// through unchanged so booking validation can report them as INVALID_FORMAT.
func rentalType(raw string) properties.RentalType {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	t, err := properties.ParseRentalType(raw)
	if err != nil {
		return properties.RentalType(strings.ToUpper(raw))
	}
	return t
}
