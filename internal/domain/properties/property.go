package properties

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rentdesk/internal/domain/shared/money"
)

var (
	ErrPropertyNotFound = errors.New("properties: not found")
	ErrIDRequired       = errors.New("properties: id is required")
	ErrTitleRequired    = errors.New("properties: title is required")
	ErrNegativeRate     = errors.New("properties: rates must be non-negative")
	ErrUnknownRental    = errors.New("properties: unknown rental type")
	ErrConcurrentUpdate = errors.New("properties: concurrent update detected")
)

type PropertyID string

// RentalType is the booking granularity a property is rented by.
type RentalType string

const (
	RentalDaily   RentalType = "DAILY"
	RentalMonthly RentalType = "MONTHLY"
)

func ParseRentalType(raw string) (RentalType, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(RentalDaily), "DAY", "NIGHT", "SHORT":
		return RentalDaily, nil
	case string(RentalMonthly), "MONTH", "LONG":
		return RentalMonthly, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRental, raw)
	}
}

// Unit is the priced unit name for the rental type.
func (t RentalType) Unit() string {
	if t == RentalMonthly {
		return "month"
	}
	return "night"
}

type Property struct {
	ID             PropertyID
	Title          string
	Address        string
	Currency       string
	DailyRate      money.Money
	DailyEnabled   bool
	MonthlyRate    money.Money
	MonthlyEnabled bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Version        int64
}

type Repository interface {
	ByID(ctx context.Context, id PropertyID) (*Property, error)
	Save(ctx context.Context, property *Property) error
	List(ctx context.Context) ([]*Property, error)
}

type CreateParams struct {
	ID               PropertyID
	Title            string
	Address          string
	Currency         string
	DailyRateCents   int64
	DailyEnabled     bool
	MonthlyRateCents int64
	MonthlyEnabled   bool
	Now              time.Time
}

func NewProperty(params CreateParams) (*Property, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrTitleRequired
	}
	if params.DailyRateCents < 0 || params.MonthlyRateCents < 0 {
		return nil, ErrNegativeRate
	}
	daily, err := money.New(params.DailyRateCents, params.Currency)
	if err != nil {
		return nil, err
	}
	monthly, err := money.New(params.MonthlyRateCents, params.Currency)
	if err != nil {
		return nil, err
	}
	now := params.Now.UTC()
	return &Property{
		ID:             params.ID,
		Title:          strings.TrimSpace(params.Title),
		Address:        strings.TrimSpace(params.Address),
		Currency:       daily.Currency,
		DailyRate:      daily,
		DailyEnabled:   params.DailyEnabled,
		MonthlyRate:    monthly,
		MonthlyEnabled: params.MonthlyEnabled,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Supports reports whether the rental type is enabled for booking.
func (p *Property) Supports(t RentalType) bool {
	switch t {
	case RentalDaily:
		return p.DailyEnabled
	case RentalMonthly:
		return p.MonthlyEnabled
	default:
		return false
	}
}

// Bookable is false when neither rental type is enabled.
func (p *Property) Bookable() bool {
	return p.DailyEnabled || p.MonthlyEnabled
}

// Rate returns the per-unit rate for t; ok is false when t is disabled.
func (p *Property) Rate(t RentalType) (money.Money, bool) {
	switch t {
	case RentalDaily:
		return p.DailyRate, p.DailyEnabled
	case RentalMonthly:
		return p.MonthlyRate, p.MonthlyEnabled
	default:
		return money.Money{}, false
	}
}
