package mongo

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"

	"rentdesk/internal/domain/properties"
	"rentdesk/internal/domain/reservations"
	"rentdesk/internal/domain/shared/daterange"
	"rentdesk/internal/domain/shared/money"
)

func TestReservationDocument_KeepsInstantsAndGuest(t *testing.T) {
	lisbon := time.FixedZone("WEST", 3600)
	r := &reservations.Reservation{
		ID:         "r-1",
		PropertyID: "p-1",
		Type:       properties.RentalMonthly,
		Range: daterange.DateRange{
			Start: time.Date(2024, time.March, 31, 0, 0, 0, 0, lisbon),
			End:   time.Date(2024, time.April, 30, 0, 0, 0, 0, lisbon),
		},
		Months:  1,
		Guest:   reservations.Guest{Name: "Ada", Email: "ada@example.com", Phone: "5551234", PassportNumber: "X1"},
		Total:   money.Must(180000, "EUR"),
		Version: 3,
	}

	back := newReservationDocument(r).toAggregate()
	assert.True(t, back.Range.Start.Equal(r.Range.Start))
	assert.True(t, back.Range.End.Equal(r.Range.End))
	assert.Equal(t, r.Guest, back.Guest)
	assert.Equal(t, r.Total, back.Total)
	assert.Equal(t, int64(3), back.Version)
	assert.Equal(t, properties.RentalMonthly, back.Type)
}

func TestIsWriteConflict(t *testing.T) {
	conflict := mongo.CommandError{Code: 112, Name: "WriteConflict"}
	assert.True(t, isWriteConflict(conflict))
	assert.True(t, isWriteConflict(mongo.CommandError{Labels: []string{"TransientTransactionError"}}))
	assert.False(t, isWriteConflict(mongo.CommandError{Code: 11000}))
	assert.False(t, isWriteConflict(errors.New("network down")))
}
