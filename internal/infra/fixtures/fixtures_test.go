package fixtures

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentdesk/internal/domain/properties"
	"rentdesk/internal/infra/storage/memory"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestLoad_SeedsValidEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"properties": [
			{"id": "p-1", "title": "Studio", "currency": "EUR", "daily_rate_cents": 9000, "daily_enabled": true},
			{"id": "", "title": "nameless", "currency": "EUR", "daily_enabled": true}
		],
		"reservations": [
			{"id": "r-1", "property_id": "p-1", "type": "daily", "check_in": "2024-05-10T00:00:00Z", "check_out": "2024-05-12T00:00:00Z", "total_cents": 18000},
			{"id": "r-2", "property_id": "missing", "type": "DAILY", "check_in": "2024-05-10T00:00:00Z", "check_out": "2024-05-12T00:00:00Z"},
			{"id": "r-3", "property_id": "p-1", "type": "WEEKLY", "check_in": "2024-06-10T00:00:00Z", "check_out": "2024-06-12T00:00:00Z"}
		]
	}`), 0o600))

	props := memory.NewPropertyRepository()
	res := memory.NewReservationRepository()
	report, err := Load(context.Background(), path, props, res, quiet, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, Report{Properties: 1, Reservations: 1, Skipped: 3}, report)

	list, err := res.ListByProperty(context.Background(), properties.PropertyID("p-1"))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(18000), list[0].Total.Amount)
}

func TestLoad_SecondRunKeepsStoredRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"properties": [{"id": "p-1", "title": "Studio", "currency": "EUR", "daily_rate_cents": 9000, "daily_enabled": true}],
		"reservations": [{"id": "r-1", "property_id": "p-1", "type": "DAILY", "check_in": "2024-05-10T00:00:00Z", "check_out": "2024-05-12T00:00:00Z"}]
	}`), 0o600))
	ctx := context.Background()
	props := memory.NewPropertyRepository()
	res := memory.NewReservationRepository()
	now := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	first, err := Load(ctx, path, props, res, quiet, now)
	require.NoError(t, err)
	assert.Equal(t, Report{Properties: 1, Reservations: 1}, first)

	second, err := Load(ctx, path, props, res, quiet, now)
	require.NoError(t, err)
	assert.Equal(t, Report{Existing: 2}, second)

	stored, err := res.ByID(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Version)
}

func TestLoad_MissingFileIsIgnored(t *testing.T) {
	report, err := Load(context.Background(), filepath.Join(t.TempDir(), "none.json"), memory.NewPropertyRepository(), memory.NewReservationRepository(), quiet, time.Now())
	require.NoError(t, err)
	assert.Zero(t, report)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	_, err := Load(context.Background(), path, memory.NewPropertyRepository(), memory.NewReservationRepository(), quiet, time.Now())
	assert.Error(t, err)
}
