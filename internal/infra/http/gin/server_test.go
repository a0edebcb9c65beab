package ginserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentdesk/internal/app/commands"
	"rentdesk/internal/app/dto"
	availabilityapp "rentdesk/internal/app/handlers/availability"
	propertiesapp "rentdesk/internal/app/handlers/properties"
	reservationsapp "rentdesk/internal/app/handlers/reservations"
	"rentdesk/internal/app/handlers/support"
	"rentdesk/internal/app/middleware"
	"rentdesk/internal/app/queries"
	"rentdesk/internal/domain/availability"
	"rentdesk/internal/domain/booking"
	"rentdesk/internal/domain/properties"
	"rentdesk/internal/infra/obs"
	"rentdesk/internal/infra/storage/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, limiter *RateLimiter) *gin.Engine {
	t.Helper()
	props := memory.NewPropertyRepository()
	p, err := properties.NewProperty(properties.CreateParams{
		ID:               "p-1",
		Title:            "Harbour flat",
		Currency:         "EUR",
		DailyRateCents:   10000,
		DailyEnabled:     true,
		MonthlyRateCents: 200000,
		MonthlyEnabled:   true,
	})
	require.NoError(t, err)
	require.NoError(t, props.Save(context.Background(), p))

	factory := memory.NewFactory(props, memory.NewReservationRepository())
	box := memory.NewOutbox(nil)
	engine := availability.NewEngine(availability.DefaultConfig())
	clock := support.Clock{
		Now:      func() time.Time { return time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC) },
		LeadDays: 1,
		Location: time.UTC,
	}
	validator := booking.NewValidator(engine, booking.Config{})

	cmdBus := commands.NewInMemoryBus()
	resDeps := reservationsapp.Deps{UoWFactory: factory, Validator: validator, Clock: clock, Outbox: box}
	commands.RegisterHandler[reservationsapp.CreateCommand, *dto.Reservation](cmdBus, reservationsapp.CreateKey, &reservationsapp.CreateHandler{Deps: resDeps})
	commands.RegisterHandler[reservationsapp.UpdateCommand, *dto.Reservation](cmdBus, reservationsapp.UpdateKey, &reservationsapp.UpdateHandler{Deps: resDeps})
	commands.RegisterHandler[reservationsapp.CancelCommand, *dto.Reservation](cmdBus, reservationsapp.CancelKey, &reservationsapp.CancelHandler{Deps: resDeps})

	qBus := queries.NewInMemoryBus()
	avDeps := availabilityapp.Deps{UoWFactory: factory, Engine: engine, Clock: clock}
	queries.RegisterHandler[availabilityapp.MonthQuery, dto.MonthCalendar](qBus, availabilityapp.MonthKey, &availabilityapp.MonthHandler{Deps: avDeps})
	queries.RegisterHandler[availabilityapp.DayQuery, dto.DayDetail](qBus, availabilityapp.DayKey, &availabilityapp.DayHandler{Deps: avDeps})
	queries.RegisterHandler[availabilityapp.FeasibilityQuery, dto.Feasibility](qBus, availabilityapp.FeasibilityKey, &availabilityapp.FeasibilityHandler{Deps: avDeps})
	queries.RegisterHandler[availabilityapp.CheckQuery, dto.DateCheck](qBus, availabilityapp.CheckKey, &availabilityapp.CheckHandler{Deps: avDeps})
	queries.RegisterHandler[propertiesapp.ListQuery, dto.PropertyCollection](qBus, propertiesapp.ListKey, &propertiesapp.ListHandler{UoWFactory: factory})
	queries.RegisterHandler[propertiesapp.GetQuery, dto.Property](qBus, propertiesapp.GetKey, &propertiesapp.GetHandler{UoWFactory: factory})
	queries.RegisterHandler[reservationsapp.ListQuery, dto.ReservationCollection](qBus, reservationsapp.ListKey, &reservationsapp.ListHandler{UoWFactory: factory})
	queries.RegisterHandler[reservationsapp.QuoteQuery, dto.Quote](qBus, reservationsapp.QuoteKey, &reservationsapp.QuoteHandler{UoWFactory: factory, Validator: validator, Clock: clock})

	structValidator := middleware.NewStructValidator()
	cmds := middleware.ChainCommands(cmdBus,
		middleware.Validation(structValidator),
		middleware.Idempotency(memory.NewIdempotencyStore(time.Hour), nil, nil),
		middleware.Transaction(factory, nil),
		middleware.OutboxFlush(box),
	)
	qs := middleware.ChainQueries(qBus, middleware.QueryValidation(structValidator))

	h := Handlers{
		Properties:   PropertyHandler{Queries: qs},
		Availability: AvailabilityHandler{Queries: qs},
		Reservations: ReservationHandler{Commands: cmds, Queries: qs},
	}
	if limiter != nil {
		h.RateLimit = limiter.Middleware()
	}
	return NewRouter(obs.Middleware{}, obs.HealthHandlers{}, h)
}

func do(t *testing.T, r http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

var validGuest = map[string]string{
	"name":        "Ada Lovelace",
	"email":       "ada@example.com",
	"phone":       "+44 20 7946 0958",
	"national_id": "AB123",
}

func TestReservationLifecycle(t *testing.T) {
	r := newTestRouter(t, nil)

	w := do(t, r, http.MethodPost, "/api/v1/properties/p-1/reservations", map[string]any{
		"type": "daily", "start": "2024-03-10", "end": "2024-03-15", "guest": validGuest,
	}, map[string]string{"Idempotency-Key": "k-1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[dto.Reservation](t, w)
	assert.Equal(t, int64(50000), created.Total.Amount)
	assert.Equal(t, "/api/v1/reservations/"+created.ID, w.Header().Get("Location"))

	w = do(t, r, http.MethodGet, "/api/v1/properties/p-1/calendar?month=2024-03", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cal := decode[dto.MonthCalendar](t, w)
	require.Len(t, cal.Days, 31)
	assert.Equal(t, string(availability.StatusBooked), cal.Days[9].Status)
	assert.Equal(t, string(availability.StatusAvailable), cal.Days[14].Status)

	w = do(t, r, http.MethodPut, "/api/v1/reservations/"+created.ID, map[string]any{
		"type": "DAILY", "start": "2024-03-12", "end": "2024-03-16", "guest": validGuest, "version": created.Version,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, r, http.MethodPut, "/api/v1/reservations/"+created.ID, map[string]any{
		"type": "DAILY", "start": "2024-03-12", "end": "2024-03-17", "guest": validGuest, "version": created.Version,
	}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, r, http.MethodDelete, "/api/v1/reservations/"+created.ID+"?reason=moved", nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, r, http.MethodDelete, "/api/v1/reservations/"+created.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateReservation_ValidationErrors(t *testing.T) {
	r := newTestRouter(t, nil)

	w := do(t, r, http.MethodPost, "/api/v1/properties/p-1/reservations", map[string]any{
		"type": "DAILY", "start": "2024-03-10", "end": "2024-03-08",
		"guest": map[string]string{"email": "not-an-email", "phone": "12"},
	}, nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	body := decode[errorResponse](t, w)
	assert.True(t, body.Errors.Has(booking.CodeInvalidDateOrder))
	assert.True(t, body.Errors.Has(booking.CodeMissingField))
	assert.True(t, body.Errors.Has(booking.CodeInvalidFormat))
	assert.True(t, body.Errors.Has(booking.CodeMissingIdentityDocument))
}

func TestBadRequests(t *testing.T) {
	r := newTestRouter(t, nil)

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"bad month", http.MethodGet, "/api/v1/properties/p-1/calendar?month=March", nil, http.StatusBadRequest},
		{"bad day", http.MethodGet, "/api/v1/properties/p-1/days/2024-13-01", nil, http.StatusBadRequest},
		{"bad instant", http.MethodGet, "/api/v1/properties/p-1/feasibility?at=tomorrow", nil, http.StatusBadRequest},
		{"bad json date", http.MethodPost, "/api/v1/properties/p-1/quote", map[string]any{"start": "10/03/2024"}, http.StatusBadRequest},
		{"unknown property", http.MethodGet, "/api/v1/properties/nope", nil, http.StatusNotFound},
		{"unknown property calendar", http.MethodGet, "/api/v1/properties/nope/calendar?month=2024-04", nil, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, r, tc.method, tc.path, tc.body, nil)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
		})
	}
}

func TestQuoteAndDayEndpoints(t *testing.T) {
	r := newTestRouter(t, nil)

	w := do(t, r, http.MethodPost, "/api/v1/properties/p-1/quote", map[string]any{
		"type": "MONTHLY", "start": "2024-01-31", "months": 1,
	}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "past start")

	w = do(t, r, http.MethodPost, "/api/v1/properties/p-1/quote", map[string]any{
		"type": "MONTHLY", "start": "2024-03-31", "months": 2,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	quote := decode[dto.Quote](t, w)
	assert.Equal(t, "2024-05-31", quote.NormalizedEnd)
	assert.Equal(t, int64(400000), quote.Price.Amount)

	w = do(t, r, http.MethodGet, "/api/v1/properties/p-1/days/2024-03-01", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode[dto.DayDetail](t, w)
	require.Len(t, detail.Free, 1)
	assert.Equal(t, time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC), detail.Free[0].Start.UTC())

	w = do(t, r, http.MethodGet, "/api/v1/properties/p-1/feasibility?at=2024-03-05T10:00:00Z", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[dto.Feasibility](t, w).Feasible)

	w = do(t, r, http.MethodGet, "/api/v1/properties/p-1/availability/2024-03-05?type=DAILY&start=2024-03-07", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	check := decode[dto.DateCheck](t, w)
	assert.Equal(t, string(availability.StatusInvalidEnd), check.Status)
	assert.False(t, check.Available)
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(1, 2, nil)
	now := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	r := newTestRouter(t, limiter)

	for i := 0; i < 2; i++ {
		w := do(t, r, http.MethodGet, "/api/v1/properties", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := do(t, r, http.MethodGet, "/api/v1/properties", nil, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	w = do(t, r, http.MethodGet, "/livez", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code, "health checks are not limited")

	now = now.Add(time.Second)
	w = do(t, r, http.MethodGet, "/api/v1/properties", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusConflict, statusFor(reservationsapp.ErrVersionMismatch))
	assert.Equal(t, http.StatusConflict, statusFor(middleware.ErrIdempotencyKeyReuse))
	assert.Equal(t, http.StatusBadRequest, statusFor(middleware.ErrInvalidMessage))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}
