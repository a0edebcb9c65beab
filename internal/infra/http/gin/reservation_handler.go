package ginserver

import (
	"fmt"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentdesk/internal/app/commands"
	"rentdesk/internal/app/dto"
	reservationsapp "rentdesk/internal/app/handlers/reservations"
	"rentdesk/internal/app/queries"
	"rentdesk/internal/domain/reservations"
	"rentdesk/internal/domain/shared/daterange"
)

const idempotencyHeader = "Idempotency-Key"

type ReservationHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type datesRequest struct {
	Type   string        `json:"type"`
	Start  daterange.Day `json:"start"`
	End    daterange.Day `json:"end"`
	Months int           `json:"months"`
}

type quoteRequest struct {
	datesRequest
	ExcludedReservationID string `json:"exclude_reservation_id"`
}

type reservationRequest struct {
	datesRequest
	Guest dto.Guest `json:"guest"`
}

type updateReservationRequest struct {
	reservationRequest
	Version int64 `json:"version"`
}

func (r reservationRequest) guest() reservations.Guest {
	return reservations.Guest{
		Name:           r.Guest.Name,
		Email:          r.Guest.Email,
		Phone:          r.Guest.Phone,
		PassportNumber: r.Guest.PassportNumber,
		NationalID:     r.Guest.NationalID,
	}
}

func (h ReservationHandler) bind(c *gin.Context, out any) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		respondError(c, h.Logger, fmt.Errorf("%w: %v", errBadRequest, err))
		return false
	}
	return true
}

func (h ReservationHandler) List(c *gin.Context) {
	query := reservationsapp.ListQuery{PropertyID: c.Param("id")}
	result, err := queries.Ask[reservationsapp.ListQuery, dto.ReservationCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Quote prices candidate dates without guest details and without booking them.
func (h ReservationHandler) Quote(c *gin.Context) {
	var req quoteRequest
	if !h.bind(c, &req) {
		return
	}
	query := reservationsapp.QuoteQuery{
		PropertyID:            c.Param("id"),
		Type:                  rentalType(req.Type),
		Start:                 req.Start,
		End:                   req.End,
		Months:                req.Months,
		ExcludedReservationID: req.ExcludedReservationID,
	}
	result, err := queries.Ask[reservationsapp.QuoteQuery, dto.Quote](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReservationHandler) Create(c *gin.Context) {
	var req reservationRequest
	if !h.bind(c, &req) {
		return
	}
	cmd := reservationsapp.CreateCommand{
		PropertyID:      c.Param("id"),
		Type:            rentalType(req.Type),
		Start:           req.Start,
		End:             req.End,
		Months:          req.Months,
		Guest:           req.guest(),
		IdempotencyKeyV: c.GetHeader(idempotencyHeader),
	}
	result, err := commands.Dispatch[reservationsapp.CreateCommand, *dto.Reservation](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Header("Location", "/api/v1/reservations/"+result.ID)
	c.JSON(http.StatusCreated, result)
}

func (h ReservationHandler) Update(c *gin.Context) {
	var req updateReservationRequest
	if !h.bind(c, &req) {
		return
	}
	cmd := reservationsapp.UpdateCommand{
		ReservationID:   c.Param("id"),
		Type:            rentalType(req.Type),
		Start:           req.Start,
		End:             req.End,
		Months:          req.Months,
		Guest:           req.guest(),
		ExpectedVersion: req.Version,
		IdempotencyKeyV: c.GetHeader(idempotencyHeader),
	}
	result, err := commands.Dispatch[reservationsapp.UpdateCommand, *dto.Reservation](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReservationHandler) Cancel(c *gin.Context) {
	cmd := reservationsapp.CancelCommand{ReservationID: c.Param("id"), Reason: c.Query("reason")}
	if _, err := commands.Dispatch[reservationsapp.CancelCommand, *dto.Reservation](c.Request.Context(), h.Commands, cmd); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

var _ ReservationHTTP = ReservationHandler{}
