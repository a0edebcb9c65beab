package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentdesk/internal/app/commands"
	reservationsapp "rentdesk/internal/app/handlers/reservations"
	"rentdesk/internal/app/middleware"
	"rentdesk/internal/domain/booking"
	"rentdesk/internal/domain/properties"
	"rentdesk/internal/domain/reservations"
	"rentdesk/internal/domain/shared/daterange"
)

var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Error  string                   `json:"error"`
	Errors booking.ValidationErrors `json:"errors,omitempty"`
}

func statusFor(err error) int {
	var verrs booking.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		return http.StatusUnprocessableEntity
	case errors.Is(err, properties.ErrPropertyNotFound),
		errors.Is(err, reservations.ErrReservationNotFound):
		return http.StatusNotFound
	case errors.Is(err, reservations.ErrConcurrentUpdate),
		errors.Is(err, properties.ErrConcurrentUpdate),
		errors.Is(err, reservationsapp.ErrVersionMismatch),
		errors.Is(err, middleware.ErrIdempotencyKeyReuse):
		return http.StatusConflict
	case errors.Is(err, errBadRequest),
		errors.Is(err, middleware.ErrInvalidMessage),
		errors.Is(err, daterange.ErrInvalidDay),
		errors.Is(err, booking.ErrPropertyRequired):
		return http.StatusBadRequest
	case errors.Is(err, commands.ErrHandlerNotFound):
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

// respondError writes err with the status it maps to. Only server faults are logged at
// error level; the access log already records client mistakes.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status := statusFor(err)
	if logger != nil && status >= http.StatusInternalServerError {
		logger.ErrorContext(c.Request.Context(), "request failed", "status", status, "error", err, "path", c.FullPath())
	}
	_ = c.Error(err)

	body := errorResponse{Error: err.Error()}
	var verrs booking.ValidationErrors
	if errors.As(err, &verrs) {
		body.Error = "booking validation failed"
		body.Errors = verrs
	}
	if status == http.StatusInternalServerError {
		body.Error = "internal error"
	}
	c.JSON(status, body)
}
