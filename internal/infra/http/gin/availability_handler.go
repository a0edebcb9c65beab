package ginserver

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	"rentdesk/internal/app/dto"
	availabilityapp "rentdesk/internal/app/handlers/availability"
	"rentdesk/internal/app/queries"
	"rentdesk/internal/domain/shared/daterange"
)

type AvailabilityHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

// Calendar serves one month as seen by an optional in-progress selection
// (?type=&start=&end=&exclude=).
func (h AvailabilityHandler) Calendar(c *gin.Context) {
	month, err := parseMonth(c.Query("month"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	start, end, ok := h.selectionDays(c)
	if !ok {
		return
	}
	query := availabilityapp.MonthQuery{
		PropertyID:            c.Param("id"),
		Month:                 month,
		Type:                  rentalType(c.Query("type")),
		Start:                 start,
		End:                   end,
		ExcludedReservationID: c.Query("exclude"),
	}
	result, err := queries.Ask[availabilityapp.MonthQuery, dto.MonthCalendar](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AvailabilityHandler) Day(c *gin.Context) {
	day, err := daterange.ParseDay(c.Param("date"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	query := availabilityapp.DayQuery{PropertyID: c.Param("id"), Day: day, ExcludedReservationID: c.Query("exclude")}
	result, err := queries.Ask[availabilityapp.DayQuery, dto.DayDetail](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AvailabilityHandler) Feasibility(c *gin.Context) {
	raw := strings.TrimSpace(c.Query("at"))
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		respondError(c, h.Logger, fmt.Errorf("%w: at must be RFC3339, got %q", errBadRequest, raw))
		return
	}
	query := availabilityapp.FeasibilityQuery{PropertyID: c.Param("id"), At: at, ExcludedReservationID: c.Query("exclude")}
	result, err := queries.Ask[availabilityapp.FeasibilityQuery, dto.Feasibility](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AvailabilityHandler) Check(c *gin.Context) {
	day, err := daterange.ParseDay(c.Param("date"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	start, end, ok := h.selectionDays(c)
	if !ok {
		return
	}
	query := availabilityapp.CheckQuery{
		PropertyID:            c.Param("id"),
		Day:                   day,
		Type:                  rentalType(c.Query("type")),
		Start:                 start,
		End:                   end,
		ExcludedReservationID: c.Query("exclude"),
	}
	result, err := queries.Ask[availabilityapp.CheckQuery, dto.DateCheck](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AvailabilityHandler) selectionDays(c *gin.Context) (daterange.Day, daterange.Day, bool) {
	start, err := parseOptionalDay("start", c.Query("start"))
	if err != nil {
		respondError(c, h.Logger, err)
		return daterange.Day{}, daterange.Day{}, false
	}
	end, err := parseOptionalDay("end", c.Query("end"))
	if err != nil {
		respondError(c, h.Logger, err)
		return daterange.Day{}, daterange.Day{}, false
	}
	return start, end, true
}

var _ AvailabilityHTTP = AvailabilityHandler{}
