package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentdesk/internal/app/dto"
	propertiesapp "rentdesk/internal/app/handlers/properties"
	"rentdesk/internal/app/queries"
)

type PropertyHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h PropertyHandler) List(c *gin.Context) {
	result, err := queries.Ask[propertiesapp.ListQuery, dto.PropertyCollection](c.Request.Context(), h.Queries, propertiesapp.ListQuery{})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PropertyHandler) Get(c *gin.Context) {
	result, err := queries.Ask[propertiesapp.GetQuery, dto.Property](c.Request.Context(), h.Queries, propertiesapp.GetQuery{PropertyID: c.Param("id")})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ PropertyHTTP = PropertyHandler{}
