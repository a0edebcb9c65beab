package ginserver

import (
	_ "embed"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"
)

//go:embed swagger/openapi.json
var openAPISpec []byte

//go:embed swagger/index.html
var docsPage string

// registerSwaggerRoutes serves the OpenAPI document and a Swagger UI page that loads it.
func registerSwaggerRoutes(router gin.IRoutes) {
	const specURL = "/docs/openapi.json"
	page := []byte(strings.NewReplacer("{{SPEC_URL}}", specURL, "{{TITLE}}", "rentdesk API").Replace(docsPage))

	router.GET(specURL, func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", openAPISpec)
	})
	router.GET("/docs", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", page)
	})
}
