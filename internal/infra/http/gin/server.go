package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"rentdesk/internal/infra/config"
	"rentdesk/internal/infra/obs"
)

type PropertyHTTP interface {
	List(c *gin.Context)
	Get(c *gin.Context)
}

type AvailabilityHTTP interface {
	Calendar(c *gin.Context)
	Day(c *gin.Context)
	Feasibility(c *gin.Context)
	Check(c *gin.Context)
}

type ReservationHTTP interface {
	List(c *gin.Context)
	Quote(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Cancel(c *gin.Context)
}

type Handlers struct {
	Properties   PropertyHTTP
	Availability AvailabilityHTTP
	Reservations ReservationHTTP
	RateLimit    gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter builds the gin engine without touching the global gin mode.
func NewRouter(obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.AccessLog())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Idempotency-Key", "X-Request-ID"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
			"Retry-After",
		},
		MaxAge: 12 * time.Hour,
	}))

	registerSwaggerRoutes(router)

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.RateLimit != nil {
		api.Use(h.RateLimit)
	}
	if h.Properties != nil {
		api.GET("/properties", h.Properties.List)
		api.GET("/properties/:id", h.Properties.Get)
	}
	if h.Availability != nil {
		api.GET("/properties/:id/calendar", h.Availability.Calendar)
		api.GET("/properties/:id/days/:date", h.Availability.Day)
		api.GET("/properties/:id/feasibility", h.Availability.Feasibility)
		api.GET("/properties/:id/availability/:date", h.Availability.Check)
	}
	if h.Reservations != nil {
		api.POST("/properties/:id/quote", h.Reservations.Quote)
		api.GET("/properties/:id/reservations", h.Reservations.List)
		api.POST("/properties/:id/reservations", h.Reservations.Create)
		api.PUT("/reservations/:id", h.Reservations.Update)
		api.DELETE("/reservations/:id", h.Reservations.Cancel)
	}
	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
