package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"staybook/internal/infra/config"
	"staybook/internal/infra/obs"
)

type BookingHTTP interface {
	Create(c *gin.Context)
	Confirm(c *gin.Context)
	Accept(c *gin.Context)
	Decline(c *gin.Context)
	Cancel(c *gin.Context)
	CheckIn(c *gin.Context)
	CheckOut(c *gin.Context)
	Get(c *gin.Context)
}

type AvailabilityHTTP interface {
	Calendar(c *gin.Context)
	AddBlock(c *gin.Context)
	RemoveBlock(c *gin.Context)
	SetPriceOverride(c *gin.Context)
	RemovePriceOverride(c *gin.Context)
}

type CalendarHTTP interface {
	Sync(c *gin.Context)
	Export(c *gin.Context)
}

type Handlers struct {
	Booking      BookingHTTP
	Availability AvailabilityHTTP
	Calendar     CalendarHTTP
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key", "X-User-ID"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Booking != nil {
		api.POST("/bookings", h.Booking.Create)
		api.GET("/bookings/:id", h.Booking.Get)
		api.POST("/bookings/:id/confirm", h.Booking.Confirm)
		api.POST("/bookings/:id/accept", h.Booking.Accept)
		api.POST("/bookings/:id/decline", h.Booking.Decline)
		api.POST("/bookings/:id/cancel", h.Booking.Cancel)
		api.POST("/bookings/:id/checkin", h.Booking.CheckIn)
		api.POST("/bookings/:id/checkout", h.Booking.CheckOut)
	}
	if h.Availability != nil {
		api.GET("/listings/:id/availability", h.Availability.Calendar)
		api.POST("/listings/:id/blocks", h.Availability.AddBlock)
		api.DELETE("/listings/:id/blocks/:blockId", h.Availability.RemoveBlock)
		api.PUT("/listings/:id/price-overrides", h.Availability.SetPriceOverride)
		api.DELETE("/listings/:id/price-overrides/:date", h.Availability.RemovePriceOverride)
	}
	if h.Calendar != nil {
		api.POST("/calendars/:id/sync", h.Calendar.Sync)
		api.GET("/calendar/listings/:id/export/:token", h.Calendar.Export)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
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
