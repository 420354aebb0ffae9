// README: HTTP router registration (gin).
package http

import (
	_ "embed"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tripbot/internal/http/handlers"
	"tripbot/internal/http/middleware"
	"tripbot/internal/infra"
)

//go:embed web/index.html
var indexHTML []byte

type RouterDeps struct {
	Chat           *handlers.ChatHandler
	Bookings       *handlers.BookingHandler
	Flights        *handlers.FlightHandler
	Verifier       infra.TokenVerifier
	Logger         *zap.Logger
	AllowedOrigins []string
	RatePerSecond  float64
	RateBurst      int
}

func NewRouter(d RouterDeps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	r := gin.New()
	r.Use(middleware.Recovery(d.Logger), middleware.Logging(d.Logger))
	r.Use(cors.New(corsConfig(d.AllowedOrigins)))

	r.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
	})
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	api := r.Group("/api")
	if d.RatePerSecond > 0 {
		api.Use(middleware.NewRateLimiter(d.RatePerSecond, d.RateBurst).Middleware())
	}
	api.POST("/chat", d.Chat.Chat)
	api.POST("/quote", d.Chat.Quote)
	api.POST("/reset", d.Chat.Reset)
	api.GET("/session", d.Chat.Session)

	if d.Flights != nil {
		api.GET("/travel/search_flights", d.Flights.Search)
	}

	bookings := api.Group("/bookings")
	if d.Verifier != nil {
		bookings.Use(middleware.Auth(d.Verifier))
	}
	bookings.GET("", d.Bookings.List)
	bookings.GET("/:ref", d.Bookings.Get)
	bookings.POST("/:ref/cancel", d.Bookings.Cancel)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.SessionHeader},
		ExposeHeaders: []string{middleware.SessionHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
