// README: HTTP router registration.
package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"benne/internal/config"
	"benne/internal/http/handlers"
	"benne/internal/http/middleware"
)

type RouterDeps struct {
	Catalog handlers.Catalog
	Quotes  handlers.QuoteService
	Orders  handlers.OrderService
	Metrics middleware.HTTPObserver
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
	Checks         map[string]handlers.Check
	RateLimit      config.RateLimitConfig
	CORS           config.CORSConfig
	Logger         *zap.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(deps.Logger), middleware.Logging(deps.Logger))
	if deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics))
	}
	r.Use(cors.New(corsConfig(deps.CORS)))

	health := handlers.NewHealthHandler(deps.Checks)
	r.GET("/health", health.Live)
	r.GET("/ready", health.Ready)
	if deps.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(deps.MetricsHandler))
	}

	api := r.Group("/api")

	catalog := handlers.NewCatalogHandler(deps.Catalog)
	api.GET("/catalog/services", catalog.Services)
	api.GET("/catalog/waste-types", catalog.WasteTypes)

	quotes := handlers.NewQuoteHandler(deps.Quotes)
	api.POST("/quotes", middleware.RateLimit(deps.RateLimit.RequestsPerMinute, deps.RateLimit.Burst, deps.Logger), quotes.Create)
	api.GET("/quotes/:id", quotes.Get)

	orders := handlers.NewOrderHandler(deps.Orders)
	api.POST("/orders", orders.Create)
	api.GET("/orders/:id", orders.Get)
	api.GET("/orders/:id/events", orders.History)
	api.POST("/orders/:id/status", orders.UpdateStatus)
	api.POST("/orders/:id/cancel", orders.Cancel)

	return r
}

func corsConfig(cfg config.CORSConfig) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.AllowedOrigins
	}
	return c
}
