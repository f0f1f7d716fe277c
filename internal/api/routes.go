package api

import (
	"github.com/gin-gonic/gin"
	"github.com/ludo-technologies/simeval/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes builds the router. JWT auth is enabled when a secret is
// configured, rate limiting when a positive rate is.
func SetupRoutes(cfg config.ServerConfig, handler *Handler, limiter *RateLimiter, gatherer prometheus.Gatherer) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger())
	router.Use(ErrorHandlerMiddleware())

	// Health and metrics (no auth)
	router.GET("/healthz", handler.Health)
	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/v1")
	v1.Use(BodyLimitMiddleware(cfg.MaxBodyBytes))
	if cfg.JWTSecret != "" {
		v1.Use(JWTAuthMiddleware(cfg.JWTSecret))
	}
	if limiter != nil {
		v1.Use(RateLimitMiddleware(limiter))
	}
	{
		v1.POST("/compare", handler.Compare)
		v1.POST("/evaluate", handler.Evaluate)
		v1.GET("/runs/:id", handler.GetRun)
	}

	return router
}
