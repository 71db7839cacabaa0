package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/recruitops-api/internal/config"
	"github.com/recruitops-api/internal/service"
)

// defaultImportRate applies when RATE_LIMIT_IMPORTS cannot be parsed
var defaultImportRate = limiter.Rate{Period: time.Minute, Limit: 10}

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	// Handlers
	sourceHandler := NewSourceHandler(services, log)
	importHandler := NewImportHandler(services, cfg, log)
	recordHandler := NewRecordHandler(services, log)
	exportHandler := NewExportHandler(services, log)

	// Health check
	router.GET("/health", healthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1
	v1 := router.Group("/v1")
	{
		v1.GET("/stats", recordHandler.Stats)

		sources := v1.Group("/sources")
		{
			sources.GET("", sourceHandler.ListSources)
			sources.PUT("", sourceHandler.SaveSource)
			sources.GET("/:spreadsheet_id", sourceHandler.GetSource)
		}
		v1.DELETE("/data", sourceHandler.ClearAll)

		// Import endpoints
		imports := v1.Group("/imports")
		{
			imports.POST("", importRateLimit(cfg.RateLimit, log), importHandler.CreateImport)
			imports.GET("", importHandler.ListRuns)
			imports.GET("/:run_id", importHandler.GetRun)
		}

		// Stored records
		for _, resource := range []string{"recruiters", "candidates", "clients", "performance"} {
			v1.GET("/"+resource, recordHandler.List(resource))
		}

		v1.GET("/exports", exportHandler.StreamExport)
	}

	return router
}

// healthCheck returns the health status
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "recruitops-api",
	})
}

// importRateLimit caps on-demand imports per client IP
func importRateLimit(cfg config.RateLimitConfig, log zerolog.Logger) gin.HandlerFunc {
	rate, err := limiter.NewRateFromFormatted(cfg.Imports)
	if err != nil {
		log.Warn().Err(err).Str("rate", cfg.Imports).Msg("Invalid import rate limit, using default")
		rate = defaultImportRate
	}

	return mgin.NewMiddleware(
		limiter.New(memory.NewStore(), rate),
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many import requests, try again later"})
		}),
	)
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Msg("Panic recovered")
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// contextWithTimeout creates a context with timeout for handlers. A zero timeout
// keeps the request context as is.
func contextWithTimeout(c *gin.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), timeout)
}
