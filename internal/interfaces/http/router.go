// Package http serves the case analysis operations over a gin router.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LexCase-Intelligence/internal/interfaces/http/handlers"
	"github.com/turtacn/LexCase-Intelligence/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and middleware of the route tree.
// Nil members are skipped.
type RouterConfig struct {
	CaseHandler   *handlers.CaseHandler
	HealthHandler *handlers.HealthHandler

	// MetricsHandler serves MetricsPath (default /metrics); RequestRecorder
	// observes every request.
	MetricsHandler  http.Handler
	MetricsPath     string
	RequestRecorder middleware.RequestRecorder

	CORS        *middleware.CORSConfig
	RateLimiter middleware.RateLimiter
	// Auth guards /api/v1 when set.
	Auth *middleware.AuthConfig

	Logger logging.Logger
}

// NewRouter builds the route tree.  Global middleware runs in the order
// request id, recovery, metrics, logging, CORS, rate limit; /api/v1 adds
// Auth when configured.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Recovery(logger))
	if cfg.RequestRecorder != nil {
		r.Use(middleware.Metrics(cfg.RequestRecorder))
	}
	r.Use(middleware.RequestLogging(logger, middleware.DefaultLoggingConfig()))
	if cfg.CORS != nil {
		r.Use(middleware.CORS(*cfg.CORS))
	}
	if cfg.RateLimiter != nil {
		r.Use(middleware.RateLimit(cfg.RateLimiter, middleware.DefaultRateLimitConfig()))
	}

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterRoutes(r)
	}
	if cfg.MetricsHandler != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(cfg.MetricsHandler))
	}

	api := r.Group("/api/v1")
	if cfg.Auth != nil {
		api.Use(middleware.Auth(*cfg.Auth, logger))
	}
	if cfg.CaseHandler != nil {
		cfg.CaseHandler.RegisterRoutes(api)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handlers.ErrorResponse{Error: "route not found", Code: "COMMON_005"})
	})
	return r
}

//Personal.AI order the ending
