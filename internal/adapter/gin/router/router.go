package router

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"user-crud-service/internal/adapter/gin/handler"
	"user-crud-service/internal/adapter/gin/middleware"
	"user-crud-service/pkg/logger"
)

const swaggerSpecRoute = "/swagger.json"

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// Options toggles the optional parts of the router.
type Options struct {
	ServiceName    string
	MetricsEnabled bool
	TracingEnabled bool
	SwaggerPath    string                    // path to the OpenAPI document, empty disables /swagger
	Readiness      map[string]ReadinessCheck // keyed by dependency name
}

// SetupRouter configures and returns a Gin router with all routes and middleware.
// rateLimiter may be nil.
func SetupRouter(
	userHandler *handler.UserHandler,
	rateLimiter *middleware.RateLimiter,
	opts Options,
	log *zap.Logger,
) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Recovery(log))
	router.Use(logger.RequestID())
	if opts.TracingEnabled {
		router.Use(middleware.Tracing(opts.ServiceName))
	}
	router.Use(middleware.Logger(log))
	if opts.MetricsEnabled {
		router.Use(middleware.Metrics())
	}
	if rateLimiter != nil {
		router.Use(rateLimiter.Middleware())
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": opts.ServiceName,
		})
	})
	router.GET("/ready", readyHandler(opts.Readiness))

	if opts.MetricsEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	if opts.SwaggerPath != "" {
		if _, err := os.Stat(opts.SwaggerPath); err != nil {
			log.Warn("swagger document not found, /swagger disabled", zap.String("path", opts.SwaggerPath), zap.Error(err))
		} else {
			router.StaticFile(swaggerSpecRoute, opts.SwaggerPath)
			router.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL(swaggerSpecRoute))))
		}
	}

	registerUserRoutes(router.Group("/users"), userHandler)
	registerUserRoutes(router.Group("/v1/users"), userHandler)

	return router
}

func registerUserRoutes(users *gin.RouterGroup, h *handler.UserHandler) {
	users.GET("", h.GetAll)
	users.POST("", h.Create)
	users.GET("/:id", h.GetByID)
	users.PUT("/:id", h.Update)
	users.DELETE("/:id", h.Delete)
}

func readyHandler(checks map[string]ReadinessCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		failures := gin.H{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				failures[name] = err.Error()
			}
		}

		if len(failures) > 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not_ready",
				"checks": failures,
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}
