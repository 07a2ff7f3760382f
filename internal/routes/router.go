package routes

import (
	"account-service/internal/config"
	"account-service/internal/delivery/http/handler"
	"account-service/internal/logger"
	"account-service/internal/middleware"
	"account-service/internal/usecase/account"
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const healthTimeout = 2 * time.Second

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

func SetupRoutes(cfg *config.Config, service *account.Service, health HealthChecker) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(&cfg.CORS))
	router.Use(middleware.RequestSizeLimitMiddleware(middleware.DefaultMaxRequestSize))

	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		if err := health.Health(ctx); err != nil {
			logger.Warn("Health check failed",
				zap.String("event", "health_check_failed"),
				zap.Error(err),
			)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"message": "Database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Service is running",
		})
	})

	accountHandler := handler.NewAccountHandler(service)

	public := router.Group("")
	accountHandler.RegisterRoutes(public)

	protected := router.Group("")
	protected.Use(middleware.AuthMiddleware(cfg))
	accountHandler.RegisterProtectedRoutes(protected)

	logger.Info("All routes initialized")
	return router
}
