package handler

import (
	"net/http"

	"fest-ticketing/internal/cache"
	"fest-ticketing/internal/middleware"
	"fest-ticketing/internal/service"

	"github.com/gin-gonic/gin"
)

type Services struct {
	Auth         service.AuthService
	Events       service.EventService
	Registration service.RegistrationService
	Stats        service.StatsService
}

// NewRouter 組裝所有路由；limiter 為 nil 時不限流
func NewRouter(services Services, limiter cache.RateLimiter) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	requireAuth := middleware.RequireAuth(services.Auth)
	requireAdmin := middleware.RequireAdmin()
	rateLimit := middleware.RateLimit(limiter)

	api := router.Group("/api")
	NewAuthHandler(services.Auth).RegisterRoutes(api, requireAuth)
	NewEventHandler(services.Events).RegisterRoutes(api, requireAuth, requireAdmin)
	NewRegistrationHandler(services.Registration).RegisterRoutes(api, requireAuth, requireAdmin, rateLimit)
	NewAdminHandler(services.Stats).RegisterRoutes(api, requireAuth, requireAdmin)

	return router
}
