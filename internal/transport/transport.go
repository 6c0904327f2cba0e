package transport

import (
	"net/http"

	"github.com/ds124wfegd/WB_L3/position/config"
	"github.com/ds124wfegd/WB_L3/position/internal/transport/middleware"
	"github.com/gin-gonic/gin"
)

func InitRoutes(imgHandler *ImageHandler, cfg *config.Config) *gin.Engine {
	router := gin.New()

	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		c.Header("Access-Control-Expose-Headers", "X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(gin.CustomRecovery(recovered))
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	api := router.Group("/api")
	api.Use(middleware.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	{
		api.POST("/origin", imgHandler.Origin)
		api.POST("/resize", imgHandler.Resize)
		api.POST("/transform", imgHandler.TransformJSON)
		api.GET("/positions", imgHandler.Positions)
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		status, events := "ok", "ok"
		// transforms keep working without the broker, so the service is only degraded
		if err := imgHandler.service.HealthCheck(); err != nil {
			status, events = "degraded", err.Error()
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  status,
			"service": "image-position-service",
			"version": cfg.Server.AppVersion,
			"events":  events,
		})
	})
	return router
}
