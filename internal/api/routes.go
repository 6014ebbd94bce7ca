package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Jonathon-AR/resollectAssignment/internal/config"
)

// SetupRoutes configures all API routes
func SetupRoutes(handlers *Handlers, cfg config.ServerConfig) *gin.Engine {
	router := gin.Default()

	// Add CORS middleware
	router.Use(corsMiddleware(cfg.AllowedOrigin))

	// Health check endpoint
	router.GET("/health", handlers.HealthHandler)

	tasks := router.Group(cfg.BasePath)
	{
		tasks.GET("/", handlers.ListTasksHandler)
		tasks.POST("/", handlers.CreateTaskHandler)
		tasks.GET("/:id/", handlers.GetTaskHandler)
		tasks.PATCH("/:id/", handlers.UpdateTaskHandler)
		tasks.DELETE("/:id/", handlers.DeleteTaskHandler)
		tasks.POST("/:id/complete/", handlers.CompleteTaskHandler)
	}

	return router
}

// corsMiddleware adds CORS headers
func corsMiddleware(allowedOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PATCH, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
