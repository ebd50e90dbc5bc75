package main

import (
	"github.com/gin-gonic/gin"
	"github.com/scholarpoint/scholarpoint/internal/middleware"
	"github.com/scholarpoint/scholarpoint/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Rate limiter for account creation and request submission
	writeLimiter := middleware.NewRateLimiter(5, 10)

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "scholarpoint"})
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", writeLimiter.Middleware(), svc.authHandler.Register)
			auth.POST("/login", svc.authHandler.Login)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		{
			// Auth
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)
			protected.POST("/auth/logout", svc.authHandler.Logout)

			// Projects
			protected.GET("/projects", svc.projectHandler.List)
			protected.GET("/projects/:id", svc.projectHandler.GetByID)
			protected.POST("/projects", svc.projectHandler.Create)
			protected.PUT("/projects/:id", svc.projectHandler.Update)
			protected.DELETE("/projects/:id", svc.projectHandler.Delete)

			// Collaboration workflow
			protected.POST("/projects/:id/collaboration-request", writeLimiter.Middleware(), svc.collabHandler.RequestCollaboration)
			protected.GET("/projects/:id/collaboration-requests", svc.collabHandler.ListProjectRequests)
			protected.POST("/collaboration-requests/:requestId/approve", svc.collabHandler.Approve)
			protected.POST("/collaboration-requests/:requestId/reject", svc.collabHandler.Reject)
			protected.GET("/my-collaboration-requests", svc.collabHandler.ListMyRequests)
			protected.GET("/my-projects/contributing", svc.collabHandler.ListContributing)
			protected.DELETE("/projects/:id/collaborators/:userId", svc.collabHandler.RemoveCollaborator)
		}
	}
}
