package router

import "github.com/gin-gonic/gin"

func (r *Router) authRoutes(api *gin.RouterGroup) {
	auth := api.Group("/auth")
	{
		// Public routes
		auth.POST("/register", r.authHandler.Register)
		auth.POST("/login", r.authHandler.Login)

		// Routes behind the bearer token guard
		protected := auth.Group("")
		protected.Use(r.authMw.RequireAuth())
		{
			protected.POST("/logout", r.authHandler.Logout)
			protected.GET("/me", r.authHandler.Me)
		}
	}
}
