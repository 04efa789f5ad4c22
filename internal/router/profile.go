package router

import "github.com/gin-gonic/gin"

func (r *Router) profileRoutes(api *gin.RouterGroup) {
	profile := api.Group("/profile")
	profile.Use(r.authMw.RequireAuth())
	{
		// Multipart form, may carry a new avatar
		profile.POST("/update", r.profileHandler.Update)

		profile.PUT("/update-password", r.profileHandler.UpdatePassword)
	}
}
