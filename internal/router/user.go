package router

import "github.com/gin-gonic/gin"

func (r *Router) userRoutes(api *gin.RouterGroup) {
	users := api.Group("/users")
	users.Use(r.adminOnly()...)
	{
		users.GET("", r.userHandler.List)
		users.GET("/:id", r.userHandler.GetByID)

		// Multipart forms; update is POST so HTML forms can carry files
		users.POST("", r.userHandler.Create)
		users.POST("/:id", r.userHandler.Update)

		users.DELETE("/:id", r.userHandler.Delete)
	}
}
