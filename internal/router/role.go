package router

import "github.com/gin-gonic/gin"

func (r *Router) roleRoutes(api *gin.RouterGroup) {
	roles := api.Group("/roles")
	roles.Use(r.adminOnly()...)
	{
		roles.GET("", r.roleHandler.List)
		roles.GET("/:id", r.roleHandler.GetByID)
		roles.POST("", r.roleHandler.Create)
		roles.PUT("/:id", r.roleHandler.Update)
		roles.DELETE("/:id", r.roleHandler.Delete)
	}
}
