package routes

import (
	"fleetsmart/internal/controllers"
	"fleetsmart/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RouteRoutes(r *gin.Engine, rc *controllers.RouteController) {
	routes := r.Group("/routes")
	routes.Use(middleware.RequireAuthWithRole("manager"))
	{
		routes.POST("/", rc.Create)
		routes.GET("/", rc.List)
		routes.GET("/:id", rc.Get)
		routes.PUT("/:id", rc.Update)
		routes.DELETE("/:id", rc.Delete)
		routes.GET("/geocode", rc.Geocode)
	}
}
