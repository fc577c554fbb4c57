package routes

import (
	"fleetsmart/internal/controllers"
	"fleetsmart/internal/middleware"

	"github.com/gin-gonic/gin"
)

func VehicleRoutes(r *gin.Engine, vc *controllers.VehicleController) {
	vehicles := r.Group("/vehicles")
	vehicles.Use(middleware.RequireAuthWithRole("manager"))
	{
		vehicles.POST("/", vc.Create)
		vehicles.GET("/", vc.List)
		vehicles.GET("/:id", vc.Get)
		vehicles.PUT("/:id", vc.Update)
		vehicles.DELETE("/:id", vc.Delete)
	}
}
