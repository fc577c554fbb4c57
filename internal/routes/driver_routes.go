package routes

import (
	"fleetsmart/internal/controllers"
	"fleetsmart/internal/middleware"

	"github.com/gin-gonic/gin"
)

func DriverRoutes(r *gin.Engine, dc *controllers.DriverController) {
	drivers := r.Group("/drivers")
	drivers.Use(middleware.RequireAuthWithRole("manager"))
	{
		drivers.POST("/", dc.Create)
		drivers.GET("/", dc.List)
		drivers.GET("/:id", dc.Get)
		drivers.GET("/:id/assignment", dc.ActiveAssignment)
		drivers.PUT("/:id", dc.Update)
		drivers.DELETE("/:id", dc.Delete)
	}
}
