package routes

import (
	"fleetsmart/internal/controllers"
	"fleetsmart/internal/middleware"

	"github.com/gin-gonic/gin"
)

func IncidentRoutes(r *gin.Engine, ic *controllers.IncidentController) {
	incidents := r.Group("/incidents")
	incidents.Use(middleware.RequireAuthWithRole("manager"))
	{
		incidents.POST("/", ic.Create)
		incidents.GET("/", ic.List)
		incidents.POST("/:id/advance", ic.Advance)
		incidents.PUT("/:id", ic.Update)
		incidents.DELETE("/:id", ic.Delete)
	}
}
